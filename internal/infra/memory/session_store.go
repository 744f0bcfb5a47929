package memory

import (
	"sync"

	"github.com/sirupsen/logrus"
	"timed-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	log      logrus.FieldLogger
	mu       sync.RWMutex
	sessions map[string]*app.Runner
}

func NewSessionStore(log logrus.FieldLogger) *SessionStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SessionStore{
		log:      log,
		sessions: make(map[string]*app.Runner),
	}
}

func (s *SessionStore) GetOrCreate(sessionID string) *app.Runner {
	s.mu.Lock()
	defer s.mu.Unlock()
	if runner, ok := s.sessions[sessionID]; ok {
		return runner
	}
	runner := app.NewRunner(sessionID, s.log)
	s.sessions[sessionID] = runner
	return runner
}

func (s *SessionStore) Get(sessionID string) (*app.Runner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runner, ok := s.sessions[sessionID]
	return runner, ok
}

// DeleteIfIdle closes and forgets a session nobody is watching.
func (s *SessionStore) DeleteIfIdle(sessionID string) {
	s.mu.Lock()
	runner, ok := s.sessions[sessionID]
	if !ok || !runner.IsIdle() {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	runner.Close()
}

// Len reports how many sessions are live.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
