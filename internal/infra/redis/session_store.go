package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"timed-quiz-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Runners live in process (their timers cannot move between instances);
// Redis only carries a liveness marker per session so operators can see
// which display sessions are open.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	log      logrus.FieldLogger
	mu       sync.RWMutex
	sessions map[string]*app.Runner
}

func NewSessionStore(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *SessionStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		log:      log,
		sessions: make(map[string]*app.Runner),
	}
}

func (s *SessionStore) GetOrCreate(sessionID string) *app.Runner {
	s.mu.Lock()
	defer s.mu.Unlock()
	if runner, ok := s.sessions[sessionID]; ok {
		s.touch(sessionID)
		return runner
	}
	runner := app.NewRunner(sessionID, s.log)
	s.sessions[sessionID] = runner
	s.touch(sessionID)
	return runner
}

func (s *SessionStore) Get(sessionID string) (*app.Runner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runner, ok := s.sessions[sessionID]
	return runner, ok
}

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
	if err := s.client.Del(context.Background(), s.key(sessionID)).Err(); err != nil {
		s.log.WithError(err).WithField("session", sessionID).Warn("clear session marker")
	}
}

// best-effort liveness marker
func (s *SessionStore) touch(sessionID string) {
	if err := s.client.Set(context.Background(), s.key(sessionID), "1", s.ttl).Err(); err != nil {
		s.log.WithError(err).WithField("session", sessionID).Warn("set session marker")
	}
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
