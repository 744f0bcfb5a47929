package app

import (
	"context"

	"github.com/sirupsen/logrus"
	"timed-quiz-service/internal/domain"
)

// SessionRepository abstracts where live session runners are kept (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(sessionID string) *Runner
	Get(sessionID string) (*Runner, bool)
	DeleteIfIdle(sessionID string)
}

// QuestionRepository loads question sets (from cache/backing store).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// QuizService wires presentation sessions to their controllers.
type QuizService struct {
	sessions  SessionRepository
	questions QuestionRepository
	setID     string
	log       logrus.FieldLogger
}

func NewQuizService(store SessionRepository, questions QuestionRepository, setID string, log logrus.FieldLogger) *QuizService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &QuizService{sessions: store, questions: questions, setID: setID, log: log}
}

// Open returns the runner for a session, loading its question set on first
// use. A load failure is also reported to the session's subscribers and
// leaves the runner Idle.
func (s *QuizService) Open(ctx context.Context, sessionID string) (*Runner, error) {
	runner := s.sessions.GetOrCreate(sessionID)
	if err := runner.Load(ctx, s.source()); err != nil {
		s.log.WithFields(logrus.Fields{"session": sessionID, "set": s.setID}).WithError(err).Warn("open session")
		return runner, err
	}
	return runner, nil
}

// Dispatch forwards a presentation command to the session.
func (s *QuizService) Dispatch(_ context.Context, sessionID string, cmd domain.Command) error {
	runner, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return runner.Dispatch(cmd)
}

// Snapshot returns the current projection of a session.
func (s *QuizService) Snapshot(_ context.Context, sessionID string) (domain.Snapshot, error) {
	runner, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return runner.Snapshot()
}

// Subscribe returns a channel that receives session events.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.Event, func(), error) {
	runner, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := runner.Subscribe()
	return ch, cancel, nil
}

// Leave drops the session once nobody is subscribed to it.
func (s *QuizService) Leave(_ context.Context, sessionID string) {
	runner, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	if runner.IsIdle() {
		s.sessions.DeleteIfIdle(sessionID)
	}
}

func (s *QuizService) source() domain.QuestionSource {
	return domain.QuestionSourceFunc(func(ctx context.Context) ([]domain.Question, error) {
		set, err := s.questions.GetQuestionSet(ctx, s.setID)
		if err != nil {
			return nil, err
		}
		return set.Questions, nil
	})
}
