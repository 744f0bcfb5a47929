package memory

import (
	"testing"

	"github.com/sirupsen/logrus"
	"timed-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore(logrus.New())

	runner := store.GetOrCreate("session-1")
	if runner == nil {
		t.Fatalf("expected runner")
	}
	if again := store.GetOrCreate("session-1"); again != runner {
		t.Fatalf("expected the same runner for the same session id")
	}
	if _, ok := store.Get("session-1"); !ok {
		t.Fatalf("expected session present")
	}

	store.DeleteIfIdle("session-1")
	if _, ok := store.Get("session-1"); ok {
		t.Fatalf("expected session removed when idle")
	}
	if err := runner.Dispatch(domain.Command{Type: domain.CommandRestart}); err != domain.ErrSessionClosed {
		t.Fatalf("expected closed runner, got %v", err)
	}
}

func TestSessionStoreKeepsWatchedSessions(t *testing.T) {
	store := NewSessionStore(logrus.New())
	runner := store.GetOrCreate("session-1")
	defer runner.Close()

	_, cancel := runner.Subscribe()
	defer cancel()

	store.DeleteIfIdle("session-1")
	if store.Len() != 1 {
		t.Fatalf("expected watched session to stay, have %d", store.Len())
	}
}
