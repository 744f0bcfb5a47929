package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

func newLoadedRunner(t *testing.T) *app.Runner {
	t.Helper()
	runner := app.NewRunner("session-1", logrus.New())
	t.Cleanup(runner.Close)
	require.NoError(t, runner.Load(context.Background(), domain.StaticSource(sampleQuestions())))
	return runner
}

func TestRunnerConcurrentSelectsResolveOnce(t *testing.T) {
	runner := newLoadedRunner(t)
	require.NoError(t, runner.Dispatch(domain.Command{Type: domain.CommandStart}))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = runner.Dispatch(domain.Command{Type: domain.CommandSelect, Index: i % 3})
		}(i)
	}
	wg.Wait()

	var answers []domain.AnswerRecord
	require.NoError(t, runner.Inspect(func(c *app.Controller) { answers = c.Answers() }))
	require.Len(t, answers, 1)
}

func TestRunnerSubscribeReceivesUpdates(t *testing.T) {
	runner := newLoadedRunner(t)

	ch, cancel := runner.Subscribe()
	defer cancel()

	initial := <-ch
	require.Equal(t, domain.PhaseIdle, initial.Snapshot.Phase)
	require.Equal(t, 4, initial.Snapshot.Total)

	require.NoError(t, runner.Dispatch(domain.Command{Type: domain.CommandStart}))
	ev := <-ch
	require.Equal(t, domain.EventState, ev.Type)
	require.Equal(t, domain.PhaseInProgress, ev.Snapshot.Phase)
	require.Equal(t, app.QuestionSeconds, ev.Snapshot.Countdown.Remaining)
}

func TestRunnerCountdownAndAutoAdvanceUseRealTimers(t *testing.T) {
	runner := newLoadedRunner(t)
	require.NoError(t, runner.Dispatch(domain.Command{Type: domain.CommandStart}))

	require.Eventually(t, func() bool {
		snap, err := runner.Snapshot()
		return err == nil && snap.Countdown != nil && snap.Countdown.Remaining < app.QuestionSeconds
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, runner.Dispatch(domain.Command{Type: domain.CommandSelect, Index: 1}))
	require.Eventually(t, func() bool {
		snap, err := runner.Snapshot()
		return err == nil && snap.Question != nil && snap.Question.Number == 2
	}, 4*time.Second, 20*time.Millisecond)
}

func TestRunnerStartWithoutQuestionsPublishesError(t *testing.T) {
	runner := app.NewRunner("empty", logrus.New())
	defer runner.Close()
	require.NoError(t, runner.Load(context.Background(), domain.StaticSource(nil)))

	ch, cancel := runner.Subscribe()
	defer cancel()
	<-ch

	require.ErrorIs(t, runner.Dispatch(domain.Command{Type: domain.CommandStart}), domain.ErrNoQuestions)
	ev := <-ch
	require.Equal(t, domain.EventError, ev.Type)
	require.Equal(t, domain.PhaseIdle, ev.Snapshot.Phase)
}

func TestRunnerLoadsOnce(t *testing.T) {
	runner := app.NewRunner("once", logrus.New())
	defer runner.Close()

	calls := 0
	src := domain.QuestionSourceFunc(func(context.Context) ([]domain.Question, error) {
		calls++
		return sampleQuestions(), nil
	})
	require.NoError(t, runner.Load(context.Background(), src))
	require.NoError(t, runner.Load(context.Background(), src))
	require.Equal(t, 1, calls)
}

func TestRunnerCloseEndsSubscriptions(t *testing.T) {
	runner := newLoadedRunner(t)
	require.NoError(t, runner.Dispatch(domain.Command{Type: domain.CommandStart}))

	ch, _ := runner.Subscribe()
	<-ch
	runner.Close()

	for range ch {
	}
	require.ErrorIs(t, runner.Dispatch(domain.Command{Type: domain.CommandRestart}), domain.ErrSessionClosed)
	require.True(t, runner.IsIdle())
}
