package app

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"timed-quiz-service/internal/domain"
)

// Runner gives a Controller its single logical thread: commands, countdown
// ticks and auto-advance callbacks all execute on one loop goroutine.
type Runner struct {
	id        string
	createdAt time.Time
	ctrl      *Controller
	log       logrus.FieldLogger

	cmds      chan func()
	done      chan struct{}
	closeOnce sync.Once

	loadOnce sync.Once
	loadErr  error

	mu          sync.RWMutex
	latest      domain.Snapshot
	subscribers map[chan domain.Event]struct{}
}

// NewRunner starts a session loop backed by real timers.
func NewRunner(id string, log logrus.FieldLogger) *Runner {
	return newRunnerWithClock(id, log, time.Now)
}

func newRunnerWithClock(id string, log logrus.FieldLogger, now func() time.Time) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Runner{
		id:          id,
		createdAt:   now(),
		log:         log.WithField("session", id),
		cmds:        make(chan func()),
		done:        make(chan struct{}),
		latest:      domain.Snapshot{Phase: domain.PhaseIdle},
		subscribers: make(map[chan domain.Event]struct{}),
	}
	sched := &loopScheduler{post: r.post, done: r.done}
	r.ctrl = NewController(sched, r, r.log)
	go r.loop()
	return r
}

func (r *Runner) ID() string { return r.id }

func (r *Runner) CreatedAt() time.Time { return r.createdAt }

func (r *Runner) loop() {
	for {
		select {
		case fn := <-r.cmds:
			fn()
		case <-r.done:
			return
		}
	}
}

func (r *Runner) post(fn func()) bool {
	select {
	case r.cmds <- fn:
		return true
	case <-r.done:
		return false
	}
}

// do runs fn on the loop and waits for it to finish.
func (r *Runner) do(fn func()) error {
	finished := make(chan struct{})
	if !r.post(func() {
		defer close(finished)
		fn()
	}) {
		return domain.ErrSessionClosed
	}
	select {
	case <-finished:
		return nil
	case <-r.done:
		return domain.ErrSessionClosed
	}
}

// Load reads the question source once; later calls return the first result.
// The read itself happens off the loop, only its outcome is applied on it.
func (r *Runner) Load(ctx context.Context, src domain.QuestionSource) error {
	r.loadOnce.Do(func() {
		questions, err := src.Questions(ctx)
		if doErr := r.do(func() { r.loadErr = r.ctrl.Loaded(questions, err) }); doErr != nil {
			r.loadErr = doErr
		}
	})
	return r.loadErr
}

// Dispatch applies a presentation command on the loop.
func (r *Runner) Dispatch(cmd domain.Command) error {
	var err error
	if doErr := r.do(func() { err = r.ctrl.HandleCommand(cmd) }); doErr != nil {
		return doErr
	}
	return err
}

// Snapshot reads the controller state on the loop.
func (r *Runner) Snapshot() (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := r.do(func() { snap = r.ctrl.Snapshot() })
	return snap, err
}

// Inspect runs fn against the controller on the loop.
func (r *Runner) Inspect(fn func(c *Controller)) error {
	return r.do(func() { fn(r.ctrl) })
}

// Publish implements Notifier; it is only called from the loop goroutine.
func (r *Runner) Publish(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = ev.Snapshot
	r.broadcastLocked(ev)
}

// Subscribe returns a channel of session events, primed with the latest
// snapshot. The caller must invoke cancel to avoid leaks.
func (r *Runner) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}
	r.subscribers[ch] = struct{}{}
	ch <- domain.Event{Type: domain.EventState, Snapshot: r.latest}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

// IsIdle reports whether nobody is watching the session.
func (r *Runner) IsIdle() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers) == 0
}

// Close cancels pending timers, stops the loop and closes all subscriptions.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		_ = r.do(r.ctrl.Shutdown)
		r.mu.Lock()
		close(r.done)
		for ch := range r.subscribers {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
		r.log.Debug("session closed")
	})
}

func (r *Runner) broadcastLocked(ev domain.Event) {
	for ch := range r.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow consumer: drop its oldest event so the loop never blocks.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
