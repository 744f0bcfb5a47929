package app

import (
	"sort"
	"time"
)

// Handle is an owned, cancelable scheduled callback. Stop is idempotent.
type Handle interface {
	Stop()
}

// Scheduler arms deferred callbacks that run on the same logical thread as
// the controller's commands.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Handle
	Every(d time.Duration, fn func()) Handle
}

// loopScheduler fires real timers by posting their callbacks onto a Runner's
// loop. The stopped flag is only touched on the loop goroutine, so a callback
// already queued when its handle is stopped is dropped.
type loopScheduler struct {
	post func(fn func()) bool
	done <-chan struct{}
}

type loopHandle struct {
	stopped bool
	stop    func()
}

func (h *loopHandle) Stop() {
	if h.stopped {
		return
	}
	h.stopped = true
	if h.stop != nil {
		h.stop()
	}
}

func (s *loopScheduler) AfterFunc(d time.Duration, fn func()) Handle {
	h := &loopHandle{}
	t := time.AfterFunc(d, func() {
		s.post(func() {
			if h.stopped {
				return
			}
			h.stopped = true
			fn()
		})
	})
	h.stop = func() { t.Stop() }
	return h
}

func (s *loopScheduler) Every(d time.Duration, fn func()) Handle {
	h := &loopHandle{}
	ticker := time.NewTicker(d)
	quit := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.post(func() {
					if !h.stopped {
						fn()
					}
				})
			case <-quit:
				return
			case <-s.done:
				ticker.Stop()
				return
			}
		}
	}()
	h.stop = func() {
		ticker.Stop()
		close(quit)
	}
	return h
}

// ManualScheduler is a virtual clock for deterministic tests. Callbacks fire
// synchronously inside Advance, in due order, ties broken by arming order.
type ManualScheduler struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	due     time.Duration
	period  time.Duration
	seq     int
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() {
	t.stopped = true
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (m *ManualScheduler) AfterFunc(d time.Duration, fn func()) Handle {
	return m.add(d, 0, fn)
}

func (m *ManualScheduler) Every(d time.Duration, fn func()) Handle {
	return m.add(d, d, fn)
}

func (m *ManualScheduler) add(d, period time.Duration, fn func()) *manualTimer {
	m.seq++
	t := &manualTimer{due: m.now + d, period: period, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d, firing everything that comes due.
func (m *ManualScheduler) Advance(d time.Duration) {
	target := m.now + d
	for {
		m.compact()
		if len(m.timers) == 0 || m.timers[0].due > target {
			break
		}
		t := m.timers[0]
		m.now = t.due
		if t.period > 0 {
			t.due += t.period
		} else {
			t.stopped = true
		}
		t.fn()
	}
	m.now = target
}

// Now is the virtual time elapsed since the scheduler was created.
func (m *ManualScheduler) Now() time.Duration {
	return m.now
}

// Pending counts armed, unstopped callbacks.
func (m *ManualScheduler) Pending() int {
	m.compact()
	return len(m.timers)
}

func (m *ManualScheduler) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(m.timers); i++ {
		m.timers[i] = nil
	}
	m.timers = live
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].due != m.timers[j].due {
			return m.timers[i].due < m.timers[j].due
		}
		return m.timers[i].seq < m.timers[j].seq
	})
}
