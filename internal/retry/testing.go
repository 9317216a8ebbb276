package retry

import (
	"sync"
	"time"
)

// ManualTimers is an AfterFunc whose timers only fire when told to.
// It is meant for tests that need deterministic retries.
type ManualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// AfterFunc records a timer. Pass it to WithAfterFunc.
func (m *ManualTimers) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{delay: d, f: f}
	m.timers = append(m.timers, t)
	return stopper{m: m, t: t}
}

// stopper guards Stop with the ManualTimers lock.
type stopper struct {
	m *ManualTimers
	t *manualTimer
}

func (s stopper) Stop() bool {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.t.Stop()
}

// Pending returns the delays of timers that have neither fired nor been
// stopped, in the order they were started.
func (m *ManualTimers) Pending() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Duration
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			out = append(out, t.delay)
		}
	}
	return out
}

// Started returns the delays of every timer ever started.
func (m *ManualTimers) Started() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, 0, len(m.timers))
	for _, t := range m.timers {
		out = append(out, t.delay)
	}
	return out
}

// FireNext runs the oldest pending timer on the calling goroutine. It
// reports false when nothing is pending.
func (m *ManualTimers) FireNext() bool {
	m.mu.Lock()
	var next *manualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	m.mu.Unlock()

	if next == nil {
		return false
	}
	next.f()
	return true
}

// FireStopped runs a stopped timer's callback anyway, simulating a timer
// that fired just before Stop was called. It reports false when no stopped
// timer exists.
func (m *ManualTimers) FireStopped() bool {
	m.mu.Lock()
	var next *manualTimer
	for _, t := range m.timers {
		if t.stopped && !t.fired {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	m.mu.Unlock()

	if next == nil {
		return false
	}
	next.f()
	return true
}
