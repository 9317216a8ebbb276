// Package retry schedules delayed re-attempts of failed review reads with
// linear backoff and a bounded attempt count.
package retry

import (
	"sync"
	"time"
)

// Defaults for the review list retry policy: 5s, 10s, 15s, then stop.
const (
	DefaultBase = 5 * time.Second
	DefaultMax  = 3
)

// Timer is the part of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc starts a timer that calls f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Scheduler runs actions after base*n for attempt n, up to max attempts.
type Scheduler struct {
	base      time.Duration
	max       int
	afterFunc AfterFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithAfterFunc replaces the timer primitive.
func WithAfterFunc(f AfterFunc) Option {
	return func(s *Scheduler) { s.afterFunc = f }
}

// New creates a scheduler. Non-positive base uses DefaultBase; negative max
// uses DefaultMax. A max of zero disables automatic retries.
func New(base time.Duration, max int, opts ...Option) *Scheduler {
	if base <= 0 {
		base = DefaultBase
	}
	if max < 0 {
		max = DefaultMax
	}
	s := &Scheduler{base: base, max: max, afterFunc: realAfterFunc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Max returns the attempt cap.
func (s *Scheduler) Max() int { return s.max }

// Delay returns the wait before attempt n (1-based).
func (s *Scheduler) Delay(attempt int) time.Duration {
	return s.base * time.Duration(attempt)
}

// Schedule arranges for action to run after Delay(attempt). ok is false,
// and nothing is scheduled, when attempt is outside 1..Max. Once cancel
// returns the action will not start.
func (s *Scheduler) Schedule(attempt int, action func()) (cancel func(), ok bool) {
	if attempt < 1 || attempt > s.max {
		return func() {}, false
	}

	h := &handle{}
	h.mu.Lock()
	h.timer = s.afterFunc(s.Delay(attempt), func() {
		h.mu.Lock()
		if h.cancelled {
			h.mu.Unlock()
			return
		}
		h.cancelled = true
		h.mu.Unlock()
		action()
	})
	h.mu.Unlock()

	return h.cancel, true
}

type handle struct {
	mu        sync.Mutex
	cancelled bool
	timer     Timer
}

func (h *handle) cancel() {
	h.mu.Lock()
	h.cancelled = true
	t := h.timer
	h.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}
