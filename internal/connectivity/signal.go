// Package connectivity tracks whether the review store is reachable.
package connectivity

import (
	"sync"

	"github.com/evcraddock/reelreviews/internal/metrics"
)

// Signal is a settable online/offline flag with change listeners. Repeated
// identical values are ignored, so listeners see exactly one call per real
// transition.
type Signal struct {
	// emitMu serializes Set so listeners observe transitions in order.
	emitMu sync.Mutex

	mu        sync.Mutex
	online    bool
	nextID    int
	listeners []listener
}

type listener struct {
	id int
	fn func(online bool)
}

// NewSignal creates a signal with the given initial state.
func NewSignal(online bool) *Signal {
	return &Signal{online: online}
}

// IsOnline returns the current state.
func (s *Signal) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Set updates the state and notifies listeners in registration order if it
// changed. Listeners run on the caller's goroutine and must not call Set.
func (s *Signal) Set(online bool) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return false
	}
	s.online = online
	fns := make([]func(bool), 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l.fn)
	}
	s.mu.Unlock()

	metrics.ConnectivityChanges.WithLabelValues(stateLabel(online)).Inc()
	for _, fn := range fns {
		fn(online)
	}
	return true
}

// OnChange registers fn for future transitions. The returned function
// removes it and is safe to call more than once.
func (s *Signal) OnChange(fn func(online bool)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func stateLabel(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}
