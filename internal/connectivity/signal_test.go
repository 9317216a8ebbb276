package connectivity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalInitialState(t *testing.T) {
	assert.True(t, NewSignal(true).IsOnline())
	assert.False(t, NewSignal(false).IsOnline())
}

func TestSignalOneEventPerTransition(t *testing.T) {
	s := NewSignal(true)
	var got []bool
	s.OnChange(func(online bool) { got = append(got, online) })

	assert.False(t, s.Set(true), "no change")
	assert.True(t, s.Set(false))
	assert.False(t, s.Set(false), "repeat offline")
	assert.True(t, s.Set(true))

	assert.Equal(t, []bool{false, true}, got)
	assert.True(t, s.IsOnline())
}

func TestSignalListenersInRegistrationOrder(t *testing.T) {
	s := NewSignal(true)
	var order []string
	s.OnChange(func(bool) { order = append(order, "a") })
	s.OnChange(func(bool) { order = append(order, "b") })
	s.OnChange(func(bool) { order = append(order, "c") })

	s.Set(false)

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSignalUnsubscribe(t *testing.T) {
	s := NewSignal(true)
	var a, b int
	unsubA := s.OnChange(func(bool) { a++ })
	s.OnChange(func(bool) { b++ })

	unsubA()
	unsubA()
	s.Set(false)

	assert.Zero(t, a)
	assert.Equal(t, 1, b)
}

func TestSignalListenerMayReadStateAndUnsubscribe(t *testing.T) {
	s := NewSignal(true)
	var seen bool
	var unsub func()
	unsub = s.OnChange(func(bool) {
		seen = s.IsOnline()
		unsub()
	})

	s.Set(false)
	s.Set(true)

	assert.False(t, seen, "listener should observe the new state once")
}

func TestSignalConcurrentSet(t *testing.T) {
	s := NewSignal(true)
	var mu sync.Mutex
	var events []bool
	s.OnChange(func(online bool) {
		mu.Lock()
		events = append(events, online)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Set(i%2 == 0)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(events); i++ {
		assert.NotEqual(t, events[i-1], events[i], "consecutive events must alternate")
	}
	if len(events) > 0 {
		assert.Equal(t, events[len(events)-1], s.IsOnline())
	}
}
