package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evcraddock/reelreviews/internal/connectivity"
	"github.com/evcraddock/reelreviews/internal/retry"
	"github.com/evcraddock/reelreviews/internal/review"
)

var t0 = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

// fakeRemote is an in-memory review store. listFn and insertFn override
// the default behavior when set.
type fakeRemote struct {
	mu          sync.Mutex
	store       map[string][]review.Review
	listCalls   int
	insertCalls int
	nextID      int
	clock       time.Time

	listFn   func(ctx context.Context, itemID string, call int) ([]review.Review, error)
	insertFn func(ctx context.Context, d review.Draft, call int) (review.Review, error)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{store: make(map[string][]review.Review), clock: t0.Add(2 * time.Hour)}
}

func (f *fakeRemote) seed(itemID string, reviews ...review.Review) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[itemID] = append(f.store[itemID], reviews...)
}

func (f *fakeRemote) List(ctx context.Context, itemID string) ([]review.Review, error) {
	f.mu.Lock()
	f.listCalls++
	call := f.listCalls
	fn := f.listFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, itemID, call)
	}
	return f.stored(itemID), nil
}

func (f *fakeRemote) stored(itemID string) []review.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := review.Clone(f.store[itemID])
	review.SortNewestFirst(out)
	if out == nil {
		out = []review.Review{}
	}
	return out
}

func (f *fakeRemote) Insert(ctx context.Context, d review.Draft) (review.Review, error) {
	f.mu.Lock()
	f.insertCalls++
	call := f.insertCalls
	fn := f.insertFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, d, call)
	}
	return f.accept(d), nil
}

// accept stores d the way the review server would.
func (f *fakeRemote) accept(d review.Draft) review.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.clock = f.clock.Add(time.Second)
	r := review.Review{
		ID:        fmt.Sprintf("srv-%d", f.nextID),
		ItemID:    d.ItemID,
		Rating:    d.Rating,
		Comment:   d.Comment,
		Author:    d.Author,
		CreatedAt: f.clock,
	}
	f.store[d.ItemID] = append(f.store[d.ItemID], r)
	return r
}

func (f *fakeRemote) calls() (list, insert int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.insertCalls
}

// memCache is a Cache that records writes.
type memCache struct {
	mu     sync.Mutex
	data   map[string][]review.Review
	writes int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]review.Review)}
}

func (c *memCache) Read(itemID string) ([]review.Review, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.data[itemID]
	return review.Clone(r), ok
}

func (c *memCache) Write(itemID string, reviews []review.Review) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	c.data[itemID] = review.Clone(reviews)
}

func (c *memCache) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func (c *memCache) get(t *testing.T, itemID string) []review.Review {
	t.Helper()
	r, ok := c.Read(itemID)
	require.True(t, ok, "expected cache entry for %s", itemID)
	return r
}

type harness struct {
	remote *fakeRemote
	cache  *memCache
	signal *connectivity.Signal
	timers *retry.ManualTimers
	engine *Engine

	mu     sync.Mutex
	events []Event
	states []State
}

func newHarness(t *testing.T, online bool) *harness {
	t.Helper()
	h := &harness{
		remote: newFakeRemote(),
		cache:  newMemCache(),
		signal: connectivity.NewSignal(online),
		timers: &retry.ManualTimers{},
	}

	ids := 0
	clock := t0.Add(time.Hour)
	var idMu sync.Mutex
	h.engine = New(h.remote, h.cache, h.signal,
		retry.New(retry.DefaultBase, retry.DefaultMax, retry.WithAfterFunc(h.timers.AfterFunc)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(func() string {
			idMu.Lock()
			defer idMu.Unlock()
			ids++
			return fmt.Sprintf("local-%d", ids)
		}),
		WithClock(func() time.Time {
			idMu.Lock()
			defer idMu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		}),
	)
	h.engine.OnEvent(func(ev Event) {
		h.mu.Lock()
		h.events = append(h.events, ev)
		h.mu.Unlock()
	})
	h.engine.Subscribe(func(s State) {
		h.mu.Lock()
		h.states = append(h.states, s)
		h.mu.Unlock()
	})
	t.Cleanup(h.engine.Close)
	return h
}

func (h *harness) wait(t *testing.T) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := h.engine.Wait(ctx)
	require.NoError(t, err)
	return st
}

func (h *harness) eventKinds() []EventKind {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]EventKind, 0, len(h.events))
	for _, ev := range h.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (h *harness) lastEvent(t *testing.T) Event {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	require.NotEmpty(t, h.events)
	return h.events[len(h.events)-1]
}

func rev(id, itemID string, minutes int) review.Review {
	return review.Review{
		ID:        id,
		ItemID:    itemID,
		Rating:    3,
		Comment:   "comment " + id,
		Author:    "author",
		CreatedAt: t0.Add(time.Duration(minutes) * time.Minute),
	}
}

func reviewIDs(reviews []review.Review) []string {
	out := make([]string, len(reviews))
	for i, r := range reviews {
		out[i] = r.ID
	}
	return out
}

func draft(comment string) review.Draft {
	return review.Draft{Rating: 4, Comment: comment, Author: "ana"}
}
