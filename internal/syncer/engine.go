package syncer

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/reelreviews/internal/errs"
	"github.com/evcraddock/reelreviews/internal/metrics"
	"github.com/evcraddock/reelreviews/internal/review"
)

// ErrClosed is returned by operations on a closed engine.
var ErrClosed = errors.New("sync engine closed")

// Remote is the remote review store.
type Remote interface {
	List(ctx context.Context, itemID string) ([]review.Review, error)
	Insert(ctx context.Context, d review.Draft) (review.Review, error)
}

// Cache is the local review cache. It never fails.
type Cache interface {
	Read(itemID string) ([]review.Review, bool)
	Write(itemID string, reviews []review.Review)
}

// Monitor reports connectivity.
type Monitor interface {
	IsOnline() bool
	OnChange(fn func(online bool)) (unsubscribe func())
}

// Scheduler runs delayed retries.
type Scheduler interface {
	Schedule(attempt int, action func()) (cancel func(), ok bool)
	Max() int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the clock used to stamp optimistic reviews.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator sets the id source for optimistic reviews.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// Engine serves one view's reviews for one item at a time. Requesting a
// different item tears down the previous one. Several engines may share a
// cache, monitor, and scheduler.
type Engine struct {
	remote    Remote
	cache     Cache
	monitor   Monitor
	scheduler Scheduler
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	closed     bool
	active     bool
	activation uint64
	st         State

	// epoch tags each list call; only the latest one may change state.
	epoch       uint64
	itemCtx     context.Context
	itemCancel  context.CancelFunc
	fetchCancel context.CancelFunc

	// confirmed holds inserts reconciled at a given epoch. A list started
	// at or before that epoch may predate the insert.
	confirmed []confirmation

	retryGen    uint64
	cancelRetry func()
	unsubscribe func()

	inflight int
	idle     chan struct{}

	nextSub  int
	subs     map[int]func(State)
	handlers map[int]func(Event)
	outbox   []note
	flushing bool
}

type confirmation struct {
	review review.Review
	epoch  uint64
}

type note struct {
	state *State
	event *Event
}

// New creates an engine.
func New(remote Remote, cache Cache, monitor Monitor, scheduler Scheduler, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		remote:    remote,
		cache:     cache,
		monitor:   monitor,
		scheduler: scheduler,
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
		ctx:       ctx,
		cancel:    cancel,
		st:        State{Phase: PhaseInitial},
		subs:      make(map[int]func(State)),
		handlers:  make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "syncer")
	return e
}

// Get returns the current state for itemID. The first call for an item
// starts loading it.
func (e *Engine) Get(ctx context.Context, itemID string) State {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return State{ItemID: itemID, Phase: PhaseInitial}
	}
	if !e.active || e.st.ItemID != itemID {
		e.logger.DebugContext(ctx, "activating item", "item_id", itemID)
		e.activateLocked(itemID)
	}
	snap := e.st.clone()
	e.mu.Unlock()

	e.flush()
	return snap
}

// Refresh forces a new remote read and resets the retry counter. When
// offline it makes no network call, serves the cache, and returns
// errs.ErrOffline.
func (e *Engine) Refresh(ctx context.Context, itemID string) (State, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return State{ItemID: itemID, Phase: PhaseInitial}, ErrClosed
	}
	if !e.active || e.st.ItemID != itemID {
		e.activateLocked(itemID)
		snap := e.st.clone()
		e.mu.Unlock()
		e.flush()
		if !e.monitor.IsOnline() {
			return snap, errs.ErrOffline
		}
		return snap, nil
	}

	e.cancelRetryLocked()
	e.st.RetryAttempt = 0

	var err error
	if !e.monitor.IsOnline() {
		e.logger.InfoContext(ctx, "refresh while offline, serving local data", "item_id", itemID)
		err = errs.ErrOffline
	}
	e.startFetchLocked(false)
	snap := e.st.clone()
	e.mu.Unlock()

	e.flush()
	return snap, err
}

// Submit validates draft and records it as a review of itemID. The review
// is visible and cached before any network call; the returned record is
// that optimistic copy. The remote insert continues in the background and
// its outcome is reported through events and state.
func (e *Engine) Submit(ctx context.Context, itemID string, draft review.Draft) (review.Review, error) {
	draft.ItemID = itemID
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return review.Review{}, err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return review.Review{}, ErrClosed
	}
	if !e.active || e.st.ItemID != draft.ItemID {
		e.activateLocked(draft.ItemID)
	}

	opt := review.Review{
		ID:        e.newID(),
		ItemID:    draft.ItemID,
		Rating:    draft.Rating,
		Comment:   draft.Comment,
		Author:    draft.Author,
		CreatedAt: e.now().UTC(),
		LocalOnly: true,
	}

	base := e.st.Reviews
	if cached, ok := e.cache.Read(opt.ItemID); ok {
		e.cache.Write(opt.ItemID, prepend(opt, mergeFallback(cached, base)))
	} else {
		e.cache.Write(opt.ItemID, prepend(opt, base))
	}
	e.st.Reviews = prepend(opt, base)

	if !e.monitor.IsOnline() {
		e.logger.InfoContext(ctx, "offline, review saved locally", "item_id", opt.ItemID, "review_id", opt.ID)
		e.degradeLocked(errs.ErrOffline)
		metrics.WritesTotal.WithLabelValues(metrics.WriteLocalOnly).Inc()
		e.queueStateLocked()
		e.queueEventLocked(Event{
			Kind:   EventWriteSavedLocallyOnly,
			ItemID: opt.ItemID,
			Review: opt,
			Err:    errs.KindOffline,
			Detail: detailFor(errs.ErrOffline),
		})
		e.mu.Unlock()
		e.flush()
		return opt, nil
	}

	e.queueStateLocked()
	e.beginLocked()
	insertCtx := e.ctx
	e.mu.Unlock()
	e.flush()

	go func() {
		stored, err := e.remote.Insert(insertCtx, draft)
		e.finishInsert(opt, stored, err)
	}()

	return opt, nil
}

// Wait blocks until no remote call started by the engine is in flight and
// every resulting notification has been delivered, then returns the state
// at that point. Scheduled retries that have not fired yet do not count as
// in flight. Subscribers must not call Wait.
func (e *Engine) Wait(ctx context.Context) (State, error) {
	for {
		e.mu.Lock()
		if e.inflight == 0 {
			snap := e.st.clone()
			e.mu.Unlock()
			return snap, nil
		}
		idle := e.idle
		e.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			e.mu.Lock()
			snap := e.st.clone()
			e.mu.Unlock()
			return snap, ctx.Err()
		}
	}
}

// State returns the current state without activating anything.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.clone()
}

// Subscribe registers fn for every state change. Calls are serialized and
// made without engine locks held.
func (e *Engine) Subscribe(fn func(State)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSub++
	id := e.nextSub
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// OnEvent registers fn for notifications.
func (e *Engine) OnEvent(fn func(Event)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSub++
	id := e.nextSub
	e.handlers[id] = fn
	return func() {
		e.mu.Lock()
		delete(e.handlers, id)
		e.mu.Unlock()
	}
}

// Close tears down the active item: pending retries are cancelled, the
// monitor subscription is dropped, and in-flight calls are aborted.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.teardownLocked()
	e.cancel()
	e.mu.Unlock()
}

func (e *Engine) activateLocked(itemID string) {
	e.teardownLocked()

	e.active = true
	e.activation++
	activation := e.activation
	e.itemCtx, e.itemCancel = context.WithCancel(e.ctx)
	e.st = State{ItemID: itemID, Phase: PhaseInitial, Reviews: []review.Review{}}
	e.unsubscribe = e.monitor.OnChange(func(online bool) {
		e.onConnectivity(activation, online)
	})
	e.startFetchLocked(true)
}

func (e *Engine) teardownLocked() {
	if !e.active {
		return
	}
	e.active = false
	e.epoch++
	e.cancelRetryLocked()
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	if e.itemCancel != nil {
		e.itemCancel()
		e.itemCancel = nil
	}
	e.fetchCancel = nil
}

// startFetchLocked begins a remote read, or serves the cache right away
// when offline.
func (e *Engine) startFetchLocked(initial bool) {
	e.epoch++
	ep := e.epoch
	if e.fetchCancel != nil {
		e.fetchCancel()
		e.fetchCancel = nil
	}

	if !e.monitor.IsOnline() {
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeOffline).Inc()
		e.fallbackLocked(errs.ErrOffline)
		e.queueStateLocked()
		return
	}

	if initial {
		e.st.Phase = PhaseLoading
		e.st.IsLoading = true
	} else {
		e.st.Phase = PhaseRefetching
		e.st.IsRefetching = true
	}
	e.queueStateLocked()

	ctx, cancel := context.WithCancel(e.itemCtx)
	e.fetchCancel = cancel
	e.beginLocked()

	itemID := e.st.ItemID
	go func() {
		defer cancel()
		reviews, err := e.remote.List(ctx, itemID)
		e.finishFetch(ep, itemID, reviews, err)
	}()
}

func (e *Engine) finishFetch(ep uint64, itemID string, reviews []review.Review, err error) {
	defer e.done()
	e.mu.Lock()

	if e.closed || !e.active || ep != e.epoch || e.st.ItemID != itemID {
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeStale).Inc()
		e.mu.Unlock()
		return
	}
	e.fetchCancel = nil

	if err != nil {
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeFallback).Inc()
		e.logger.Info("review list failed, serving local data",
			"item_id", itemID, "attempt", e.st.RetryAttempt, "error", err)
		e.fallbackLocked(err)
		e.scheduleRetryLocked(err)
		e.queueStateLocked()
		e.mu.Unlock()
		e.flush()
		return
	}

	metrics.FetchTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	cached, _ := e.cache.Read(itemID)
	merged := mergeRemote(withConfirmed(reviews, e.confirmedSinceLocked(itemID, ep)), e.st.Reviews, cached)
	e.pruneConfirmedLocked(ep)
	e.cache.Write(itemID, merged)

	e.cancelRetryLocked()
	e.st.Reviews = merged
	e.st.Phase = PhaseSynced
	e.st.IsLoading = false
	e.st.IsRefetching = false
	e.st.IsUsingFallback = false
	e.st.LastError = errs.KindNone
	e.st.Detail = ""
	e.st.RetryAttempt = 0
	e.queueStateLocked()
	e.mu.Unlock()
	e.flush()
}

// confirmedSinceLocked returns itemID's inserts reconciled while a list
// started at ep could still have been in flight.
func (e *Engine) confirmedSinceLocked(itemID string, ep uint64) []review.Review {
	var out []review.Review
	for _, c := range e.confirmed {
		if c.epoch >= ep && c.review.ItemID == itemID {
			out = append(out, c.review)
		}
	}
	return out
}

// pruneConfirmedLocked drops confirmations no later list can miss. Every
// list started after a successful one at ep has a larger epoch.
func (e *Engine) pruneConfirmedLocked(ep uint64) {
	kept := e.confirmed[:0]
	for _, c := range e.confirmed {
		if c.epoch > ep {
			kept = append(kept, c)
		}
	}
	e.confirmed = kept
}

// fallbackLocked serves the cache after a failed or skipped read.
func (e *Engine) fallbackLocked(err error) {
	metrics.FallbackReads.Inc()
	if cached, ok := e.cache.Read(e.st.ItemID); ok {
		e.st.Reviews = mergeFallback(cached, e.st.Reviews)
	}
	e.st.IsLoading = false
	e.st.IsRefetching = false
	e.degradeLocked(err)
}

func (e *Engine) degradeLocked(err error) {
	e.st.IsUsingFallback = true
	e.st.LastError = errs.KindOf(err)
	e.st.Detail = detailFor(err)
	if !e.st.IsLoading && !e.st.IsRefetching {
		e.st.Phase = PhaseDegraded
	}
}

func (e *Engine) scheduleRetryLocked(err error) {
	if errors.Is(err, errs.ErrOffline) || !e.monitor.IsOnline() {
		return
	}

	next := e.st.RetryAttempt + 1
	e.retryGen++
	gen := e.retryGen
	itemID := e.st.ItemID

	cancel, ok := e.scheduler.Schedule(next, func() {
		e.fireRetry(itemID, gen, next)
	})
	if ok {
		e.cancelRetry = cancel
		metrics.RetriesScheduled.WithLabelValues(strconv.Itoa(next)).Inc()
		e.logger.Debug("retry scheduled", "item_id", itemID, "attempt", next)
		return
	}

	if e.st.RetryAttempt > 0 && e.st.RetryAttempt >= e.scheduler.Max() {
		metrics.RetriesExhausted.Inc()
		e.logger.Warn("automatic retries exhausted", "item_id", itemID, "attempts", e.st.RetryAttempt)
		e.queueEventLocked(Event{
			Kind:     EventRetriesExhausted,
			ItemID:   itemID,
			Err:      e.st.LastError,
			Detail:   e.st.Detail,
			Attempts: e.st.RetryAttempt,
		})
	}
}

func (e *Engine) fireRetry(itemID string, gen uint64, attempt int) {
	e.mu.Lock()
	if e.closed || !e.active || e.st.ItemID != itemID || gen != e.retryGen {
		e.mu.Unlock()
		return
	}
	e.cancelRetry = nil
	e.st.RetryAttempt = attempt
	e.logger.Info("retrying review list", "item_id", itemID, "attempt", attempt)
	e.startFetchLocked(false)
	e.mu.Unlock()
	e.flush()
}

func (e *Engine) cancelRetryLocked() {
	e.retryGen++
	if e.cancelRetry != nil {
		e.cancelRetry()
		e.cancelRetry = nil
	}
}

func (e *Engine) onConnectivity(activation uint64, online bool) {
	e.mu.Lock()
	if e.closed || !e.active || e.activation != activation {
		e.mu.Unlock()
		return
	}
	itemID := e.st.ItemID

	if online {
		e.logger.Info("back online, refreshing", "item_id", itemID)
		e.cancelRetryLocked()
		e.st.RetryAttempt = 0
		e.queueEventLocked(Event{Kind: EventCameBackOnline, ItemID: itemID})
		e.startFetchLocked(false)
	} else {
		e.logger.Info("went offline", "item_id", itemID)
		e.cancelRetryLocked()
		e.degradeLocked(errs.ErrOffline)
		e.queueEventLocked(Event{
			Kind:   EventWentOffline,
			ItemID: itemID,
			Err:    errs.KindOffline,
			Detail: detailFor(errs.ErrOffline),
		})
		e.queueStateLocked()
	}
	e.mu.Unlock()
	e.flush()
}

func (e *Engine) finishInsert(opt, stored review.Review, err error) {
	defer e.done()
	e.mu.Lock()
	itemID := opt.ItemID
	visible := e.active && !e.closed && e.st.ItemID == itemID

	if err != nil && e.closed {
		metrics.WritesTotal.WithLabelValues(metrics.WriteLocalOnly).Inc()
		e.mu.Unlock()
		return
	}
	if err != nil {
		metrics.WritesTotal.WithLabelValues(metrics.WriteLocalOnly).Inc()
		e.logger.Warn("review saved locally only", "item_id", itemID, "review_id", opt.ID, "error", err)
		if visible {
			e.st.LastError = errs.KindOf(err)
			e.st.Detail = detailFor(err)
			e.queueStateLocked()
		}
		e.queueEventLocked(Event{
			Kind:   EventWriteSavedLocallyOnly,
			ItemID: itemID,
			Review: opt,
			Err:    errs.KindOf(err),
			Detail: detailFor(err),
		})
		e.mu.Unlock()
		e.flush()
		return
	}

	metrics.WritesTotal.WithLabelValues(metrics.WriteRemote).Inc()
	stored.LocalOnly = false
	if stored.ItemID == "" {
		stored.ItemID = itemID
	}

	if !e.closed {
		e.confirmed = append(e.confirmed, confirmation{review: stored, epoch: e.epoch})
	}

	if cached, ok := e.cache.Read(itemID); ok {
		if next, changed := reconcile(cached, opt, stored); changed {
			e.cache.Write(itemID, next)
		}
	} else if visible {
		next, _ := reconcile(e.st.Reviews, opt, stored)
		e.cache.Write(itemID, next)
	}

	if visible {
		if next, changed := reconcile(e.st.Reviews, opt, stored); changed {
			e.st.Reviews = next
		}
		if !e.st.IsUsingFallback {
			e.st.LastError = errs.KindNone
			e.st.Detail = ""
		}
		e.queueStateLocked()
	}
	if !e.closed {
		e.queueEventLocked(Event{Kind: EventWriteSucceeded, ItemID: itemID, Review: stored})
	}
	e.mu.Unlock()
	e.flush()
}

func (e *Engine) beginLocked() {
	if e.inflight == 0 {
		e.idle = make(chan struct{})
	}
	e.inflight++
}

func (e *Engine) endLocked() {
	e.inflight--
	if e.inflight == 0 {
		close(e.idle)
	}
}

// done ends a remote call once its notifications have been flushed.
func (e *Engine) done() {
	e.mu.Lock()
	e.endLocked()
	e.mu.Unlock()
}

func (e *Engine) queueStateLocked() {
	snap := e.st.clone()
	e.outbox = append(e.outbox, note{state: &snap})
}

func (e *Engine) queueEventLocked(ev Event) {
	e.outbox = append(e.outbox, note{event: &ev})
}

// flush delivers queued notifications in order. A call made while another
// goroutine (or a subscriber re-entering the engine) is flushing leaves the
// work to that flusher.
func (e *Engine) flush() {
	e.mu.Lock()
	if e.flushing {
		e.mu.Unlock()
		return
	}
	e.flushing = true
	e.beginLocked()
	for len(e.outbox) > 0 {
		n := e.outbox[0]
		e.outbox = e.outbox[1:]
		var subs []func(State)
		var handlers []func(Event)
		if n.state != nil {
			subs = sortedFuncs(e.subs)
		}
		if n.event != nil {
			handlers = sortedFuncs(e.handlers)
		}
		e.mu.Unlock()

		for _, fn := range subs {
			fn(*n.state)
		}
		for _, fn := range handlers {
			fn(*n.event)
		}

		e.mu.Lock()
	}
	e.flushing = false
	e.endLocked()
	e.mu.Unlock()
}

// sortedFuncs returns m's values in registration order.
func sortedFuncs[T any](m map[int]T) []T {
	if len(m) == 0 {
		return nil
	}
	maxID := 0
	for id := range m {
		if id > maxID {
			maxID = id
		}
	}
	out := make([]T, 0, len(m))
	for id := 1; id <= maxID; id++ {
		if fn, ok := m[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}
