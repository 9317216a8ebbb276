// Package cache persists per-item review collections in the local store.
// It never reports failures to callers: a broken store reads as absent and
// writes become no-ops.
package cache

import (
	"encoding/json"
	"log/slog"

	"github.com/evcraddock/reelreviews/internal/localstore"
	"github.com/evcraddock/reelreviews/internal/metrics"
	"github.com/evcraddock/reelreviews/internal/review"
)

// Reviews is the local cache of review collections keyed by item id.
type Reviews struct {
	kv     localstore.KV
	logger *slog.Logger
}

// New creates a review cache over kv. A nil logger uses slog.Default().
func New(kv localstore.KV, logger *slog.Logger) *Reviews {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reviews{kv: kv, logger: logger.With("component", "cache")}
}

// Key returns the store key for an item's review collection.
func Key(itemID string) string {
	return "reviews-" + itemID
}

// Read returns the cached collection for itemID. ok is false when nothing
// was cached or the entry could not be read.
func (c *Reviews) Read(itemID string) (reviews []review.Review, ok bool) {
	data, found, err := c.kv.Get(Key(itemID))
	if err != nil {
		c.fail("read", itemID, err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	if err := json.Unmarshal(data, &reviews); err != nil {
		c.fail("decode", itemID, err)
		return nil, false
	}
	if reviews == nil {
		reviews = []review.Review{}
	}
	return reviews, true
}

// Write replaces the cached collection for itemID.
func (c *Reviews) Write(itemID string, reviews []review.Review) {
	if reviews == nil {
		reviews = []review.Review{}
	}
	data, err := json.Marshal(reviews)
	if err != nil {
		c.fail("encode", itemID, err)
		return
	}
	if err := c.kv.Set(Key(itemID), data); err != nil {
		c.fail("write", itemID, err)
	}
}

func (c *Reviews) fail(op, itemID string, err error) {
	metrics.CacheErrors.WithLabelValues(op).Inc()
	c.logger.Warn("cache "+op+" failed", "item_id", itemID, "error", err)
}
