package syncer

import (
	"github.com/evcraddock/reelreviews/internal/errs"
	"github.com/evcraddock/reelreviews/internal/review"
)

// EventKind names a user-facing notification.
type EventKind string

// Event kinds.
const (
	EventWriteSucceeded        EventKind = "write_succeeded"
	EventWriteSavedLocallyOnly EventKind = "write_saved_locally_only"
	EventWentOffline           EventKind = "went_offline"
	EventCameBackOnline        EventKind = "came_back_online"
	EventRetriesExhausted      EventKind = "retries_exhausted"
)

// Event is a notification for the presentation layer.
type Event struct {
	Kind   EventKind
	ItemID string

	// Review is set for write events: the stored record on success, the
	// optimistic one otherwise.
	Review review.Review

	// Err and Detail explain write failures and exhausted retries.
	Err    errs.Kind
	Detail string

	// Attempts is set for EventRetriesExhausted.
	Attempts int
}
