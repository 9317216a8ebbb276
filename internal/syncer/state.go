// Package syncer keeps a per-item review list consistent between the local
// cache and the remote review store. It serves reads from the remote store
// when it can, falls back to the cache when it cannot, writes optimistically,
// and schedules bounded retries after failed reads.
package syncer

import (
	"fmt"

	"github.com/evcraddock/reelreviews/internal/errs"
	"github.com/evcraddock/reelreviews/internal/review"
)

// Phase is where an item's sync state machine currently sits.
type Phase string

// Phases.
const (
	PhaseInitial    Phase = "initial"
	PhaseLoading    Phase = "loading"
	PhaseSynced     Phase = "synced"
	PhaseDegraded   Phase = "degraded"
	PhaseRefetching Phase = "refetching"
)

// State is the observable sync state of the active item. Values handed out
// by the engine are copies and safe to keep.
type State struct {
	ItemID          string          `json:"item_id"`
	Phase           Phase           `json:"phase"`
	Reviews         []review.Review `json:"reviews"`
	IsLoading       bool            `json:"is_loading"`
	IsRefetching    bool            `json:"is_refetching"`
	IsUsingFallback bool            `json:"is_using_fallback"`
	LastError       errs.Kind       `json:"last_error,omitempty"`
	Detail          string          `json:"detail,omitempty"`
	RetryAttempt    int             `json:"retry_attempt"`
}

func (s State) clone() State {
	s.Reviews = review.Clone(s.Reviews)
	return s
}

// Settled reports whether the state is Synced or Degraded.
func (s State) Settled() bool {
	return s.Phase == PhaseSynced || s.Phase == PhaseDegraded
}

// LocalOnlyCount returns how many visible reviews the remote store has not
// confirmed.
func (s State) LocalOnlyCount() int {
	n := 0
	for _, r := range s.Reviews {
		if r.LocalOnly {
			n++
		}
	}
	return n
}

// detailFor renders err for display next to the degraded indicator.
func detailFor(err error) string {
	switch errs.KindOf(err) {
	case errs.KindNone:
		return ""
	case errs.KindOffline:
		return "You're offline"
	case errs.KindTimeout:
		return "Connection timeout"
	case errs.KindRemote:
		return "Database error: " + errs.Message(err)
	case errs.KindValidation:
		return "Rejected: " + err.Error()
	default:
		return "Connection error: " + err.Error()
	}
}

// String renders a one-line summary, used in logs and by the CLI.
func (s State) String() string {
	return fmt.Sprintf("%s item=%s reviews=%d fallback=%t error=%q retry=%d",
		s.Phase, s.ItemID, len(s.Reviews), s.IsUsingFallback, s.LastError, s.RetryAttempt)
}
