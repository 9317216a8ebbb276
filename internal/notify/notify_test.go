package notify

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evcraddock/reelreviews/internal/errs"
	"github.com/evcraddock/reelreviews/internal/syncer"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		ev   syncer.Event
		want string
	}{
		{"success", syncer.Event{Kind: syncer.EventWriteSucceeded}, "Review submitted."},
		{"offline write", syncer.Event{Kind: syncer.EventWriteSavedLocallyOnly, Err: errs.KindOffline}, "You're offline. Review saved locally."},
		{"failed write", syncer.Event{Kind: syncer.EventWriteSavedLocallyOnly, Err: errs.KindTimeout, Detail: "Connection timeout"}, "Review saved locally only (Connection timeout)."},
		{"offline", syncer.Event{Kind: syncer.EventWentOffline}, "You're offline. Showing locally saved reviews."},
		{"online", syncer.Event{Kind: syncer.EventCameBackOnline}, "Back online. Refreshing reviews..."},
		{"exhausted", syncer.Event{Kind: syncer.EventRetriesExhausted, Attempts: 3}, "Could not reach the review server after 3 attempts. Use refresh to try again."},
		{"unknown", syncer.Event{Kind: "other"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.ev))
		})
	}
}

func TestIndicator(t *testing.T) {
	assert.Empty(t, Indicator(syncer.State{Phase: syncer.PhaseSynced}))
	assert.Equal(t, "Showing locally saved data.", Indicator(syncer.State{IsUsingFallback: true}))
	assert.Equal(t, "Showing locally saved data (You're offline).",
		Indicator(syncer.State{IsUsingFallback: true, Detail: "You're offline"}))
}

func TestPresenterStateOnlyOnChange(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, quiet())

	degraded := syncer.State{IsUsingFallback: true, Detail: "Connection timeout"}
	p.State(degraded)
	p.State(degraded)
	p.State(syncer.State{Phase: syncer.PhaseSynced})
	p.State(degraded)

	assert.Equal(t,
		"Showing locally saved data (Connection timeout).\n"+
			"Showing locally saved data (Connection timeout).\n",
		buf.String())
}

func TestPresenterEvent(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, quiet())

	p.Event(syncer.Event{Kind: syncer.EventWriteSucceeded})
	p.Event(syncer.Event{Kind: "ignored"})

	assert.Equal(t, "Review submitted.\n", buf.String())
}
