// Package notify turns sync engine events and states into short messages
// for a terminal.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/evcraddock/reelreviews/internal/errs"
	"github.com/evcraddock/reelreviews/internal/syncer"
)

// Presenter writes one line per notification to w. State lines are only
// written when the visible summary changes.
type Presenter struct {
	w      io.Writer
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

// New creates a presenter.
func New(w io.Writer, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{w: w, logger: logger.With("component", "notify")}
}

// Attach subscribes p to e's events and state changes.
func (p *Presenter) Attach(e *syncer.Engine) (detach func()) {
	offEvent := e.OnEvent(p.Event)
	offState := e.Subscribe(p.State)
	return func() {
		offEvent()
		offState()
	}
}

// Event renders ev.
func (p *Presenter) Event(ev syncer.Event) {
	msg := Message(ev)
	if msg == "" {
		return
	}
	p.logger.Debug("notification", "kind", ev.Kind, "item_id", ev.ItemID)
	p.println(msg)
}

// State renders the fallback indicator when it appears, changes, or clears.
func (p *Presenter) State(st syncer.State) {
	line := Indicator(st)

	p.mu.Lock()
	changed := line != p.last
	p.last = line
	p.mu.Unlock()

	if changed && line != "" {
		p.println(line)
	}
}

func (p *Presenter) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintln(p.w, s); err != nil {
		p.logger.Warn("writing notification", "error", err)
	}
}

// Message is the user-facing text for ev.
func Message(ev syncer.Event) string {
	switch ev.Kind {
	case syncer.EventWriteSucceeded:
		return "Review submitted."
	case syncer.EventWriteSavedLocallyOnly:
		if ev.Err == errs.KindOffline {
			return "You're offline. Review saved locally."
		}
		return fmt.Sprintf("Review saved locally only (%s).", ev.Detail)
	case syncer.EventWentOffline:
		return "You're offline. Showing locally saved reviews."
	case syncer.EventCameBackOnline:
		return "Back online. Refreshing reviews..."
	case syncer.EventRetriesExhausted:
		return fmt.Sprintf("Could not reach the review server after %d attempts. Use refresh to try again.", ev.Attempts)
	default:
		return ""
	}
}

// Indicator is the degraded-mode banner for st, or "" when the view is
// showing remote data.
func Indicator(st syncer.State) string {
	if !st.IsUsingFallback {
		return ""
	}
	if st.Detail == "" {
		return "Showing locally saved data."
	}
	return fmt.Sprintf("Showing locally saved data (%s).", st.Detail)
}
