package connectivity

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// HealthChecker reports whether the review store answers.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ProberConfig tunes health probing.
type ProberConfig struct {
	// Interval between probes. The breaker stays open for one interval
	// before a single half-open probe is let through.
	Interval time.Duration

	// Timeout bounds each probe.
	Timeout time.Duration

	// FailureThreshold is how many consecutive failed probes mark the
	// store offline.
	FailureThreshold uint32
}

// DefaultProberConfig returns the probing defaults.
func DefaultProberConfig() ProberConfig {
	return ProberConfig{
		Interval:         5 * time.Second,
		Timeout:          3 * time.Second,
		FailureThreshold: 2,
	}
}

// Prober drives a Signal from periodic health checks routed through a
// circuit breaker: an open breaker means offline, a closed one online.
type Prober struct {
	checker HealthChecker
	signal  *Signal
	cfg     ProberConfig
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
}

// NewProber creates a prober that updates signal. Zero config fields take
// their defaults.
func NewProber(checker HealthChecker, signal *Signal, cfg ProberConfig, logger *slog.Logger) *Prober {
	def := DefaultProberConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "prober")

	p := &Prober{checker: checker, signal: signal, cfg: cfg, logger: logger}
	p.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "review-store",
		MaxRequests: 1,
		Timeout:     cfg.Interval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			switch to {
			case gobreaker.StateOpen:
				signal.Set(false)
			case gobreaker.StateClosed:
				signal.Set(true)
			}
		},
	})
	return p
}

// Probe runs one health check through the breaker. While the breaker is
// open the check is skipped and gobreaker.ErrOpenState is returned.
func (p *Prober) Probe(ctx context.Context) error {
	_, err := p.breaker.Execute(func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
		return struct{}{}, p.checker.Health(ctx)
	})
	if err != nil {
		p.logger.Debug("health probe failed", "error", err)
		return err
	}
	if p.breaker.State() == gobreaker.StateClosed {
		p.signal.Set(true)
	}
	return nil
}

// State returns the breaker state.
func (p *Prober) State() gobreaker.State {
	return p.breaker.State()
}

// Run probes immediately and then every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		_ = p.Probe(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
