package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/evcraddock/reelreviews/internal/cache"
	"github.com/evcraddock/reelreviews/internal/client"
	"github.com/evcraddock/reelreviews/internal/connectivity"
	"github.com/evcraddock/reelreviews/internal/db"
	"github.com/evcraddock/reelreviews/internal/library"
	"github.com/evcraddock/reelreviews/internal/localstore"
	"github.com/evcraddock/reelreviews/internal/notify"
	"github.com/evcraddock/reelreviews/internal/retry"
	"github.com/evcraddock/reelreviews/internal/syncer"
)

// localSession holds the local store and the objects built over it.
type localSession struct {
	kv      localstore.KV
	library *library.Library
	logger  *slog.Logger
	closers []func() error
}

// openLocal opens the configured local store backend.
func openLocal() (*localSession, error) {
	logger := slog.Default()
	s := &localSession{logger: logger}

	opts := localstore.Options{
		Backend:   settings.CacheBackend,
		RedisAddr: settings.RedisAddr,
	}
	if opts.Backend == "" || opts.Backend == localstore.BackendSQLite {
		path := settings.CachePath
		if path == "" {
			var err error
			path, err = db.DefaultCachePath()
			if err != nil {
				return nil, err
			}
		}
		database, err := db.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening local cache: %w", err)
		}
		s.closers = append(s.closers, database.Close)
		opts.DB = database
	}

	kv, closeKV, err := localstore.Open(opts)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, closeKV)
	s.kv = kv
	s.library = library.New(kv)
	return s, nil
}

// Close releases the store in reverse order of opening.
func (s *localSession) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("closing local store", "error", err)
		}
	}
	s.closers = nil
}

// syncSession is a review sync engine wired to the review server and the
// local cache.
type syncSession struct {
	*localSession
	api    *client.Client
	signal *connectivity.Signal
	prober *connectivity.Prober
	engine *syncer.Engine
	detach func()
}

// openSync builds the engine. The initial connectivity comes from one
// bounded health check; watch mode keeps it current with the prober.
func openSync(ctx context.Context, cmd *cobra.Command) (*syncSession, error) {
	local, err := openLocal()
	if err != nil {
		return nil, err
	}

	api := newAPIClient()
	probeCtx, cancel := context.WithTimeout(ctx, settings.ProbeTimeout)
	online := api.Health(probeCtx) == nil
	cancel()
	if !online {
		local.logger.Debug("review server unreachable at startup")
	}

	signal := connectivity.NewSignal(online)
	prober := connectivity.NewProber(api, signal, connectivity.ProberConfig{
		Interval:         settings.ProbeInterval,
		Timeout:          settings.ProbeTimeout,
		FailureThreshold: settings.ProbeFailures,
	}, local.logger)

	engine := syncer.New(
		api,
		cache.New(local.kv, local.logger),
		signal,
		retry.New(settings.RetryBase, settings.RetryMax),
		syncer.WithLogger(local.logger),
	)
	presenter := notify.New(cmd.ErrOrStderr(), local.logger)

	return &syncSession{
		localSession: local,
		api:          api,
		signal:       signal,
		prober:       prober,
		engine:       engine,
		detach:       presenter.Attach(engine),
	}, nil
}

// Close stops the engine and closes the local store.
func (s *syncSession) Close() {
	s.detach()
	s.engine.Close()
	s.localSession.Close()
}

// settle waits for in-flight remote calls, bounded by the configured
// timeouts.
func (s *syncSession) settle(ctx context.Context) syncer.State {
	ctx, cancel := context.WithTimeout(ctx, settings.ReadTimeout+settings.WriteTimeout)
	defer cancel()
	st, err := s.engine.Wait(ctx)
	if err != nil {
		s.logger.Warn("gave up waiting for the review server", "error", err)
	}
	return st
}
