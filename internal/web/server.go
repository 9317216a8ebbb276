// Package web provides the HTTP review store: a small JSON API over the
// reviews table, guarded by API keys.
package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evcraddock/reelreviews/internal/auth"
	"github.com/evcraddock/reelreviews/internal/logging"
	"github.com/evcraddock/reelreviews/internal/metrics"
	"github.com/evcraddock/reelreviews/internal/review"
)

const shutdownTimeout = 10 * time.Second

// Server is the review store HTTP server.
type Server struct {
	reviews *review.Repository
	apiKeys *auth.APIKeyStore
	limiter *auth.RateLimiter
	router  chi.Router
	logger  *slog.Logger
}

// NewServer creates a server over the given database.
func NewServer(db *sql.DB, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		reviews: review.NewRepository(db),
		apiKeys: auth.NewAPIKeyStore(db),
		limiter: auth.NewRateLimiter(),
		router:  chi.NewRouter(),
		logger:  logger.With("component", "web"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(logging.RequestLogger)
	r.Use(metrics.Middleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return auth.RequireAPIKey(s.apiKeys, s.limiter, next)
		})
		r.Get("/items/{itemID}/reviews", s.handleListReviews)
		r.Post("/items/{itemID}/reviews", s.handleAddReview)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("review server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listening on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down review server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
