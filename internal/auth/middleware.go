package auth

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// KeyValidator checks raw API keys.
type KeyValidator interface {
	Validate(rawKey string) (bool, error)
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// RateLimiter tracks failed API key attempts per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

// NewRateLimiter creates an empty limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{attempts: make(map[string][]time.Time), now: time.Now}
}

// prune drops attempts outside the window. Callers hold rl.mu.
func (rl *RateLimiter) prune(ip string) []time.Time {
	cutoff := rl.now().Add(-rateLimitWindow)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = valid
	return valid
}

// Limited reports whether ip has used up its failures for the window.
func (rl *RateLimiter) Limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(ip)) >= rateLimitMaxFail
}

// RecordFailure records a failed attempt from ip.
func (rl *RateLimiter) RecordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.attempts[ip] = append(rl.prune(ip), rl.now())
}

// RequireAPIKey is middleware that validates Bearer token auth.
// Returns 401 for missing/invalid keys, 429 for rate-limited IPs.
func RequireAPIKey(keys KeyValidator, limiter *RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if limiter.Limited(ip) {
			writeError(w, http.StatusTooManyRequests, "too many failed attempts")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			limiter.RecordFailure(ip)
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}

		valid, err := keys.Validate(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			slog.ErrorContext(r.Context(), "validating api key", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !valid {
			limiter.RecordFailure(ip)
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Warn("writing auth error", "error", err)
	}
}
