package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type stubKeys map[string]bool

func (s stubKeys) Validate(raw string) (bool, error) {
	if raw == "rr_broken" {
		return false, errors.New("db locked")
	}
	return s[raw], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doAuth(h http.Handler, header, remote string) *httptest.ResponseRecorder {
	r := httptest.NewRequest("GET", "/api/items/1/reviews", nil)
	r.RemoteAddr = remote
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestRequireAPIKey(t *testing.T) {
	keys := stubKeys{"rr_good": true}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer rr_good", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic rr_good", http.StatusUnauthorized},
		{"invalid", "Bearer rr_bad", http.StatusUnauthorized},
		{"store error", "Bearer rr_broken", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireAPIKey(keys, NewRateLimiter(), okHandler())
			w := doAuth(h, tt.header, "10.0.0.1:5000")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want != http.StatusOK && !strings.Contains(w.Body.String(), `"error"`) {
				t.Errorf("body = %q, want JSON error envelope", w.Body.String())
			}
		})
	}
}

func TestRequireAPIKeyRateLimitsFailures(t *testing.T) {
	limiter := NewRateLimiter()
	h := RequireAPIKey(stubKeys{"rr_good": true}, limiter, okHandler())

	for i := 0; i < rateLimitMaxFail; i++ {
		if w := doAuth(h, "Bearer rr_bad", "10.0.0.2:1234"); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, w.Code)
		}
	}

	if w := doAuth(h, "Bearer rr_good", "10.0.0.2:9999"); w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 once limit is reached", w.Code)
	}
	if w := doAuth(h, "Bearer rr_good", "10.0.0.3:1234"); w.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", w.Code)
	}
}

func TestRequireAPIKeySuccessDoesNotCount(t *testing.T) {
	limiter := NewRateLimiter()
	h := RequireAPIKey(stubKeys{"rr_good": true}, limiter, okHandler())

	for i := 0; i < rateLimitMaxFail*2; i++ {
		if w := doAuth(h, "Bearer rr_good", "10.0.0.4:1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}
}

func TestRateLimiterWindowExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter()
	limiter.now = func() time.Time { return now }

	for i := 0; i < rateLimitMaxFail; i++ {
		limiter.RecordFailure("ip")
	}
	if !limiter.Limited("ip") {
		t.Fatal("expected limited")
	}

	now = now.Add(rateLimitWindow + time.Second)
	if limiter.Limited("ip") {
		t.Error("expected limit to lapse after the window")
	}
}
