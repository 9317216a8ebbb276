package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/evcraddock/reelreviews/internal/errs"
	"github.com/evcraddock/reelreviews/internal/review"
)

func TestList(t *testing.T) {
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/items/42/reviews" {
			t.Errorf("path = %q, want /api/items/42/reviews", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer testkey" {
			t.Error("expected Bearer testkey")
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode([]review.Review{
			{ID: "r1", ItemID: "42", Rating: 4, Comment: "good", Author: "ana", CreatedAt: created},
		}); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	reviews, err := c.List(context.Background(), "42")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("got %d reviews, want 1", len(reviews))
	}
	if reviews[0].ID != "r1" || !reviews[0].CreatedAt.Equal(created) {
		t.Errorf("review = %+v", reviews[0])
	}
}

func TestListEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte("null")); err != nil {
			t.Errorf("write: %v", err)
		}
	}))
	defer srv.Close()

	reviews, err := New(srv.URL, "").List(context.Background(), "1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if reviews == nil || len(reviews) != 0 {
		t.Errorf("reviews = %#v, want empty non-nil slice", reviews)
	}
}

func TestListEscapesItemID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/items/a%2Fb/reviews" {
			t.Errorf("escaped path = %q", r.URL.EscapedPath())
		}
		writeJSON(t, w, http.StatusOK, []review.Review{})
	}))
	defer srv.Close()

	if _, err := New(srv.URL, "").List(context.Background(), "a/b"); err != nil {
		t.Fatalf("list: %v", err)
	}
}

func TestInsert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/api/items/7/reviews" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var d review.Draft
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			t.Errorf("decode: %v", err)
		}
		if d.Rating != 5 || d.Comment != "wow" || d.Author != "bo" {
			t.Errorf("draft = %+v", d)
		}
		writeJSON(t, w, http.StatusCreated, review.Review{
			ID: "srv-1", ItemID: "7", Rating: 5, Comment: "wow", Author: "bo", CreatedAt: time.Now().UTC(),
		})
	}))
	defer srv.Close()

	r, err := New(srv.URL, "testkey").Insert(context.Background(), review.Draft{ItemID: "7", Rating: 5, Comment: "wow", Author: "bo"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if r.ID != "srv-1" {
		t.Errorf("id = %q, want srv-1", r.ID)
	}
}

func TestInsertValidationError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnprocessableEntity} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, status, map[string]string{"error": "rating must be 1-5"})
		}))

		_, err := New(srv.URL, "").Insert(context.Background(), review.Draft{ItemID: "7", Rating: 9, Comment: "x", Author: "a"})
		srv.Close()

		if !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("status %d: err = %v, want ErrValidation", status, err)
		}
		if errs.KindOf(err) != errs.KindValidation {
			t.Errorf("kind = %q", errs.KindOf(err))
		}
	}
}

func TestRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"error": "database is locked"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").List(context.Background(), "1")
	var re *errs.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want RemoteError", err)
	}
	if re.Status != http.StatusInternalServerError || re.Message != "database is locked" {
		t.Errorf("remote error = %+v", re)
	}
	if errs.Message(err) != "database is locked" {
		t.Errorf("message = %q", errs.Message(err))
	}
}

func TestRemoteErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").List(context.Background(), "1")
	if errs.Message(err) != "Service Unavailable" {
		t.Errorf("message = %q, want status text", errs.Message(err))
	}
}

func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"error": "invalid API key"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "badkey").Insert(context.Background(), review.Draft{ItemID: "1"})
	if errs.KindOf(err) != errs.KindRemote {
		t.Fatalf("kind = %q, want remote", errs.KindOf(err))
	}
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("not json")); err != nil {
			t.Errorf("write: %v", err)
		}
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").List(context.Background(), "1")
	if errs.KindOf(err) != errs.KindRemote {
		t.Fatalf("kind = %q, want remote", errs.KindOf(err))
	}
}

func TestReadTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, "", WithReadTimeout(20*time.Millisecond))
	start := time.Now()
	_, err := c.List(context.Background(), "1")
	if !errors.Is(err, errs.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout took too long")
	}
}

func TestWriteTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, "", WithWriteTimeout(20*time.Millisecond))
	_, err := c.Insert(context.Background(), review.Draft{ItemID: "1", Rating: 1, Comment: "x", Author: "y"})
	if !errors.Is(err, errs.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, "").List(context.Background(), "1")
	if !errors.Is(err, errs.ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestCancelledCallKeepsContextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL, "").List(ctx, "1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled in chain", err)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		writeJSON(t, w, http.StatusOK, map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	if err := New(srv.URL, "").Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode: %v", err)
	}
}
