package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestList(t *testing.T) {
	tests := []struct {
		name       string
		opts       ListOptions
		wantQuery  map[string]string
		response   string
		statusCode int
		wantCount  int
		wantErr    bool
	}{
		{
			name:      "popular",
			opts:      ListOptions{Sort: "download_count", Limit: 2},
			wantQuery: map[string]string{"sort_by": "download_count", "limit": "2"},
			response: `{"status":"ok","status_message":"Query was successful","data":{
				"movie_count": 2, "limit": 2, "page_number": 1,
				"movies": [{"id": 10, "title": "Alpha", "year": 2001, "rating": 7.5},
				           {"id": 11, "title": "Beta", "year": 2002, "rating": 6.1}]}}`,
			statusCode: http.StatusOK,
			wantCount:  2,
		},
		{
			name:       "search with genre and page",
			opts:       ListOptions{Query: "space", Genre: "sci-fi", Page: 3},
			wantQuery:  map[string]string{"query_term": "space", "genre": "sci-fi", "page": "3"},
			response:   `{"status":"ok","data":{"movie_count":0,"limit":20,"page_number":3}}`,
			statusCode: http.StatusOK,
			wantCount:  0,
		},
		{
			name:       "api error status",
			response:   `{"status":"error","status_message":"bad sort"}`,
			statusCode: http.StatusOK,
			wantErr:    true,
		},
		{
			name:       "server error",
			response:   `{}`,
			statusCode: http.StatusBadGateway,
			wantErr:    true,
		},
		{
			name:       "invalid json",
			response:   `not json`,
			statusCode: http.StatusOK,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/list_movies.json" {
					t.Errorf("path = %q, want /list_movies.json", r.URL.Path)
				}
				for k, v := range tt.wantQuery {
					if got := r.URL.Query().Get(k); got != v {
						t.Errorf("%s = %q, want %q", k, got, v)
					}
				}
				w.WriteHeader(tt.statusCode)
				writeResponse(t, w, tt.response)
			}))
			defer server.Close()

			c := NewClient(server.URL)

			page, err := c.List(context.Background(), tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(page.Movies) != tt.wantCount {
				t.Errorf("got %d movies, want %d", len(page.Movies), tt.wantCount)
			}
		})
	}
}

func TestDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie_details.json" {
			t.Errorf("path = %q, want /movie_details.json", r.URL.Path)
		}
		switch r.URL.Query().Get("movie_id") {
		case "42":
			writeResponse(t, w, `{"status":"ok","data":{"movie":{
				"id": 42, "title": "Gamma", "year": 1999, "rating": 8.2, "runtime": 121,
				"genres": ["Drama", "Sci-Fi"], "description_full": "A long story."}}}`)
		default:
			writeResponse(t, w, `{"status":"ok","data":{"movie":{"id":0}}}`)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL)

	m, err := c.Details(context.Background(), 42)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if m.Title != "Gamma" {
		t.Errorf("title = %q, want %q", m.Title, "Gamma")
	}
	if len(m.Genres) != 2 {
		t.Errorf("genres = %v, want 2 entries", m.Genres)
	}
	if m.Description() != "A long story." {
		t.Errorf("description = %q", m.Description())
	}

	if _, err := c.Details(context.Background(), 7); err == nil {
		t.Error("expected not found error for unknown movie")
	}
}

func TestDetailsInvalidID(t *testing.T) {
	c := NewClient("")
	if _, err := c.Details(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero id, got nil")
	}
}

func TestDescriptionFallback(t *testing.T) {
	m := Movie{Summary: "short"}
	if m.Description() != "short" {
		t.Errorf("description = %q, want summary", m.Description())
	}
}

// writeResponse writes a string to an http.ResponseWriter in tests.
func writeResponse(t *testing.T, w http.ResponseWriter, s string) {
	t.Helper()
	if _, err := fmt.Fprint(w, s); err != nil {
		t.Errorf("write response: %v", err)
	}
}
