// Package catalog fetches movie listings and details from a YTS-style
// catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://yts.mx/api/v2"
	defaultTimeout = 10 * time.Second
	userAgent      = "reelreviews"
)

// Movie is the subset of catalog fields the CLI shows.
type Movie struct {
	ID               int      `json:"id"`
	Title            string   `json:"title"`
	Year             int      `json:"year"`
	Rating           float64  `json:"rating"`
	Runtime          int      `json:"runtime"`
	Genres           []string `json:"genres"`
	Summary          string   `json:"summary"`
	DescriptionFull  string   `json:"description_full"`
	MediumCoverImage string   `json:"medium_cover_image"`
}

// Description returns the long description, falling back to the summary.
func (m Movie) Description() string {
	if m.DescriptionFull != "" {
		return m.DescriptionFull
	}
	return m.Summary
}

// ListOptions filters and pages a catalog listing. Zero values are omitted.
type ListOptions struct {
	Query string
	Genre string
	Sort  string
	Limit int
	Page  int
}

// Page is one page of a catalog listing.
type Page struct {
	MovieCount int     `json:"movie_count"`
	Limit      int     `json:"limit"`
	PageNumber int     `json:"page_number"`
	Movies     []Movie `json:"movies"`
}

// envelope wraps every catalog response.
type envelope[T any] struct {
	Status        string `json:"status"`
	StatusMessage string `json:"status_message"`
	Data          T      `json:"data"`
}

// Client reads from the catalog API. It is read-only and keeps no state.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a catalog client. An empty baseURL uses the public API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
	}
}

// List returns one page of movies.
func (c *Client) List(ctx context.Context, opts ListOptions) (*Page, error) {
	params := url.Values{}
	if opts.Query != "" {
		params.Set("query_term", opts.Query)
	}
	if opts.Genre != "" {
		params.Set("genre", opts.Genre)
	}
	if opts.Sort != "" {
		params.Set("sort_by", opts.Sort)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}

	var page Page
	if err := c.get(ctx, "/list_movies.json", params, &page); err != nil {
		return nil, fmt.Errorf("listing movies: %w", err)
	}
	return &page, nil
}

// Details returns one movie by catalog id.
func (c *Client) Details(ctx context.Context, id int) (*Movie, error) {
	if id <= 0 {
		return nil, fmt.Errorf("movie id must be positive")
	}

	var data struct {
		Movie Movie `json:"movie"`
	}
	params := url.Values{"movie_id": {strconv.Itoa(id)}}
	if err := c.get(ctx, "/movie_details.json", params, &data); err != nil {
		return nil, fmt.Errorf("fetching movie %d: %w", id, err)
	}
	if data.Movie.ID == 0 {
		return nil, fmt.Errorf("movie %d not found", id)
	}
	return &data.Movie, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, data any) (err error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	env := envelope[json.RawMessage]{}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if env.Status != "ok" {
		return fmt.Errorf("catalog error: %s", env.StatusMessage)
	}
	if err := json.Unmarshal(env.Data, data); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}
	return nil
}
