// Package client provides an HTTP client for the reelreviews review store.
// Every call is bounded by a timeout and fails with an error classified by
// the errs package. The client keeps no state and never retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/evcraddock/reelreviews/internal/errs"
	"github.com/evcraddock/reelreviews/internal/review"
)

// Default call bounds.
const (
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 15 * time.Second
)

// Client is an HTTP client for the review store API.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithReadTimeout bounds List and Health calls.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.readTimeout = d
		}
	}
}

// WithWriteTimeout bounds Insert calls.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new API client.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{},
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func reviewsPath(itemID string) string {
	return "/api/items/" + url.PathEscape(itemID) + "/reviews"
}

// List returns the reviews stored for an item, newest first.
func (c *Client) List(ctx context.Context, itemID string) ([]review.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()

	var reviews []review.Review
	if err := c.get(ctx, reviewsPath(itemID), &reviews); err != nil {
		return nil, fmt.Errorf("listing reviews for %s: %w", itemID, err)
	}
	if reviews == nil {
		reviews = []review.Review{}
	}
	return reviews, nil
}

// Insert stores a review and returns the record with the server-assigned
// id and creation time. A 400 or 422 response is a validation error.
func (c *Client) Insert(ctx context.Context, d review.Draft) (review.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	var r review.Review
	err := c.post(ctx, reviewsPath(d.ItemID), d, &r)
	if err != nil {
		var re *errs.RemoteError
		if errors.As(err, &re) && (re.Status == http.StatusBadRequest || re.Status == http.StatusUnprocessableEntity) {
			return review.Review{}, fmt.Errorf("%w: %s", errs.ErrValidation, re.Message)
		}
		return review.Review{}, fmt.Errorf("inserting review: %w", err)
	}
	return r, nil
}

// Health checks that the review store answers.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()

	if err := c.get(ctx, "/health", nil); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// do executes an HTTP request with auth header and classifies failures.
func (c *Client) do(req *http.Request, result any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &errs.RemoteError{Status: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &errs.RemoteError{Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
		}
	}

	return nil
}

// classify maps a transport failure to ErrTimeout or ErrNetwork while
// keeping the original error in the chain.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", errs.ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %w", errs.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", errs.ErrNetwork, err)
}
