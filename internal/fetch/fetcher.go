package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Size limits for fetched pages.
const (
	// MinContentSize is the smallest body accepted as a real page.
	// Documentation pages below this are almost always JS loading shells
	// or soft error pages.
	MinContentSize = 1000

	// MaxContentSize caps the body read, protecting against runaway
	// responses.
	MaxContentSize = 20 << 20 // 20 MiB
)

// Result is a successfully fetched page.
type Result struct {
	// FinalURL is the URL after following redirects. Differs from the
	// requested URL when the page moved.
	FinalURL string

	// HTML is the page body.
	HTML string
}

// Fetcher retrieves a page. Implementations must be safe for concurrent
// use by multiple workers.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Client is the HTTP Fetcher used in production.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Tests use this to
// point the fetcher at an httptest server transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates an HTTP fetcher with the given per-request timeout.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves a page, following redirects. The returned Result carries
// the final URL so the caller can detect and record redirects.
func (c *Client) Fetch(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("%s returned %d: %w", url, resp.StatusCode, err)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("%s has content type %q: %w", url, ct, ErrNotHTML)
	}

	// Read one byte past the cap to distinguish "exactly at the limit"
	// from "truncated".
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	if len(body) > MaxContentSize {
		return nil, fmt.Errorf("%s: %w", url, ErrBodyTooLarge)
	}
	if len(body) < MinContentSize {
		return nil, fmt.Errorf("%s returned %d bytes: %w", url, len(body), ErrContentTooSmall)
	}

	return &Result{
		FinalURL: resp.Request.URL.String(),
		HTML:     string(body),
	}, nil
}

// checkStatus maps an HTTP status code to a fetch error, or nil for 2xx.
func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		return ErrTooManyRequests
	case code >= 500:
		return ErrServerError
	default:
		return fmt.Errorf("unexpected status %d", code)
	}
}
