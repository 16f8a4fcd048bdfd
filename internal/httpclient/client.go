// Package httpclient provides HTTP client functionality for fetching registry snapshots
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// MaxResponseSize is the default maximum allowed response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "bcr-api/1.0"

	// AcceptCompressed is the Accept header sent when fetching snapshots
	AcceptCompressed = "application/gzip, application/zstd, application/octet-stream"
)

// ErrNetwork is matched by every error returned from Client.Get
var ErrNetwork = errors.New("failed to fetch registry")

// HTTPError is wrapped in ErrNetwork when the server answers with a non-2xx status
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	text := http.StatusText(e.StatusCode)
	if text == "" {
		return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("HTTP %d %s from %s", e.StatusCode, text, e.URL)
}

// NewHTTPError returns the ErrNetwork-wrapped error for a non-2xx response from url
func NewHTTPError(statusCode int, url string) error {
	return fmt.Errorf("%w: %w", ErrNetwork, &HTTPError{StatusCode: statusCode, URL: url})
}

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client is an interface for HTTP operations
type Client interface {
	// Get performs a single HTTP GET request and returns the full response body
	Get(ctx context.Context, url string) ([]byte, error)
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client          *http.Client
	maxResponseSize int64
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithMaxResponseSize sets the largest response body accepted.
// Values <= 0 keep MaxResponseSize.
func WithMaxResponseSize(size int64) Option {
	return func(c *DefaultClient) {
		if size > 0 {
			c.maxResponseSize = size
		}
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(client *http.Client) Option {
	return func(c *DefaultClient) {
		if client != nil {
			c.client = client
		}
	}
}

// NewDefaultClient creates a new default HTTP client with the specified timeout.
// A zero timeout leaves the platform default in place; the request context still applies.
// Requests are never retried.
func NewDefaultClient(timeout time.Duration, opts ...Option) Client {
	c := &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
		maxResponseSize: MaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET request
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrNetwork, err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", AcceptCompressed)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %w", ErrNetwork, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, NewHTTPError(resp.StatusCode, url)
	}

	// Check Content-Length header if available
	if resp.ContentLength > c.maxResponseSize {
		return nil, fmt.Errorf("%w: response size %d bytes exceeds maximum allowed size of %d bytes (%.2f MB)",
			ErrNetwork, resp.ContentLength, c.maxResponseSize, float64(c.maxResponseSize)/(1024*1024))
	}

	// +1 to detect if limit exceeded
	limitedReader := io.LimitReader(resp.Body, c.maxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrNetwork, err)
	}

	if int64(len(body)) > c.maxResponseSize {
		return nil, fmt.Errorf("%w: response size exceeds maximum allowed size of %d bytes (%.2f MB)",
			ErrNetwork, c.maxResponseSize, float64(c.maxResponseSize)/(1024*1024))
	}

	return body, nil
}
