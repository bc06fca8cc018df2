// Package fetch retrieves raw upstream list bodies over HTTP. Each source is
// fetched independently; failures come back as *Error so the pipeline can
// apply its degraded-mode policy per source.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	logpkg "github.com/velden/splitgen/internal/split/common/log"
	"github.com/velden/splitgen/internal/split/services/pipeline"
)

// Error is a per-source fetch failure.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("fetching %s: %v", e.URL, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Options configures the HTTP client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Retries   int // additional attempts after the first
}

var _ pipeline.Fetcher = (*Client)(nil)

// Client fetches list bodies with retries and a fixed User-Agent.
type Client struct {
	http      *http.Client
	userAgent string
	retries   int
	logger    logpkg.Logger
}

// New constructs a Client.
func New(opts Options, logger logpkg.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		retries:   opts.Retries,
		logger:    logger,
	}
}

// Fetch retrieves the body at url, retrying transient failures with a short
// linear backoff. The context bounds the whole attempt sequence.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &Error{URL: url, Err: ctx.Err()}
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			c.logger.Debug(map[string]any{"url": url, "attempt": attempt + 1}, "fetch_retry")
		}

		body, err := c.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, &Error{URL: url, Err: lastErr}
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
