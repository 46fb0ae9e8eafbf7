// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the resilient HTTP helper shared by all index
// adapters: bounded retry with exponential backoff on transient failures,
// per-client rate limiting for provider politeness, and lenient JSON
// decoding.
package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/bibmatch/pkg/types"
)

// RetryBaseDelay is the base duration for exponential backoff on transient
// HTTP failures. It doubles per attempt and is capped at retryMaxDelay.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const (
	retryMaxDelay      = 15 * time.Second
	defaultMaxAttempts = 3
	defaultTimeout     = 30 * time.Second
	defaultRate        = 5.0
)

// transientStatus lists the HTTP statuses worth retrying. Everything else,
// including 404 and other 4xx, returns immediately on the first attempt.
var transientStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client issues outbound lookups for one provider. Each adapter holds its
// own Client so rate limits stay per-provider.
type Client struct {
	http        *http.Client
	limiter     *rate.Limiter
	userAgent   string
	maxAttempts int
}

// Response is the outcome of a completed request sequence.
type Response struct {
	Status int
	Body   []byte
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client (for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMaxAttempts overrides the total attempt budget for transient failures.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// NewClient builds a rate-limited client from shared HTTP settings.
// requestsPerSecond <= 0 falls back to the default rate.
func NewClient(cfg types.HTTPConfig, requestsPerSecond float64, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = defaultRate
	}
	c := &Client{
		http:        &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		userAgent:   cfg.UserAgent,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET with bounded retry on transient failures (429, 500, 502,
// 503, 504, and network errors). The backoff starts at RetryBaseDelay and
// doubles per attempt, capped at 15s. Non-transient statuses return on the
// first attempt. After the attempt budget is spent the last transient
// response is returned as-is so the caller can classify it.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (Response, error) {
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return Response{}, fmt.Errorf("creating request: %w", err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		// Callers may override the User-Agent (e.g. to advertise a mailto).
		if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt >= c.maxAttempts {
				return Response{}, fmt.Errorf("request failed after %d attempts: %w", attempt, err)
			}
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return Response{}, fmt.Errorf("reading response body: %w", readErr)
			}
			if !transientStatus[resp.StatusCode] || attempt >= c.maxAttempts {
				return Response{Status: resp.StatusCode, Body: body}, nil
			}
		}

		delay := backoffDelay(attempt)
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// GetJSON issues Get and, on HTTP 200, decodes the body into v. Bodies that
// arrive double-encoded (a JSON string containing JSON, seen from proxying
// layers) are unwrapped before decoding. A decode failure is returned as an
// error for the caller to classify; it never panics.
func (c *Client) GetJSON(ctx context.Context, rawURL string, header http.Header, v any) (Response, error) {
	resp, err := c.Get(ctx, rawURL, header)
	if err != nil {
		return resp, err
	}
	if resp.Status != http.StatusOK || v == nil {
		return resp, nil
	}
	if err := decodeLenient(resp.Body, v); err != nil {
		return resp, err
	}
	return resp, nil
}

// decodeLenient decodes JSON into v, retrying once through a string
// unwrap when the body is double-encoded.
func decodeLenient(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		if err := json.Unmarshal([]byte(s), v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("unexpected response shape")
}

func backoffDelay(attempt int) time.Duration {
	delay := RetryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= retryMaxDelay {
			return retryMaxDelay
		}
	}
	return delay
}
