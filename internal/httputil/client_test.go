// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bibmatch/pkg/types"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
}

func testClient(ts *httptest.Server) *Client {
	return NewClient(types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"}, 1000, WithHTTPClient(ts.Client()))
}

func TestGetImmediateSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "test/0.1", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	resp, err := testClient(ts).Get(context.Background(), ts.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetRetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	resp, err := testClient(ts).Get(context.Background(), ts.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetExhaustsAttemptsOnPersistent503(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	resp, err := testClient(ts).Get(context.Background(), ts.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	// Exactly the configured attempt budget, no more.
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGet404NotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	resp, err := testClient(ts).Get(context.Background(), ts.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetContextCancelledDuringBackoff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := testClient(ts).Get(ctx, ts.URL, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetJSONDecodesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"title":"A Paper"}`))
	}))
	defer ts.Close()

	var out struct {
		Title string `json:"title"`
	}
	resp, err := testClient(ts).GetJSON(context.Background(), ts.URL, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "A Paper", out.Title)
}

func TestGetJSONUnwrapsDoubleEncodedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`"{\"title\":\"A Paper\"}"`))
	}))
	defer ts.Close()

	var out struct {
		Title string `json:"title"`
	}
	_, err := testClient(ts).GetJSON(context.Background(), ts.URL, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "A Paper", out.Title)
}

func TestGetJSONMalformedBodyReturnsErrorNotPanic(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer ts.Close()

	var out map[string]any
	resp, err := testClient(ts).GetJSON(context.Background(), ts.URL, nil, &out)
	assert.Error(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestBackoffDelayCapped(t *testing.T) {
	old := RetryBaseDelay
	RetryBaseDelay = 2 * time.Second
	defer func() { RetryBaseDelay = old }()

	assert.Equal(t, 2*time.Second, backoffDelay(1))
	assert.Equal(t, 4*time.Second, backoffDelay(2))
	assert.Equal(t, 8*time.Second, backoffDelay(3))
	assert.Equal(t, 15*time.Second, backoffDelay(4))
	assert.Equal(t, 15*time.Second, backoffDelay(10))
}
