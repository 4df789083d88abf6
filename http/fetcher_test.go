package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/docindex"
	dochttp "github.com/fwojciec/docindex/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastFetcher() *dochttp.Fetcher {
	return dochttp.NewFetcher(dochttp.WithBackoff(dochttp.Backoff{Base: time.Millisecond, Max: 4 * time.Millisecond}))
}

func policy(retries int, timeout time.Duration) docindex.CrawlPolicy {
	return docindex.CrawlPolicy{MaxRetries: retries, Timeout: timeout, UserAgent: "docindex-test"}
}

// dropConnection closes the underlying connection without writing a response.
func dropConnection(t *testing.T, w http.ResponseWriter) {
	t.Helper()
	hj, ok := w.(http.Hijacker)
	require.True(t, ok)
	conn, _, err := hj.Hijack()
	require.NoError(t, err)
	_ = conn.Close()
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns HTML body and sends user agent", func(t *testing.T) {
		t.Parallel()

		var gotUA string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.UserAgent()
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>Hello World</body></html>"))
		}))
		defer server.Close()

		fetcher := fastFetcher()
		defer fetcher.Close()

		result, err := fetcher.Fetch(context.Background(), server.URL, policy(3, time.Second))

		require.NoError(t, err)
		assert.Equal(t, "<html><body>Hello World</body></html>", result.Body)
		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.Equal(t, 1, result.Attempts)
		assert.Equal(t, "docindex-test", gotUA)
	})

	t.Run("fails immediately on non-2xx status", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := fastFetcher().Fetch(context.Background(), server.URL, policy(3, time.Second))

		var fe *docindex.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, docindex.CauseHTTP, fe.Cause)
		assert.Equal(t, http.StatusNotFound, fe.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, docindex.ENOTFOUND, docindex.ErrorCode(err))
	})

	t.Run("retries network failures then succeeds", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) <= 2 {
				dropConnection(t, w)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		result, err := fastFetcher().Fetch(context.Background(), server.URL, policy(3, time.Second))

		require.NoError(t, err)
		assert.Equal(t, "ok", result.Body)
		assert.Equal(t, 3, result.Attempts)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			dropConnection(t, w)
		}))
		defer server.Close()

		_, err := fastFetcher().Fetch(context.Background(), server.URL, policy(2, time.Second))

		var fe *docindex.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, docindex.CauseNetwork, fe.Cause)
		assert.Equal(t, 3, fe.Attempts)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("reports timeout after retries are exhausted", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		_, err := fastFetcher().Fetch(context.Background(), server.URL, policy(1, 20*time.Millisecond))

		var fe *docindex.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, docindex.CauseTimeout, fe.Cause)
		assert.Equal(t, 2, fe.Attempts)
		assert.Equal(t, docindex.ETIMEOUT, docindex.ErrorCode(err))
	})

	t.Run("does not retry when context is canceled", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fastFetcher().Fetch(ctx, server.URL, policy(3, time.Second))

		var fe *docindex.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, docindex.CauseCanceled, fe.Cause)
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("classifies DNS failures", func(t *testing.T) {
		t.Parallel()

		_, err := fastFetcher().Fetch(context.Background(), "http://non-existent-host.invalid/page", policy(0, time.Second))

		var fe *docindex.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, docindex.CauseDNS, fe.Cause)
		assert.True(t, fe.Retryable())
	})

	t.Run("rejects invalid URLs without a request", func(t *testing.T) {
		t.Parallel()

		for _, u := range []string{"", "/relative", "mailto:a@b.c", "ftp://example.com/file"} {
			_, err := fastFetcher().Fetch(context.Background(), u, policy(3, time.Second))

			var fe *docindex.FetchError
			require.ErrorAs(t, err, &fe, u)
			assert.Equal(t, docindex.CauseInvalid, fe.Cause, u)
			assert.Equal(t, docindex.EINVALID, docindex.ErrorCode(err), u)
		}
	})

	t.Run("limits body size", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("0123456789"))
		}))
		defer server.Close()

		fetcher := dochttp.NewFetcher(dochttp.WithMaxBodySize(4))

		result, err := fetcher.Fetch(context.Background(), server.URL, policy(0, time.Second))

		require.NoError(t, err)
		assert.Equal(t, "0123", result.Body)
	})
}

func TestBackoff_Delay(t *testing.T) {
	t.Parallel()

	b := dochttp.DefaultBackoff()

	assert.Equal(t, 500*time.Millisecond, b.Delay(0))
	assert.Equal(t, time.Second, b.Delay(1))
	assert.Equal(t, 2*time.Second, b.Delay(2))
	assert.Equal(t, 4*time.Second, b.Delay(3))
	assert.Equal(t, 8*time.Second, b.Delay(4))
	assert.Equal(t, 8*time.Second, b.Delay(10))
}
