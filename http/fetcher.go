// Package http provides an HTTP implementation of docindex.Fetcher for
// static documentation sites.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/fwojciec/docindex"
)

// DefaultMaxBodySize bounds how many bytes of a response body are read.
const DefaultMaxBodySize = 10 << 20

// Ensure Fetcher implements docindex.Fetcher at compile time.
var _ docindex.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML over HTTP. It does not execute JavaScript.
// Each call to Fetch is one logical request with its own retry budget.
type Fetcher struct {
	client      *http.Client
	backoff     Backoff
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the underlying HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithBackoff sets the retry backoff. Defaults to DefaultBackoff().
func WithBackoff(b Backoff) Option {
	return func(f *Fetcher) {
		f.backoff = b
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per response.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithLogger sets the logger used to report retries.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		backoff:     DefaultBackoff(),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.logger == nil {
		f.logger = slog.New(slog.DiscardHandler)
	}
	return f
}

// Fetch retrieves rawURL. Timeouts, DNS failures and other network errors are
// retried up to policy.MaxRetries times. Non-2xx responses fail immediately.
// Cancellation of ctx stops retries, including during backoff sleeps.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, policy docindex.CrawlPolicy) (*docindex.FetchResult, error) {
	policy = policy.WithDefaults()

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &docindex.FetchError{URL: rawURL, Cause: docindex.CauseInvalid, Err: err}
	}

	var lastErr *docindex.FetchError
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.backoff.Delay(attempt - 1)
			f.logger.Debug("retrying fetch", "url", rawURL, "attempt", attempt+1, "delay", delay, "cause", lastErr.Cause)
			if err := sleep(ctx, delay); err != nil {
				return nil, &docindex.FetchError{URL: rawURL, Cause: docindex.CauseCanceled, Attempts: attempt, Err: err}
			}
		}

		result, ferr := f.attempt(ctx, rawURL, policy)
		if ferr == nil {
			result.Attempts = attempt + 1
			return result, nil
		}
		ferr.Attempts = attempt + 1
		if !ferr.Retryable() {
			return nil, ferr
		}
		lastErr = ferr
	}
	return nil, lastErr
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string, policy docindex.CrawlPolicy) (*docindex.FetchResult, *docindex.FetchError) {
	attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &docindex.FetchError{URL: rawURL, Cause: docindex.CauseInvalid, Err: err}
	}
	req.Header.Set("User-Agent", policy.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(ctx, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &docindex.FetchError{
			URL:        rawURL,
			Cause:      docindex.CauseHTTP,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, classify(ctx, rawURL, err)
	}

	return &docindex.FetchResult{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, nil
}

// classify maps a transport error to its terminal cause. parent is the
// caller's context: its cancellation is never retried, whereas an expired
// per-attempt deadline is a retryable timeout.
func classify(parent context.Context, rawURL string, err error) *docindex.FetchError {
	fe := &docindex.FetchError{URL: rawURL, Err: err}

	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case parent.Err() != nil:
		fe.Cause = docindex.CauseCanceled
	case errors.As(err, &dnsErr):
		fe.Cause = docindex.CauseDNS
	case errors.Is(err, context.DeadlineExceeded):
		fe.Cause = docindex.CauseTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		fe.Cause = docindex.CauseTimeout
	default:
		fe.Cause = docindex.CauseNetwork
	}
	return fe
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
