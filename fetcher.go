package docindex

import (
	"context"
	"fmt"
	"net/http"
)

// FetchResult is the outcome of a successful GET request.
type FetchResult struct {
	URL        string
	StatusCode int
	Body       string
	Attempts   int
}

// Fetcher retrieves raw HTML from URLs.
type Fetcher interface {
	// Fetch issues a single logical GET request for url, applying the timeout,
	// user agent and retry budget of policy. Network-class failures are retried
	// with exponential backoff; non-2xx responses fail immediately.
	// Failures are reported as *FetchError.
	Fetch(ctx context.Context, url string, policy CrawlPolicy) (*FetchResult, error)
}

// FailureCause tags the terminal cause of a failed fetch.
type FailureCause string

// Fetch failure causes.
const (
	CauseTimeout  FailureCause = "timeout-exhausted"
	CauseHTTP     FailureCause = "http-error"
	CauseDNS      FailureCause = "dns-error"
	CauseNetwork  FailureCause = "network-error"
	CauseCanceled FailureCause = "canceled"
	CauseInvalid  FailureCause = "invalid-request"
)

// FetchError reports a failed fetch after retries are exhausted.
type FetchError struct {
	URL        string
	Cause      FailureCause
	StatusCode int
	Attempts   int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	switch {
	case e.Cause == CauseHTTP:
		return fmt.Sprintf("fetch %s: %s: HTTP %d", e.URL, e.Cause, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s after %d attempt(s): %v", e.URL, e.Cause, e.Attempts, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s after %d attempt(s)", e.URL, e.Cause, e.Attempts)
	}
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the cause belongs to the transient-network class.
func (e *FetchError) Retryable() bool {
	switch e.Cause {
	case CauseTimeout, CauseDNS, CauseNetwork:
		return true
	}
	return false
}

func (e *FetchError) code() string {
	switch e.Cause {
	case CauseTimeout:
		return ETIMEOUT
	case CauseInvalid:
		return EINVALID
	case CauseHTTP:
		switch e.StatusCode {
		case http.StatusNotFound, http.StatusGone:
			return ENOTFOUND
		case http.StatusUnauthorized, http.StatusForbidden:
			return EFORBIDDEN
		}
	}
	return EUNAVAILABLE
}
