package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/docindex"
	"golang.org/x/time/rate"
)

var _ docindex.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter spaces requests per domain using token buckets with a burst
// of 1. The first request to a domain proceeds immediately; each following
// request waits at least interval after the previous one.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
}

// NewDomainLimiter creates a DomainLimiter enforcing interval between requests
// to the same domain. A non-positive interval disables waiting.
func NewDomainLimiter(interval time.Duration) *DomainLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
	}
}

// Wait blocks until the limiter allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(d.limit, 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
