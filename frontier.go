package docindex

import "context"

// FrontierItem is a not-yet-visited URL together with its link distance
// from the entry URL.
type FrontierItem struct {
	URL   string
	Depth int
}

// URLFrontier is the worklist of one crawl session.
type URLFrontier interface {
	// Push schedules an item. Returns false if the URL was already scheduled
	// or visited in this session.
	Push(item FrontierItem) bool

	// Pop returns the next item in FIFO order.
	// Returns false if the frontier is empty.
	Pop() (FrontierItem, bool)

	// Len returns the number of items waiting.
	Len() int

	// Seen returns true if the URL has been scheduled or visited.
	Seen(url string) bool
}

// DomainLimiter provides per-domain request spacing.
type DomainLimiter interface {
	// Wait blocks until the limiter allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
