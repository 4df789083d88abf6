package mock

import (
	"context"

	"github.com/fwojciec/docindex"
)

var _ docindex.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of docindex.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string, policy docindex.CrawlPolicy) (*docindex.FetchResult, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string, policy docindex.CrawlPolicy) (*docindex.FetchResult, error) {
	return f.FetchFn(ctx, url, policy)
}
