package mock

import (
	"context"

	"github.com/fwojciec/docindex"
)

var _ docindex.URLFrontier = (*URLFrontier)(nil)

// URLFrontier is a mock implementation of docindex.URLFrontier.
type URLFrontier struct {
	PushFn func(item docindex.FrontierItem) bool
	PopFn  func() (docindex.FrontierItem, bool)
	LenFn  func() int
	SeenFn func(url string) bool
}

func (f *URLFrontier) Push(item docindex.FrontierItem) bool {
	return f.PushFn(item)
}

func (f *URLFrontier) Pop() (docindex.FrontierItem, bool) {
	return f.PopFn()
}

func (f *URLFrontier) Len() int {
	return f.LenFn()
}

func (f *URLFrontier) Seen(url string) bool {
	return f.SeenFn(url)
}

var _ docindex.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of docindex.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
