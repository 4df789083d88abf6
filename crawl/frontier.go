package crawl

import (
	"strings"
	"sync"

	"github.com/fwojciec/docindex"
)

// Compile-time interface verification.
var _ docindex.URLFrontier = (*Frontier)(nil)

// Frontier is an in-memory FIFO worklist with exact deduplication.
// URLs are never re-enqueued once seen, which bounds a crawl together with
// the depth limit. It is safe for concurrent use.
type Frontier struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	queue []docindex.FrontierItem
}

// NewFrontier creates an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{seen: make(map[string]struct{})}
}

// Push adds an item to the back of the queue.
// Returns false if the URL has already been seen.
// URLs differing only by fragment are considered duplicates.
func (f *Frontier) Push(item docindex.FrontierItem) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	item.URL = stripFragment(item.URL)
	if _, ok := f.seen[item.URL]; ok {
		return false
	}
	f.seen[item.URL] = struct{}{}
	f.queue = append(f.queue, item)
	return true
}

// Pop removes and returns the oldest item.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (docindex.FrontierItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return docindex.FrontierItem{}, false
	}
	item := f.queue[0]
	f.queue[0] = docindex.FrontierItem{}
	f.queue = f.queue[1:]
	return item, true
}

// Len returns the number of items waiting.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Seen returns true if the URL has been queued before.
// URL fragments are stripped before checking.
func (f *Frontier) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[stripFragment(rawURL)]
	return ok
}

func stripFragment(rawURL string) string {
	if idx := strings.Index(rawURL, "#"); idx != -1 {
		return rawURL[:idx]
	}
	return rawURL
}
