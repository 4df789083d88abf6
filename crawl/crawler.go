// Package crawl orchestrates documentation crawling: it walks a frontier of
// URLs from a target's entry point, fetching, extracting and chunking each
// page, and hands the resulting passages to the store.
package crawl

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/fwojciec/docindex"
)

// DefaultMaxChildren bounds how many discovered links of one page are scheduled.
const DefaultMaxChildren = 50

// Crawler walks one target at a time. A crawl performs one fetch at a time,
// spacing requests to the same host by the target's inter-request delay.
type Crawler struct {
	Fetcher   docindex.Fetcher
	Extractor docindex.Extractor
	Logger    *slog.Logger

	// ChunkOptions controls passage sizes. Zero value means defaults.
	ChunkOptions docindex.ChunkOptions

	// MaxChildren bounds fan-out per page. Zero means DefaultMaxChildren.
	MaxChildren int

	// NewLimiter builds the per-session politeness limiter.
	// Defaults to NewDomainLimiter.
	NewLimiter func(interval time.Duration) docindex.DomainLimiter

	// NewFrontier builds the per-session worklist. Defaults to NewFrontier.
	NewFrontier func() docindex.URLFrontier

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type     ProgressType
	Source   string
	URL      string
	Depth    int
	Pages    int
	Passages int
	Queued   int
	Error    error

	// Page is set on ProgressPage events.
	Page *docindex.ExtractedPage
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressPage
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// Crawl walks session.Target breadth-first from its entry URL, accumulating
// passages and per-URL errors in session. Per-URL failures never abort the
// crawl. Crawl returns an error only for an invalid target or when ctx is
// canceled; the session keeps whatever was gathered before cancellation.
func (c *Crawler) Crawl(ctx context.Context, session *docindex.CrawlSession, progress ProgressFunc) error {
	target := session.Target
	if target == nil {
		return docindex.Errorf(docindex.EINVALID, "crawl session has no target")
	}
	if err := target.Validate(); err != nil {
		return err
	}

	policy := target.Policy.WithDefaults()
	entry, _ := url.Parse(target.EntryURL)
	logger := c.logger().With("session", session.ID, "source", target.Metadata.SourceName)
	limiter := c.limiter(policy.InterRequestDelay)
	maxChildren := c.MaxChildren
	if maxChildren <= 0 {
		maxChildren = DefaultMaxChildren
	}

	emit := func(e ProgressEvent) {
		if progress == nil {
			return
		}
		e.Source = target.Metadata.SourceName
		e.Pages = session.Pages
		e.Passages = len(session.Passages)
		progress(e)
	}

	frontier := c.frontier()
	frontier.Push(docindex.FrontierItem{URL: target.EntryURL, Depth: 0})

	session.StartedAt = c.now()
	emit(ProgressEvent{Type: ProgressStarted, URL: target.EntryURL, Queued: frontier.Len()})

	var crawlErr error
	for {
		item, ok := frontier.Pop()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			crawlErr = err
			break
		}
		if item.Depth > policy.MaxDepth || session.HasVisited(item.URL) {
			continue
		}
		if len(session.Visited) >= policy.MaxPages {
			logger.Warn("page limit reached", "limit", policy.MaxPages, "queued", frontier.Len()+1)
			break
		}
		session.MarkVisited(item.URL)

		if err := limiter.Wait(ctx, entry.Host); err != nil {
			crawlErr = err
			break
		}

		page, err := c.visit(ctx, item.URL, target, policy)
		if err != nil {
			if ctx.Err() != nil {
				crawlErr = ctx.Err()
				break
			}
			logger.Warn("page failed", "url", item.URL, "depth", item.Depth, "error", err)
			session.RecordError(item.URL, err)
			emit(ProgressEvent{Type: ProgressFailed, URL: item.URL, Depth: item.Depth, Queued: frontier.Len(), Error: err})
			continue
		}

		session.Pages++
		passages := docindex.Chunk(page.ContentText, c.passageMetadata(target, item.URL, page), c.ChunkOptions)
		if len(passages) == 0 {
			logger.Warn("no content found", "url", item.URL)
		}
		session.Passages = append(session.Passages, passages...)

		if policy.FollowLinks && item.Depth < policy.MaxDepth {
			scheduled := 0
			for _, link := range page.DiscoveredLinks {
				if scheduled >= maxChildren {
					break
				}
				if !sameHost(link, entry) || session.HasVisited(link) {
					continue
				}
				if frontier.Push(docindex.FrontierItem{URL: link, Depth: item.Depth + 1}) {
					scheduled++
				}
			}
		}

		logger.Debug("page crawled", "url", item.URL, "depth", item.Depth, "passages", len(passages), "queued", frontier.Len())
		emit(ProgressEvent{Type: ProgressPage, URL: item.URL, Depth: item.Depth, Queued: frontier.Len(), Page: page})
	}

	session.FinishedAt = c.now()
	emit(ProgressEvent{Type: ProgressFinished, Error: crawlErr})
	logger.Info("crawl finished",
		"pages", session.Pages,
		"passages", len(session.Passages),
		"errors", len(session.Errors),
		"duration", session.FinishedAt.Sub(session.StartedAt))

	return crawlErr
}

// visit fetches and extracts one URL.
func (c *Crawler) visit(ctx context.Context, pageURL string, target *docindex.CrawlTarget, policy docindex.CrawlPolicy) (*docindex.ExtractedPage, error) {
	result, err := c.Fetcher.Fetch(ctx, pageURL, policy)
	if err != nil {
		return nil, err
	}
	page, err := c.Extractor.Extract(result.Body, pageURL, target)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Crawler) passageMetadata(target *docindex.CrawlTarget, pageURL string, page *docindex.ExtractedPage) docindex.PassageMetadata {
	if page.URL != "" {
		pageURL = page.URL
	}
	framework := target.Metadata.Framework
	if framework == "" {
		framework = string(page.Framework)
	}
	return docindex.PassageMetadata{
		Source:      target.Metadata.SourceName,
		Title:       page.Title,
		URL:         pageURL,
		Language:    target.Metadata.Language,
		Framework:   framework,
		Version:     target.Metadata.Version,
		LastUpdated: c.now(),
	}
}

func (c *Crawler) limiter(interval time.Duration) docindex.DomainLimiter {
	if c.NewLimiter != nil {
		return c.NewLimiter(interval)
	}
	return NewDomainLimiter(interval)
}

func (c *Crawler) frontier() docindex.URLFrontier {
	if c.NewFrontier != nil {
		return c.NewFrontier()
	}
	return NewFrontier()
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (c *Crawler) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func sameHost(rawURL string, entry *url.URL) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host == entry.Host
}
