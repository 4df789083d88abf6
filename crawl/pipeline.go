package crawl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/docindex"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is how many targets RunCrawlBatch crawls at once.
const DefaultConcurrency = 4

// Pipeline wires crawls to the store and is the entry point for callers.
type Pipeline struct {
	Crawler *Crawler
	Store   docindex.Store

	// TokenCounter, if set, accumulates token counts of crawled page content.
	TokenCounter docindex.TokenCounter

	// Pages, if set, receives every extracted page.
	Pages docindex.PageWriter

	// Concurrency bounds RunCrawlBatch parallelism across targets.
	Concurrency int

	Logger *slog.Logger

	// writeMu serializes ingestion so sub-batches from concurrent crawls never interleave.
	writeMu sync.Mutex
}

// Result is the outcome of one crawl.
type Result struct {
	SessionID       string                `json:"sessionId"`
	Source          string                `json:"source"`
	Pages           int                   `json:"pages"`
	Passages        int                   `json:"passages"`
	PassagesWritten int                   `json:"passagesWritten"`
	Ingest          docindex.IngestResult `json:"ingest"`
	Tokens          int                   `json:"tokens"`
	Bytes           int                   `json:"bytes"`
	Errors          []docindex.CrawlError `json:"errors"`
	Duration        time.Duration         `json:"duration"`
}

// BatchResult aggregates the outcomes of several crawls.
type BatchResult struct {
	Results         []*Result             `json:"results"`
	Pages           int                   `json:"pages"`
	PassagesWritten int                   `json:"passagesWritten"`
	Tokens          int                   `json:"tokens"`
	Errors          []docindex.CrawlError `json:"errors"`
}

// RunCrawl crawls target and ingests its passages. Per-URL and recoverable
// store failures are reported in Result.Errors; an error is returned only for
// an invalid target or a canceled context.
func (p *Pipeline) RunCrawl(ctx context.Context, target *docindex.CrawlTarget, progress ProgressFunc) (*Result, error) {
	if target == nil {
		return nil, docindex.Errorf(docindex.EINVALID, "crawl target required")
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}

	session := docindex.NewCrawlSession(uuid.NewString(), target)
	result := &Result{SessionID: session.ID, Source: target.Metadata.SourceName}
	logger := p.logger().With("session", session.ID, "source", result.Source)

	onEvent := func(e ProgressEvent) {
		if e.Type == ProgressPage && e.Page != nil {
			p.observePage(ctx, logger, target, e.Page, result)
		}
		if progress != nil {
			progress(e)
		}
	}

	start := time.Now()
	crawlErr := p.Crawler.Crawl(ctx, session, onEvent)

	result.Pages = session.Pages
	result.Passages = len(session.Passages)
	result.Errors = append(result.Errors, session.Errors...)

	if crawlErr != nil {
		result.Duration = time.Since(start)
		return result, crawlErr
	}

	if len(session.Passages) > 0 {
		p.writeMu.Lock()
		ingest, err := p.Store.AddDocuments(ctx, session.Passages)
		p.writeMu.Unlock()
		if ingest != nil {
			result.Ingest = *ingest
			result.PassagesWritten = ingest.Written
		}
		if err != nil {
			logger.Error("ingest failed", "error", err)
			result.Errors = append(result.Errors, docindex.CrawlError{
				URL:     target.EntryURL,
				Message: err.Error(),
				Code:    docindex.ErrorCode(err),
			})
		}
	}

	result.Duration = time.Since(start)
	logger.Info("crawl ingested",
		"pages", result.Pages,
		"passages", result.Passages,
		"written", result.PassagesWritten,
		"errors", len(result.Errors),
		"duration", result.Duration)
	return result, nil
}

// observePage accounts for and optionally persists one extracted page.
func (p *Pipeline) observePage(ctx context.Context, logger *slog.Logger, target *docindex.CrawlTarget, page *docindex.ExtractedPage, result *Result) {
	result.Bytes += len(page.ContentText)
	if p.TokenCounter != nil && page.ContentText != "" {
		if tokens, err := p.TokenCounter.CountTokens(ctx, page.ContentText); err == nil {
			result.Tokens += tokens
		} else {
			logger.Debug("token count failed", "url", page.URL, "error", err)
		}
	}
	if p.Pages != nil {
		if err := p.Pages.WritePage(ctx, target.Metadata.SourceName, page); err != nil {
			logger.Warn("page dump failed", "url", page.URL, "error", err)
		}
	}
}

// RunCrawlBatch crawls targets concurrently, at most Concurrency at a time.
// Distinct targets have disjoint sessions; results keep the input order.
// All targets are validated before any crawl starts.
func (p *Pipeline) RunCrawlBatch(ctx context.Context, targets []*docindex.CrawlTarget, progress ProgressFunc) (*BatchResult, error) {
	for i, target := range targets {
		if target == nil {
			return nil, docindex.Errorf(docindex.EINVALID, "crawl target %d is nil", i)
		}
		if err := target.Validate(); err != nil {
			return nil, err
		}
	}

	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var progressMu sync.Mutex
	safeProgress := progress
	if progress != nil {
		safeProgress = func(e ProgressEvent) {
			progressMu.Lock()
			defer progressMu.Unlock()
			progress(e)
		}
	}

	results := make([]*Result, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, target := range targets {
		g.Go(func() error {
			r, err := p.RunCrawl(gctx, target, safeProgress)
			results[i] = r
			return err
		})
	}
	err := g.Wait()

	batch := &BatchResult{Results: make([]*Result, 0, len(results))}
	for _, r := range results {
		if r == nil {
			continue
		}
		batch.Results = append(batch.Results, r)
		batch.Pages += r.Pages
		batch.PassagesWritten += r.PassagesWritten
		batch.Tokens += r.Tokens
		batch.Errors = append(batch.Errors, r.Errors...)
	}
	return batch, err
}

// Search queries the index. An empty query is EINVALID.
func (p *Pipeline) Search(ctx context.Context, query string, opts docindex.SearchOptions) ([]docindex.SearchResult, error) {
	return p.Store.Search(ctx, query, opts)
}

// IndexStats aggregates metadata across the index.
func (p *Pipeline) IndexStats(ctx context.Context) docindex.CollectionStats {
	return p.Store.CollectionStats(ctx)
}

// ClearSource removes every passage of the named source and returns how many
// were removed.
func (p *Pipeline) ClearSource(ctx context.Context, name string) (int, error) {
	if name == "" {
		return 0, docindex.Errorf(docindex.EINVALID, "source name required")
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.Store.DeleteByFilter(ctx, docindex.PassageFilter{Source: &name})
}

// ClearAll removes every passage from the index.
func (p *Pipeline) ClearAll(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.Store.ClearCollection(ctx)
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.DiscardHandler)
}
