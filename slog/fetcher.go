package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docindex"
)

// Ensure LoggingFetcher implements docindex.Fetcher.
var _ docindex.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   docindex.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next docindex.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the request.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string, policy docindex.CrawlPolicy) (result *docindex.FetchResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", url,
			"duration", time.Since(begin),
		}
		if result != nil {
			attrs = append(attrs,
				"status", result.StatusCode,
				"bytes", len(result.Body),
				"attempts", result.Attempts,
			)
		}
		if err != nil {
			attrs = append(attrs, "err", err)
			f.logger.Warn("fetch", attrs...)
			return
		}
		f.logger.Info("fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, url, policy)
}
