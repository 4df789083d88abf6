package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docindex"
)

// Ensure LoggingStore implements docindex.Store.
var _ docindex.Store = (*LoggingStore)(nil)

// LoggingStore wraps a Store with logging for every data operation.
type LoggingStore struct {
	next   docindex.Store
	logger *slog.Logger
}

// NewLoggingStore creates a new LoggingStore.
func NewLoggingStore(next docindex.Store, logger *slog.Logger) *LoggingStore {
	return &LoggingStore{next: next, logger: logger}
}

// Initialize delegates to the wrapped store and logs the resulting status.
func (s *LoggingStore) Initialize(ctx context.Context) {
	begin := time.Now()
	s.next.Initialize(ctx)
	status := s.next.Status()
	s.logger.Debug("store initialize",
		"backend", status.Backend,
		"mode", status.Mode,
		"access", status.Access,
		"duration", time.Since(begin),
	)
}

// ForceReinitialize delegates to the wrapped store and logs the outcome.
func (s *LoggingStore) ForceReinitialize(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("store reinitialize",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ForceReinitialize(ctx)
}

// TestConnection delegates to the wrapped store.
func (s *LoggingStore) TestConnection(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("store heartbeat",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.TestConnection(ctx)
}

// Status delegates to the wrapped store.
func (s *LoggingStore) Status() docindex.StoreStatus {
	return s.next.Status()
}

// AddDocuments delegates to the wrapped store and logs the ingest counts.
func (s *LoggingStore) AddDocuments(ctx context.Context, passages []*docindex.Passage) (result *docindex.IngestResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"passages", len(passages),
			"duration", time.Since(begin),
		}
		if result != nil {
			attrs = append(attrs,
				"written", result.Written,
				"invalid", result.Invalid,
				"skipped", result.Skipped,
				"truncated", result.Truncated,
				"renamed", result.Renamed,
			)
		}
		if err != nil {
			attrs = append(attrs, "err", err)
		}
		s.logger.Info("store add", attrs...)
	}(time.Now())
	return s.next.AddDocuments(ctx, passages)
}

// UpdateDocument delegates to the wrapped store.
func (s *LoggingStore) UpdateDocument(ctx context.Context, passage *docindex.Passage) (err error) {
	defer func(begin time.Time) {
		id := ""
		if passage != nil {
			id = passage.ID
		}
		s.logger.Info("store update",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.UpdateDocument(ctx, passage)
}

// Search delegates to the wrapped store and logs the number of hits.
func (s *LoggingStore) Search(ctx context.Context, query string, opts docindex.SearchOptions) (results []docindex.SearchResult, err error) {
	defer func(begin time.Time) {
		s.logger.Info("store search",
			"query", query,
			"limit", opts.Limit,
			"results", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Search(ctx, query, opts)
}

// DeleteDocument delegates to the wrapped store.
func (s *LoggingStore) DeleteDocument(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("store delete",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteDocument(ctx, id)
}

// DeleteByFilter delegates to the wrapped store and logs how many passages were removed.
func (s *LoggingStore) DeleteByFilter(ctx context.Context, filter docindex.PassageFilter) (n int, err error) {
	defer func(begin time.Time) {
		s.logger.Info("store delete by filter",
			"deleted", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteByFilter(ctx, filter)
}

// ClearCollection delegates to the wrapped store.
func (s *LoggingStore) ClearCollection(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("store clear",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ClearCollection(ctx)
}

// CollectionStats delegates to the wrapped store.
func (s *LoggingStore) CollectionStats(ctx context.Context) docindex.CollectionStats {
	begin := time.Now()
	stats := s.next.CollectionStats(ctx)
	s.logger.Debug("store stats",
		"count", stats.Count,
		"sources", len(stats.Sources),
		"duration", time.Since(begin),
	)
	return stats
}

// SourceStats delegates to the wrapped store.
func (s *LoggingStore) SourceStats(ctx context.Context, source string) docindex.SourceStats {
	begin := time.Now()
	stats := s.next.SourceStats(ctx, source)
	s.logger.Debug("store source stats",
		"source", source,
		"count", stats.Count,
		"pages", stats.Pages,
		"duration", time.Since(begin),
	)
	return stats
}
