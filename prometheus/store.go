package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/docindex"
)

// Ensure Store implements docindex.Store.
var _ docindex.Store = (*Store)(nil)

// Store wraps a docindex.Store with metrics for ingestion, search and
// maintenance operations.
type Store struct {
	next    docindex.Store
	metrics *Metrics
}

// NewStore creates a new instrumented Store.
func NewStore(next docindex.Store, metrics *Metrics) *Store {
	return &Store{next: next, metrics: metrics}
}

func (s *Store) Initialize(ctx context.Context) {
	s.next.Initialize(ctx)
}

func (s *Store) ForceReinitialize(ctx context.Context) error {
	err := s.next.ForceReinitialize(ctx)
	s.metrics.StoreOperations.WithLabelValues("reinitialize", outcome(err)).Inc()
	return err
}

func (s *Store) TestConnection(ctx context.Context) error {
	return s.next.TestConnection(ctx)
}

func (s *Store) Status() docindex.StoreStatus {
	return s.next.Status()
}

// AddDocuments delegates to the wrapped store and counts passages by result.
func (s *Store) AddDocuments(ctx context.Context, passages []*docindex.Passage) (*docindex.IngestResult, error) {
	result, err := s.next.AddDocuments(ctx, passages)
	if result != nil {
		s.metrics.PassagesTotal.WithLabelValues("written").Add(float64(result.Written))
		s.metrics.PassagesTotal.WithLabelValues("invalid").Add(float64(result.Invalid))
		s.metrics.PassagesTotal.WithLabelValues("skipped").Add(float64(result.Skipped))
		s.metrics.PassagesTotal.WithLabelValues("truncated").Add(float64(result.Truncated))
		s.metrics.PassagesTotal.WithLabelValues("renamed").Add(float64(result.Renamed))
	}
	s.metrics.StoreOperations.WithLabelValues("add", outcome(err)).Inc()
	return result, err
}

func (s *Store) UpdateDocument(ctx context.Context, passage *docindex.Passage) error {
	err := s.next.UpdateDocument(ctx, passage)
	s.metrics.StoreOperations.WithLabelValues("update", outcome(err)).Inc()
	return err
}

// Search delegates to the wrapped store and records latency and result counts.
func (s *Store) Search(ctx context.Context, query string, opts docindex.SearchOptions) ([]docindex.SearchResult, error) {
	begin := time.Now()
	results, err := s.next.Search(ctx, query, opts)
	s.metrics.SearchDuration.Observe(time.Since(begin).Seconds())
	s.metrics.SearchTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		s.metrics.SearchResults.Observe(float64(len(results)))
	}
	return results, err
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	err := s.next.DeleteDocument(ctx, id)
	s.metrics.StoreOperations.WithLabelValues("delete", outcome(err)).Inc()
	return err
}

func (s *Store) DeleteByFilter(ctx context.Context, filter docindex.PassageFilter) (int, error) {
	n, err := s.next.DeleteByFilter(ctx, filter)
	s.metrics.StoreOperations.WithLabelValues("delete_by_filter", outcome(err)).Inc()
	return n, err
}

func (s *Store) ClearCollection(ctx context.Context) error {
	err := s.next.ClearCollection(ctx)
	s.metrics.StoreOperations.WithLabelValues("clear", outcome(err)).Inc()
	return err
}

func (s *Store) CollectionStats(ctx context.Context) docindex.CollectionStats {
	return s.next.CollectionStats(ctx)
}

func (s *Store) SourceStats(ctx context.Context, source string) docindex.SourceStats {
	return s.next.SourceStats(ctx, source)
}
