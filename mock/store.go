package mock

import (
	"context"

	"github.com/fwojciec/docindex"
)

var _ docindex.Store = (*Store)(nil)

// Store is a mock implementation of docindex.Store.
type Store struct {
	InitializeFn        func(ctx context.Context)
	ForceReinitializeFn func(ctx context.Context) error
	TestConnectionFn    func(ctx context.Context) error
	StatusFn            func() docindex.StoreStatus
	AddDocumentsFn      func(ctx context.Context, passages []*docindex.Passage) (*docindex.IngestResult, error)
	UpdateDocumentFn    func(ctx context.Context, passage *docindex.Passage) error
	SearchFn            func(ctx context.Context, query string, opts docindex.SearchOptions) ([]docindex.SearchResult, error)
	DeleteDocumentFn    func(ctx context.Context, id string) error
	DeleteByFilterFn    func(ctx context.Context, filter docindex.PassageFilter) (int, error)
	ClearCollectionFn   func(ctx context.Context) error
	CollectionStatsFn   func(ctx context.Context) docindex.CollectionStats
	SourceStatsFn       func(ctx context.Context, source string) docindex.SourceStats
}

func (s *Store) Initialize(ctx context.Context) {
	s.InitializeFn(ctx)
}

func (s *Store) ForceReinitialize(ctx context.Context) error {
	return s.ForceReinitializeFn(ctx)
}

func (s *Store) TestConnection(ctx context.Context) error {
	return s.TestConnectionFn(ctx)
}

func (s *Store) Status() docindex.StoreStatus {
	return s.StatusFn()
}

func (s *Store) AddDocuments(ctx context.Context, passages []*docindex.Passage) (*docindex.IngestResult, error) {
	return s.AddDocumentsFn(ctx, passages)
}

func (s *Store) UpdateDocument(ctx context.Context, passage *docindex.Passage) error {
	return s.UpdateDocumentFn(ctx, passage)
}

func (s *Store) Search(ctx context.Context, query string, opts docindex.SearchOptions) ([]docindex.SearchResult, error) {
	return s.SearchFn(ctx, query, opts)
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return s.DeleteDocumentFn(ctx, id)
}

func (s *Store) DeleteByFilter(ctx context.Context, filter docindex.PassageFilter) (int, error) {
	return s.DeleteByFilterFn(ctx, filter)
}

func (s *Store) ClearCollection(ctx context.Context) error {
	return s.ClearCollectionFn(ctx)
}

func (s *Store) CollectionStats(ctx context.Context) docindex.CollectionStats {
	return s.CollectionStatsFn(ctx)
}

func (s *Store) SourceStats(ctx context.Context, source string) docindex.SourceStats {
	return s.SourceStatsFn(ctx, source)
}
