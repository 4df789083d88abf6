package mock

import (
	"context"

	"github.com/fwojciec/docindex"
)

var _ docindex.VectorBackend = (*VectorBackend)(nil)

// VectorBackend is a mock implementation of docindex.VectorBackend.
type VectorBackend struct {
	NameFn             func() string
	ModeFn             func() docindex.StoreMode
	HeartbeatFn        func(ctx context.Context) error
	EnsureCollectionFn func(ctx context.Context, name string) error
	AddFn              func(ctx context.Context, records []docindex.VectorRecord) error
	QueryFn            func(ctx context.Context, embedding []float32, limit int, filter docindex.PassageFilter) ([]docindex.QueryMatch, error)
	DeleteFn           func(ctx context.Context, ids []string) error
	DeleteWhereFn      func(ctx context.Context, filter docindex.PassageFilter) (int, error)
	ClearFn            func(ctx context.Context) error
	MetadataFn         func(ctx context.Context, filter docindex.PassageFilter) ([]docindex.PassageMetadata, error)
	CloseFn            func() error
}

func (b *VectorBackend) Name() string {
	return b.NameFn()
}

func (b *VectorBackend) Mode() docindex.StoreMode {
	return b.ModeFn()
}

func (b *VectorBackend) Heartbeat(ctx context.Context) error {
	return b.HeartbeatFn(ctx)
}

func (b *VectorBackend) EnsureCollection(ctx context.Context, name string) error {
	return b.EnsureCollectionFn(ctx, name)
}

func (b *VectorBackend) Add(ctx context.Context, records []docindex.VectorRecord) error {
	return b.AddFn(ctx, records)
}

func (b *VectorBackend) Query(ctx context.Context, embedding []float32, limit int, filter docindex.PassageFilter) ([]docindex.QueryMatch, error) {
	return b.QueryFn(ctx, embedding, limit, filter)
}

func (b *VectorBackend) Delete(ctx context.Context, ids []string) error {
	return b.DeleteFn(ctx, ids)
}

func (b *VectorBackend) DeleteWhere(ctx context.Context, filter docindex.PassageFilter) (int, error) {
	return b.DeleteWhereFn(ctx, filter)
}

func (b *VectorBackend) Clear(ctx context.Context) error {
	return b.ClearFn(ctx)
}

func (b *VectorBackend) Metadata(ctx context.Context, filter docindex.PassageFilter) ([]docindex.PassageMetadata, error) {
	return b.MetadataFn(ctx, filter)
}

func (b *VectorBackend) Close() error {
	return b.CloseFn()
}
