package docindex

import "context"

// VectorRecord is a passage together with its embedding, as written to a backend.
type VectorRecord struct {
	Passage   *Passage
	Embedding []float32
}

// QueryMatch is a raw similarity match returned by a backend.
// Distance is nil when the backend could not compute one.
type QueryMatch struct {
	Passage  *Passage
	Distance *float64
}

// VectorBackend is the storage service behind the store gateway.
// Implementations translate their failures into application error codes:
// EUNAVAILABLE when unreachable, EFORBIDDEN on permission problems,
// EINVALID when the backend rejects the shape of a value.
type VectorBackend interface {
	// Name identifies the backend (e.g., "sqlite", "chroma").
	Name() string

	// Mode reports whether the backend is local or cloud hosted.
	Mode() StoreMode

	// Heartbeat checks connectivity.
	Heartbeat(ctx context.Context) error

	// EnsureCollection obtains or creates the named collection and makes it
	// the target of subsequent calls.
	EnsureCollection(ctx context.Context, name string) error

	// Add writes records. Existing IDs are overwritten.
	Add(ctx context.Context, records []VectorRecord) error

	// Query returns up to limit matches for embedding ordered by ascending distance.
	Query(ctx context.Context, embedding []float32, limit int, filter PassageFilter) ([]QueryMatch, error)

	// Delete removes passages by ID.
	Delete(ctx context.Context, ids []string) error

	// DeleteWhere removes passages matching filter and returns how many were removed.
	DeleteWhere(ctx context.Context, filter PassageFilter) (int, error)

	// Clear removes every passage in the collection.
	Clear(ctx context.Context) error

	// Metadata returns the metadata of every passage matching filter.
	Metadata(ctx context.Context, filter PassageFilter) ([]PassageMetadata, error)

	// Close releases backend resources.
	Close() error
}
