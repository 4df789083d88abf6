package docindex

import (
	"context"
	"time"
)

// StoreMode describes which kind of backend a store is connected to.
type StoreMode string

// Store modes.
const (
	ModeCloud       StoreMode = "cloud"
	ModeLocal       StoreMode = "local"
	ModeUnavailable StoreMode = "unavailable"
)

// StoreAccess describes what a connected store may do.
type StoreAccess string

// Store access levels.
const (
	AccessNone      StoreAccess = "none"
	AccessReadOnly  StoreAccess = "read-only"
	AccessReadWrite StoreAccess = "read-write"
)

// StoreStatus is a snapshot of the store connection state.
type StoreStatus struct {
	Backend         string      `json:"backend"`
	Collection      string      `json:"collection"`
	Mode            StoreMode   `json:"mode"`
	Access          StoreAccess `json:"access"`
	Initialized     bool        `json:"initialized"`
	LastInitAttempt time.Time   `json:"lastInitAttempt"`
	LastError       string      `json:"lastError,omitempty"`
}

// PassageFilter restricts search and deletion to passages whose metadata
// matches every non-nil field.
type PassageFilter struct {
	Source    *string `json:"source,omitempty"`
	URL       *string `json:"url,omitempty"`
	Language  *string `json:"language,omitempty"`
	Framework *string `json:"framework,omitempty"`
	Version   *string `json:"version,omitempty"`
}

// IsEmpty returns true if the filter matches every passage.
func (f PassageFilter) IsEmpty() bool {
	return f.Source == nil && f.URL == nil && f.Language == nil && f.Framework == nil && f.Version == nil
}

// Match returns true if meta satisfies the filter.
func (f PassageFilter) Match(meta PassageMetadata) bool {
	if f.Source != nil && *f.Source != meta.Source {
		return false
	}
	if f.URL != nil && *f.URL != meta.URL {
		return false
	}
	if f.Language != nil && *f.Language != meta.Language {
		return false
	}
	if f.Framework != nil && *f.Framework != meta.Framework {
		return false
	}
	if f.Version != nil && *f.Version != meta.Version {
		return false
	}
	return true
}

// SearchOptions configures a similarity query.
type SearchOptions struct {
	// Maximum number of results to return.
	Limit int `json:"limit,omitempty"`

	// Minimum similarity score (1 - distance) a result must reach.
	Threshold float64 `json:"threshold,omitempty"`

	Filter PassageFilter `json:"filter"`
}

// SearchResult is a ranked search hit.
type SearchResult struct {
	Passage  *Passage `json:"passage"`
	Score    float64  `json:"score"`
	Distance float64  `json:"distance"`
}

// CollectionStats aggregates metadata across all stored passages.
type CollectionStats struct {
	Count      int      `json:"count"`
	Sources    []string `json:"sources"`
	Languages  []string `json:"languages"`
	Frameworks []string `json:"frameworks"`
}

// SourceStats aggregates metadata for one source.
type SourceStats struct {
	Source      string    `json:"source"`
	Count       int       `json:"count"`
	Pages       int       `json:"pages"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// IngestResult reports the outcome of AddDocuments.
type IngestResult struct {
	Written   int `json:"written"`
	Invalid   int `json:"invalid"`
	Skipped   int `json:"skipped"`
	Truncated int `json:"truncated"`
	Renamed   int `json:"renamed"`
}

// Store is the gateway to the vector index. Recoverable backend failures
// (unreachable backend, permission restrictions, malformed batches) never
// surface as errors from the data operations; the store degrades to a no-op
// instead. Contract violations return EINVALID.
type Store interface {
	// Initialize connects to the backend and obtains the collection.
	// It is idempotent and never fails; failures leave the store degraded and
	// retries are throttled by a cooldown.
	Initialize(ctx context.Context)

	// ForceReinitialize resets the connection state and retries immediately,
	// surfacing the underlying cause on failure.
	ForceReinitialize(ctx context.Context) error

	// TestConnection checks backend connectivity, surfacing the underlying cause.
	TestConnection(ctx context.Context) error

	// Status returns a snapshot of the connection state.
	Status() StoreStatus

	// AddDocuments validates, deduplicates and writes passages in sub-batches.
	AddDocuments(ctx context.Context, passages []*Passage) (*IngestResult, error)

	// UpdateDocument replaces a passage by deleting then re-adding it.
	// The two steps are not atomic.
	UpdateDocument(ctx context.Context, passage *Passage) error

	// Search returns passages ordered by descending similarity score.
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)

	// DeleteDocument removes one passage by ID.
	DeleteDocument(ctx context.Context, id string) error

	// DeleteByFilter removes passages matching filter and returns how many were removed.
	DeleteByFilter(ctx context.Context, filter PassageFilter) (int, error)

	// ClearCollection removes every passage.
	ClearCollection(ctx context.Context) error

	// CollectionStats aggregates metadata across all passages.
	// Failures yield zeroed stats.
	CollectionStats(ctx context.Context) CollectionStats

	// SourceStats aggregates metadata for one source.
	// Failures yield zeroed stats.
	SourceStats(ctx context.Context, source string) SourceStats
}
