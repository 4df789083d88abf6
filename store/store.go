// Package store implements the gateway in front of a vector backend. It owns
// the connection lifecycle, batches and sanitizes writes, and ranks search
// results. Recoverable backend failures degrade the store to a no-op rather
// than surfacing as errors.
package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/docindex"
)

// Ensure Store implements docindex.Store at compile time.
var _ docindex.Store = (*Store)(nil)

// Gateway defaults.
const (
	DefaultCollection  = "docindex"
	DefaultCooldown    = 30 * time.Second
	DefaultBatchSize   = 100
	DefaultSearchLimit = 10
)

// Store is the docindex.Store implementation. A Store is the handle for one
// backend connection; its state is only mutated through its own methods.
type Store struct {
	backend    docindex.VectorBackend
	embedder   docindex.Embedder
	collection string
	cooldown   time.Duration
	batchSize  int
	logger     *slog.Logger
	now        func() time.Time

	mu          sync.Mutex
	initialized bool
	mode        docindex.StoreMode
	access      docindex.StoreAccess
	lastAttempt time.Time
	lastErr     error
}

// Option configures a Store.
type Option func(*Store)

// WithCollection sets the logical collection name. Defaults to DefaultCollection.
func WithCollection(name string) Option {
	return func(s *Store) {
		s.collection = name
	}
}

// WithCooldown sets the minimum time between initialization attempts.
func WithCooldown(d time.Duration) Option {
	return func(s *Store) {
		s.cooldown = d
	}
}

// WithBatchSize sets the number of passages written per backend call.
func WithBatchSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithNow sets the clock used for the initialization cooldown.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Store over backend, embedding text with embedder.
// The connection is established lazily on first use.
func New(backend docindex.VectorBackend, embedder docindex.Embedder, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		embedder:   embedder,
		collection: DefaultCollection,
		cooldown:   DefaultCooldown,
		batchSize:  DefaultBatchSize,
		now:        time.Now,
		mode:       docindex.ModeUnavailable,
		access:     docindex.AccessNone,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Initialize implements docindex.Store.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.initialized && s.mode != docindex.ModeUnavailable {
		s.mu.Unlock()
		return
	}
	if !s.lastAttempt.IsZero() && s.now().Sub(s.lastAttempt) < s.cooldown {
		s.mu.Unlock()
		return
	}
	s.lastAttempt = s.now()
	s.mu.Unlock()

	if err := s.connect(ctx); err != nil {
		s.logger.Warn("vector store unavailable, continuing without index",
			"backend", s.backend.Name(),
			"collection", s.collection,
			"error", err,
			"retryAfter", s.cooldown,
		)
	}
}

// ForceReinitialize implements docindex.Store.
func (s *Store) ForceReinitialize(ctx context.Context) error {
	s.mu.Lock()
	s.initialized = false
	s.mode = docindex.ModeUnavailable
	s.access = docindex.AccessNone
	s.lastErr = nil
	s.lastAttempt = s.now()
	s.mu.Unlock()

	return s.connect(ctx)
}

// connect performs one initialization attempt and records its outcome.
// A collection that cannot be created for lack of permission leaves the store
// connected in read-only mode.
func (s *Store) connect(ctx context.Context) error {
	err := s.backend.Heartbeat(ctx)
	if err == nil {
		err = s.backend.EnsureCollection(ctx, s.collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.lastErr = err
	switch {
	case err == nil:
		s.mode = s.backend.Mode()
		s.access = docindex.AccessReadWrite
	case docindex.ErrorCode(err) == docindex.EFORBIDDEN:
		s.mode = s.backend.Mode()
		s.access = docindex.AccessReadOnly
	default:
		s.mode = docindex.ModeUnavailable
		s.access = docindex.AccessNone
	}
	return err
}

// TestConnection implements docindex.Store.
func (s *Store) TestConnection(ctx context.Context) error {
	if err := s.backend.Heartbeat(ctx); err != nil {
		return err
	}
	return nil
}

// Status implements docindex.Store.
func (s *Store) Status() docindex.StoreStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := docindex.StoreStatus{
		Backend:         s.backend.Name(),
		Collection:      s.collection,
		Mode:            s.mode,
		Access:          s.access,
		Initialized:     s.initialized,
		LastInitAttempt: s.lastAttempt,
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	return status
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// readable initializes the store if needed and reports whether reads may proceed.
func (s *Store) readable(ctx context.Context) bool {
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode != docindex.ModeUnavailable
}

// writable initializes the store if needed and reports whether writes may proceed.
func (s *Store) writable(ctx context.Context) bool {
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode != docindex.ModeUnavailable && s.access == docindex.AccessReadWrite
}

// degrade records a recoverable backend failure observed during an operation.
// It returns false if err is not recoverable and must be surfaced.
func (s *Store) degrade(op string, err error) bool {
	code := docindex.ErrorCode(err)
	if code != docindex.EUNAVAILABLE && code != docindex.EFORBIDDEN {
		return false
	}

	s.mu.Lock()
	s.lastErr = err
	if code == docindex.EUNAVAILABLE {
		s.mode = docindex.ModeUnavailable
		s.access = docindex.AccessNone
		s.lastAttempt = s.now()
	} else if s.access == docindex.AccessReadWrite {
		s.access = docindex.AccessReadOnly
	}
	s.mu.Unlock()

	s.logger.Warn("vector store degraded", "operation", op, "backend", s.backend.Name(), "error", err)
	return true
}
