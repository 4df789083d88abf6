package store_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/docindex"
	"github.com/fwojciec/docindex/mock"
	"github.com/fwojciec/docindex/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements docindex.Store at compile time.
var _ docindex.Store = (*store.Store)(nil)

// newBackend returns a healthy local backend that accepts every call.
func newBackend() *mock.VectorBackend {
	return &mock.VectorBackend{
		NameFn:             func() string { return "mock" },
		ModeFn:             func() docindex.StoreMode { return docindex.ModeLocal },
		HeartbeatFn:        func(context.Context) error { return nil },
		EnsureCollectionFn: func(context.Context, string) error { return nil },
		AddFn:              func(context.Context, []docindex.VectorRecord) error { return nil },
		QueryFn: func(context.Context, []float32, int, docindex.PassageFilter) ([]docindex.QueryMatch, error) {
			return nil, nil
		},
		DeleteFn:      func(context.Context, []string) error { return nil },
		DeleteWhereFn: func(context.Context, docindex.PassageFilter) (int, error) { return 0, nil },
		ClearFn:       func(context.Context) error { return nil },
		MetadataFn: func(context.Context, docindex.PassageFilter) ([]docindex.PassageMetadata, error) {
			return nil, nil
		},
		CloseFn: func() error { return nil },
	}
}

// newEmbedder returns an embedder producing one single-element vector per text.
func newEmbedder() *mock.Embedder {
	return &mock.Embedder{
		EmbedFn: func(_ context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i := range texts {
				out[i] = []float32{float32(i)}
			}
			return out, nil
		},
	}
}

func passage(id string) *docindex.Passage {
	return &docindex.Passage{
		ID:       id,
		Content:  "content of " + id,
		Metadata: docindex.PassageMetadata{Source: "docs", Title: "T", URL: "https://example.com/" + id},
	}
}

func ptr[T any](v T) *T {
	return &v
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errUnavailable = docindex.Errorf(docindex.EUNAVAILABLE, "connection refused")

func TestStore_Initialize(t *testing.T) {
	t.Parallel()

	t.Run("connects and reports backend mode", func(t *testing.T) {
		t.Parallel()

		var collection string
		backend := newBackend()
		backend.EnsureCollectionFn = func(_ context.Context, name string) error {
			collection = name
			return nil
		}
		s := store.New(backend, newEmbedder(), store.WithCollection("docs"))

		s.Initialize(context.Background())

		status := s.Status()
		assert.Equal(t, "docs", collection)
		assert.True(t, status.Initialized)
		assert.Equal(t, docindex.ModeLocal, status.Mode)
		assert.Equal(t, docindex.AccessReadWrite, status.Access)
		assert.Empty(t, status.LastError)
	})

	t.Run("is idempotent once connected", func(t *testing.T) {
		t.Parallel()

		heartbeats := 0
		backend := newBackend()
		backend.HeartbeatFn = func(context.Context) error {
			heartbeats++
			return nil
		}
		s := store.New(backend, newEmbedder())

		s.Initialize(context.Background())
		s.Initialize(context.Background())

		assert.Equal(t, 1, heartbeats)
	})

	t.Run("unreachable backend degrades without error", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.HeartbeatFn = func(context.Context) error { return errUnavailable }
		s := store.New(backend, newEmbedder())

		s.Initialize(context.Background())

		status := s.Status()
		assert.True(t, status.Initialized)
		assert.Equal(t, docindex.ModeUnavailable, status.Mode)
		assert.Equal(t, docindex.AccessNone, status.Access)
		assert.Contains(t, status.LastError, "connection refused")
	})

	t.Run("retries are throttled by the cooldown", func(t *testing.T) {
		t.Parallel()

		c := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		heartbeats := 0
		backend := newBackend()
		backend.HeartbeatFn = func(context.Context) error {
			heartbeats++
			return errUnavailable
		}
		s := store.New(backend, newEmbedder(), store.WithNow(c.Now), store.WithCooldown(30*time.Second))

		s.Initialize(context.Background())
		c.Advance(10 * time.Second)
		s.Initialize(context.Background())
		assert.Equal(t, 1, heartbeats)

		c.Advance(25 * time.Second)
		s.Initialize(context.Background())
		assert.Equal(t, 2, heartbeats)
	})

	t.Run("recovers after the cooldown", func(t *testing.T) {
		t.Parallel()

		c := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		down := true
		backend := newBackend()
		backend.HeartbeatFn = func(context.Context) error {
			if down {
				return errUnavailable
			}
			return nil
		}
		s := store.New(backend, newEmbedder(), store.WithNow(c.Now))

		s.Initialize(context.Background())
		down = false
		c.Advance(store.DefaultCooldown)
		s.Initialize(context.Background())

		assert.Equal(t, docindex.ModeLocal, s.Status().Mode)
	})

	t.Run("forbidden collection creation leaves store read-only", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.ModeFn = func() docindex.StoreMode { return docindex.ModeCloud }
		backend.EnsureCollectionFn = func(context.Context, string) error {
			return docindex.Errorf(docindex.EFORBIDDEN, "collection creation denied")
		}
		s := store.New(backend, newEmbedder())

		s.Initialize(context.Background())

		status := s.Status()
		assert.Equal(t, docindex.ModeCloud, status.Mode)
		assert.Equal(t, docindex.AccessReadOnly, status.Access)
	})
}

func TestStore_ForceReinitialize(t *testing.T) {
	t.Parallel()

	t.Run("bypasses the cooldown", func(t *testing.T) {
		t.Parallel()

		c := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		down := true
		backend := newBackend()
		backend.HeartbeatFn = func(context.Context) error {
			if down {
				return errUnavailable
			}
			return nil
		}
		s := store.New(backend, newEmbedder(), store.WithNow(c.Now))
		s.Initialize(context.Background())
		down = false

		err := s.ForceReinitialize(context.Background())

		require.NoError(t, err)
		assert.Equal(t, docindex.ModeLocal, s.Status().Mode)
	})

	t.Run("surfaces the underlying cause", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.HeartbeatFn = func(context.Context) error { return errUnavailable }
		s := store.New(backend, newEmbedder())

		err := s.ForceReinitialize(context.Background())

		assert.Equal(t, docindex.EUNAVAILABLE, docindex.ErrorCode(err))
		assert.Equal(t, docindex.ModeUnavailable, s.Status().Mode)
	})
}

func TestStore_TestConnection(t *testing.T) {
	t.Parallel()

	backend := newBackend()
	backend.HeartbeatFn = func(context.Context) error { return errUnavailable }
	s := store.New(backend, newEmbedder())

	err := s.TestConnection(context.Background())

	assert.ErrorIs(t, err, errUnavailable)
}

func TestStore_AddDocuments(t *testing.T) {
	t.Parallel()

	t.Run("writes embedded records", func(t *testing.T) {
		t.Parallel()

		var written []docindex.VectorRecord
		backend := newBackend()
		backend.AddFn = func(_ context.Context, records []docindex.VectorRecord) error {
			written = append(written, records...)
			return nil
		}
		s := store.New(backend, newEmbedder())

		result, err := s.AddDocuments(context.Background(), []*docindex.Passage{passage("a"), passage("b")})

		require.NoError(t, err)
		assert.Equal(t, 2, result.Written)
		require.Len(t, written, 2)
		assert.Equal(t, "a", written[0].Passage.ID)
		assert.Equal(t, []float32{1}, written[1].Embedding)
	})

	t.Run("unavailable store is a no-op", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.HeartbeatFn = func(context.Context) error { return errUnavailable }
		backend.AddFn = func(context.Context, []docindex.VectorRecord) error {
			t.Fatal("Add must not be called")
			return nil
		}
		s := store.New(backend, newEmbedder())

		result, err := s.AddDocuments(context.Background(), []*docindex.Passage{passage("a")})

		require.NoError(t, err)
		assert.Equal(t, 0, result.Written)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("read-only store skips writes", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.EnsureCollectionFn = func(context.Context, string) error {
			return docindex.Errorf(docindex.EFORBIDDEN, "denied")
		}
		backend.AddFn = func(context.Context, []docindex.VectorRecord) error {
			t.Fatal("Add must not be called")
			return nil
		}
		s := store.New(backend, newEmbedder())

		result, err := s.AddDocuments(context.Background(), []*docindex.Passage{passage("a")})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("drops invalid passages", func(t *testing.T) {
		t.Parallel()

		var written []docindex.VectorRecord
		backend := newBackend()
		backend.AddFn = func(_ context.Context, records []docindex.VectorRecord) error {
			written = append(written, records...)
			return nil
		}
		s := store.New(backend, newEmbedder())

		noSource := passage("c")
		noSource.Metadata.Source = ""
		blank := passage("d")
		blank.Content = "   "

		result, err := s.AddDocuments(context.Background(), []*docindex.Passage{
			passage("a"), nil, {ID: "", Content: "x", Metadata: docindex.PassageMetadata{Source: "s"}}, noSource, blank,
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Written)
		assert.Equal(t, 4, result.Invalid)
		require.Len(t, written, 1)
		assert.Equal(t, "a", written[0].Passage.ID)
	})

	t.Run("truncates oversized content without touching input", func(t *testing.T) {
		t.Parallel()

		var written []docindex.VectorRecord
		backend := newBackend()
		backend.AddFn = func(_ context.Context, records []docindex.VectorRecord) error {
			written = append(written, records...)
			return nil
		}
		s := store.New(backend, newEmbedder())
		big := passage("big")
		big.Content = strings.Repeat("x", docindex.MaxPassageLength+500)

		result, err := s.AddDocuments(context.Background(), []*docindex.Passage{big})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Truncated)
		require.Len(t, written, 1)
		assert.Len(t, []rune(written[0].Passage.Content), docindex.MaxPassageLength)
		assert.True(t, strings.HasSuffix(written[0].Passage.Content, "..."))
		assert.Len(t, big.Content, docindex.MaxPassageLength+500)
	})

	t.Run("suffixes duplicate ids", func(t *testing.T) {
		t.Parallel()

		var ids []string
		backend := newBackend()
		backend.AddFn = func(_ context.Context, records []docindex.VectorRecord) error {
			for _, r := range records {
				ids = append(ids, r.Passage.ID)
			}
			return nil
		}
		s := store.New(backend, newEmbedder())

		result, err := s.AddDocuments(context.Background(), []*docindex.Passage{
			passage("x"), passage("x"), passage("x_1"), passage("x"),
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"x", "x_1", "x_1_1", "x_2"}, ids)
		assert.Equal(t, 3, result.Renamed)
		assert.Equal(t, 4, result.Written)
	})

	t.Run("writes in sub-batches", func(t *testing.T) {
		t.Parallel()

		var sizes []int
		backend := newBackend()
		backend.AddFn = func(_ context.Context, records []docindex.VectorRecord) error {
			sizes = append(sizes, len(records))
			return nil
		}
		s := store.New(backend, newEmbedder(), store.WithBatchSize(2))

		result, err := s.AddDocuments(context.Background(), []*docindex.Passage{
			passage("a"), passage("b"), passage("c"), passage("d"), passage("e"),
		})

		require.NoError(t, err)
		assert.Equal(t, []int{2, 2, 1}, sizes)
		assert.Equal(t, 5, result.Written)
	})

	t.Run("malformed sub-batch is skipped and the rest proceed", func(t *testing.T) {
		t.Parallel()

		calls := 0
		backend := newBackend()
		backend.AddFn = func(_ context.Context, records []docindex.VectorRecord) error {
			calls++
			if records[0].Passage.ID == "c" {
				return docindex.Errorf(docindex.EINVALID, "metadata value not allowed")
			}
			return nil
		}
		s := store.New(backend, newEmbedder(), store.WithBatchSize(2))

		result, err := s.AddDocuments(context.Background(), []*docindex.Passage{
			passage("a"), passage("b"), passage("c"), passage("d"), passage("e"),
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 3, result.Written)
		assert.Equal(t, 2, result.Skipped)
	})

	t.Run("forbidden sub-batch is skipped and store turns read-only", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.AddFn = func(_ context.Context, records []docindex.VectorRecord) error {
			if records[0].Passage.ID == "a" {
				return docindex.Errorf(docindex.EFORBIDDEN, "quota exceeded")
			}
			return nil
		}
		s := store.New(backend, newEmbedder(), store.WithBatchSize(1))

		result, err := s.AddDocuments(context.Background(), []*docindex.Passage{passage("a"), passage("b")})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 1, result.Written)
		assert.Equal(t, docindex.AccessReadOnly, s.Status().Access)
	})

	t.Run("other failure aborts the call", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("disk full")
		calls := 0
		backend := newBackend()
		backend.AddFn = func(context.Context, []docindex.VectorRecord) error {
			calls++
			if calls == 2 {
				return boom
			}
			return nil
		}
		s := store.New(backend, newEmbedder(), store.WithBatchSize(1))

		result, err := s.AddDocuments(context.Background(), []*docindex.Passage{passage("a"), passage("b"), passage("c")})

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, result.Written)
	})

	t.Run("embedding failure aborts the call", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("embedding service error")
		embedder := &mock.Embedder{
			EmbedFn: func(context.Context, []string) ([][]float32, error) { return nil, boom },
		}
		s := store.New(newBackend(), embedder)

		_, err := s.AddDocuments(context.Background(), []*docindex.Passage{passage("a")})

		assert.ErrorIs(t, err, boom)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		s := store.New(newBackend(), newEmbedder())

		result, err := s.AddDocuments(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, docindex.IngestResult{}, *result)
	})
}

func TestStore_UpdateDocument(t *testing.T) {
	t.Parallel()

	t.Run("deletes then adds", func(t *testing.T) {
		t.Parallel()

		var calls []string
		backend := newBackend()
		backend.DeleteFn = func(_ context.Context, ids []string) error {
			calls = append(calls, "delete:"+ids[0])
			return nil
		}
		backend.AddFn = func(_ context.Context, records []docindex.VectorRecord) error {
			calls = append(calls, "add:"+records[0].Passage.ID)
			return nil
		}
		s := store.New(backend, newEmbedder())

		err := s.UpdateDocument(context.Background(), passage("a"))

		require.NoError(t, err)
		assert.Equal(t, []string{"delete:a", "add:a"}, calls)
	})

	t.Run("invalid passage", func(t *testing.T) {
		t.Parallel()

		s := store.New(newBackend(), newEmbedder())

		err := s.UpdateDocument(context.Background(), &docindex.Passage{ID: "a"})

		assert.Equal(t, docindex.EINVALID, docindex.ErrorCode(err))
	})
}

func TestStore_Search(t *testing.T) {
	t.Parallel()

	match := func(id string, distance *float64) docindex.QueryMatch {
		return docindex.QueryMatch{Passage: passage(id), Distance: distance}
	}

	t.Run("orders by descending score", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.QueryFn = func(context.Context, []float32, int, docindex.PassageFilter) ([]docindex.QueryMatch, error) {
			return []docindex.QueryMatch{match("far", ptr(0.8)), match("near", ptr(0.2))}, nil
		}
		s := store.New(backend, newEmbedder())

		results, err := s.Search(context.Background(), "query", docindex.SearchOptions{})

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "near", results[0].Passage.ID)
		assert.InDelta(t, 0.8, results[0].Score, 1e-9)
		assert.Equal(t, "far", results[1].Passage.ID)
		assert.InDelta(t, 0.2, results[1].Score, 1e-9)
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.QueryFn = func(context.Context, []float32, int, docindex.PassageFilter) ([]docindex.QueryMatch, error) {
			return []docindex.QueryMatch{match("a", ptr(0.25)), match("b", ptr(0.5)), match("c", ptr(0.75))}, nil
		}
		s := store.New(backend, newEmbedder())

		results, err := s.Search(context.Background(), "query", docindex.SearchOptions{Threshold: 0.5})

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "a", results[0].Passage.ID)
		assert.Equal(t, "b", results[1].Passage.ID)
	})

	t.Run("raising threshold never increases result count", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.QueryFn = func(context.Context, []float32, int, docindex.PassageFilter) ([]docindex.QueryMatch, error) {
			return []docindex.QueryMatch{
				match("a", ptr(0.05)), match("b", ptr(0.2)), match("c", ptr(0.35)),
				match("d", ptr(0.5)), match("e", ptr(0.85)), match("f", ptr(1.4)),
			}, nil
		}
		s := store.New(backend, newEmbedder())

		tests := []struct {
			threshold float64
			want      int
		}{
			{-1, 6},
			{0, 5},
			{0.1, 5},
			{0.5, 4},
			{0.6, 3},
			{0.75, 2},
			{0.9, 1},
			{1, 0},
		}
		previous := -1
		for _, tt := range tests {
			results, err := s.Search(context.Background(), "query", docindex.SearchOptions{Threshold: tt.threshold})
			require.NoError(t, err)
			assert.Len(t, results, tt.want, "threshold %v", tt.threshold)
			for _, r := range results {
				assert.GreaterOrEqual(t, r.Score, tt.threshold)
			}
			if previous >= 0 {
				assert.LessOrEqual(t, len(results), previous, "threshold %v", tt.threshold)
			}
			previous = len(results)
		}
	})

	t.Run("distances 0.2 and 0.5 score 0.8 and 0.5", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.QueryFn = func(context.Context, []float32, int, docindex.PassageFilter) ([]docindex.QueryMatch, error) {
			return []docindex.QueryMatch{match("half", ptr(0.5)), match("close", ptr(0.2))}, nil
		}
		s := store.New(backend, newEmbedder())

		results, err := s.Search(context.Background(), "query", docindex.SearchOptions{})

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "close", results[0].Passage.ID)
		assert.InDelta(t, 0.8, results[0].Score, 1e-9)
		assert.Equal(t, "half", results[1].Passage.ID)
		assert.InDelta(t, 0.5, results[1].Score, 1e-9)
	})

	t.Run("drops matches without distance", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.QueryFn = func(context.Context, []float32, int, docindex.PassageFilter) ([]docindex.QueryMatch, error) {
			return []docindex.QueryMatch{match("a", nil), match("b", ptr(0.1))}, nil
		}
		s := store.New(backend, newEmbedder())

		results, err := s.Search(context.Background(), "query", docindex.SearchOptions{})

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "b", results[0].Passage.ID)
	})

	t.Run("ties keep backend order", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.QueryFn = func(context.Context, []float32, int, docindex.PassageFilter) ([]docindex.QueryMatch, error) {
			return []docindex.QueryMatch{match("first", ptr(0.3)), match("second", ptr(0.3)), match("third", ptr(0.3))}, nil
		}
		s := store.New(backend, newEmbedder())

		results, err := s.Search(context.Background(), "query", docindex.SearchOptions{})

		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "first", results[0].Passage.ID)
		assert.Equal(t, "second", results[1].Passage.ID)
		assert.Equal(t, "third", results[2].Passage.ID)
	})

	t.Run("passes limit filter and query embedding", func(t *testing.T) {
		t.Parallel()

		var gotLimit int
		var gotFilter docindex.PassageFilter
		var gotEmbedding []float32
		backend := newBackend()
		backend.QueryFn = func(_ context.Context, embedding []float32, limit int, filter docindex.PassageFilter) ([]docindex.QueryMatch, error) {
			gotEmbedding, gotLimit, gotFilter = embedding, limit, filter
			return nil, nil
		}
		embedder := &mock.Embedder{
			EmbedFn: func(_ context.Context, texts []string) ([][]float32, error) {
				assert.Equal(t, []string{"how to install"}, texts)
				return [][]float32{{0.5, 0.5}}, nil
			},
		}
		s := store.New(backend, embedder)
		filter := docindex.PassageFilter{Source: ptr("react")}

		_, err := s.Search(context.Background(), "how to install", docindex.SearchOptions{Limit: 3, Filter: filter})

		require.NoError(t, err)
		assert.Equal(t, 3, gotLimit)
		assert.Equal(t, filter, gotFilter)
		assert.Equal(t, []float32{0.5, 0.5}, gotEmbedding)
	})

	t.Run("default limit", func(t *testing.T) {
		t.Parallel()

		var gotLimit int
		backend := newBackend()
		backend.QueryFn = func(_ context.Context, _ []float32, limit int, _ docindex.PassageFilter) ([]docindex.QueryMatch, error) {
			gotLimit = limit
			return nil, nil
		}
		s := store.New(backend, newEmbedder())

		_, err := s.Search(context.Background(), "q", docindex.SearchOptions{})

		require.NoError(t, err)
		assert.Equal(t, store.DefaultSearchLimit, gotLimit)
	})

	t.Run("empty query is invalid", func(t *testing.T) {
		t.Parallel()

		s := store.New(newBackend(), newEmbedder())

		_, err := s.Search(context.Background(), "  ", docindex.SearchOptions{})

		assert.Equal(t, docindex.EINVALID, docindex.ErrorCode(err))
	})

	t.Run("unavailable store returns empty results", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.HeartbeatFn = func(context.Context) error { return errUnavailable }
		s := store.New(backend, newEmbedder())

		results, err := s.Search(context.Background(), "q", docindex.SearchOptions{})

		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("backend going away mid-session degrades", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.QueryFn = func(context.Context, []float32, int, docindex.PassageFilter) ([]docindex.QueryMatch, error) {
			return nil, errUnavailable
		}
		s := store.New(backend, newEmbedder())

		results, err := s.Search(context.Background(), "q", docindex.SearchOptions{})

		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Equal(t, docindex.ModeUnavailable, s.Status().Mode)
	})

	t.Run("unexpected query failure surfaces", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		backend := newBackend()
		backend.QueryFn = func(context.Context, []float32, int, docindex.PassageFilter) ([]docindex.QueryMatch, error) {
			return nil, boom
		}
		s := store.New(backend, newEmbedder())

		_, err := s.Search(context.Background(), "q", docindex.SearchOptions{})

		assert.ErrorIs(t, err, boom)
	})
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	t.Run("DeleteDocument passes id through", func(t *testing.T) {
		t.Parallel()

		var got []string
		backend := newBackend()
		backend.DeleteFn = func(_ context.Context, ids []string) error {
			got = ids
			return nil
		}
		s := store.New(backend, newEmbedder())

		err := s.DeleteDocument(context.Background(), "a")

		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, got)
	})

	t.Run("DeleteDocument requires id", func(t *testing.T) {
		t.Parallel()

		s := store.New(newBackend(), newEmbedder())

		err := s.DeleteDocument(context.Background(), "")

		assert.Equal(t, docindex.EINVALID, docindex.ErrorCode(err))
	})

	t.Run("DeleteByFilter returns count", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.DeleteWhereFn = func(_ context.Context, filter docindex.PassageFilter) (int, error) {
			require.NotNil(t, filter.Source)
			assert.Equal(t, "react", *filter.Source)
			return 7, nil
		}
		s := store.New(backend, newEmbedder())

		n, err := s.DeleteByFilter(context.Background(), docindex.PassageFilter{Source: ptr("react")})

		require.NoError(t, err)
		assert.Equal(t, 7, n)
	})

	t.Run("DeleteByFilter rejects empty filter", func(t *testing.T) {
		t.Parallel()

		s := store.New(newBackend(), newEmbedder())

		_, err := s.DeleteByFilter(context.Background(), docindex.PassageFilter{})

		assert.Equal(t, docindex.EINVALID, docindex.ErrorCode(err))
	})

	t.Run("DeleteByFilter on unavailable store returns zero", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.HeartbeatFn = func(context.Context) error { return errUnavailable }
		s := store.New(backend, newEmbedder())

		n, err := s.DeleteByFilter(context.Background(), docindex.PassageFilter{Source: ptr("react")})

		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("ClearCollection passes through", func(t *testing.T) {
		t.Parallel()

		cleared := false
		backend := newBackend()
		backend.ClearFn = func(context.Context) error {
			cleared = true
			return nil
		}
		s := store.New(backend, newEmbedder())

		err := s.ClearCollection(context.Background())

		require.NoError(t, err)
		assert.True(t, cleared)
	})

	t.Run("forbidden delete degrades to read-only", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.ClearFn = func(context.Context) error {
			return docindex.Errorf(docindex.EFORBIDDEN, "read-only token")
		}
		s := store.New(backend, newEmbedder())

		err := s.ClearCollection(context.Background())

		require.NoError(t, err)
		assert.Equal(t, docindex.AccessReadOnly, s.Status().Access)
	})
}

func TestStore_Stats(t *testing.T) {
	t.Parallel()

	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	metas := []docindex.PassageMetadata{
		{Source: "react", URL: "https://react.dev/a", Language: "javascript", Framework: "docusaurus", LastUpdated: jan},
		{Source: "react", URL: "https://react.dev/a", Language: "javascript", LastUpdated: feb},
		{Source: "django", URL: "https://docs.djangoproject.com/", Language: "python", Framework: "sphinx", LastUpdated: jan},
	}

	t.Run("CollectionStats aggregates distinct values", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.MetadataFn = func(context.Context, docindex.PassageFilter) ([]docindex.PassageMetadata, error) {
			return metas, nil
		}
		s := store.New(backend, newEmbedder())

		stats := s.CollectionStats(context.Background())

		assert.Equal(t, 3, stats.Count)
		assert.Equal(t, []string{"django", "react"}, stats.Sources)
		assert.Equal(t, []string{"javascript", "python"}, stats.Languages)
		assert.Equal(t, []string{"docusaurus", "sphinx"}, stats.Frameworks)
	})

	t.Run("SourceStats counts pages and latest update", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.MetadataFn = func(_ context.Context, filter docindex.PassageFilter) ([]docindex.PassageMetadata, error) {
			require.NotNil(t, filter.Source)
			var out []docindex.PassageMetadata
			for _, m := range metas {
				if filter.Match(m) {
					out = append(out, m)
				}
			}
			return out, nil
		}
		s := store.New(backend, newEmbedder())

		stats := s.SourceStats(context.Background(), "react")

		assert.Equal(t, "react", stats.Source)
		assert.Equal(t, 2, stats.Count)
		assert.Equal(t, 1, stats.Pages)
		assert.Equal(t, feb, stats.LastUpdated)
	})

	t.Run("failures yield zeroed stats", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.MetadataFn = func(context.Context, docindex.PassageFilter) ([]docindex.PassageMetadata, error) {
			return nil, errors.New("boom")
		}
		s := store.New(backend, newEmbedder())

		stats := s.CollectionStats(context.Background())
		source := s.SourceStats(context.Background(), "react")

		assert.Equal(t, 0, stats.Count)
		assert.Empty(t, stats.Sources)
		assert.Equal(t, 0, source.Count)
		assert.True(t, source.LastUpdated.IsZero())
	})

	t.Run("unavailable store yields zeroed stats", func(t *testing.T) {
		t.Parallel()

		backend := newBackend()
		backend.HeartbeatFn = func(context.Context) error { return errUnavailable }
		s := store.New(backend, newEmbedder())

		stats := s.CollectionStats(context.Background())

		assert.Equal(t, 0, stats.Count)
		assert.NotNil(t, stats.Sources)
	})
}
