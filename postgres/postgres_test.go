package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/docindex"
	"github.com/fwojciec/docindex/postgres"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Backend implements docindex.VectorBackend at compile time.
var _ docindex.VectorBackend = (*postgres.Backend)(nil)

var updated = time.Unix(1700000000, 0).UTC()

func ptr[T any](v T) *T {
	return &v
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

// ready returns a backend whose collection "docs" is already selected.
func ready(t *testing.T, mock pgxmock.PgxPoolIface) *postgres.Backend {
	t.Helper()
	mock.ExpectExec("CREATE EXTENSION IF NOT EXISTS vector").WillReturnResult(pgxmock.NewResult("CREATE EXTENSION", 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS passages").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))
	b := postgres.NewBackend(mock)
	require.NoError(t, b.EnsureCollection(context.Background(), "docs"))
	return b
}

func TestBackend_Heartbeat(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectPing()
		b := postgres.NewBackend(mock)

		require.NoError(t, b.Heartbeat(context.Background()))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping failure is unavailable", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		b := postgres.NewBackend(mock)

		err = b.Heartbeat(context.Background())

		assert.Equal(t, docindex.EUNAVAILABLE, docindex.ErrorCode(err))
	})
}

func TestBackend_EnsureCollection(t *testing.T) {
	t.Parallel()

	t.Run("runs migrations", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		ready(t, mock)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing privilege is forbidden", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		mock.ExpectExec("CREATE EXTENSION").WillReturnError(&pgconn.PgError{Code: "42501", Message: "permission denied to create extension"})
		b := postgres.NewBackend(mock)

		err := b.EnsureCollection(context.Background(), "docs")

		assert.Equal(t, docindex.EFORBIDDEN, docindex.ErrorCode(err))
	})

	t.Run("requires name", func(t *testing.T) {
		t.Parallel()

		b := postgres.NewBackend(newMock(t))

		err := b.EnsureCollection(context.Background(), "")

		assert.Equal(t, docindex.EINVALID, docindex.ErrorCode(err))
	})
}

func TestBackend_Add(t *testing.T) {
	t.Parallel()

	rec := docindex.VectorRecord{
		Passage: &docindex.Passage{
			ID:      "go_1_0",
			Content: "Goroutines are cheap.",
			Metadata: docindex.PassageMetadata{
				Source:      "go",
				Title:       "Concurrency",
				URL:         "https://go.dev/doc",
				Language:    "go",
				ChunkIndex:  0,
				TotalChunks: 1,
				LastUpdated: updated,
			},
		},
		Embedding: []float32{0.5, -1, 0.25},
	}

	t.Run("upserts in a transaction", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		b := ready(t, mock)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO passages").
			WithArgs("docs", "go_1_0", "Goroutines are cheap.", "go", "Concurrency", "https://go.dev/doc", "go", "", "",
				"", 0, 1, updated, "[0.5,-1,0.25]").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		require.NoError(t, b.Add(context.Background(), []docindex.VectorRecord{rec}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("dimension mismatch is invalid and rolls back", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		b := ready(t, mock)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO passages").WillReturnError(&pgconn.PgError{Code: "22000", Message: "expected 768 dimensions, not 3"})
		mock.ExpectRollback()

		err := b.Add(context.Background(), []docindex.VectorRecord{rec})

		assert.Equal(t, docindex.EINVALID, docindex.ErrorCode(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("record without embedding is rejected before writing", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		b := ready(t, mock)

		err := b.Add(context.Background(), []docindex.VectorRecord{{Passage: rec.Passage}})

		assert.Equal(t, docindex.EINVALID, docindex.ErrorCode(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("connection loss is unavailable", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		b := ready(t, mock)
		mock.ExpectBegin().WillReturnError(&pgconn.PgError{Code: "08006", Message: "connection failure"})

		err := b.Add(context.Background(), []docindex.VectorRecord{rec})

		assert.Equal(t, docindex.EUNAVAILABLE, docindex.ErrorCode(err))
	})
}

var queryColumns = []string{
	"id", "content", "source", "title", "url", "language", "framework", "version",
	"section_title", "chunk_index", "total_chunks", "last_updated", "distance",
}

func TestBackend_Query(t *testing.T) {
	t.Parallel()

	t.Run("returns matches with distances", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		b := ready(t, mock)
		mock.ExpectQuery(`embedding <=> \$2::vector AS distance`).
			WithArgs("docs", "[1,0]", 5).
			WillReturnRows(pgxmock.NewRows(queryColumns).
				AddRow("a", "alpha", "go", "A", "https://go.dev/a", "go", "", "", "Intro", 0, 2, updated, ptr(0.1)).
				AddRow("b", "beta", "go", "B", "https://go.dev/b", "go", "", "", "", 1, 2, updated, nil))

		matches, err := b.Query(context.Background(), []float32{1, 0}, 5, docindex.PassageFilter{})

		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "a", matches[0].Passage.ID)
		assert.Equal(t, "Intro", matches[0].Passage.Metadata.SectionTitle)
		assert.Equal(t, 2, matches[0].Passage.Metadata.TotalChunks)
		require.NotNil(t, matches[0].Distance)
		assert.InDelta(t, 0.1, *matches[0].Distance, 1e-9)
		assert.Nil(t, matches[1].Distance)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filter fields become numbered conditions", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		b := ready(t, mock)
		mock.ExpectQuery(`AND source = \$3 AND framework = \$4\s+ORDER BY distance\s+LIMIT \$5`).
			WithArgs("docs", "[1]", "react", "docusaurus", 10).
			WillReturnRows(pgxmock.NewRows(queryColumns))

		_, err := b.Query(context.Background(), []float32{1}, 10, docindex.PassageFilter{
			Source:    ptr("react"),
			Framework: ptr("docusaurus"),
		})

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("requires collection", func(t *testing.T) {
		t.Parallel()

		b := postgres.NewBackend(newMock(t))

		_, err := b.Query(context.Background(), []float32{1}, 1, docindex.PassageFilter{})

		assert.Equal(t, docindex.EINVALID, docindex.ErrorCode(err))
	})
}

func TestBackend_Delete(t *testing.T) {
	t.Parallel()

	t.Run("Delete by ids", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		b := ready(t, mock)
		mock.ExpectExec(`DELETE FROM passages WHERE collection = \$1 AND id = ANY\(\$2\)`).
			WithArgs("docs", []string{"a", "b"}).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))

		require.NoError(t, b.Delete(context.Background(), []string{"a", "b"}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteWhere reports rows affected", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		b := ready(t, mock)
		mock.ExpectExec(`DELETE FROM passages WHERE collection = \$1 AND source = \$2`).
			WithArgs("docs", "react").
			WillReturnResult(pgxmock.NewResult("DELETE", 42))

		n, err := b.DeleteWhere(context.Background(), docindex.PassageFilter{Source: ptr("react")})

		require.NoError(t, err)
		assert.Equal(t, 42, n)
	})

	t.Run("read-only role is forbidden", func(t *testing.T) {
		t.Parallel()

		mock := newMock(t)
		b := ready(t, mock)
		mock.ExpectExec("DELETE FROM passages").
			WillReturnError(&pgconn.PgError{Code: "42501", Message: "permission denied for table passages"})

		err := b.Clear(context.Background())

		assert.Equal(t, docindex.EFORBIDDEN, docindex.ErrorCode(err))
	})
}

func TestBackend_Metadata(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	b := ready(t, mock)
	mock.ExpectQuery(`SELECT source, title, url`).
		WithArgs("docs").
		WillReturnRows(pgxmock.NewRows([]string{
			"source", "title", "url", "language", "framework", "version",
			"section_title", "chunk_index", "total_chunks", "last_updated",
		}).AddRow("react", "Hooks", "https://react.dev/hooks", "javascript", "docusaurus", "18", "", 0, 1, updated))

	metas, err := b.Metadata(context.Background(), docindex.PassageFilter{})

	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "docusaurus", metas[0].Framework)
	assert.Equal(t, "18", metas[0].Version)
	assert.Equal(t, updated, metas[0].LastUpdated)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("requires DSN", func(t *testing.T) {
		t.Parallel()

		_, err := postgres.Open(context.Background(), "")

		assert.Equal(t, docindex.EINVALID, docindex.ErrorCode(err))
	})

	t.Run("rejects malformed DSN", func(t *testing.T) {
		t.Parallel()

		_, err := postgres.Open(context.Background(), "postgres://%zz")

		assert.Equal(t, docindex.EINVALID, docindex.ErrorCode(err))
	})
}
