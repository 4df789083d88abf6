// Package postgres implements the docindex vector backend on PostgreSQL with
// the pgvector extension. Distances come from pgvector's cosine operator.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/fwojciec/docindex"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Backend implements docindex.VectorBackend at compile time.
var _ docindex.VectorBackend = (*Backend)(nil)

// Pool is the subset of pgxpool.Pool the backend uses.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// Backend stores passages in a single passages table partitioned by collection.
type Backend struct {
	pool Pool

	mu         sync.RWMutex
	collection string
}

// Open connects a pool to dsn and returns a Backend over it.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	if dsn == "" {
		return nil, docindex.Errorf(docindex.EINVALID, "postgres DSN required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, docindex.WrapError(docindex.EINVALID, err, "parse postgres DSN")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, classify(err, "connect postgres")
	}
	return NewBackend(pool), nil
}

// NewBackend creates a Backend over an existing pool.
func NewBackend(pool Pool) *Backend {
	return &Backend{pool: pool}
}

// Name implements docindex.VectorBackend.
func (b *Backend) Name() string {
	return "postgres"
}

// Mode implements docindex.VectorBackend.
func (b *Backend) Mode() docindex.StoreMode {
	return docindex.ModeCloud
}

// Heartbeat implements docindex.VectorBackend.
func (b *Backend) Heartbeat(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return docindex.WrapError(docindex.EUNAVAILABLE, err, "postgres unreachable")
	}
	return nil
}

// Close implements docindex.VectorBackend.
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS passages (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		content TEXT NOT NULL,
		source TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		framework TEXT NOT NULL DEFAULT '',
		version TEXT NOT NULL DEFAULT '',
		section_title TEXT NOT NULL DEFAULT '',
		chunk_index INTEGER NOT NULL DEFAULT 0,
		total_chunks INTEGER NOT NULL DEFAULT 0,
		last_updated TIMESTAMPTZ NOT NULL,
		embedding vector NOT NULL,
		PRIMARY KEY (collection, id)
	)`,
	`CREATE INDEX IF NOT EXISTS passages_collection_source_idx ON passages (collection, source)`,
}

// EnsureCollection implements docindex.VectorBackend. The schema is created
// on first use; collections are rows sharing one table.
func (b *Backend) EnsureCollection(ctx context.Context, name string) error {
	if name == "" {
		return docindex.Errorf(docindex.EINVALID, "collection name required")
	}
	for _, m := range migrations {
		if _, err := b.pool.Exec(ctx, m); err != nil {
			return classify(err, "migrate schema")
		}
	}

	b.mu.Lock()
	b.collection = name
	b.mu.Unlock()
	return nil
}

func (b *Backend) current() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.collection == "" {
		return "", docindex.Errorf(docindex.EINVALID, "no collection selected")
	}
	return b.collection, nil
}

// classify maps a pgx error to an application error.
func classify(err error, format string, args ...any) error {
	code := docindex.EINTERNAL

	var pgErr *pgconn.PgError
	var netErr net.Error
	switch {
	case errors.As(err, &pgErr):
		switch {
		case pgErr.Code == "42501", strings.HasPrefix(pgErr.Code, "28"):
			code = docindex.EFORBIDDEN
		case pgErr.Code == "23505":
			code = docindex.ECONFLICT
		case strings.HasPrefix(pgErr.Code, "22"), strings.HasPrefix(pgErr.Code, "23"):
			code = docindex.EINVALID
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"), strings.HasPrefix(pgErr.Code, "53"):
			code = docindex.EUNAVAILABLE
		}
	case pgconn.Timeout(err), errors.As(err, &netErr):
		code = docindex.EUNAVAILABLE
	default:
		var connErr *pgconn.ConnectError
		if errors.As(err, &connErr) {
			code = docindex.EUNAVAILABLE
		}
	}
	return docindex.WrapError(code, err, format, args...)
}

// vectorLiteral formats v in pgvector's text representation.
func vectorLiteral(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// filterClause appends one condition per non-nil filter field, numbering
// placeholders after the existing args.
func filterClause(args []any, filter docindex.PassageFilter) (string, []any) {
	var sb strings.Builder
	for _, f := range []struct {
		column string
		value  *string
	}{
		{"source", filter.Source},
		{"url", filter.URL},
		{"language", filter.Language},
		{"framework", filter.Framework},
		{"version", filter.Version},
	} {
		if f.value == nil {
			continue
		}
		args = append(args, *f.value)
		fmt.Fprintf(&sb, " AND %s = $%d", f.column, len(args))
	}
	return sb.String(), args
}
