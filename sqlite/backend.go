package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/docindex"
	"github.com/ncruces/go-sqlite3"
)

// Compile-time interface verification.
var _ docindex.VectorBackend = (*Backend)(nil)

// Backend implements docindex.VectorBackend on a local SQLite database.
// The database is opened on the first Heartbeat or EnsureCollection, so a
// missing or unopenable file surfaces as EUNAVAILABLE there.
type Backend struct {
	db *DB

	openMu sync.Mutex
	closed bool

	mu         sync.RWMutex
	collection string
}

// NewBackend creates a Backend over db. db may be unopened.
func NewBackend(db *DB) *Backend {
	return &Backend{db: db}
}

// Name implements docindex.VectorBackend.
func (b *Backend) Name() string {
	return "sqlite"
}

// Mode implements docindex.VectorBackend.
func (b *Backend) Mode() docindex.StoreMode {
	return docindex.ModeLocal
}

// open opens the database unless it already is or the backend was closed.
func (b *Backend) open() error {
	b.openMu.Lock()
	defer b.openMu.Unlock()
	if b.closed {
		return docindex.Errorf(docindex.EUNAVAILABLE, "sqlite database %s is closed", b.db.Path())
	}
	if b.db.IsOpen() {
		return nil
	}
	if err := b.db.Open(); err != nil {
		return docindex.WrapError(docindex.EUNAVAILABLE, err, "open sqlite database %s", b.db.Path())
	}
	return nil
}

// Heartbeat implements docindex.VectorBackend.
func (b *Backend) Heartbeat(ctx context.Context) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := b.db.PingContext(ctx); err != nil {
		return docindex.WrapError(docindex.EUNAVAILABLE, err, "sqlite database %s unreachable", b.db.Path())
	}
	return nil
}

// EnsureCollection implements docindex.VectorBackend.
func (b *Backend) EnsureCollection(ctx context.Context, name string) error {
	if name == "" {
		return docindex.Errorf(docindex.EINVALID, "collection name required")
	}
	if err := b.open(); err != nil {
		return err
	}

	// Selecting an existing collection must not write, so read-only
	// databases can still be searched.
	var exists int
	err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM collections WHERE name = ?", name).Scan(&exists)
	if err != nil {
		return classify(err, "look up collection %s", name)
	}
	if exists == 0 {
		_, err = b.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO collections (name, created_at) VALUES (?, ?)
		`, name, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			err = classify(err, "create collection %s", name)
			if docindex.ErrorCode(err) != docindex.EFORBIDDEN {
				return err
			}
			// Still selected so that reads against a read-only database
			// find nothing rather than fail.
			b.selectCollection(name)
			return err
		}
	}

	b.selectCollection(name)
	return nil
}

func (b *Backend) selectCollection(name string) {
	b.mu.Lock()
	b.collection = name
	b.mu.Unlock()
}

func (b *Backend) current() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.collection == "" {
		return "", docindex.Errorf(docindex.EINVALID, "no collection selected")
	}
	return b.collection, nil
}

// Add implements docindex.VectorBackend. Existing IDs are replaced.
func (b *Backend) Add(ctx context.Context, records []docindex.VectorRecord) error {
	collection, err := b.current()
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.Passage == nil || r.Passage.ID == "" {
			return docindex.Errorf(docindex.EINVALID, "record without passage ID")
		}
		if len(r.Embedding) == 0 {
			return docindex.Errorf(docindex.EINVALID, "passage %q has no embedding", r.Passage.ID)
		}
	}

	tx, err := b.db.BeginTx(ctx)
	if err != nil {
		return classify(err, "begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO passages (
			collection, id, content, source, title, url, language, framework, version,
			section_title, chunk_index, total_chunks, last_updated, embedding
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return classify(err, "prepare insert")
	}
	defer stmt.Close()

	for _, r := range records {
		p, m := r.Passage, r.Passage.Metadata
		if _, err := stmt.ExecContext(ctx,
			collection, p.ID, p.Content, m.Source, m.Title, m.URL, m.Language, m.Framework, m.Version,
			m.SectionTitle, m.ChunkIndex, m.TotalChunks, m.LastUpdated.UTC().Format(time.RFC3339Nano),
			encodeVector(r.Embedding),
		); err != nil {
			return classify(err, "insert passage %s", p.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return classify(err, "commit")
	}
	return nil
}

// Query implements docindex.VectorBackend. Every candidate matching filter is
// scored; rows whose embedding cannot be compared are returned last with a nil
// distance.
func (b *Backend) Query(ctx context.Context, embedding []float32, limit int, filter docindex.PassageFilter) ([]docindex.QueryMatch, error) {
	collection, err := b.current()
	if err != nil {
		return nil, err
	}

	var query strings.Builder
	args := []any{collection}
	query.WriteString(`
		SELECT id, content, source, title, url, language, framework, version,
			section_title, chunk_index, total_chunks, last_updated, embedding
		FROM passages
		WHERE collection = ?`)
	appendFilter(&query, &args, filter)
	query.WriteString(" ORDER BY rowid")

	rows, err := b.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, classify(err, "query passages")
	}
	defer rows.Close()

	var scored, unscored []docindex.QueryMatch
	for rows.Next() {
		var p docindex.Passage
		var lastUpdated string
		var blob []byte
		if err := rows.Scan(&p.ID, &p.Content, &p.Metadata.Source, &p.Metadata.Title, &p.Metadata.URL,
			&p.Metadata.Language, &p.Metadata.Framework, &p.Metadata.Version, &p.Metadata.SectionTitle,
			&p.Metadata.ChunkIndex, &p.Metadata.TotalChunks, &lastUpdated, &blob); err != nil {
			return nil, classify(err, "scan passage")
		}
		if p.Metadata.LastUpdated, err = parseRFC3339(lastUpdated, "last_updated"); err != nil {
			return nil, docindex.WrapError(docindex.EINTERNAL, err, "passage %s", p.ID)
		}
		vector, err := decodeVector(blob)
		if err != nil {
			return nil, docindex.WrapError(docindex.EINTERNAL, err, "passage %s", p.ID)
		}

		match := docindex.QueryMatch{Passage: &p}
		if d, ok := cosineDistance(embedding, vector); ok {
			match.Distance = &d
			scored = append(scored, match)
		} else {
			unscored = append(unscored, match)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate passages")
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].Distance < *scored[j].Distance
	})
	matches := append(scored, unscored...)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Delete implements docindex.VectorBackend.
func (b *Backend) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	collection, err := b.current()
	if err != nil {
		return err
	}

	args := []any{collection}
	for _, id := range ids {
		args = append(args, id)
	}
	_, err = b.db.ExecContext(ctx,
		"DELETE FROM passages WHERE collection = ? AND id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return classify(err, "delete passages")
	}
	return nil
}

// DeleteWhere implements docindex.VectorBackend.
func (b *Backend) DeleteWhere(ctx context.Context, filter docindex.PassageFilter) (int, error) {
	collection, err := b.current()
	if err != nil {
		return 0, err
	}

	var query strings.Builder
	args := []any{collection}
	query.WriteString("DELETE FROM passages WHERE collection = ?")
	appendFilter(&query, &args, filter)

	res, err := b.db.ExecContext(ctx, query.String(), args...)
	if err != nil {
		return 0, classify(err, "delete passages")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(err, "count deleted passages")
	}
	return int(n), nil
}

// Clear implements docindex.VectorBackend.
func (b *Backend) Clear(ctx context.Context) error {
	collection, err := b.current()
	if err != nil {
		return err
	}
	if _, err := b.db.ExecContext(ctx, "DELETE FROM passages WHERE collection = ?", collection); err != nil {
		return classify(err, "clear collection %s", collection)
	}
	return nil
}

// Metadata implements docindex.VectorBackend.
func (b *Backend) Metadata(ctx context.Context, filter docindex.PassageFilter) ([]docindex.PassageMetadata, error) {
	collection, err := b.current()
	if err != nil {
		return nil, err
	}

	var query strings.Builder
	args := []any{collection}
	query.WriteString(`
		SELECT source, title, url, language, framework, version,
			section_title, chunk_index, total_chunks, last_updated
		FROM passages
		WHERE collection = ?`)
	appendFilter(&query, &args, filter)
	query.WriteString(" ORDER BY rowid")

	rows, err := b.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, classify(err, "query metadata")
	}
	defer rows.Close()

	var metas []docindex.PassageMetadata
	for rows.Next() {
		var m docindex.PassageMetadata
		var lastUpdated string
		if err := rows.Scan(&m.Source, &m.Title, &m.URL, &m.Language, &m.Framework, &m.Version,
			&m.SectionTitle, &m.ChunkIndex, &m.TotalChunks, &lastUpdated); err != nil {
			return nil, classify(err, "scan metadata")
		}
		if m.LastUpdated, err = parseRFC3339(lastUpdated, "last_updated"); err != nil {
			return nil, docindex.WrapError(docindex.EINTERNAL, err, "metadata row")
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate metadata")
	}
	return metas, nil
}

// Close implements docindex.VectorBackend.
func (b *Backend) Close() error {
	b.openMu.Lock()
	b.closed = true
	b.openMu.Unlock()
	return b.db.Close()
}

// classify wraps a database error with the application code of ErrorCode.
func classify(err error, format string, args ...any) error {
	return docindex.WrapError(ErrorCode(err), err, format, args...)
}

// ErrorCode maps a database error to an application error code.
// Permission failures are EFORBIDDEN, rejected values are EINVALID and
// locking or open failures are EUNAVAILABLE. Anything else is EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return docindex.EUNAVAILABLE
	}

	var code sqlite3.ErrorCode
	if !errors.As(err, &code) {
		return docindex.EINTERNAL
	}
	switch code {
	case sqlite3.READONLY, sqlite3.PERM, sqlite3.AUTH:
		return docindex.EFORBIDDEN
	case sqlite3.CONSTRAINT, sqlite3.MISMATCH, sqlite3.TOOBIG, sqlite3.RANGE:
		return docindex.EINVALID
	case sqlite3.CANTOPEN, sqlite3.BUSY, sqlite3.LOCKED:
		return docindex.EUNAVAILABLE
	default:
		return docindex.EINTERNAL
	}
}
