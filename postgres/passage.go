package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/docindex"
)

const upsertPassage = `INSERT INTO passages (
	collection, id, content, source, title, url, language, framework, version,
	section_title, chunk_index, total_chunks, last_updated, embedding
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::vector)
ON CONFLICT (collection, id) DO UPDATE SET
	content = EXCLUDED.content,
	source = EXCLUDED.source,
	title = EXCLUDED.title,
	url = EXCLUDED.url,
	language = EXCLUDED.language,
	framework = EXCLUDED.framework,
	version = EXCLUDED.version,
	section_title = EXCLUDED.section_title,
	chunk_index = EXCLUDED.chunk_index,
	total_chunks = EXCLUDED.total_chunks,
	last_updated = EXCLUDED.last_updated,
	embedding = EXCLUDED.embedding`

// Add implements docindex.VectorBackend. The batch is written in one transaction.
func (b *Backend) Add(ctx context.Context, records []docindex.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
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

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return classify(err, "begin transaction")
	}
	for _, r := range records {
		p, m := r.Passage, r.Passage.Metadata
		if _, err := tx.Exec(ctx, upsertPassage,
			collection, p.ID, p.Content, m.Source, m.Title, m.URL, m.Language, m.Framework, m.Version,
			m.SectionTitle, m.ChunkIndex, m.TotalChunks, m.LastUpdated.UTC(), vectorLiteral(r.Embedding),
		); err != nil {
			_ = tx.Rollback(ctx)
			return classify(err, "upsert passage %s", p.ID)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(err, "commit")
	}
	return nil
}

// Query implements docindex.VectorBackend.
func (b *Backend) Query(ctx context.Context, embedding []float32, limit int, filter docindex.PassageFilter) ([]docindex.QueryMatch, error) {
	collection, err := b.current()
	if err != nil {
		return nil, err
	}

	clause, args := filterClause([]any{collection, vectorLiteral(embedding)}, filter)
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, content, source, title, url, language, framework, version,
	section_title, chunk_index, total_chunks, last_updated, embedding <=> $2::vector AS distance
FROM passages
WHERE collection = $1%s
ORDER BY distance
LIMIT $%d`, clause, len(args))

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "query passages")
	}
	defer rows.Close()

	var matches []docindex.QueryMatch
	for rows.Next() {
		p := &docindex.Passage{}
		var distance *float64
		if err := rows.Scan(&p.ID, &p.Content, &p.Metadata.Source, &p.Metadata.Title, &p.Metadata.URL,
			&p.Metadata.Language, &p.Metadata.Framework, &p.Metadata.Version, &p.Metadata.SectionTitle,
			&p.Metadata.ChunkIndex, &p.Metadata.TotalChunks, &p.Metadata.LastUpdated, &distance); err != nil {
			return nil, classify(err, "scan passage")
		}
		matches = append(matches, docindex.QueryMatch{Passage: p, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate passages")
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
	if _, err := b.pool.Exec(ctx, `DELETE FROM passages WHERE collection = $1 AND id = ANY($2)`, collection, ids); err != nil {
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
	clause, args := filterClause([]any{collection}, filter)
	tag, err := b.pool.Exec(ctx, `DELETE FROM passages WHERE collection = $1`+clause, args...)
	if err != nil {
		return 0, classify(err, "delete passages")
	}
	return int(tag.RowsAffected()), nil
}

// Clear implements docindex.VectorBackend.
func (b *Backend) Clear(ctx context.Context) error {
	collection, err := b.current()
	if err != nil {
		return err
	}
	if _, err := b.pool.Exec(ctx, `DELETE FROM passages WHERE collection = $1`, collection); err != nil {
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
	clause, args := filterClause([]any{collection}, filter)
	rows, err := b.pool.Query(ctx, `SELECT source, title, url, language, framework, version,
	section_title, chunk_index, total_chunks, last_updated
FROM passages
WHERE collection = $1`+clause, args...)
	if err != nil {
		return nil, classify(err, "query metadata")
	}
	defer rows.Close()

	var metas []docindex.PassageMetadata
	for rows.Next() {
		var m docindex.PassageMetadata
		var lastUpdated time.Time
		if err := rows.Scan(&m.Source, &m.Title, &m.URL, &m.Language, &m.Framework, &m.Version,
			&m.SectionTitle, &m.ChunkIndex, &m.TotalChunks, &lastUpdated); err != nil {
			return nil, classify(err, "scan metadata")
		}
		m.LastUpdated = lastUpdated.UTC()
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate metadata")
	}
	return metas, nil
}
