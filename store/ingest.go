package store

import (
	"context"
	"fmt"

	"github.com/fwojciec/docindex"
)

// AddDocuments implements docindex.Store.
//
// Passages are copied before sanitization so callers' values are never
// modified. A sub-batch rejected as malformed (EINVALID) or forbidden
// (EFORBIDDEN) is counted as skipped and the remaining sub-batches proceed;
// any other failure aborts the call with the counts accumulated so far.
func (s *Store) AddDocuments(ctx context.Context, passages []*docindex.Passage) (*docindex.IngestResult, error) {
	result := &docindex.IngestResult{}
	if len(passages) == 0 {
		return result, nil
	}

	if !s.writable(ctx) {
		s.logger.Warn("vector store not writable, skipping ingest",
			"backend", s.backend.Name(),
			"passages", len(passages),
		)
		result.Skipped = len(passages)
		return result, nil
	}

	batch := s.sanitize(passages, result)

	for start := 0; start < len(batch); start += s.batchSize {
		end := min(start+s.batchSize, len(batch))
		sub := batch[start:end]

		err := s.write(ctx, sub)
		if err == nil {
			result.Written += len(sub)
			continue
		}

		switch docindex.ErrorCode(err) {
		case docindex.EINVALID:
			s.logger.Warn("skipping malformed sub-batch", "offset", start, "size", len(sub), "error", err)
			result.Skipped += len(sub)
		case docindex.EFORBIDDEN:
			s.degrade("add", err)
			s.logger.Warn("skipping forbidden sub-batch", "offset", start, "size", len(sub), "error", err)
			result.Skipped += len(sub)
		default:
			s.degrade("add", err)
			return result, fmt.Errorf("write sub-batch at offset %d: %w", start, err)
		}
	}

	return result, nil
}

// sanitize validates, truncates and deduplicates passages, counting each
// adjustment in result.
func (s *Store) sanitize(passages []*docindex.Passage, result *docindex.IngestResult) []*docindex.Passage {
	seen := make(map[string]struct{}, len(passages))
	batch := make([]*docindex.Passage, 0, len(passages))

	for _, p := range passages {
		if p == nil {
			result.Invalid++
			continue
		}
		if err := p.Validate(); err != nil {
			s.logger.Warn("dropping invalid passage", "id", p.ID, "error", err)
			result.Invalid++
			continue
		}

		clean := *p
		if truncated := docindex.TruncateContent(clean.Content, docindex.MaxPassageLength); truncated != clean.Content {
			clean.Content = truncated
			result.Truncated++
		}

		if _, dup := seen[clean.ID]; dup {
			clean.ID = uniqueID(clean.ID, seen)
			result.Renamed++
		}
		seen[clean.ID] = struct{}{}

		batch = append(batch, &clean)
	}
	return batch
}

// uniqueID appends the smallest numeric suffix that makes id unused.
func uniqueID(id string, seen map[string]struct{}) string {
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d", id, n)
		if _, dup := seen[candidate]; !dup {
			return candidate
		}
	}
}

// write embeds and stores one sub-batch.
func (s *Store) write(ctx context.Context, passages []*docindex.Passage) error {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Content
	}

	embeddings, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(embeddings) != len(passages) {
		return docindex.Errorf(docindex.EINTERNAL, "embedder returned %d vectors for %d passages", len(embeddings), len(passages))
	}

	records := make([]docindex.VectorRecord, len(passages))
	for i, p := range passages {
		records[i] = docindex.VectorRecord{Passage: p, Embedding: embeddings[i]}
	}
	return s.backend.Add(ctx, records)
}

// UpdateDocument implements docindex.Store. The delete and the add are two
// separate backend calls; a failure between them leaves the passage absent.
func (s *Store) UpdateDocument(ctx context.Context, passage *docindex.Passage) error {
	if passage == nil {
		return docindex.Errorf(docindex.EINVALID, "passage required")
	}
	if err := passage.Validate(); err != nil {
		return err
	}

	if err := s.DeleteDocument(ctx, passage.ID); err != nil {
		return err
	}
	_, err := s.AddDocuments(ctx, []*docindex.Passage{passage})
	return err
}
