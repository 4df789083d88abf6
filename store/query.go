package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fwojciec/docindex"
)

// Search implements docindex.Store.
func (s *Store) Search(ctx context.Context, query string, opts docindex.SearchOptions) ([]docindex.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, docindex.Errorf(docindex.EINVALID, "search query required")
	}
	if !s.readable(ctx) {
		return []docindex.SearchResult{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	embeddings, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		if s.degrade("search", err) {
			return []docindex.SearchResult{}, nil
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, docindex.Errorf(docindex.EINTERNAL, "embedder returned %d vectors for one query", len(embeddings))
	}

	matches, err := s.backend.Query(ctx, embeddings[0], limit, opts.Filter)
	if err != nil {
		if s.degrade("search", err) {
			return []docindex.SearchResult{}, nil
		}
		return nil, fmt.Errorf("query: %w", err)
	}

	return rank(matches, opts.Threshold), nil
}

// rank converts distances to scores, drops matches without a distance or
// below threshold, and orders by descending score. Equal scores keep the
// backend order.
func rank(matches []docindex.QueryMatch, threshold float64) []docindex.SearchResult {
	results := make([]docindex.SearchResult, 0, len(matches))
	for _, m := range matches {
		if m.Distance == nil || m.Passage == nil {
			continue
		}
		score := 1 - *m.Distance
		if score < threshold {
			continue
		}
		results = append(results, docindex.SearchResult{
			Passage:  m.Passage,
			Score:    score,
			Distance: *m.Distance,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// DeleteDocument implements docindex.Store.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if id == "" {
		return docindex.Errorf(docindex.EINVALID, "passage ID required")
	}
	if !s.writable(ctx) {
		s.logger.Warn("vector store not writable, skipping delete", "id", id)
		return nil
	}
	if err := s.backend.Delete(ctx, []string{id}); err != nil {
		if s.degrade("delete", err) {
			return nil
		}
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// DeleteByFilter implements docindex.Store. An empty filter is rejected;
// use ClearCollection to remove everything.
func (s *Store) DeleteByFilter(ctx context.Context, filter docindex.PassageFilter) (int, error) {
	if filter.IsEmpty() {
		return 0, docindex.Errorf(docindex.EINVALID, "delete filter required")
	}
	if !s.writable(ctx) {
		s.logger.Warn("vector store not writable, skipping delete by filter")
		return 0, nil
	}
	n, err := s.backend.DeleteWhere(ctx, filter)
	if err != nil {
		if s.degrade("deleteByFilter", err) {
			return 0, nil
		}
		return 0, fmt.Errorf("delete by filter: %w", err)
	}
	return n, nil
}

// ClearCollection implements docindex.Store.
func (s *Store) ClearCollection(ctx context.Context) error {
	if !s.writable(ctx) {
		s.logger.Warn("vector store not writable, skipping clear")
		return nil
	}
	if err := s.backend.Clear(ctx); err != nil {
		if s.degrade("clear", err) {
			return nil
		}
		return fmt.Errorf("clear collection: %w", err)
	}
	return nil
}

// CollectionStats implements docindex.Store.
func (s *Store) CollectionStats(ctx context.Context) docindex.CollectionStats {
	stats := docindex.CollectionStats{
		Sources:    []string{},
		Languages:  []string{},
		Frameworks: []string{},
	}
	if !s.readable(ctx) {
		return stats
	}

	metas, err := s.backend.Metadata(ctx, docindex.PassageFilter{})
	if err != nil {
		s.degrade("collectionStats", err)
		s.logger.Warn("collection stats unavailable", "error", err)
		return stats
	}

	sources := make(map[string]struct{})
	languages := make(map[string]struct{})
	frameworks := make(map[string]struct{})
	for _, m := range metas {
		addDistinct(sources, m.Source)
		addDistinct(languages, m.Language)
		addDistinct(frameworks, m.Framework)
	}

	stats.Count = len(metas)
	stats.Sources = sortedKeys(sources)
	stats.Languages = sortedKeys(languages)
	stats.Frameworks = sortedKeys(frameworks)
	return stats
}

// SourceStats implements docindex.Store.
func (s *Store) SourceStats(ctx context.Context, source string) docindex.SourceStats {
	stats := docindex.SourceStats{Source: source}
	if source == "" || !s.readable(ctx) {
		return stats
	}

	metas, err := s.backend.Metadata(ctx, docindex.PassageFilter{Source: &source})
	if err != nil {
		s.degrade("sourceStats", err)
		s.logger.Warn("source stats unavailable", "source", source, "error", err)
		return stats
	}

	pages := make(map[string]struct{})
	var latest time.Time
	for _, m := range metas {
		addDistinct(pages, m.URL)
		if m.LastUpdated.After(latest) {
			latest = m.LastUpdated
		}
	}

	stats.Count = len(metas)
	stats.Pages = len(pages)
	stats.LastUpdated = latest
	return stats
}

func addDistinct(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
