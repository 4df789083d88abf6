package chroma

import (
	"context"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/fwojciec/docindex"
)

// Ensure Client implements docindex.VectorBackend at compile time.
var _ docindex.VectorBackend = (*Client)(nil)

// Metadata keys as stored in Chroma.
const (
	keySource       = "source"
	keyTitle        = "title"
	keyURL          = "url"
	keyLanguage     = "language"
	keyFramework    = "framework"
	keyVersion      = "version"
	keySectionTitle = "sectionTitle"
	keyChunkIndex   = "chunkIndex"
	keyTotalChunks  = "totalChunks"
	keyLastUpdated  = "lastUpdated"
)

// includeDistances asks query results to carry distances.
const includeDistances chromago.Include = "distances"

// pageSize bounds each get, upsert and delete request.
const pageSize = 1000

// suppliedEmbeddings stands in for chroma-go's embedding function. Vectors
// always come from the docindex embedder, so it refuses to embed.
type suppliedEmbeddings struct{}

func (suppliedEmbeddings) EmbedDocuments(context.Context, []string) ([]embeddings.Embedding, error) {
	return nil, docindex.Errorf(docindex.EINVALID, "chroma: embeddings must be supplied with documents")
}

func (suppliedEmbeddings) EmbedQuery(context.Context, string) (embeddings.Embedding, error) {
	return nil, docindex.Errorf(docindex.EINVALID, "chroma: query embedding must be supplied")
}

// EnsureCollection implements docindex.VectorBackend. The server's batch
// limits are fetched first so later writes can be sized to them.
func (c *Client) EnsureCollection(ctx context.Context, name string) error {
	if name == "" {
		return docindex.Errorf(docindex.EINVALID, "collection name required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.api.PreFlight(ctx); err != nil {
		return apiError(ctx, err, docindex.EUNAVAILABLE, "pre-flight checks")
	}
	col, err := c.api.GetOrCreateCollection(ctx, name,
		chromago.WithHNSWSpaceCreate(embeddings.COSINE),
		chromago.WithEmbeddingFunctionCreate(suppliedEmbeddings{}),
	)
	if err != nil {
		return apiError(ctx, err, docindex.EINVALID, "get or create collection "+name)
	}
	c.collection = col
	return nil
}

func (c *Client) selected() (chromago.Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.collection == nil {
		return nil, docindex.Errorf(docindex.EINVALID, "no collection selected")
	}
	return c.collection, nil
}

// batchSize is pageSize capped below the server's max_batch_size, which
// chroma-go rejects batches from reaching.
func (c *Client) batchSize() int {
	limits, ok := c.api.(interface{ GetPreFlightConditionsRaw() map[string]any })
	if !ok {
		return pageSize
	}
	c.mu.RLock()
	limit, _ := limits.GetPreFlightConditionsRaw()["max_batch_size"].(float64)
	c.mu.RUnlock()
	if limit > 1 && int(limit)-1 < pageSize {
		return int(limit) - 1
	}
	return pageSize
}

// Add implements docindex.VectorBackend. Records are upserted so existing IDs
// are overwritten.
func (c *Client) Add(ctx context.Context, records []docindex.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	col, err := c.selected()
	if err != nil {
		return err
	}
	for i, r := range records {
		if r.Passage == nil {
			return docindex.Errorf(docindex.EINVALID, "record %d has no passage", i)
		}
	}

	size := c.batchSize()
	for start := 0; start < len(records); start += size {
		batch := records[start:min(start+size, len(records))]
		ids := make([]chromago.DocumentID, len(batch))
		texts := make([]string, len(batch))
		metas := make([]chromago.DocumentMetadata, len(batch))
		vectors := make([]embeddings.Embedding, len(batch))
		for i, r := range batch {
			ids[i] = chromago.DocumentID(r.Passage.ID)
			texts[i] = r.Passage.Content
			metas[i] = encodeMetadata(r.Passage.Metadata)
			vectors[i] = embeddings.NewEmbeddingFromFloat32(r.Embedding)
		}
		if err := col.Upsert(ctx,
			chromago.WithIDs(ids...),
			chromago.WithTexts(texts...),
			chromago.WithMetadatas(metas...),
			chromago.WithEmbeddings(vectors...),
		); err != nil {
			return apiError(ctx, err, docindex.EINVALID, "upsert")
		}
	}
	return nil
}

// Query implements docindex.VectorBackend.
func (c *Client) Query(ctx context.Context, embedding []float32, limit int, filter docindex.PassageFilter) ([]docindex.QueryMatch, error) {
	col, err := c.selected()
	if err != nil {
		return nil, err
	}

	res, err := col.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(embedding)),
		chromago.WithNResults(limit),
		chromago.WithWhereQuery(where(filter)),
		chromago.WithIncludeQuery(chromago.IncludeDocuments, chromago.IncludeMetadatas, includeDistances),
	)
	if err != nil {
		return nil, apiError(ctx, err, docindex.EINVALID, "query")
	}
	idGroups := res.GetIDGroups()
	if len(idGroups) == 0 {
		return nil, nil
	}

	var (
		docs      chromago.Documents
		metas     chromago.DocumentMetadatas
		distances embeddings.Distances
	)
	if g := res.GetDocumentsGroups(); len(g) > 0 {
		docs = g[0]
	}
	if g := res.GetMetadatasGroups(); len(g) > 0 {
		metas = g[0]
	}
	if g := res.GetDistancesGroups(); len(g) > 0 {
		distances = g[0]
	}

	matches := make([]docindex.QueryMatch, 0, len(idGroups[0]))
	for i, id := range idGroups[0] {
		p := &docindex.Passage{ID: string(id)}
		if i < len(docs) && docs[i] != nil {
			p.Content = docs[i].ContentString()
		}
		if i < len(metas) {
			p.Metadata = decodeMetadata(metas[i])
		}
		m := docindex.QueryMatch{Passage: p}
		if i < len(distances) {
			d := float64(distances[i])
			m.Distance = &d
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// scan pages through every record matching filter.
func (c *Client) scan(ctx context.Context, filter docindex.PassageFilter, fn func(chromago.GetResult)) error {
	col, err := c.selected()
	if err != nil {
		return err
	}
	for offset := 0; ; offset += pageSize {
		opts := []chromago.CollectionGetOption{
			chromago.WithWhereGet(where(filter)),
			chromago.WithIncludeGet(chromago.IncludeMetadatas),
			chromago.WithLimitGet(pageSize),
		}
		if offset > 0 {
			opts = append(opts, chromago.WithOffsetGet(offset))
		}
		res, err := col.Get(ctx, opts...)
		if err != nil {
			return apiError(ctx, err, docindex.EINVALID, "get")
		}
		fn(res)
		if len(res.GetIDs()) < pageSize {
			return nil
		}
	}
}

// Delete implements docindex.VectorBackend.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	col, err := c.selected()
	if err != nil {
		return err
	}
	size := c.batchSize()
	for start := 0; start < len(ids); start += size {
		batch := ids[start:min(start+size, len(ids))]
		docIDs := make([]chromago.DocumentID, len(batch))
		for i, id := range batch {
			docIDs[i] = chromago.DocumentID(id)
		}
		if err := col.Delete(ctx, chromago.WithIDsDelete(docIDs...)); err != nil {
			return apiError(ctx, err, docindex.EINVALID, "delete")
		}
	}
	return nil
}

// DeleteWhere implements docindex.VectorBackend. Matching IDs are listed
// first so the number removed can be reported.
func (c *Client) DeleteWhere(ctx context.Context, filter docindex.PassageFilter) (int, error) {
	var ids []string
	if err := c.scan(ctx, filter, func(res chromago.GetResult) {
		for _, id := range res.GetIDs() {
			ids = append(ids, string(id))
		}
	}); err != nil {
		return 0, err
	}
	if err := c.Delete(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Clear implements docindex.VectorBackend by dropping and recreating the collection.
func (c *Client) Clear(ctx context.Context) error {
	col, err := c.selected()
	if err != nil {
		return err
	}
	name := col.Name()

	c.mu.Lock()
	err = c.api.DeleteCollection(ctx, name)
	c.mu.Unlock()
	if err != nil {
		if err := apiError(ctx, err, docindex.EINVALID, "delete collection "+name); docindex.ErrorCode(err) != docindex.ENOTFOUND {
			return err
		}
	}
	return c.EnsureCollection(ctx, name)
}

// Metadata implements docindex.VectorBackend.
func (c *Client) Metadata(ctx context.Context, filter docindex.PassageFilter) ([]docindex.PassageMetadata, error) {
	var metas []docindex.PassageMetadata
	err := c.scan(ctx, filter, func(res chromago.GetResult) {
		for _, m := range res.GetMetadatas() {
			metas = append(metas, decodeMetadata(m))
		}
	})
	return metas, err
}

// where translates a filter into a Chroma where clause. Multiple fields are
// combined with $and as Chroma requires.
func where(filter docindex.PassageFilter) chromago.WhereFilter {
	var clauses []chromago.WhereClause
	for _, f := range []struct {
		key   string
		value *string
	}{
		{keySource, filter.Source},
		{keyURL, filter.URL},
		{keyLanguage, filter.Language},
		{keyFramework, filter.Framework},
		{keyVersion, filter.Version},
	} {
		if f.value != nil {
			clauses = append(clauses, chromago.EqString(f.key, *f.value))
		}
	}
	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return chromago.And(clauses...)
	}
}

// encodeMetadata flattens metadata into Chroma's scalar map. Empty optional
// strings are omitted.
func encodeMetadata(m docindex.PassageMetadata) chromago.DocumentMetadata {
	md := chromago.NewDocumentMetadata()
	md.SetString(keySource, m.Source)
	md.SetString(keyTitle, m.Title)
	md.SetInt(keyChunkIndex, int64(m.ChunkIndex))
	md.SetInt(keyTotalChunks, int64(m.TotalChunks))
	md.SetInt(keyLastUpdated, m.LastUpdated.Unix())
	for key, v := range map[string]string{
		keyURL:          m.URL,
		keyLanguage:     m.Language,
		keyFramework:    m.Framework,
		keyVersion:      m.Version,
		keySectionTitle: m.SectionTitle,
	} {
		if v != "" {
			md.SetString(key, v)
		}
	}
	return md
}

// decodeMetadata reverses encodeMetadata. Query results decode every number
// as a float, get results keep integers.
func decodeMetadata(md chromago.DocumentMetadata) docindex.PassageMetadata {
	if md == nil {
		return docindex.PassageMetadata{}
	}
	str := func(key string) string {
		s, _ := md.GetString(key)
		return s
	}
	num := func(key string) int64 {
		if i, ok := md.GetInt(key); ok {
			return i
		}
		f, _ := md.GetFloat(key)
		return int64(f)
	}

	m := docindex.PassageMetadata{
		Source:       str(keySource),
		Title:        str(keyTitle),
		URL:          str(keyURL),
		Language:     str(keyLanguage),
		Framework:    str(keyFramework),
		Version:      str(keyVersion),
		SectionTitle: str(keySectionTitle),
		ChunkIndex:   int(num(keyChunkIndex)),
		TotalChunks:  int(num(keyTotalChunks)),
	}
	if ts := num(keyLastUpdated); ts > 0 {
		m.LastUpdated = time.Unix(ts, 0).UTC()
	}
	return m
}
