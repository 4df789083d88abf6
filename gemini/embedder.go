package gemini

import (
	"context"

	"github.com/fwojciec/docindex"
	"google.golang.org/genai"
)

// Ensure Embedder implements docindex.Embedder at compile time.
var _ docindex.Embedder = (*Embedder)(nil)

// Embedding defaults.
const (
	DefaultDimensions = 768
	maxBatch          = 100
)

// Embedder implements docindex.Embedder using Gemini embeddings.
type Embedder struct {
	client *genai.Client
	model  string
	dims   int32
}

// NewEmbedder creates an Embedder producing vectors of dims dimensions with
// the default embedding model. Non-positive dims selects DefaultDimensions.
func NewEmbedder(client *genai.Client, dims int) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{client: client, model: DefaultEmbeddingModel, dims: int32(dims)}
}

// BuildEmbedConfig returns the request config for dims-dimensional embeddings.
func BuildEmbedConfig(dims int32) *genai.EmbedContentConfig {
	return &genai.EmbedContentConfig{
		TaskType:             "SEMANTIC_SIMILARITY",
		OutputDimensionality: &dims,
	}
}

// Embed implements docindex.Embedder. Texts are sent in requests of at most
// one hundred entries.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if e.client == nil {
		return nil, docindex.Errorf(docindex.EUNAVAILABLE, "gemini client not configured")
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		batch := texts[start:min(start+maxBatch, len(texts))]
		contents := make([]*genai.Content, len(batch))
		for i, text := range batch {
			contents[i] = genai.NewContentFromText(text, "user")
		}

		resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, BuildEmbedConfig(e.dims))
		if err != nil {
			return nil, classify(err, "embed content")
		}
		if resp == nil || len(resp.Embeddings) != len(batch) {
			return nil, docindex.Errorf(docindex.EINTERNAL, "gemini returned wrong number of embeddings")
		}
		for _, emb := range resp.Embeddings {
			out = append(out, emb.Values)
		}
	}
	return out, nil
}
