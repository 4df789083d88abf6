package docindex

import "context"

// Embedder turns text into vectors for similarity search.
type Embedder interface {
	// Embed returns one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
