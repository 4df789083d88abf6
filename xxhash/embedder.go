// Package xxhash provides an offline docindex.Embedder based on feature
// hashing. Vectors are deterministic and need no network access, which makes
// the embedder suitable for local indexes and tests.
package xxhash

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/docindex"
)

// Ensure Embedder implements docindex.Embedder at compile time.
var _ docindex.Embedder = (*Embedder)(nil)

// DefaultDimensions is the vector size used when none is configured.
const DefaultDimensions = 512

// Embedder hashes word unigrams and bigrams into a fixed number of buckets.
type Embedder struct {
	dims int
}

// NewEmbedder creates an Embedder producing vectors of dims dimensions.
// Non-positive dims selects DefaultDimensions.
func NewEmbedder(dims int) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{dims: dims}
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int {
	return e.dims
}

// Embed implements docindex.Embedder. Vectors are L2-normalized; text without
// any word yields the zero vector.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *Embedder) embed(text string) []float32 {
	v := make([]float32, e.dims)
	words := tokenize(text)
	for i, w := range words {
		e.add(v, w, 1)
		if i > 0 {
			e.add(v, words[i-1]+" "+w, 0.5)
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

// add hashes feature into a bucket. The top bit of the hash picks the sign so
// collisions tend to cancel rather than accumulate.
func (e *Embedder) add(v []float32, feature string, weight float32) {
	h := xxhash.Sum64String(feature)
	bucket := int(h % uint64(e.dims))
	if h>>63 == 1 {
		weight = -weight
	}
	v[bucket] += weight
}

// tokenize lowercases text and splits it into letter/digit runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
