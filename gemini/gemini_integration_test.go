//go:build integration

package gemini_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fwojciec/docindex"
	"github.com/fwojciec/docindex/gemini"
	"github.com/fwojciec/docindex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGemini_Integration(t *testing.T) {
	t.Parallel()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := gemini.NewClient(ctx, apiKey)
	require.NoError(t, err)

	t.Run("embeds texts", func(t *testing.T) {
		vectors, err := gemini.NewEmbedder(client, 256).Embed(ctx, []string{"install htmx", "configure htmx"})

		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Len(t, vectors[0], 256)
	})

	t.Run("answers from passages", func(t *testing.T) {
		store := &mock.Store{
			SearchFn: func(context.Context, string, docindex.SearchOptions) ([]docindex.SearchResult, error) {
				return []docindex.SearchResult{result("Getting Started", "https://htmx.org/docs/",
					"HTMX is a library that allows you to access modern browser features directly from HTML.")}, nil
			},
		}

		answer, err := gemini.NewAsker(client, store).Ask(ctx, "What is HTMX?", docindex.SearchOptions{})

		require.NoError(t, err)
		assert.Contains(t, answer, "HTMX")
	})
}
