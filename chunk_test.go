package docindex_test

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/docindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageMeta() docindex.PassageMetadata {
	return docindex.PassageMetadata{
		Source:      "example",
		Title:       "Guide",
		URL:         "https://docs.example.com/guide",
		Language:    "go",
		LastUpdated: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// words returns n characters of space-separated filler with no sentence terminators.
func words(n int) string {
	var sb strings.Builder
	for sb.Len() < n {
		sb.WriteString("lorem ipsum dolor sit amet ")
	}
	return sb.String()[:n]
}

// mergeOverlapping joins consecutive windows by removing the longest shared
// prefix/suffix of at most maxOverlap characters.
func mergeOverlapping(parts []string, maxOverlap int) string {
	if len(parts) == 0 {
		return ""
	}
	merged := []rune(parts[0])
	for _, p := range parts[1:] {
		next := []rune(p)
		shared := 0
		for k := min(maxOverlap, len(merged), len(next)); k > 0; k-- {
			if string(merged[len(merged)-k:]) == string(next[:k]) {
				shared = k
				break
			}
		}
		merged = append(merged, next[shared:]...)
	}
	return string(merged)
}

func TestChunk(t *testing.T) {
	t.Parallel()

	t.Run("returns nil for blank content", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, docindex.Chunk("", pageMeta(), docindex.DefaultChunkOptions()))
		assert.Nil(t, docindex.Chunk("  \n\n ", pageMeta(), docindex.DefaultChunkOptions()))
	})

	t.Run("emits a small section verbatim", func(t *testing.T) {
		t.Parallel()

		passages := docindex.Chunk("Short page body.", pageMeta(), docindex.DefaultChunkOptions())

		require.Len(t, passages, 1)
		p := passages[0]
		assert.Equal(t, "Short page body.", p.Content)
		assert.Equal(t, "Guide", p.Metadata.SectionTitle)
		assert.Equal(t, 0, p.Metadata.ChunkIndex)
		assert.Equal(t, 1, p.Metadata.TotalChunks)
		assert.Equal(t, "example", p.Metadata.Source)
		assert.Equal(t, "go", p.Metadata.Language)
		assert.Equal(t, docindex.PassageID("example", "https://docs.example.com/guide", 0), p.ID)
	})

	t.Run("1800 character section yields exactly two overlapping passages", func(t *testing.T) {
		t.Parallel()

		content := words(1800)

		passages := docindex.Chunk(content, pageMeta(), docindex.DefaultChunkOptions())

		require.Len(t, passages, 2)
		first, second := passages[0].Content, passages[1].Content
		assert.Equal(t, 1000, utf8.RuneCountInString(first))
		assert.Equal(t, first[len(first)-200:], second[:200])
		assert.Equal(t, content, first+second[200:])
		assert.Equal(t, "Guide (part 1)", passages[0].Metadata.SectionTitle)
		assert.Equal(t, "Guide (part 2)", passages[1].Metadata.SectionTitle)
	})

	t.Run("snaps window end to nearby sentence terminator", func(t *testing.T) {
		t.Parallel()

		content := words(950) + ". " + words(1500)

		passages := docindex.Chunk(content, pageMeta(), docindex.DefaultChunkOptions())

		require.GreaterOrEqual(t, len(passages), 2)
		assert.True(t, strings.HasSuffix(passages[0].Content, "."))
		assert.Equal(t, 951, utf8.RuneCountInString(passages[0].Content))
	})

	t.Run("cuts at exact budget when no terminator within tolerance", func(t *testing.T) {
		t.Parallel()

		content := strings.Repeat("x", 2500)

		passages := docindex.Chunk(content, pageMeta(), docindex.DefaultChunkOptions())

		require.Len(t, passages, 3)
		assert.Len(t, passages[0].Content, 1000)
		assert.Len(t, passages[1].Content, 1000)
	})

	t.Run("never exceeds size plus tolerance", func(t *testing.T) {
		t.Parallel()

		content := strings.Repeat("Sentence one is here. Another line\n", 200)
		opts := docindex.DefaultChunkOptions()

		passages := docindex.Chunk(content, pageMeta(), opts)

		for _, p := range passages {
			assert.LessOrEqual(t, utf8.RuneCountInString(p.Content), opts.MaxSize+opts.Tolerance)
		}
	})

	t.Run("aligns passages to sections with global indices", func(t *testing.T) {
		t.Parallel()

		content := "Intro.\n# Install\n" + words(1500) + "\n## Configure\nSet the flag.\n"

		passages := docindex.Chunk(content, pageMeta(), docindex.DefaultChunkOptions())

		require.Len(t, passages, 4)
		titles := make([]string, 0, len(passages))
		for i, p := range passages {
			titles = append(titles, p.Metadata.SectionTitle)
			assert.Equal(t, i, p.Metadata.ChunkIndex)
			assert.Equal(t, 4, p.Metadata.TotalChunks)
			assert.Equal(t, docindex.PassageID("example", "https://docs.example.com/guide", i), p.ID)
		}
		assert.Equal(t, []string{"Guide", "Install (part 1)", "Install (part 2)", "Configure"}, titles)
	})

	t.Run("concatenating passages without overlap reconstructs content", func(t *testing.T) {
		t.Parallel()

		var sb strings.Builder
		for i := range 6 {
			fmt.Fprintf(&sb, "## Section %d\n", i)
			for j := range 40 + i*15 {
				fmt.Fprintf(&sb, "Statement %d-%d explains behavior in detail. ", i, j)
				if j%7 == 0 {
					sb.WriteString("\n")
				}
			}
			sb.WriteString("\n")
		}
		content := sb.String()
		opts := docindex.DefaultChunkOptions()

		passages := docindex.Chunk(content, pageMeta(), opts)

		var rebuilt strings.Builder
		var window []string
		flush := func() {
			rebuilt.WriteString(mergeOverlapping(window, opts.Overlap))
			window = nil
		}
		for _, p := range passages {
			if !strings.Contains(p.Metadata.SectionTitle, "(part ") || strings.HasSuffix(p.Metadata.SectionTitle, "(part 1)") {
				flush()
			}
			window = append(window, p.Content)
		}
		flush()
		assert.Equal(t, content, rebuilt.String())
	})

	t.Run("falls back to zero overlap when overlap exceeds size", func(t *testing.T) {
		t.Parallel()

		content := strings.Repeat("y", 300)

		passages := docindex.Chunk(content, pageMeta(), docindex.ChunkOptions{MaxSize: 100, Overlap: 150})

		require.Len(t, passages, 3)
		assert.Equal(t, content, passages[0].Content+passages[1].Content+passages[2].Content)
	})
}
