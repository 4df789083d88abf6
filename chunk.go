package docindex

import (
	"fmt"
	"strings"
	"unicode"
)

// Chunking defaults, in characters.
const (
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultChunkTolerance = 100
)

// ChunkOptions bounds passage sizes.
type ChunkOptions struct {
	// MaxSize is the window size for sections longer than MaxSize.
	MaxSize int

	// Overlap is the number of characters consecutive windows share.
	Overlap int

	// Tolerance is how far a window boundary may move to land on a sentence
	// terminator or line break. A window may therefore exceed MaxSize by at
	// most Tolerance characters; the same slack absorbs a short final tail.
	Tolerance int
}

// DefaultChunkOptions returns the chunking parameters used for crawled pages.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		MaxSize:   DefaultChunkSize,
		Overlap:   DefaultChunkOverlap,
		Tolerance: DefaultChunkTolerance,
	}
}

func (o ChunkOptions) normalized() ChunkOptions {
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultChunkSize
	}
	if o.Overlap < 0 || o.Overlap >= o.MaxSize {
		o.Overlap = 0
	}
	if o.Tolerance < 0 {
		o.Tolerance = 0
	}
	return o
}

// Chunk splits normalized page text into overlapping passages aligned to
// section headings. The page-level fields of meta (source, title, url,
// language, framework, version, last updated) are copied onto every passage;
// section title, chunk index, total chunks and id are derived here.
func Chunk(content string, meta PassageMetadata, opts ChunkOptions) []*Passage {
	opts = opts.normalized()

	type piece struct {
		title   string
		content string
	}
	var pieces []piece

	for _, section := range SplitSections(content, meta.Title) {
		if strings.TrimSpace(section.Content) == "" {
			continue
		}

		title := section.Title
		if title == "" {
			title = meta.Title
		}

		runes := []rune(section.Content)
		if len(runes) <= opts.MaxSize {
			pieces = append(pieces, piece{title: title, content: section.Content})
			continue
		}

		for i, window := range splitWindows(runes, opts) {
			pieces = append(pieces, piece{
				title:   fmt.Sprintf("%s (part %d)", title, i+1),
				content: window,
			})
		}
	}

	if len(pieces) == 0 {
		return nil
	}

	passages := make([]*Passage, 0, len(pieces))
	for i, p := range pieces {
		m := meta
		m.SectionTitle = p.title
		m.ChunkIndex = i
		m.TotalChunks = len(pieces)
		passages = append(passages, &Passage{
			ID:       PassageID(meta.Source, meta.URL, i),
			Content:  p.content,
			Metadata: m,
		})
	}
	return passages
}

// splitWindows slides a MaxSize window over runes with Overlap characters
// shared between consecutive windows. Window ends snap to the nearest
// sentence terminator or line break within Tolerance.
func splitWindows(runes []rune, opts ChunkOptions) []string {
	n := len(runes)
	var windows []string

	start := 0
	for {
		remaining := n - start
		if remaining <= opts.MaxSize || (start > 0 && remaining <= opts.MaxSize+opts.Tolerance) {
			windows = append(windows, string(runes[start:]))
			return windows
		}

		end := snapBoundary(runes, start+opts.MaxSize, start+opts.Overlap, opts.Tolerance)
		windows = append(windows, string(runes[start:end]))

		next := end - opts.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
}

// snapBoundary returns the cut position closest to ideal at which the
// preceding rune ends a sentence or line. Candidates must lie strictly after
// floor and before the end of runes. Ties prefer the earlier position.
// Returns ideal if no candidate exists within tolerance.
func snapBoundary(runes []rune, ideal, floor, tolerance int) int {
	for d := 0; d <= tolerance; d++ {
		for _, pos := range []int{ideal - d, ideal + d} {
			if pos <= floor || pos >= len(runes) {
				continue
			}
			if isBoundary(runes, pos) {
				return pos
			}
		}
	}
	return ideal
}

// isBoundary reports whether a cut at pos follows a line break or a sentence
// terminator that is itself followed by whitespace.
func isBoundary(runes []rune, pos int) bool {
	prev := runes[pos-1]
	if prev == '\n' {
		return true
	}
	switch prev {
	case '.', '!', '?':
		return unicode.IsSpace(runes[pos])
	}
	return false
}
