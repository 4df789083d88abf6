package docindex

import (
	"fmt"
	"strings"
)

// FormatResults formats search results for display or LLM context.
// Uses the section title if available, falls back to the page title, then the URL.
// Results are separated by blank lines.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		meta := r.Passage.Metadata
		header := meta.SectionTitle
		if header == "" {
			header = meta.Title
		}
		if header == "" {
			header = meta.URL
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "## %s (score %.3f)\n", header, r.Score)
		if meta.URL != "" {
			fmt.Fprintf(&sb, "Source: %s\n", meta.URL)
		}
		sb.WriteString(r.Passage.Content)
		parts = append(parts, sb.String())
	}

	return strings.Join(parts, "\n\n")
}
