package docindex

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// MaxPassageLength is the largest content, in characters, a stored passage may hold.
const MaxPassageLength = 10000

// Passage is the unit of storage and search: an independently retrievable
// piece of documentation text.
type Passage struct {
	ID       string          `json:"id"`
	Content  string          `json:"content"`
	Metadata PassageMetadata `json:"metadata"`
}

// PassageMetadata describes where a passage came from.
type PassageMetadata struct {
	Source       string    `json:"source"`
	Title        string    `json:"title"`
	URL          string    `json:"url,omitempty"`
	Language     string    `json:"language,omitempty"`
	Framework    string    `json:"framework,omitempty"`
	Version      string    `json:"version,omitempty"`
	SectionTitle string    `json:"sectionTitle,omitempty"`
	ChunkIndex   int       `json:"chunkIndex"`
	TotalChunks  int       `json:"totalChunks"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// Validate returns an error if the passage cannot be stored.
func (p *Passage) Validate() error {
	if p.ID == "" {
		return Errorf(EINVALID, "passage ID required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return Errorf(EINVALID, "passage %q content required", p.ID)
	}
	if p.Metadata.Source == "" {
		return Errorf(EINVALID, "passage %q source required", p.ID)
	}
	return nil
}

// PassageID derives the deterministic identifier of a passage from its
// source, page URL and chunk index.
func PassageID(source, pageURL string, chunkIndex int) string {
	return fmt.Sprintf("%s_%016x_%d", slug(source), xxhash.Sum64String(pageURL), chunkIndex)
}

// slug lowercases s and collapses runs of non-alphanumerics into a single hyphen.
func slug(s string) string {
	var sb strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevHyphen = false
		} else if !prevHyphen && sb.Len() > 0 {
			sb.WriteRune('-')
			prevHyphen = true
		}
	}
	result := strings.TrimSuffix(sb.String(), "-")
	if result == "" {
		return "source"
	}
	return result
}

// TruncateContent shortens content to at most max characters, marking the cut
// with an ellipsis. Content already within the limit is returned unchanged.
func TruncateContent(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	const marker = "..."
	if max <= len(marker) {
		return string(runes[:max])
	}
	return string(runes[:max-len(marker)]) + marker
}
