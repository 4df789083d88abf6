package docindex

import (
	"regexp"
	"strings"
)

// Section is a contiguous region of normalized text that starts at a heading
// (or at the top of the page for text preceding the first heading).
type Section struct {
	Level   int    `json:"level"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// SplitSections splits normalized text at heading lines (1-6 '#' markers).
// Lines inside fenced code blocks are never treated as headings.
// Sections are returned in order and their contents concatenate back to text.
// Text before the first heading forms a section titled defaultTitle.
func SplitSections(text, defaultTitle string) []Section {
	if text == "" {
		return nil
	}

	var sections []Section
	current := Section{Title: defaultTitle}
	start := 0
	offset := 0
	inFence := false
	fenceMarker := ""

	for offset < len(text) {
		end := strings.IndexByte(text[offset:], '\n')
		var line string
		next := len(text)
		if end == -1 {
			line = text[offset:]
		} else {
			line = text[offset : offset+end]
			next = offset + end + 1
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case inFence:
			if strings.HasPrefix(trimmed, fenceMarker) {
				inFence = false
			}
		case strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~"):
			inFence = true
			fenceMarker = trimmed[:3]
		default:
			if m := headingRe.FindStringSubmatch(line); m != nil {
				if offset > start {
					current.Content = text[start:offset]
					sections = append(sections, current)
				}
				current = Section{Level: len(m[1]), Title: strings.TrimSpace(m[2])}
				start = offset
			}
		}

		offset = next
	}

	current.Content = text[start:]
	sections = append(sections, current)
	return sections
}
