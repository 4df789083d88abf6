package docindex

// Converter converts HTML to normalized block text.
type Converter interface {
	// Convert transforms an HTML fragment into Markdown-style text with
	// '#' heading markers, fenced code blocks and inline code markers.
	Convert(html string) (string, error)
}
