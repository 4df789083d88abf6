// Package htmltomarkdown normalizes HTML content regions into Markdown-style
// block text using html-to-markdown.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/docindex"
)

// Ensure Converter implements docindex.Converter at compile time.
var _ docindex.Converter = (*Converter)(nil)

// Converter turns HTML into Markdown with ATX headings and fenced code blocks.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown. Runs of blank lines outside
// fenced code are collapsed and surrounding whitespace is trimmed.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", docindex.Errorf(docindex.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", docindex.WrapError(docindex.EINVALID, err, "convert HTML")
	}

	return tidy(result), nil
}

// tidy trims trailing spaces and collapses consecutive blank lines outside
// fenced code blocks. Fenced content is kept byte for byte.
func tidy(md string) string {
	lines := strings.Split(md, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	blank := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if inFence || strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			out = append(out, line)
			blank = 0
			continue
		}
		if trimmed == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
