package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/docindex"
	"github.com/fwojciec/docindex/crawl"
)

// snippetLength is how much passage content search prints without --full.
const snippetLength = 200

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	opts := docindex.SearchOptions{
		Limit:     c.Limit,
		Threshold: c.Threshold,
		Filter:    filterFlags(c.Source, c.Language, c.Framework),
	}

	results, err := deps.Pipeline.Search(deps.Ctx, c.Query, opts)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docindex.ErrorMessage(err))
		return err
	}

	if c.JSON {
		return writeJSON(deps.Stdout, results)
	}

	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No results.")
		return nil
	}

	for i, r := range results {
		meta := r.Passage.Metadata
		heading := meta.Title
		if meta.SectionTitle != "" && meta.SectionTitle != meta.Title {
			heading += " > " + meta.SectionTitle
		}
		fmt.Fprintf(deps.Stdout, "%d. [%.3f] %s (%s)\n", i+1, r.Score, heading, meta.Source)
		if meta.URL != "" {
			fmt.Fprintf(deps.Stdout, "   %s\n", crawl.TruncateURL(meta.URL, 80))
		}
		content := r.Passage.Content
		if !c.Full {
			content = snippet(content, snippetLength)
		}
		fmt.Fprintf(deps.Stdout, "   %s\n\n", strings.ReplaceAll(content, "\n", "\n   "))
	}
	return nil
}

// filterFlags builds a filter from optional flag values.
func filterFlags(source, language, framework string) docindex.PassageFilter {
	var f docindex.PassageFilter
	if source != "" {
		f.Source = &source
	}
	if language != "" {
		f.Language = &language
	}
	if framework != "" {
		f.Framework = &framework
	}
	return f
}

// snippet collapses whitespace in s and truncates it to n characters.
func snippet(s string, n int) string {
	return docindex.TruncateContent(strings.Join(strings.Fields(s), " "), n)
}
