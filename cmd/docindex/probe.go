package main

import (
	"fmt"

	"github.com/fwojciec/docindex"
)

// Run executes the probe command.
func (c *ProbeCmd) Run(deps *Dependencies) error {
	policy := docindex.DefaultCrawlPolicy()
	result, err := deps.Fetcher.Fetch(deps.Ctx, c.URL, policy)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docindex.ErrorMessage(err))
		return err
	}

	framework := deps.Detector.Detect(result.Body)

	target := &docindex.CrawlTarget{
		EntryURL:           c.URL,
		ContentSelectors:   c.Content,
		NavigationSelector: c.Nav,
		Metadata:           docindex.TargetMetadata{SourceName: "probe"},
		Policy:             policy,
	}
	page, err := deps.Extract.Extract(result.Body, result.URL, target)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docindex.ErrorMessage(err))
		return err
	}

	name := string(framework)
	if framework == docindex.FrameworkUnknown {
		name = "(unknown)"
	}
	selector := page.ContentSelector
	if selector == "" {
		selector = "(none matched)"
	}

	passages := docindex.Chunk(page.ContentText, docindex.PassageMetadata{Source: "probe", Title: page.Title, URL: page.URL}, docindex.DefaultChunkOptions())

	fmt.Fprintf(deps.Stdout, "URL:       %s (HTTP %d, %d attempt(s))\n", result.URL, result.StatusCode, result.Attempts)
	fmt.Fprintf(deps.Stdout, "Framework: %s\n", name)
	fmt.Fprintf(deps.Stdout, "Title:     %s\n", page.Title)
	fmt.Fprintf(deps.Stdout, "Content:   %s, %d chars, %d passages\n", selector, len([]rune(page.ContentText)), len(passages))
	fmt.Fprintf(deps.Stdout, "Links:     %d\n", len(page.DiscoveredLinks))
	for i, link := range page.DiscoveredLinks {
		if i == c.Links {
			fmt.Fprintf(deps.Stdout, "  ... %d more\n", len(page.DiscoveredLinks)-i)
			break
		}
		fmt.Fprintf(deps.Stdout, "  %s\n", link)
	}
	return nil
}
