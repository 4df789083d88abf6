package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fwojciec/docindex"
	"github.com/fwojciec/docindex/crawl"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	targets, err := LoadTargets(c.Targets)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docindex.ErrorMessage(err))
		return err
	}

	deps.Pipeline.Concurrency = c.Concurrency
	deps.Pipeline.Pages = newPageWriter(c.Dump)

	batch, err := deps.Pipeline.RunCrawlBatch(deps.Ctx, targets, progressPrinter(deps.Stdout, deps.Stderr, !c.JSON))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error crawling: %s\n", docindex.ErrorMessage(err))
		return err
	}

	if c.JSON {
		return writeJSON(deps.Stdout, batch)
	}
	for _, r := range batch.Results {
		fmt.Fprintln(deps.Stdout, crawl.FormatResult(r))
	}
	fmt.Fprintf(deps.Stdout, "Total: %d pages, %d passages written, %d errors\n",
		batch.Pages, batch.PassagesWritten, len(batch.Errors))
	return nil
}

// Run executes the add command.
func (c *AddCmd) Run(deps *Dependencies) error {
	target := &docindex.CrawlTarget{
		EntryURL:           c.URL,
		ContentSelectors:   c.ContentSelectors,
		TitleSelectors:     c.TitleSelectors,
		NavigationSelector: c.NavSelector,
		ExcludeSelectors:   c.Exclude,
		Metadata: docindex.TargetMetadata{
			SourceName: c.Name,
			Language:   c.Language,
			Framework:  c.Framework,
			Version:    c.Version,
		},
		Policy: docindex.CrawlPolicy{
			FollowLinks:       !c.NoFollow,
			MaxDepth:          c.Depth,
			InterRequestDelay: c.Delay,
			Timeout:           c.Timeout,
			MaxRetries:        c.Retries,
			UserAgent:         docindex.DefaultUserAgent,
			MaxPages:          c.MaxPages,
		},
	}
	if err := target.Validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docindex.ErrorMessage(err))
		return err
	}

	// Force mode: remove existing passages of the source first
	if c.Force {
		n, err := deps.Pipeline.ClearSource(deps.Ctx, c.Name)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", docindex.ErrorMessage(err))
			return err
		}
		if n > 0 && !c.JSON {
			fmt.Fprintf(deps.Stdout, "Removed %d existing passages of %q\n", n, c.Name)
		}
	}

	deps.Pipeline.Pages = newPageWriter(c.Dump)

	result, err := deps.Pipeline.RunCrawl(deps.Ctx, target, progressPrinter(deps.Stdout, deps.Stderr, !c.JSON))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error crawling: %s\n", docindex.ErrorMessage(err))
		return err
	}

	if c.JSON {
		return writeJSON(deps.Stdout, result)
	}
	fmt.Fprintln(deps.Stdout, crawl.FormatResult(result))
	return nil
}

// progressPrinter reports crawl progress on stdout and per-URL failures on stderr.
func progressPrinter(stdout, stderr io.Writer, enabled bool) crawl.ProgressFunc {
	if !enabled {
		return nil
	}
	return func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(stdout, "Crawling %s\n", event.URL)
		case crawl.ProgressFailed:
			fmt.Fprintf(stderr, "  skip %s: %v\n", crawl.TruncateURL(event.URL, 60), event.Error)
		case crawl.ProgressPage, crawl.ProgressFinished:
			// Summary printed after crawl completes
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
