package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/docindex"
)

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	if c.Source != "" {
		stats := deps.Store.SourceStats(deps.Ctx, c.Source)
		if c.JSON {
			return writeJSON(deps.Stdout, stats)
		}
		if stats.Count == 0 {
			fmt.Fprintf(deps.Stdout, "No passages for source %q.\n", c.Source)
			return nil
		}
		fmt.Fprintf(deps.Stdout, "Source:       %s\n", stats.Source)
		fmt.Fprintf(deps.Stdout, "Passages:     %d\n", stats.Count)
		fmt.Fprintf(deps.Stdout, "Pages:        %d\n", stats.Pages)
		fmt.Fprintf(deps.Stdout, "Last updated: %s\n", stats.LastUpdated.Format(time.RFC3339))
		return nil
	}

	stats := deps.Pipeline.IndexStats(deps.Ctx)
	status := deps.Store.Status()
	if c.JSON {
		return writeJSON(deps.Stdout, struct {
			Status docindex.StoreStatus     `json:"status"`
			Stats  docindex.CollectionStats `json:"stats"`
		}{status, stats})
	}

	fmt.Fprintf(deps.Stdout, "Backend:    %s (%s, %s)\n", status.Backend, status.Mode, status.Access)
	fmt.Fprintf(deps.Stdout, "Collection: %s\n", status.Collection)
	fmt.Fprintf(deps.Stdout, "Passages:   %d\n", stats.Count)
	fmt.Fprintf(deps.Stdout, "Sources:    %s\n", list(stats.Sources))
	fmt.Fprintf(deps.Stdout, "Languages:  %s\n", list(stats.Languages))
	fmt.Fprintf(deps.Stdout, "Frameworks: %s\n", list(stats.Frameworks))
	return nil
}

func list(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
