package main

import (
	"fmt"

	"github.com/fwojciec/docindex"
)

// Run executes the ask command.
func (c *AskCmd) Run(deps *Dependencies) error {
	opts := docindex.SearchOptions{
		Limit:  c.Limit,
		Filter: filterFlags(c.Source, "", ""),
	}

	answer, err := deps.Asker.Ask(deps.Ctx, c.Question, opts)
	if err != nil {
		if docindex.ErrorCode(err) == docindex.ENOTFOUND {
			fmt.Fprintln(deps.Stderr, "error: no indexed passages match the question. Use 'docindex add' to index documentation first.")
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", docindex.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, answer)
	return nil
}
