package main

import (
	"fmt"

	"github.com/fwojciec/docindex"
)

// Run executes the clear command.
func (c *ClearCmd) Run(deps *Dependencies) error {
	switch {
	case c.Source != "":
		n, err := deps.Pipeline.ClearSource(deps.Ctx, c.Source)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", docindex.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Removed %d passages of %q\n", n, c.Source)
		return nil
	case c.All:
		if !c.Force {
			fmt.Fprintf(deps.Stderr, "error: use --force to confirm removing every passage\n")
			return docindex.Errorf(docindex.EINVALID, "use --force to confirm removing every passage")
		}
		if err := deps.Pipeline.ClearAll(deps.Ctx); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", docindex.ErrorMessage(err))
			return err
		}
		fmt.Fprintln(deps.Stdout, "Cleared the index")
		return nil
	default:
		fmt.Fprintf(deps.Stderr, "error: specify --source <name> or --all --force\n")
		return docindex.Errorf(docindex.EINVALID, "specify --source <name> or --all --force")
	}
}

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if err := deps.Store.DeleteDocument(deps.Ctx, c.ID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docindex.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Deleted passage %q\n", c.ID)
	return nil
}
