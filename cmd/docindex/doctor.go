package main

import (
	"fmt"

	"github.com/fwojciec/docindex"
)

// Run executes the doctor command.
func (c *DoctorCmd) Run(deps *Dependencies) error {
	fmt.Fprintf(deps.Stdout, "Backend:    %s\n", deps.Config.Backend)
	fmt.Fprintf(deps.Stdout, "Collection: %s\n", deps.Config.Collection)
	fmt.Fprintf(deps.Stdout, "Embedder:   %s\n", deps.Config.Embedder)

	if err := deps.Store.TestConnection(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: backend unreachable: %s\n", docindex.ErrorMessage(err))
		return err
	}
	if err := deps.Store.ForceReinitialize(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: collection unavailable: %s\n", docindex.ErrorMessage(err))
		return err
	}

	status := deps.Store.Status()
	fmt.Fprintf(deps.Stdout, "Status:     %s, %s\n", status.Mode, status.Access)
	if status.Access == docindex.AccessReadOnly {
		fmt.Fprintln(deps.Stdout, "Warning:    credentials allow reads only; crawls will not be stored")
	}
	return nil
}
