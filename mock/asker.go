package mock

import (
	"context"

	"github.com/fwojciec/docindex"
)

var _ docindex.Asker = (*Asker)(nil)

// Asker is a mock implementation of docindex.Asker.
type Asker struct {
	AskFn func(ctx context.Context, question string, opts docindex.SearchOptions) (string, error)
}

func (a *Asker) Ask(ctx context.Context, question string, opts docindex.SearchOptions) (string, error) {
	return a.AskFn(ctx, question, opts)
}
