package docindex

import "context"

// Asker provides natural language question answering over indexed documentation.
type Asker interface {
	// Ask answers a question using the passages that search returns for it.
	// Returns ENOTFOUND if no passage matches.
	Ask(ctx context.Context, question string, opts SearchOptions) (string, error)
}
