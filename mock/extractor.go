package mock

import (
	"context"

	"github.com/fwojciec/docindex"
)

var _ docindex.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of docindex.Extractor.
type Extractor struct {
	ExtractFn func(html, pageURL string, target *docindex.CrawlTarget) (*docindex.ExtractedPage, error)
}

func (e *Extractor) Extract(html, pageURL string, target *docindex.CrawlTarget) (*docindex.ExtractedPage, error) {
	return e.ExtractFn(html, pageURL, target)
}

var _ docindex.FrameworkDetector = (*FrameworkDetector)(nil)

// FrameworkDetector is a mock implementation of docindex.FrameworkDetector.
type FrameworkDetector struct {
	DetectFn func(html string) docindex.Framework
}

func (d *FrameworkDetector) Detect(html string) docindex.Framework {
	return d.DetectFn(html)
}

var _ docindex.PageWriter = (*PageWriter)(nil)

// PageWriter is a mock implementation of docindex.PageWriter.
type PageWriter struct {
	WritePageFn func(ctx context.Context, source string, page *docindex.ExtractedPage) error
}

func (w *PageWriter) WritePage(ctx context.Context, source string, page *docindex.ExtractedPage) error {
	return w.WritePageFn(ctx, source, page)
}
