package docindex

import "context"

// ExtractedPage is the content and links pulled out of one fetched page.
// It is derived once per successfully fetched URL and never mutated.
type ExtractedPage struct {
	URL   string
	Title string

	// ContentText is the normalized block text of the content region:
	// headings as '#' markers, fenced code blocks and inline code markers.
	// Empty when no content selector matched.
	ContentText string

	// DiscoveredLinks holds admitted absolute URLs in document order, deduplicated.
	DiscoveredLinks []string

	// Framework is the documentation framework detected from the markup.
	Framework Framework

	// ContentSelector names the strategy that located the content region.
	ContentSelector string
}

// Extractor turns raw HTML into an ExtractedPage.
type Extractor interface {
	// Extract locates title, content and navigation regions of html using the
	// selectors of target. A page without a content match is not an error;
	// its ContentText is empty.
	Extract(html string, pageURL string, target *CrawlTarget) (*ExtractedPage, error)
}

// PageWriter persists extracted pages outside the index, for inspection.
type PageWriter interface {
	WritePage(ctx context.Context, source string, page *ExtractedPage) error
}
