// Package goquery implements HTML content extraction, framework detection and
// link harvesting for documentation pages using goquery.
package goquery

import (
	"iter"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docindex"
)

// Ensure Extractor implements docindex.Extractor at compile time.
var _ docindex.Extractor = (*Extractor)(nil)

// DefaultTitle is used when no title selector matches.
const DefaultTitle = "Untitled"

// Strategy locates a region of a page by trying selectors in order.
type Strategy struct {
	Name      string
	Selectors []string
}

// Candidates yields, in selector order, the first match of each selector
// whose text is non-blank, keyed by the selector.
func (s Strategy) Candidates(doc *goquery.Document) iter.Seq2[string, *goquery.Selection] {
	return func(yield func(string, *goquery.Selection) bool) {
		for _, selector := range s.Selectors {
			if strings.TrimSpace(selector) == "" {
				continue
			}
			match := doc.Find(selector).First()
			if match.Length() == 0 || strings.TrimSpace(match.Text()) == "" {
				continue
			}
			if !yield(selector, match) {
				return
			}
		}
	}
}

// Locate returns the first candidate region and the selector that matched it.
func (s Strategy) Locate(doc *goquery.Document) (*goquery.Selection, string, bool) {
	for selector, match := range s.Candidates(doc) {
		return match, selector, true
	}
	return nil, "", false
}

// Extractor pulls title, content and links out of documentation HTML.
type Extractor struct {
	converter docindex.Converter
	registry  *Registry
	policy    LinkPolicy
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRegistry sets the framework profile registry.
func WithRegistry(r *Registry) Option {
	return func(e *Extractor) {
		e.registry = r
	}
}

// WithLinkPolicy sets the link admission policy. Defaults to DefaultLinkPolicy().
func WithLinkPolicy(p LinkPolicy) Option {
	return func(e *Extractor) {
		e.policy = p
	}
}

// NewExtractor creates an Extractor that normalizes content with converter.
func NewExtractor(converter docindex.Converter, opts ...Option) *Extractor {
	e := &Extractor{
		converter: converter,
		policy:    DefaultLinkPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry(NewDetector())
	}
	return e
}

// Extract implements docindex.Extractor. Target exclusions are removed before
// anything else is resolved. A page where no content strategy matches yields
// an empty ContentText and no error.
func (e *Extractor) Extract(html string, pageURL string, target *docindex.CrawlTarget) (*docindex.ExtractedPage, error) {
	if target == nil {
		return nil, docindex.Errorf(docindex.EINVALID, "crawl target required")
	}
	page, err := url.Parse(pageURL)
	if err != nil || page.Host == "" {
		return nil, docindex.Errorf(docindex.EINVALID, "invalid page URL %q", pageURL)
	}
	entry, err := url.Parse(target.EntryURL)
	if err != nil || entry.Host == "" {
		entry = page
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, docindex.WrapError(docindex.EINVALID, err, "parse HTML of %s", pageURL)
	}

	profile := e.registry.ForDocument(doc)

	doc.Find(noiseSelectors).Remove()
	for _, selector := range target.ExcludeSelectors {
		if strings.TrimSpace(selector) != "" {
			doc.Find(selector).Remove()
		}
	}

	result := &docindex.ExtractedPage{
		URL:       pageURL,
		Title:     e.title(doc, target),
		Framework: profile.Framework,
	}

	if target.Policy.FollowLinks {
		result.DiscoveredLinks = e.links(doc, page, entry, target, profile)
	}

	for _, strategy := range e.contentStrategies(target, profile) {
		for selector, region := range strategy.Candidates(doc) {
			text, err := e.content(region)
			if err != nil {
				return nil, docindex.WrapError(docindex.ErrorCode(err), err, "convert content region of %s", pageURL)
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			result.ContentText = text
			result.ContentSelector = strategy.Name + ":" + selector
			return result, nil
		}
	}

	return result, nil
}

// content normalizes region and converts it to markdown.
func (e *Extractor) content(region *goquery.Selection) (string, error) {
	normalize(region)
	regionHTML, err := goquery.OuterHtml(region)
	if err != nil {
		return "", docindex.WrapError(docindex.EINTERNAL, err, "render region")
	}
	return e.converter.Convert(regionHTML)
}

// contentStrategies returns the ordered content fallback chain.
func (e *Extractor) contentStrategies(target *docindex.CrawlTarget, profile Profile) []Strategy {
	return []Strategy{
		{Name: "target", Selectors: target.ContentSelectors},
		{Name: string(profile.Framework), Selectors: profile.ContentSelectors},
		{Name: "generic", Selectors: genericContentSelectors},
	}
}

// title resolves the page title from target selectors, then generic ones.
func (e *Extractor) title(doc *goquery.Document, target *docindex.CrawlTarget) string {
	for _, strategy := range []Strategy{
		{Name: "target", Selectors: target.TitleSelectors},
		{Name: "generic", Selectors: genericTitleSelectors},
	} {
		if match, _, ok := strategy.Locate(doc); ok {
			return strings.Join(strings.Fields(match.Text()), " ")
		}
	}
	return DefaultTitle
}

// links harvests admitted links from the first navigation region that holds
// any anchors, falling back to every anchor on the page.
func (e *Extractor) links(doc *goquery.Document, page, entry *url.URL, target *docindex.CrawlTarget, profile Profile) []string {
	var regions []string
	if target.NavigationSelector != "" {
		regions = append(regions, target.NavigationSelector)
	}
	regions = append(regions, profile.NavigationSelectors...)
	regions = append(regions, genericNavigationSelectors...)

	var anchors *goquery.Selection
	for _, selector := range regions {
		region := doc.Find(selector)
		found := region.Filter("a[href]").AddSelection(region.Find("a[href]"))
		if found.Length() > 0 {
			anchors = found
			break
		}
	}
	if anchors == nil {
		anchors = doc.Find("a[href]")
	}

	seen := make(map[string]struct{})
	var links []string
	anchors.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link, ok := e.policy.Admit(page, entry, href)
		if !ok {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links
}
