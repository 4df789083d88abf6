package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docindex"
)

// Ensure Detector implements docindex.FrameworkDetector at compile time.
var _ docindex.FrameworkDetector = (*Detector)(nil)

// marker is a structural hint unique to one documentation generator.
type marker struct {
	framework docindex.Framework
	selectors []string
}

// markers are checked in order; VitePress precedes VuePress since it reuses
// some VuePress class names.
var markers = []marker{
	{docindex.FrameworkDocusaurus, []string{"#__docusaurus_skipToContent_fallback", ".theme-doc-sidebar-container", "[data-rh][data-theme]"}},
	{docindex.FrameworkMkDocs, []string{"[data-md-color-scheme]", "[data-md-component]", ".md-nav--primary"}},
	{docindex.FrameworkSphinx, []string{".toctree-wrapper", ".wy-nav-side", ".wy-menu-vertical", ".sphinxsidebar"}},
	{docindex.FrameworkVitePress, []string{"#VPContent", ".VPDoc", ".VPDocAsideOutline"}},
	{docindex.FrameworkVuePress, []string{".theme-default-content", ".sidebar-links", ".vuepress-navbar"}},
	{docindex.FrameworkGitBook, []string{"[data-testid='space.sidebar']", "[data-testid='page.desktopTableOfContents']"}},
	{docindex.FrameworkNextra, []string{".nextra-navbar", ".nextra-sidebar", ".nextra-toc", ".nextra-content"}},
}

// generators maps substrings of <meta name="generator"> to frameworks.
var generators = []struct {
	substr    string
	framework docindex.Framework
}{
	{"sphinx", docindex.FrameworkSphinx},
	{"gitbook", docindex.FrameworkGitBook},
	{"docusaurus", docindex.FrameworkDocusaurus},
	{"mkdocs", docindex.FrameworkMkDocs},
	{"vitepress", docindex.FrameworkVitePress},
	{"vuepress", docindex.FrameworkVuePress},
	{"nextra", docindex.FrameworkNextra},
}

// Detector identifies documentation frameworks from HTML content.
// It checks the meta generator tag first, then framework-specific classes,
// data attributes and structural markers.
type Detector struct{}

// NewDetector creates a new Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect analyzes HTML and returns the identified framework.
// Returns FrameworkUnknown if the framework cannot be determined.
func (d *Detector) Detect(html string) docindex.Framework {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return docindex.FrameworkUnknown
	}
	return d.DetectDocument(doc)
}

// DetectDocument is Detect for an already parsed document.
func (d *Detector) DetectDocument(doc *goquery.Document) docindex.Framework {
	if generator, ok := doc.Find("meta[name='generator']").Last().Attr("content"); ok {
		generator = strings.ToLower(generator)
		for _, g := range generators {
			if strings.Contains(generator, g.substr) {
				return g.framework
			}
		}
	}

	for _, m := range markers {
		for _, sel := range m.selectors {
			if doc.Find(sel).Length() > 0 {
				return m.framework
			}
		}
	}

	if hasGitBookClasses(doc) {
		return docindex.FrameworkGitBook
	}

	return docindex.FrameworkUnknown
}

// hasGitBookClasses reports whether the html element carries at least two
// of GitBook's distinctive classes.
func hasGitBookClasses(doc *goquery.Document) bool {
	class, _ := doc.Find("html").First().Attr("class")
	if class == "" {
		return false
	}
	count := 0
	for _, c := range []string{"circular-corners", "theme-clean", "tint"} {
		if strings.Contains(class, c) {
			count++
		}
	}
	return count >= 2
}
