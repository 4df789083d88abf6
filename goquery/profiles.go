package goquery

import "github.com/fwojciec/docindex"

// Profile holds the selectors a documentation framework uses for its content
// and navigation regions. Selectors are tried in order.
type Profile struct {
	Framework           docindex.Framework
	ContentSelectors    []string
	NavigationSelectors []string
}

// DefaultProfiles returns the built-in framework profiles.
// Validated against Docusaurus v2/v3, MkDocs Material, Sphinx (ReadTheDocs and
// classic themes), VitePress, VuePress v1/v2, GitBook and Nextra.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Framework:           docindex.FrameworkDocusaurus,
			ContentSelectors:    []string{".theme-doc-markdown", "article .markdown", "article"},
			NavigationSelectors: []string{".theme-doc-sidebar-container", "nav.navbar", ".table-of-contents"},
		},
		{
			Framework:           docindex.FrameworkMkDocs,
			ContentSelectors:    []string{"article.md-content__inner", ".md-content", "[role='main']"},
			NavigationSelectors: []string{".md-nav--primary", ".md-sidebar--primary", ".md-sidebar--secondary"},
		},
		{
			Framework:           docindex.FrameworkSphinx,
			ContentSelectors:    []string{"[itemprop='articleBody']", ".rst-content .document", "div.body", ".document"},
			NavigationSelectors: []string{".wy-menu-vertical", ".wy-nav-side", ".sphinxsidebar", ".toctree-wrapper"},
		},
		{
			Framework:           docindex.FrameworkVitePress,
			ContentSelectors:    []string{".vp-doc", ".VPDoc main", ".VPDoc"},
			NavigationSelectors: []string{".VPSidebar", ".VPNav", ".VPDocAsideOutline"},
		},
		{
			Framework:           docindex.FrameworkVuePress,
			ContentSelectors:    []string{".theme-default-content", ".page .content__default"},
			NavigationSelectors: []string{".sidebar-links", ".sidebar", ".vuepress-navbar"},
		},
		{
			Framework:           docindex.FrameworkGitBook,
			ContentSelectors:    []string{"[data-testid='page.contentEditor']", ".page-inner section", "main"},
			NavigationSelectors: []string{"[data-testid='space.sidebar']", "[data-testid='page.desktopTableOfContents']", ".book-summary"},
		},
		{
			Framework:           docindex.FrameworkNextra,
			ContentSelectors:    []string{".nextra-content article", "article", "main"},
			NavigationSelectors: []string{".nextra-sidebar", ".nextra-sidebar-container", ".nextra-toc", ".nextra-navbar"},
		},
	}
}

// Generic fallback lists, tried after target and framework selectors.
var (
	genericTitleSelectors = []string{
		"h1",
		"title",
		".page-title",
		".doc-title",
		".article-title",
		".title",
	}

	genericContentSelectors = []string{
		"main",
		"article",
		"[role='main']",
		".markdown",
		".markdown-body",
		".theme-doc-markdown",
		".md-content",
		".rst-content",
		".document",
		".body",
		".content",
		".doc-content",
		".docs-content",
		".documentation",
		"#content",
		"#main-content",
		".main-content",
		".post-content",
		".prose",
		".vp-doc",
		".theme-default-content",
		".nextra-content",
		".page-inner",
	}

	genericNavigationSelectors = []string{
		"nav",
		"[role='navigation']",
		"aside",
		".sidebar",
		".toc",
		".table-of-contents",
		".menu",
		".navbar",
	}
)
