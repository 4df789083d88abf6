package goquery

import (
	"net/url"
	"path"
	"regexp"
	"slices"
	"strings"
)

// LinkPolicy decides which harvested anchors are followed. A link is admitted
// when it passes every deny rule and at least one allow rule. The table is
// deliberately permissive: a false positive costs one extra fetch, while a
// false negative silently shrinks coverage.
type LinkPolicy struct {
	// DenyExtensions lists binary and asset file extensions (with leading dot).
	DenyExtensions []string

	// DenySegments lists path segments that mark auth, edit or history pages.
	DenySegments []string

	// DenyQueryKeys lists query parameters that mark edit or history views.
	DenyQueryKeys []string

	// AllowSegments lists path segments that look like documentation.
	AllowSegments []string

	// AllowVersionSegments admits paths with a version segment such as v2 or 1.4.
	AllowVersionSegments bool

	// AllowRelative admits hrefs written as relative paths.
	AllowRelative bool

	// AllowExtensions lists document extensions (with leading dot).
	AllowExtensions []string

	// AllowEntryPrefix admits paths under the entry URL's directory.
	AllowEntryPrefix bool
}

// DefaultLinkPolicy returns the link admission table used for crawling.
func DefaultLinkPolicy() LinkPolicy {
	return LinkPolicy{
		DenyExtensions: []string{
			".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico", ".bmp", ".avif",
			".pdf", ".zip", ".tar", ".gz", ".tgz", ".bz2", ".xz", ".7z", ".rar",
			".exe", ".dmg", ".pkg", ".deb", ".rpm", ".msi", ".apk", ".jar", ".whl",
			".mp3", ".mp4", ".webm", ".wav", ".ogg", ".mov", ".avi",
			".css", ".js", ".mjs", ".map", ".json", ".xml", ".rss", ".atom",
			".woff", ".woff2", ".ttf", ".eot", ".otf",
		},
		DenySegments: []string{
			"login", "logout", "signin", "sign-in", "signout", "sign-out", "signup", "sign-up",
			"register", "auth", "oauth", "sso", "account", "admin",
			"edit", "history", "revisions", "blame", "commits", "compare", "raw",
		},
		DenyQueryKeys: []string{"action", "oldid", "diff", "returnto"},
		AllowSegments: []string{
			"docs", "doc", "documentation", "guide", "guides", "tutorial", "tutorials",
			"reference", "references", "api", "apis", "manual", "handbook", "learn",
			"getting-started", "quickstart", "quick-start", "start", "howto", "how-to",
			"examples", "example", "concepts", "overview", "introduction", "intro",
			"faq", "cookbook", "recipes", "usage", "install", "installation",
			"configuration", "config", "cli", "sdk", "library", "modules", "packages",
			"latest", "stable", "current", "next", "dev",
		},
		AllowVersionSegments: true,
		AllowRelative:        true,
		AllowExtensions:      []string{".md", ".mdx", ".html", ".htm", ".rst", ".txt"},
		AllowEntryPrefix:     true,
	}
}

var versionSegmentRe = regexp.MustCompile(`^v?\d+(\.\d+)*(\.x)?$`)

// Admit resolves href against page and returns the absolute URL, without
// fragment, when the policy admits it. entry is the crawl's entry URL and
// determines the allowed host and path prefix.
func (p LinkPolicy) Admit(page, entry *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := page.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(resolved.Host, entry.Host) {
		return "", false
	}
	if samePage(resolved, page) {
		return "", false
	}

	lowerPath := strings.ToLower(resolved.Path)
	ext := path.Ext(lowerPath)
	if ext != "" && slices.Contains(p.DenyExtensions, ext) {
		return "", false
	}
	segments := splitSegments(lowerPath)
	for _, seg := range segments {
		if slices.Contains(p.DenySegments, seg) {
			return "", false
		}
	}
	query := resolved.Query()
	for _, key := range p.DenyQueryKeys {
		if query.Has(key) {
			return "", false
		}
	}

	if p.allowed(ref, segments, ext, resolved, entry) {
		return resolved.String(), true
	}
	return "", false
}

func (p LinkPolicy) allowed(ref *url.URL, segments []string, ext string, resolved, entry *url.URL) bool {
	if p.AllowRelative && ref.Scheme == "" && ref.Host == "" && !strings.HasPrefix(ref.Path, "/") {
		return true
	}
	if ext != "" && slices.Contains(p.AllowExtensions, ext) {
		return true
	}
	for _, seg := range segments {
		if slices.Contains(p.AllowSegments, seg) {
			return true
		}
		if p.AllowVersionSegments && versionSegmentRe.MatchString(seg) {
			return true
		}
	}
	if p.AllowEntryPrefix {
		prefix := entryPrefix(entry)
		if prefix != "/" && strings.HasPrefix(resolved.Path, prefix) {
			return true
		}
	}
	return false
}

// entryPrefix returns the directory of the entry URL's path, with a trailing slash.
func entryPrefix(entry *url.URL) string {
	p := entry.Path
	if p == "" {
		return "/"
	}
	if strings.HasSuffix(p, "/") {
		return p
	}
	dir := path.Dir(p)
	if dir == "/" || dir == "." {
		return "/"
	}
	return dir + "/"
}

func samePage(a, b *url.URL) bool {
	return strings.EqualFold(a.Host, b.Host) &&
		strings.TrimSuffix(a.Path, "/") == strings.TrimSuffix(b.Path, "/") &&
		a.RawQuery == b.RawQuery
}

func splitSegments(p string) []string {
	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
