// Package fs writes extracted pages to disk as markdown files.
package fs

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/docindex"
)

// URLToPath converts a documentation URL to a relative file path.
// Example: https://example.com/docs/api/users.html → docs/api/users.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", docindex.Errorf(docindex.EINVALID, "invalid page URL %q", rawURL)
	}

	p := u.Path

	// Handle root or trailing slash → index.md
	if p == "" || p == "/" {
		return "index.md", nil
	}

	// Trailing slash becomes index.md in that directory
	dir := strings.HasSuffix(p, "/")

	// Cleaning a rooted path drops any ".." that would escape the base directory.
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" {
		return "index.md", nil
	}
	if dir {
		return p + "/index.md", nil
	}

	for _, ext := range []string{".html", ".htm", ".php", ".md"} {
		p = strings.TrimSuffix(p, ext)
	}
	return p + ".md", nil
}

// FormatPage formats an extracted page with YAML frontmatter.
func FormatPage(source string, page *docindex.ExtractedPage, crawled time.Time) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(source)
	b.WriteString("\nurl: ")
	b.WriteString(page.URL)
	b.WriteString("\ntitle: ")
	b.WriteString(page.Title)
	if page.Framework != docindex.FrameworkUnknown {
		b.WriteString("\nframework: ")
		b.WriteString(string(page.Framework))
	}
	b.WriteString("\ncrawled: ")
	b.WriteString(crawled.Format("2006-01-02"))
	b.WriteString("\n---\n\n")
	b.WriteString(page.ContentText)
	return b.String()
}

// Ensure Writer implements docindex.PageWriter at compile time.
var _ docindex.PageWriter = (*Writer)(nil)

// Writer writes extracted pages as markdown files under
// baseDir/<source>/<host>/<path>.md.
type Writer struct {
	baseDir string

	// Now returns the crawl date written to the frontmatter.
	Now func() time.Time
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir, Now: time.Now}
}

// WritePage writes a page to disk. Pages without content are skipped.
func (w *Writer) WritePage(ctx context.Context, source string, page *docindex.ExtractedPage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return docindex.Errorf(docindex.EINVALID, "source required")
	}
	if page == nil || page.URL == "" {
		return docindex.Errorf(docindex.EINVALID, "page URL required")
	}
	if strings.TrimSpace(page.ContentText) == "" {
		return nil
	}

	relPath, err := URLToPath(page.URL)
	if err != nil {
		return err
	}
	u, _ := url.Parse(page.URL)

	fullPath := filepath.Join(w.baseDir, dirName(source), dirName(u.Hostname()), filepath.FromSlash(relPath))

	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return docindex.WrapError(docindex.EINTERNAL, err, "create page directory")
	}

	content := FormatPage(source, page, w.Now())
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return docindex.WrapError(docindex.EINTERNAL, err, "write page")
	}
	return nil
}

// dirName maps s to a single safe path segment.
func dirName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
