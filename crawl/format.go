package crawl

import (
	"fmt"
	"strings"
)

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatBytes formats bytes in human-readable form.
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatTokens formats token count in human-readable form.
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("~%d tokens", tokens)
	}
	return fmt.Sprintf("~%dk tokens", (tokens+500)/1000)
}

// FormatResult renders a one-line crawl summary followed by one line per error.
func FormatResult(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d pages, %d passages written", r.Source, r.Pages, r.PassagesWritten)
	if r.Ingest.Skipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", r.Ingest.Skipped)
	}
	if r.Bytes > 0 {
		fmt.Fprintf(&b, " (%s", FormatBytes(r.Bytes))
		if r.Tokens > 0 {
			fmt.Fprintf(&b, ", %s", FormatTokens(r.Tokens))
		}
		b.WriteString(")")
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, ", %d errors", len(r.Errors))
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "\n  %s: %s", TruncateURL(e.URL, 60), e.Message)
	}
	return b.String()
}
