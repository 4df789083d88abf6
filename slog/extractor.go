package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/docindex"
)

// Ensure LoggingExtractor implements docindex.Extractor.
var _ docindex.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor with debug logging.
type LoggingExtractor struct {
	next   docindex.Extractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next docindex.Extractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs which strategy located
// the content.
func (e *LoggingExtractor) Extract(html, pageURL string, target *docindex.CrawlTarget) (page *docindex.ExtractedPage, err error) {
	defer func(begin time.Time) {
		if err != nil {
			e.logger.Warn("extract", "url", pageURL, "duration", time.Since(begin), "err", err)
			return
		}
		e.logger.Debug("extract",
			"url", pageURL,
			"framework", frameworkName(page.Framework),
			"selector", page.ContentSelector,
			"chars", len(page.ContentText),
			"links", len(page.DiscoveredLinks),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return e.next.Extract(html, pageURL, target)
}

// Ensure LoggingDetector implements docindex.FrameworkDetector.
var _ docindex.FrameworkDetector = (*LoggingDetector)(nil)

// LoggingDetector wraps a FrameworkDetector with logging for framework detection.
type LoggingDetector struct {
	next   docindex.FrameworkDetector
	logger *slog.Logger
}

// NewLoggingDetector creates a new LoggingDetector.
func NewLoggingDetector(next docindex.FrameworkDetector, logger *slog.Logger) *LoggingDetector {
	return &LoggingDetector{next: next, logger: logger}
}

// Detect delegates to the wrapped detector and logs the result.
func (d *LoggingDetector) Detect(html string) docindex.Framework {
	begin := time.Now()
	framework := d.next.Detect(html)
	d.logger.Info("framework detection",
		"framework", frameworkName(framework),
		"duration", time.Since(begin),
	)
	return framework
}

func frameworkName(f docindex.Framework) string {
	if f == docindex.FrameworkUnknown {
		return "(unknown)"
	}
	return string(f)
}
