package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/docindex"
	"github.com/fwojciec/docindex/crawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Config   *Config
	Store    docindex.Store
	Pipeline *crawl.Pipeline
	Fetcher  docindex.Fetcher
	Extract  docindex.Extractor
	Detector docindex.FrameworkDetector
	Asker    docindex.Asker
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"C" type:"path" help:"Config file (default ~/.docindex/config.yaml)"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Crawl  CrawlCmd  `cmd:"" help:"Crawl every target in a targets file"`
	Add    AddCmd    `cmd:"" help:"Crawl a single documentation site"`
	Search SearchCmd `cmd:"" help:"Search indexed documentation"`
	Stats  StatsCmd  `cmd:"" help:"Show index statistics"`
	Clear  ClearCmd  `cmd:"" help:"Remove passages of a source or the whole index"`
	Delete DeleteCmd `cmd:"" help:"Delete a single passage by ID"`
	Ask    AskCmd    `cmd:"" help:"Ask a question about indexed documentation"`
	Probe  ProbeCmd  `cmd:"" help:"Preview framework detection and extraction for one page"`
	Doctor DoctorCmd `cmd:"" help:"Check the connection to the vector backend"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Targets     string `arg:"" type:"existingfile" help:"Targets file (YAML, JSON or TOML)"`
	Concurrency int    `short:"c" default:"4" help:"Targets crawled at once"`
	Dump        string `type:"path" help:"Also write extracted pages as markdown under this directory"`
	JSON        bool   `help:"Print results as JSON"`
}

// AddCmd is the "add" subcommand.
type AddCmd struct {
	Name             string        `arg:"" help:"Source name"`
	URL              string        `arg:"" help:"Documentation entry URL"`
	Depth            int           `short:"d" default:"2" help:"Maximum link depth from the entry URL"`
	Delay            time.Duration `default:"1s" help:"Delay between requests to the same host"`
	Timeout          time.Duration `default:"30s" help:"Per-request timeout"`
	Retries          int           `default:"3" help:"Retries for network failures"`
	MaxPages         int           `default:"1000" help:"Maximum pages fetched"`
	NoFollow         bool          `help:"Index the entry page only"`
	ContentSelectors []string      `name:"content" help:"Content selector, tried in order (repeatable)"`
	TitleSelectors   []string      `name:"title" help:"Title selector, tried in order (repeatable)"`
	NavSelector      string        `name:"nav" help:"Navigation selector for link discovery"`
	Exclude          []string      `short:"x" help:"Selector removed before extraction (repeatable)"`
	Language         string        `help:"Language metadata"`
	Framework        string        `help:"Framework metadata"`
	Version          string        `help:"Version metadata"`
	Force            bool          `short:"f" help:"Remove existing passages of the source first"`
	Dump             string        `type:"path" help:"Also write extracted pages as markdown under this directory"`
	JSON             bool          `help:"Print the result as JSON"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query     string  `arg:"" help:"Search query"`
	Limit     int     `short:"n" default:"10" help:"Maximum results"`
	Threshold float64 `short:"t" default:"0" help:"Minimum similarity score"`
	Source    string  `short:"s" help:"Only passages from this source"`
	Language  string  `help:"Only passages with this language"`
	Framework string  `help:"Only passages with this framework"`
	Full      bool    `help:"Show full passage content"`
	JSON      bool    `help:"Print results as JSON"`
}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct {
	Source string `short:"s" help:"Show statistics for one source"`
	JSON   bool   `help:"Print statistics as JSON"`
}

// ClearCmd is the "clear" subcommand.
type ClearCmd struct {
	Source string `short:"s" xor:"scope" help:"Source to remove"`
	All    bool   `xor:"scope" help:"Remove every passage"`
	Force  bool   `help:"Confirm removing every passage"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID string `arg:"" help:"Passage ID"`
}

// AskCmd is the "ask" subcommand.
type AskCmd struct {
	Question string `arg:"" help:"Question to ask about the documentation"`
	Source   string `short:"s" help:"Only use passages from this source"`
	Limit    int    `short:"n" default:"8" help:"Passages given to the model"`
}

// DoctorCmd is the "doctor" subcommand.
type DoctorCmd struct{}

// ProbeCmd is the "probe" subcommand.
type ProbeCmd struct {
	URL     string   `arg:"" help:"Page URL"`
	Content []string `help:"Content selector, tried in order (repeatable)"`
	Nav     string   `help:"Navigation selector for link discovery"`
	Links   int      `default:"20" help:"Discovered links shown"`
}
