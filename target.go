package docindex

import (
	"net/url"
	"time"
)

// Crawl policy defaults.
const (
	DefaultMaxDepth          = 2
	DefaultInterRequestDelay = time.Second
	DefaultFetchTimeout      = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultMaxPages          = 1000
	DefaultUserAgent         = "docindex/1.0 (+https://github.com/fwojciec/docindex)"
)

// CrawlTarget describes one documentation source to crawl.
// A target is treated as immutable once a crawl starts.
type CrawlTarget struct {
	EntryURL           string         `json:"entryUrl" mapstructure:"entry_url"`
	ContentSelectors   []string       `json:"contentSelectors,omitempty" mapstructure:"content_selectors"`
	TitleSelectors     []string       `json:"titleSelectors,omitempty" mapstructure:"title_selectors"`
	NavigationSelector string         `json:"navigationSelector,omitempty" mapstructure:"navigation_selector"`
	ExcludeSelectors   []string       `json:"excludeSelectors,omitempty" mapstructure:"exclude_selectors"`
	Metadata           TargetMetadata `json:"metadata" mapstructure:"metadata"`
	Policy             CrawlPolicy    `json:"policy" mapstructure:"policy"`
}

// TargetMetadata labels every passage produced from a target.
type TargetMetadata struct {
	SourceName string `json:"sourceName" mapstructure:"source_name"`
	Language   string `json:"language,omitempty" mapstructure:"language"`
	Framework  string `json:"framework,omitempty" mapstructure:"framework"`
	Version    string `json:"version,omitempty" mapstructure:"version"`
}

// CrawlPolicy bounds how a target is crawled.
type CrawlPolicy struct {
	FollowLinks       bool          `json:"followLinks" mapstructure:"follow_links"`
	MaxDepth          int           `json:"maxDepth" mapstructure:"max_depth"`
	InterRequestDelay time.Duration `json:"interRequestDelay" mapstructure:"inter_request_delay"`
	Timeout           time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries        int           `json:"maxRetries" mapstructure:"max_retries"`
	UserAgent         string        `json:"userAgent,omitempty" mapstructure:"user_agent"`

	// MaxPages caps the number of URLs visited in one session. Zero means DefaultMaxPages.
	MaxPages int `json:"maxPages,omitempty" mapstructure:"max_pages"`
}

// DefaultCrawlPolicy returns the policy used when a target leaves fields unset.
func DefaultCrawlPolicy() CrawlPolicy {
	return CrawlPolicy{
		FollowLinks:       true,
		MaxDepth:          DefaultMaxDepth,
		InterRequestDelay: DefaultInterRequestDelay,
		Timeout:           DefaultFetchTimeout,
		MaxRetries:        DefaultMaxRetries,
		UserAgent:         DefaultUserAgent,
		MaxPages:          DefaultMaxPages,
	}
}

// WithDefaults returns a copy of p with zero-valued limits replaced by defaults.
// FollowLinks, MaxDepth and InterRequestDelay are taken as given since zero is meaningful.
func (p CrawlPolicy) WithDefaults() CrawlPolicy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultFetchTimeout
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.UserAgent == "" {
		p.UserAgent = DefaultUserAgent
	}
	if p.MaxPages <= 0 {
		p.MaxPages = DefaultMaxPages
	}
	if p.InterRequestDelay < 0 {
		p.InterRequestDelay = 0
	}
	return p
}

// Validate returns an error if the target cannot be crawled.
func (t *CrawlTarget) Validate() error {
	if t.EntryURL == "" {
		return Errorf(EINVALID, "crawl target entry URL required")
	}
	u, err := url.Parse(t.EntryURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Errorf(EINVALID, "crawl target entry URL %q must be an absolute http(s) URL", t.EntryURL)
	}
	if t.Metadata.SourceName == "" {
		return Errorf(EINVALID, "crawl target source name required")
	}
	if t.Policy.MaxDepth < 0 {
		return Errorf(EINVALID, "crawl target max depth must not be negative")
	}
	return nil
}
