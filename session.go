package docindex

import "time"

// CrawlError records a per-URL failure inside a crawl session.
type CrawlError struct {
	URL     string `json:"url"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// CrawlSession is the transient state of one crawl of one target.
// It lives for the duration of a single crawl call.
type CrawlSession struct {
	ID         string
	Target     *CrawlTarget
	Visited    []string
	Passages   []*Passage
	Pages      int
	Errors     []CrawlError
	StartedAt  time.Time
	FinishedAt time.Time

	visited map[string]struct{}
}

// NewCrawlSession returns an empty session for target.
func NewCrawlSession(id string, target *CrawlTarget) *CrawlSession {
	return &CrawlSession{
		ID:      id,
		Target:  target,
		visited: make(map[string]struct{}),
	}
}

// MarkVisited records url as visited. Returns false if it already was.
func (s *CrawlSession) MarkVisited(url string) bool {
	if s.visited == nil {
		s.visited = make(map[string]struct{})
	}
	if _, ok := s.visited[url]; ok {
		return false
	}
	s.visited[url] = struct{}{}
	s.Visited = append(s.Visited, url)
	return true
}

// HasVisited returns true if url was marked visited in this session.
func (s *CrawlSession) HasVisited(url string) bool {
	_, ok := s.visited[url]
	return ok
}

// RecordError appends a per-URL failure.
func (s *CrawlSession) RecordError(url string, err error) {
	s.Errors = append(s.Errors, CrawlError{
		URL:     url,
		Message: err.Error(),
		Code:    ErrorCode(err),
	})
}
