package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docindex"
)

// Registry manages framework profiles and auto-detects frameworks from HTML.
// Unknown frameworks, or frameworks without a registered profile, get an
// empty profile so callers fall straight through to the generic selectors.
type Registry struct {
	detector *Detector
	profiles map[docindex.Framework]Profile
}

// NewRegistry creates a Registry preloaded with DefaultProfiles.
func NewRegistry(detector *Detector) *Registry {
	r := &Registry{
		detector: detector,
		profiles: make(map[docindex.Framework]Profile),
	}
	for _, p := range DefaultProfiles() {
		r.Register(p)
	}
	return r
}

// Register adds a profile, replacing any profile for the same framework.
func (r *Registry) Register(p Profile) {
	r.profiles[p.Framework] = p
}

// Get returns the profile for a framework and whether one is registered.
func (r *Registry) Get(framework docindex.Framework) (Profile, bool) {
	p, ok := r.profiles[framework]
	return p, ok
}

// ForDocument detects the framework of doc and returns its profile.
func (r *Registry) ForDocument(doc *goquery.Document) Profile {
	framework := r.detector.DetectDocument(doc)
	if p, ok := r.profiles[framework]; ok {
		return p
	}
	return Profile{Framework: framework}
}

// ForHTML is ForDocument for raw HTML.
func (r *Registry) ForHTML(html string) Profile {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Profile{}
	}
	return r.ForDocument(doc)
}

// List returns all registered frameworks.
func (r *Registry) List() []docindex.Framework {
	frameworks := make([]docindex.Framework, 0, len(r.profiles))
	for f := range r.profiles {
		frameworks = append(frameworks, f)
	}
	return frameworks
}
