package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/taaft-ai/toolsearch/pkg/config"
)

// Class groups routes that share a cache lifetime.
type Class string

// Route classes.
const (
	ClassConversational Class = "conversational"
	ClassSuggest        Class = "suggest"
	ClassTaxonomy       Class = "taxonomy"
	ClassDefault        Class = "default"
)

// SearchPrefixes are the path prefixes that participate in caching and
// telemetry. Everything else bypasses both.
var SearchPrefixes = []string{
	"/search/nlp",
	"/search/tools",
	"/search/search-with-matched-keywords",
	"/search/chat-search",
	"/search/keywords",
	"/search/suggest",
	"/search/categories",
	"/search/glossary",
}

// markers are checked in order; the first class whose marker appears in the
// path wins.
var markers = []struct {
	class Class
	words []string
}{
	{ClassConversational, []string{"nlp", "chat"}},
	{ClassSuggest, []string{"suggest", "autocomplete"}},
	{ClassTaxonomy, []string{"categor", "glossary", "taxonomy"}},
}

// Router maps request paths to route classes and cache lifetimes.
type Router struct {
	ttl      config.TTLConfig
	prefixes []string
}

// New creates a Router from the given configuration.
func New(cfg *config.Config) *Router {
	return &Router{ttl: cfg.Cache.TTL, prefixes: SearchPrefixes}
}

// Classify returns the route class of path.
func (r *Router) Classify(path string) Class {
	p := strings.ToLower(path)
	for _, m := range markers {
		for _, w := range m.words {
			if strings.Contains(p, w) {
				return m.class
			}
		}
	}
	return ClassDefault
}

// TTLFor returns the cache lifetime for responses to path.
func (r *Router) TTLFor(path string) time.Duration {
	switch r.Classify(path) {
	case ClassConversational:
		return r.ttl.Conversational
	case ClassSuggest:
		return r.ttl.Suggest
	case ClassTaxonomy:
		return r.ttl.Taxonomy
	default:
		return r.ttl.Default
	}
}

// Participates reports whether path is one of the search routes.
func (r *Router) Participates(path string) bool {
	for _, prefix := range r.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Cacheable reports whether a request may be served from or stored in the
// response cache. Mutating verbs never are.
func (r *Router) Cacheable(method, path string) bool {
	if method != http.MethodGet && method != http.MethodPost {
		return false
	}
	return r.Participates(path)
}
