// Package index queries the external tool catalog index.
package index

import (
	"context"
	"time"
)

// Mode selects how a Query's text is matched.
type Mode int

const (
	// ModeKeyword matches any of Query.Keywords.
	ModeKeyword Mode = iota
	// ModeNLP matches all terms of Query.Text under facet filters.
	ModeNLP
	// ModeDirect matches Query.Text against name and description only.
	ModeDirect
)

func (m Mode) String() string {
	switch m {
	case ModeKeyword:
		return "keyword"
	case ModeNLP:
		return "nlp"
	case ModeDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// Query is a backend-neutral index request. Page is 0-based.
type Query struct {
	Mode       Mode
	Text       string
	Keywords   []string
	Categories []string
	Pricing    []string
	Page       int
	PerPage    int

	// TypoTolerance and RemoveWordsIfNoResults are honored by backends that
	// support them natively. Client relaxes terms itself otherwise.
	TypoTolerance          bool
	RemoveWordsIfNoResults bool
}

// RawResult is an unformatted page of hits.
type RawResult struct {
	Hits  []map[string]any
	Total int
	// ProcessingTime is the backend-reported duration; zero when unknown.
	ProcessingTime time.Duration
}

// Backend is a search index implementation.
type Backend interface {
	Query(ctx context.Context, q Query) (*RawResult, error)
	// RelaxesNatively reports whether the backend drops query words on an
	// empty result by itself.
	RelaxesNatively() bool
}
