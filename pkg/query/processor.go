// Package query turns natural-language questions into structured queries.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taaft-ai/toolsearch/pkg/keywords"
	"github.com/taaft-ai/toolsearch/pkg/models"
)

// Classification is the structured reading of a question by an external model.
type Classification struct {
	SearchTerms    string
	Categories     []string
	PricingFilters []string
	Intent         string
}

// Classifier is an optional question classifier. Its failures never abort
// processing.
type Classifier interface {
	Classify(ctx context.Context, question string) (*Classification, error)
}

// Processor builds ProcessedQuery values. It is safe for concurrent use.
type Processor struct {
	expander   *keywords.Expander
	classifier Classifier
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithClassifier enables classification, bounded by timeout per call.
func WithClassifier(c Classifier, timeout time.Duration) Option {
	return func(p *Processor) {
		p.classifier = c
		p.timeout = timeout
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProcessor creates a Processor using expander's taxonomy.
func NewProcessor(expander *keywords.Expander, opts ...Option) *Processor {
	p := &Processor{
		expander: expander,
		logger:   slog.Default().With("component", "query"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process structures question. Hints may carry "categories" and "pricing"
// (a string or a list) that are merged into the detected filters.
func (p *Processor) Process(ctx context.Context, question string, hints map[string]any) models.ProcessedQuery {
	terms := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	pq := models.ProcessedQuery{
		OriginalQuestion:    question,
		SearchTerms:         terms,
		CandidateCategories: p.expander.CategoriesIn(terms),
		PricingFilters:      detectPricing(terms),
	}

	pq.CandidateCategories = union(pq.CandidateCategories, p.knownCategories(hintList(hints, "categories")))
	pq.PricingFilters = union(pq.PricingFilters, canonicalPricing(hintList(hints, "pricing")))

	if p.classifier != nil && terms != "" {
		if c, err := p.classify(ctx, question); err != nil {
			p.logger.Warn("classification failed, using heuristics", "error", err)
		} else {
			if c.SearchTerms != "" {
				pq.SearchTerms = strings.Join(strings.Fields(strings.ToLower(c.SearchTerms)), " ")
			}
			if c.Intent != "" {
				pq.InterpretedIntent = c.Intent
			}
			pq.CandidateCategories = union(pq.CandidateCategories, p.knownCategories(c.Categories))
			pq.PricingFilters = union(pq.PricingFilters, canonicalPricing(c.PricingFilters))
		}
	}

	if pq.InterpretedIntent == "" {
		pq.InterpretedIntent = fmt.Sprintf("User is looking for AI tools related to %s", pq.SearchTerms)
	}
	if pq.CandidateCategories == nil {
		pq.CandidateCategories = []string{}
	}
	if pq.PricingFilters == nil {
		pq.PricingFilters = []string{}
	}
	return pq
}

func (p *Processor) classify(ctx context.Context, question string) (c *Classification, err error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("classifier panic: %v", r)
		}
	}()
	c, err = p.classifier.Classify(ctx, question)
	if err == nil && c == nil {
		err = fmt.Errorf("classifier returned nothing")
	}
	return c, err
}

// knownCategories maps free-form category names onto the taxonomy and
// drops the ones it does not know.
func (p *Processor) knownCategories(names []string) []string {
	var out []string
	for _, n := range names {
		out = union(out, p.expander.CategoriesIn(n))
	}
	return out
}

func detectPricing(text string) []string {
	_, pricing := keywords.SplitPricing(text)
	return pricing
}

func canonicalPricing(values []string) []string {
	var out []string
	for _, v := range values {
		if canon, ok := keywords.PricingType(v); ok {
			out = union(out, []string{canon})
		}
	}
	return out
}

func hintList(hints map[string]any, key string) []string {
	switch v := hints[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// union appends the members of add missing from base, preserving order.
func union(base, add []string) []string {
	for _, a := range add {
		found := false
		for _, b := range base {
			if a == b {
				found = true
				break
			}
		}
		if !found {
			base = append(base, a)
		}
	}
	return base
}
