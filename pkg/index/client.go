package index

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taaft-ai/toolsearch/pkg/format"
	"github.com/taaft-ai/toolsearch/pkg/keywords"
	"github.com/taaft-ai/toolsearch/pkg/models"
)

// Client runs searches against a Backend and formats the hits. It never
// returns an error: an unconfigured or failing backend yields an empty
// result and a warning.
type Client struct {
	backend   Backend
	formatter *format.Formatter
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every backend call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client. A nil backend leaves the client unconfigured.
func NewClient(backend Backend, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		logger:  slog.Default().With("component", "index"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.formatter = format.New(c.logger)
	return c
}

// Configured reports whether a backend is attached.
func (c *Client) Configured() bool {
	return c.backend != nil
}

// KeywordSearch returns tools matching any of the keywords.
func (c *Client) KeywordSearch(ctx context.Context, kws []string, page, perPage int) *models.SearchResult {
	return c.search(ctx, Query{
		Mode:     ModeKeyword,
		Keywords: kws,
		Page:     page,
		PerPage:  perPage,
	})
}

// NLPSearch runs the processed question as free text under category and
// pricing facet filters. Pricing words are matched by the facet, not the
// text. When the strict query finds nothing, trailing terms are dropped one
// at a time and finally the facets alone are queried.
func (c *Client) NLPSearch(ctx context.Context, pq models.ProcessedQuery, page, perPage int) *models.SearchResult {
	return c.search(ctx, Query{
		Mode:                   ModeNLP,
		Text:                   searchText(pq),
		Categories:             pq.CandidateCategories,
		Pricing:                pq.PricingFilters,
		Page:                   page,
		PerPage:                perPage,
		TypoTolerance:          true,
		RemoveWordsIfNoResults: true,
	})
}

// DirectSearch matches text against tool names and descriptions without
// filters.
func (c *Client) DirectSearch(ctx context.Context, text string, page, perPage int) *models.SearchResult {
	return c.search(ctx, Query{
		Mode:          ModeDirect,
		Text:          text,
		Page:          page,
		PerPage:       perPage,
		TypoTolerance: true,
	})
}

func (c *Client) search(ctx context.Context, q Query) *models.SearchResult {
	start := time.Now()
	if q.Page < 0 {
		q.Page = 0
	}
	if q.PerPage <= 0 {
		q.PerPage = 20
	}

	if c.backend == nil {
		c.logger.Warn("search index not configured", "mode", q.Mode.String())
		return empty(q, time.Since(start))
	}

	raw, err := c.query(ctx, q)
	if err != nil {
		c.logger.Warn("search index query failed", "mode", q.Mode.String(), "error", err)
		return empty(q, time.Since(start))
	}

	if raw.Total == 0 && q.RemoveWordsIfNoResults && !c.backend.RelaxesNatively() {
		raw = c.relax(ctx, q, raw)
	}

	elapsed := raw.ProcessingTime
	if elapsed <= 0 {
		elapsed = time.Since(start)
	}
	return &models.SearchResult{
		Hits:             c.formatter.Hits(raw.Hits),
		Total:            raw.Total,
		Page:             q.Page,
		PerPage:          q.PerPage,
		Pages:            pages(raw.Total, q.PerPage),
		ProcessingTimeMS: elapsed.Milliseconds(),
	}
}

// relax retries q with trailing terms removed, then with the facet filters
// only. It returns the first non-empty result, or last when nothing matches.
func (c *Client) relax(ctx context.Context, q Query, last *RawResult) *RawResult {
	terms := dedupe(keywords.Tokenize(q.Text))
	var steps []string
	for n := len(terms) - 1; n > 0; n-- {
		steps = append(steps, strings.Join(terms[:n], " "))
	}
	if len(terms) > 0 && (len(q.Categories) > 0 || len(q.Pricing) > 0) {
		steps = append(steps, "")
	}

	for _, text := range steps {
		q.Text = text
		raw, err := c.query(ctx, q)
		if err != nil {
			c.logger.Warn("relaxed query failed", "query", text, "error", err)
			return last
		}
		if raw.Total > 0 {
			c.logger.Debug("relaxed query matched", "query", q.Text, "total", raw.Total)
			return raw
		}
		last = raw
	}
	return last
}

// searchText drops the pricing words of the question once they are carried
// by the pricing facet.
func searchText(pq models.ProcessedQuery) string {
	if len(pq.PricingFilters) == 0 {
		return pq.SearchTerms
	}
	terms, _ := keywords.SplitPricing(pq.SearchTerms)
	return strings.Join(terms, " ")
}

func (c *Client) query(ctx context.Context, q Query) (*RawResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	raw, err := c.backend.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		raw = &RawResult{}
	}
	return raw, nil
}

func empty(q Query, elapsed time.Duration) *models.SearchResult {
	return &models.SearchResult{
		Hits:             []models.ToolRecord{},
		Page:             q.Page,
		PerPage:          q.PerPage,
		ProcessingTimeMS: elapsed.Milliseconds(),
	}
}

func pages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
