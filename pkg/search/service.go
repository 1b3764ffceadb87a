// Package search composes query processing, keyword expansion and the
// catalog index into the operations served by the gateway.
package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/taaft-ai/toolsearch/pkg/keywords"
	"github.com/taaft-ai/toolsearch/pkg/models"
	"github.com/taaft-ai/toolsearch/pkg/query"
)

// Invalid-input and availability errors. The gateway maps the first group
// to 400 and ErrIndexUnconfigured to 503.
var (
	ErrEmptyQuestion     = errors.New("question must not be empty")
	ErrEmptyPrefix       = errors.New("query prefix must not be empty")
	ErrNoKeywords        = errors.New("keywords must be a non-empty list")
	ErrNoActionableQuery = errors.New("no searchable keywords in the conversation")
	ErrIndexUnconfigured = errors.New("search index is not configured")
)

// IsInvalidInput reports whether err is caused by the caller's input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrEmptyQuestion) ||
		errors.Is(err, ErrEmptyPrefix) ||
		errors.Is(err, ErrNoKeywords) ||
		errors.Is(err, ErrNoActionableQuery)
}

// Index is the catalog search capability. Pages are 0-based.
type Index interface {
	Configured() bool
	KeywordSearch(ctx context.Context, kws []string, page, perPage int) *models.SearchResult
	NLPSearch(ctx context.Context, pq models.ProcessedQuery, page, perPage int) *models.SearchResult
	DirectSearch(ctx context.Context, text string, page, perPage int) *models.SearchResult
}

// KnownKeywords lists previously observed keywords.
type KnownKeywords interface {
	All(ctx context.Context) ([]string, error)
}

// Suggestion sources.
const (
	SourceKeyword  = "keyword"
	SourceCategory = "category"
	SourceSynonym  = "synonym"
)

// Service implements the search operations. Pages are 1-based.
type Service struct {
	index     Index
	processor *query.Processor
	extractor *keywords.Extractor
	expander  *keywords.Expander
	known     KnownKeywords

	defaultPerPage int
	maxPerPage     int
	logger         *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithKnownKeywords attaches the known-keyword store.
func WithKnownKeywords(k KnownKeywords) Option {
	return func(s *Service) {
		s.known = k
	}
}

// WithPagination sets the default and maximum page sizes.
func WithPagination(defaultPerPage, maxPerPage int) Option {
	return func(s *Service) {
		if defaultPerPage > 0 {
			s.defaultPerPage = defaultPerPage
		}
		if maxPerPage >= s.defaultPerPage {
			s.maxPerPage = maxPerPage
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Service.
func New(idx Index, processor *query.Processor, extractor *keywords.Extractor, expander *keywords.Expander, opts ...Option) *Service {
	s := &Service{
		index:          idx,
		processor:      processor,
		extractor:      extractor,
		expander:       expander,
		defaultPerPage: 20,
		maxPerPage:     100,
		logger:         slog.Default().With("component", "search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether the catalog index is available.
func (s *Service) Configured() bool {
	return s.index != nil && s.index.Configured()
}

// Paginate clamps a 1-based page and a page size to valid values.
func (s *Service) Paginate(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = s.defaultPerPage
	}
	if perPage > s.maxPerPage {
		perPage = s.maxPerPage
	}
	return page, perPage
}

// Process structures a question without querying the index.
func (s *Service) Process(ctx context.Context, question string, hints map[string]any) (models.ProcessedQuery, error) {
	if strings.TrimSpace(question) == "" {
		return models.ProcessedQuery{}, ErrEmptyQuestion
	}
	return s.processor.Process(ctx, question, hints), nil
}

// NLPSearch structures question and runs it as a filtered free-text search.
func (s *Service) NLPSearch(ctx context.Context, question string, hints map[string]any, page, perPage int) (*models.NLPSearchResponse, error) {
	pq, err := s.Process(ctx, question, hints)
	if err != nil {
		return nil, err
	}
	if !s.Configured() {
		return nil, ErrIndexUnconfigured
	}
	page, perPage = s.Paginate(page, perPage)
	res := s.index.NLPSearch(ctx, pq, page-1, perPage)
	res.Page = page
	return &models.NLPSearchResponse{SearchResult: *res, ProcessedQuery: pq}, nil
}

// ToolsSearch runs a structured filter search. Category or pricing filters
// select a faceted search; a bare query selects a direct name/description
// search; no criteria lists the catalog.
func (s *Service) ToolsSearch(ctx context.Context, f models.ToolsFilter) (*models.SearchResult, error) {
	if !s.Configured() {
		return nil, ErrIndexUnconfigured
	}
	page, perPage := s.Paginate(f.Page, f.PerPage)
	text := strings.Join(strings.Fields(strings.ToLower(f.Query)), " ")

	var res *models.SearchResult
	if len(f.Categories) > 0 || len(f.Pricing) > 0 || text == "" {
		res = s.index.NLPSearch(ctx, models.ProcessedQuery{
			OriginalQuestion:    f.Query,
			SearchTerms:         text,
			CandidateCategories: lowerAll(f.Categories),
			PricingFilters:      lowerAll(f.Pricing),
		}, page-1, perPage)
	} else {
		res = s.index.DirectSearch(ctx, text, page-1, perPage)
	}
	res.Page = page
	return res, nil
}

// MatchedKeywordSearch expands keywords with the thesaurus and the known
// keywords they match, then searches for any of the expanded terms.
func (s *Service) MatchedKeywordSearch(ctx context.Context, kws []string, page, perPage int) (*models.KeywordSearchResponse, error) {
	original := keywords.NormalizeKeywords(kws)
	if len(original) == 0 {
		return nil, ErrNoKeywords
	}
	if !s.Configured() {
		return nil, ErrIndexUnconfigured
	}
	expanded, matches := s.expander.ExpandWithKnown(original, s.knownKeywords(ctx))
	return s.keywordSearch(ctx, original, expanded, matches, page, perPage), nil
}

// ChatSearch extracts keywords from the user turns of a conversation,
// expands them and searches for any of them.
func (s *Service) ChatSearch(ctx context.Context, messages []models.ChatMessage, page, perPage int) (*models.KeywordSearchResponse, error) {
	extracted := s.extractor.Extract(messages)
	if len(extracted) == 0 {
		return nil, ErrNoActionableQuery
	}
	if !s.Configured() {
		return nil, ErrIndexUnconfigured
	}
	expanded, matches := s.expander.ExpandWithKnown(extracted, s.knownKeywords(ctx))
	if limit := s.extractor.MaxKeywords(); len(expanded) > limit {
		expanded = expanded[:limit]
		matches = keptMatches(matches, expanded)
	}
	return s.keywordSearch(ctx, extracted, expanded, matches, page, perPage), nil
}

func (s *Service) keywordSearch(ctx context.Context, original, expanded []string, matches []models.KeywordMatch, page, perPage int) *models.KeywordSearchResponse {
	page, perPage = s.Paginate(page, perPage)
	res := s.index.KeywordSearch(ctx, expanded, page-1, perPage)
	res.Page = page
	if matches == nil {
		matches = []models.KeywordMatch{}
	}
	return &models.KeywordSearchResponse{
		SearchResult:     *res,
		OriginalKeywords: original,
		ExpandedKeywords: expanded,
		KeywordMatches:   matches,
	}
}

// Keywords lists every known keyword.
func (s *Service) Keywords(ctx context.Context) (*models.KeywordsResponse, error) {
	all := []string{}
	if s.known != nil {
		kws, err := s.known.All(ctx)
		if err != nil {
			return nil, err
		}
		all = kws
	}
	return &models.KeywordsResponse{Keywords: all, Count: len(all)}, nil
}

// Suggest returns up to limit completions for prefix drawn from the known
// keywords and the taxonomy, best fuzzy match first.
func (s *Service) Suggest(ctx context.Context, prefix string, limit int) ([]models.Suggestion, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, ErrEmptyPrefix
	}
	if limit <= 0 || limit > s.maxPerPage {
		limit = 10
	}

	var texts, sources []string
	seen := make(map[string]struct{})
	add := func(text, source string) {
		if _, ok := seen[text]; ok {
			return
		}
		seen[text] = struct{}{}
		texts = append(texts, text)
		sources = append(sources, source)
	}
	for _, c := range s.expander.Categories() {
		add(c.Name, SourceCategory)
		for _, syn := range c.Synonyms {
			add(syn, SourceSynonym)
		}
	}
	for _, kw := range s.knownKeywords(ctx) {
		add(kw, SourceKeyword)
	}

	out := []models.Suggestion{}
	for _, m := range fuzzy.Find(prefix, texts) {
		out = append(out, models.Suggestion{Text: m.Str, Source: sources[m.Index], Score: m.Score})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Categories returns the taxonomy.
func (s *Service) Categories() []models.Category {
	return s.expander.Categories()
}

// knownKeywords returns the known keywords, or nil when the store is
// missing or failing.
func (s *Service) knownKeywords(ctx context.Context) []string {
	if s.known == nil {
		return nil
	}
	kws, err := s.known.All(ctx)
	if err != nil {
		s.logger.Warn("known keywords unavailable", "error", err)
		return nil
	}
	return kws
}

// keptMatches drops the matches whose term was cut from expanded.
func keptMatches(matches []models.KeywordMatch, expanded []string) []models.KeywordMatch {
	kept := make(map[string]struct{}, len(expanded))
	for _, kw := range expanded {
		kept[kw] = struct{}{}
	}
	out := matches[:0]
	for _, m := range matches {
		if _, ok := kept[m.Matched]; ok {
			out = append(out, m)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
