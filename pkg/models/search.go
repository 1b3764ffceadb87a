package models

// ToolRecord is a catalog entry as returned to clients. Empty fields are
// dropped from the JSON payload.
type ToolRecord struct {
	ID          string   `json:"id,omitempty" yaml:"id"`
	UniqueID    string   `json:"unique_id,omitempty" yaml:"unique_id"`
	Slug        string   `json:"slug,omitempty" yaml:"slug"`
	Name        string   `json:"name,omitempty" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Link        string   `json:"link,omitempty" yaml:"link"`
	LogoURL     string   `json:"logo_url,omitempty" yaml:"logo_url"`
	Categories  []string `json:"categories,omitempty" yaml:"categories"`
	Pricing     string   `json:"pricing,omitempty" yaml:"pricing"`
	Rating      *float64 `json:"rating,omitempty" yaml:"rating"`
	Features    []string `json:"features,omitempty" yaml:"features"`
	Keywords    []string `json:"-" yaml:"keywords"`
}

// SearchResult is the paginated result shape shared by every search endpoint.
// Page is 0-based at the index boundary and 1-based once it leaves the service.
type SearchResult struct {
	Hits             []ToolRecord `json:"hits"`
	Total            int          `json:"total"`
	Page             int          `json:"page"`
	PerPage          int          `json:"per_page"`
	Pages            int          `json:"pages"`
	ProcessingTimeMS int64        `json:"processing_time_ms"`
}

// ProcessedQuery is the structured form of a natural-language question.
type ProcessedQuery struct {
	OriginalQuestion    string   `json:"original_question"`
	SearchTerms         string   `json:"search_terms"`
	CandidateCategories []string `json:"categories"`
	PricingFilters      []string `json:"pricing_types"`
	InterpretedIntent   string   `json:"interpreted_intent"`
}

// KeywordMatch records why a term was added to an expanded keyword set.
type KeywordMatch struct {
	Keyword string `json:"keyword"`
	Matched string `json:"matched"`
	Source  string `json:"source"`
}

// Keyword match sources.
const (
	MatchExact     = "exact"
	MatchSubstring = "substring"
	MatchSynonym   = "synonym"
)

// NLPSearchResponse is returned by POST /search/nlp-search.
type NLPSearchResponse struct {
	SearchResult
	ProcessedQuery ProcessedQuery `json:"processed_query"`
}

// KeywordSearchResponse is returned by the keyword-driven search endpoints.
type KeywordSearchResponse struct {
	SearchResult
	OriginalKeywords []string       `json:"original_keywords"`
	ExpandedKeywords []string       `json:"expanded_keywords"`
	KeywordMatches   []KeywordMatch `json:"keyword_matches"`
}

// KeywordsResponse is returned by GET /search/keywords.
type KeywordsResponse struct {
	Keywords []string `json:"keywords"`
	Count    int      `json:"count"`
}

// Suggestion is a single autocomplete candidate.
type Suggestion struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Score  int    `json:"score"`
}

// Category is a taxonomy node with its related terms.
type Category struct {
	Name     string   `json:"name"`
	Synonyms []string `json:"synonyms"`
}
