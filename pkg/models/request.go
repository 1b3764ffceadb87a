package models

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NLPSearchRequest is the body of POST /search/nlp-search and POST /search/nlp.
type NLPSearchRequest struct {
	Question string         `json:"question"`
	Context  map[string]any `json:"context,omitempty"`
}

// MatchedKeywordsRequest is the body of POST /search/search-with-matched-keywords.
type MatchedKeywordsRequest struct {
	Keywords []string `json:"keywords"`
}

// ChatSearchRequest is the body of POST /search/chat-search.
type ChatSearchRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// ToolsFilter holds the query parameters of GET /search/tools.
type ToolsFilter struct {
	Query      string
	Categories []string
	Pricing    []string
	Page       int
	PerPage    int
}
