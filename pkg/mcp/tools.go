package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/taaft-ai/toolsearch/pkg/search"
)

// Tool argument structs.

type searchArgs struct {
	Question   string   `json:"question"`
	Categories []string `json:"categories"`
	Pricing    []string `json:"pricing"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
}

type keywordSearchArgs struct {
	Keywords []string `json:"keywords"`
	Page     int      `json:"page"`
	PerPage  int      `json:"per_page"`
}

type suggestArgs struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
}

// toolHandler is a function that handles a tool call.
type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

type tool struct {
	handle toolHandler
	// search tools are cached and counted in telemetry
	search bool
}

var toolHandlers = map[string]tool{
	"toolsearch_search":         {handleSearch, true},
	"toolsearch_keyword_search": {handleKeywordSearch, true},
	"toolsearch_suggest":        {handleSuggest, true},
	"toolsearch_stats":          {handleStats, false},
	"toolsearch_cache_stats":    {handleCacheStats, false},
}

var (
	stringList = Schema{Type: "array", Items: &Schema{Type: "string"}}
	noArgs     = Schema{Type: "object"}
)

// paged adds the page and per_page arguments shared by the search tools.
func paged(props map[string]Schema) map[string]Schema {
	props["page"] = Schema{Type: "integer", Description: "1-based page number (optional, default 1)"}
	props["per_page"] = Schema{Type: "integer", Description: "Results per page (optional)"}
	return props
}

func described(s Schema, description string) Schema {
	s.Description = description
	return s
}

// allTools is the list of tool definitions exposed via tools/list.
var allTools = []ToolDefinition{
	{
		Name:        "toolsearch_search",
		Description: "Search the AI tool catalog with a natural-language question. Categories and pricing are detected from the question and may be narrowed explicitly.",
		InputSchema: Schema{
			Type:     "object",
			Required: []string{"question"},
			Properties: paged(map[string]Schema{
				"question":   {Type: "string", Description: "What the user is looking for, e.g. \"free tool for writing blog posts\""},
				"categories": described(stringList, "Restrict to these categories (optional)"),
				"pricing":    described(stringList, "Restrict to these pricing types, e.g. free, freemium, paid (optional)"),
			}),
		},
	},
	{
		Name:        "toolsearch_keyword_search",
		Description: "Search the catalog for any of the given keywords after synonym expansion.",
		InputSchema: Schema{
			Type:     "object",
			Required: []string{"keywords"},
			Properties: paged(map[string]Schema{
				"keywords": described(stringList, "Keywords to search for"),
			}),
		},
	},
	{
		Name:        "toolsearch_suggest",
		Description: "Suggest categories and known keywords that complete a prefix.",
		InputSchema: Schema{
			Type:     "object",
			Required: []string{"prefix"},
			Properties: map[string]Schema{
				"prefix": {Type: "string", Description: "Partial keyword"},
				"limit":  {Type: "integer", Description: "Maximum suggestions (optional, default 10)"},
			},
		},
	},
	{
		Name:        "toolsearch_stats",
		Description: "Show search performance counters (requests, cache hit ratio, latency, error rate).",
		InputSchema: noArgs,
	},
	{
		Name:        "toolsearch_cache_stats",
		Description: "Show search result cache statistics (entries, hits, misses, hit rate).",
		InputSchema: noArgs,
	},
}

// searchError reports invalid input back to the caller. Other failures are
// logged and answered with a generic message.
func (s *Server) searchError(op string, err error) ToolCallResult {
	switch {
	case errors.Is(err, search.ErrIndexUnconfigured):
		return errorResult("The search index is not configured.")
	case search.IsInvalidInput(err):
		return errorResult(err.Error())
	}
	s.logger.Error("search tool failed", "op", op, "error", err)
	return errorResult("Search failed due to an internal error.")
}

func handleSearch(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args searchArgs
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return errorResult("Invalid arguments: " + err.Error())
		}
	}
	if strings.TrimSpace(args.Question) == "" {
		return errorResult("question is required")
	}
	hints := map[string]any{}
	if len(args.Categories) > 0 {
		hints["categories"] = args.Categories
	}
	if len(args.Pricing) > 0 {
		hints["pricing"] = args.Pricing
	}
	res, err := s.search.NLPSearch(ctx, args.Question, hints, args.Page, args.PerPage)
	if err != nil {
		return s.searchError("nlp_search", err)
	}
	return textResult(formatNLPSearch(res))
}

func handleKeywordSearch(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args keywordSearchArgs
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return errorResult("Invalid arguments: " + err.Error())
		}
	}
	res, err := s.search.MatchedKeywordSearch(ctx, args.Keywords, args.Page, args.PerPage)
	if err != nil {
		return s.searchError("keyword_search", err)
	}
	return textResult(formatKeywordSearch(res))
}

func handleSuggest(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args suggestArgs
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return errorResult("Invalid arguments: " + err.Error())
		}
	}
	suggestions, err := s.search.Suggest(ctx, args.Prefix, args.Limit)
	if err != nil {
		return s.searchError("suggest", err)
	}
	return textResult(formatSuggestions(suggestions))
}

func handleStats(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.stats == nil {
		return textResult("Telemetry is not configured.")
	}
	return textResult(formatPerformance(s.stats.Snapshot()))
}

func handleCacheStats(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return textResult("Cache is not configured.")
	}
	return textResult(formatCacheStats(s.cache.Stats()))
}
