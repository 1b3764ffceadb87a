package gateway

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/taaft-ai/toolsearch/pkg/models"
)

func (s *Server) handleNLPSearch(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req models.NLPSearchRequest
	if !decode(w, r, &req) {
		return
	}
	page, perPage := pagination(r.URL.Query())
	res, err := s.search.NLPSearch(r.Context(), req.Question, req.Context, page, perPage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleProcess structures a question without searching.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req models.NLPSearchRequest
	if !decode(w, r, &req) {
		return
	}
	pq, err := s.search.Process(r.Context(), req.Question, req.Context)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pq)
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	page, perPage := pagination(q)
	res, err := s.search.ToolsSearch(r.Context(), models.ToolsFilter{
		Query:      q.Get("query"),
		Categories: listParam(q, "categories"),
		Pricing:    listParam(q, "pricing"),
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMatchedKeywords(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req models.MatchedKeywordsRequest
	if !decode(w, r, &req) {
		return
	}
	page, perPage := pagination(r.URL.Query())
	res, err := s.search.MatchedKeywordSearch(r.Context(), req.Keywords, page, perPage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChatSearch(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req models.ChatSearchRequest
	if !decode(w, r, &req) {
		return
	}
	page, perPage := pagination(r.URL.Query())
	res, err := s.search.ChatSearch(r.Context(), req.Messages, page, perPage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	res, err := s.search.Keywords(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	suggestions, err := s.search.Suggest(r.Context(), q.Get("q"), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":       q.Get("q"),
		"suggestions": suggestions,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	categories := s.search.Categories()
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		"count":      len(categories),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

func (s *Server) handleStatsReset(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	s.stats.Reset()
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.cacheStats())
}

func (s *Server) handleCacheAction(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if s.cache == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "response cache is not configured")
		return
	}
	resp := map[string]any{}
	switch action := r.PathValue("action"); action {
	case "enable":
		s.cache.Enable()
	case "disable":
		s.cache.Disable()
	case "clear":
		resp["cleared"] = s.cache.Clear()
	default:
		writeJSONError(w, http.StatusNotFound, "unknown cache action "+strconv.Quote(action))
		return
	}
	s.logger.Info("cache admin action", "request_id", RequestID(r.Context()), "action", r.PathValue("action"))
	resp["cache"] = s.cache.Stats()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"index_configured": s.search.Configured(),
		"cache":            s.cacheStats(),
	})
}

func (s *Server) cacheStats() models.CacheStats {
	if s.cache == nil {
		return models.CacheStats{}
	}
	return s.cache.Stats()
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := readBody(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// pagination reads page and per_page; missing or malformed values are
// left to the service defaults.
func pagination(q url.Values) (int, int) {
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return page, perPage
}

// listParam accepts repeated and comma-separated values.
func listParam(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
