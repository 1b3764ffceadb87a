// Package gateway serves the search operations over HTTP with a response
// cache and request telemetry in front of them.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/taaft-ai/toolsearch/pkg/cache"
	"github.com/taaft-ai/toolsearch/pkg/config"
	"github.com/taaft-ai/toolsearch/pkg/models"
	"github.com/taaft-ai/toolsearch/pkg/router"
	"github.com/taaft-ai/toolsearch/pkg/search"
	"github.com/taaft-ai/toolsearch/pkg/telemetry"
)

// maxBodySize bounds request bodies read by the gateway.
const maxBodySize = 1 << 20

// QueryLogger persists one entry per search request.
type QueryLogger interface {
	Log(ctx context.Context, entry models.QueryLogEntry) error
}

// Server is the toolsearch HTTP gateway.
type Server struct {
	cfg      *config.Config
	search   *search.Service
	cache    *cache.Cache
	stats    *telemetry.Stats
	router   *router.Router
	querylog QueryLogger
	logger   *slog.Logger
	mux      *http.ServeMux
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithQueryLog records every search request in l.
func WithQueryLog(l QueryLogger) Option {
	return func(s *Server) {
		s.querylog = l
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a gateway Server wired with all dependencies.
func New(cfg *config.Config, svc *search.Service, c *cache.Cache, stats *telemetry.Stats, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		search: svc,
		cache:  c,
		stats:  stats,
		router: router.New(cfg),
		logger: slog.Default().With("component", "gateway"),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("/search/nlp-search", s.handleNLPSearch)
	s.mux.HandleFunc("/search/nlp", s.handleProcess)
	s.mux.HandleFunc("/search/tools", s.handleTools)
	s.mux.HandleFunc("/search/search-with-matched-keywords", s.handleMatchedKeywords)
	s.mux.HandleFunc("/search/chat-search", s.handleChatSearch)
	s.mux.HandleFunc("/search/keywords", s.handleKeywords)
	s.mux.HandleFunc("/search/suggest", s.handleSuggest)
	s.mux.HandleFunc("/search/categories", s.handleCategories)
	s.mux.HandleFunc("/search/stats", s.handleStats)
	s.mux.HandleFunc("/search/stats/reset", s.handleStatsReset)
	s.mux.HandleFunc("/search/cache", s.handleCacheStats)
	s.mux.HandleFunc("/search/cache/{action}", s.handleCacheAction)
	s.mux.HandleFunc("/health", s.handleHealth)

	s.handler = s.withRequestID(s.withRecover(s.withTelemetry(s.withCache(s.mux))))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe starts the gateway with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("toolsearch gateway listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// writeServiceError maps a search error onto an HTTP status. Unexpected
// errors are logged and never echoed to the client.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case search.IsInvalidInput(err):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, search.ErrIndexUnconfigured):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "request_id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"toolsearch_error","code":%d}}`, message, code)
}
