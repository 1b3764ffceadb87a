package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/taaft-ai/toolsearch/pkg/cache"
	"github.com/taaft-ai/toolsearch/pkg/models"
	"github.com/taaft-ai/toolsearch/pkg/telemetry"
)

// Searcher is the subset of the search service exposed as tools.
type Searcher interface {
	NLPSearch(ctx context.Context, question string, hints map[string]any, page, perPage int) (*models.NLPSearchResponse, error)
	MatchedKeywordSearch(ctx context.Context, kws []string, page, perPage int) (*models.KeywordSearchResponse, error)
	Suggest(ctx context.Context, prefix string, limit int) ([]models.Suggestion, error)
}

// Server is a minimal MCP server that communicates over stdio using JSON-RPC 2.0.
type Server struct {
	search   Searcher
	cache    *cache.Cache
	cacheTTL time.Duration
	stats    *telemetry.Stats
	version  string
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCache serves repeated search tool calls from c for ttl.
func WithCache(c *cache.Cache, ttl time.Duration) Option {
	return func(s *Server) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithTelemetry records search tool calls in stats.
func WithTelemetry(stats *telemetry.Stats) Option {
	return func(s *Server) {
		s.stats = stats
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

// New creates a new MCP Server.
func New(search Searcher, version string, opts ...Option) *Server {
	s := &Server{
		search:  search,
		version: version,
		logger:  slog.Default().With("component", "mcp"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads JSON-RPC requests from r line-by-line and writes responses to w.
// It blocks until r is closed or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(w, *replyError(nil, CodeParseError, "parse error"))
			continue
		}

		resp := s.dispatch(ctx, &req)
		if resp == nil {
			continue
		}
		s.writeResponse(w, *resp)
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != jsonrpcVersion || req.Method == "" {
		return replyError(req.ID, CodeInvalidRequest, "invalid request")
	}
	if req.notification() {
		return nil
	}
	switch req.Method {
	case "initialize":
		return reply(req.ID, InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      ServerInfo{Name: "toolsearch", Version: s.version},
			Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
		})
	case "ping":
		return reply(req.ID, struct{}{})
	case "tools/list":
		return reply(req.ID, ToolsListResult{Tools: allTools})
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return replyError(req.ID, CodeMethodNotFound, "unknown method: %s", req.Method)
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return replyError(req.ID, CodeInvalidParams, "invalid params")
	}

	tool, ok := toolHandlers[params.Name]
	if !ok {
		return reply(req.ID, errorResult(fmt.Sprintf("unknown tool: %s", params.Name)))
	}
	if !tool.search {
		return reply(req.ID, tool.handle(ctx, s, params.Arguments))
	}
	return reply(req.ID, s.callSearchTool(ctx, params, tool.handle))
}

// callSearchTool runs a search tool through the result cache and records
// its latency.
func (s *Server) callSearchTool(ctx context.Context, params ToolCallParams, handle toolHandler) ToolCallResult {
	start := time.Now()
	key := ""
	if s.cache != nil && s.cache.Enabled() {
		key = cache.Key("CALL", params.Name, nil, params.Arguments)
		if payload, ok := s.cache.Get(key); ok {
			s.record(start, true, false)
			return textResult(string(payload))
		}
	}

	result := handle(ctx, s, params.Arguments)
	s.record(start, false, result.IsError)
	if key != "" && !result.IsError && len(result.Content) > 0 {
		s.cache.Put(key, []byte(result.Content[0].Text), s.cacheTTL)
	}
	return result
}

func (s *Server) record(start time.Time, cached, failed bool) {
	if s.stats != nil {
		s.stats.Record(time.Since(start), cached, failed)
	}
}

func (s *Server) writeResponse(w io.Writer, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write response", "error", err)
	}
}
