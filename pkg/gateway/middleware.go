package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/taaft-ai/toolsearch/pkg/cache"
	"github.com/taaft-ai/toolsearch/pkg/models"
)

type stateKey struct{}

// requestState is shared by the middleware layers of one request.
type requestState struct {
	id       string
	body     []byte
	bodyRead bool
	cacheKey string
	cacheHit bool
}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	if st, ok := ctx.Value(stateKey{}).(*requestState); ok {
		return st.id
	}
	return ""
}

func stateFrom(r *http.Request) *requestState {
	if st, ok := r.Context().Value(stateKey{}).(*requestState); ok {
		return st
	}
	return &requestState{}
}

// readBody buffers the request body once and restores it for the next reader.
func readBody(r *http.Request) ([]byte, error) {
	st := stateFrom(r)
	if st.bodyRead {
		r.Body = io.NopCloser(bytes.NewReader(st.body))
		return st.body, nil
	}
	if r.Body == nil {
		st.bodyRead = true
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	r.Body.Close()
	if err != nil {
		return nil, err
	}
	st.body, st.bodyRead = body, true
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// recorder captures the status code and, when keep is set, the body.
type recorder struct {
	http.ResponseWriter
	status int
	keep   bool
	buf    bytes.Buffer
}

func (rw *recorder) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(p []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	if rw.keep {
		rw.buf.Write(p)
	}
	return rw.ResponseWriter.Write(p)
}

func (rw *recorder) code() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), stateKey{}, &requestState{id: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("handler panic", "request_id", RequestID(r.Context()), "path", r.URL.Path, "panic", p)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withTelemetry records latency and outcome of search requests and
// writes their query log entries.
func (s *Server) withTelemetry(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.router.Participates(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		var body []byte
		if s.querylog != nil {
			body, _ = readBody(r)
		}

		rec := &recorder{ResponseWriter: w}
		start := time.Now()
		panicked := true
		defer func() {
			elapsed := time.Since(start)
			st := stateFrom(r)
			status := rec.code()
			if panicked {
				status = http.StatusInternalServerError
			}
			s.stats.Record(elapsed, st.cacheHit, status >= http.StatusBadRequest)
			s.logQuery(r, st, body, status, elapsed)
		}()
		next.ServeHTTP(rec, r)
		panicked = false
	})
}

// withCache serves cacheable requests from the response cache and stores
// successful responses under the route's lifetime.
func (s *Server) withCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cache == nil || !s.cache.Enabled() || !s.router.Cacheable(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		body, err := readBody(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		st := stateFrom(r)
		st.cacheKey = cache.Key(r.Method, r.URL.Path, r.URL.Query(), body)
		if payload, ok := s.cache.Get(st.cacheKey); ok {
			st.cacheHit = true
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			w.WriteHeader(http.StatusOK)
			w.Write(payload)
			return
		}

		w.Header().Set("X-Cache", "miss")
		rec := &recorder{ResponseWriter: w, keep: true}
		next.ServeHTTP(rec, r)
		if rec.code() == http.StatusOK {
			s.cache.Put(st.cacheKey, rec.buf.Bytes(), s.router.TTLFor(r.URL.Path))
		}
	})
}

func (s *Server) logQuery(r *http.Request, st *requestState, body []byte, status int, elapsed time.Duration) {
	if s.querylog == nil {
		return
	}
	entry := models.QueryLogEntry{
		RequestID:  st.id,
		Method:     r.Method,
		Path:       r.URL.Path,
		RouteClass: string(s.router.Classify(r.URL.Path)),
		CacheKey:   st.cacheKey,
		Body:       string(body),
		StatusCode: status,
		CacheHit:   st.cacheHit,
		LatencyMs:  elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	go func() {
		if err := s.querylog.Log(context.Background(), entry); err != nil {
			s.logger.Warn("query log write failed", "request_id", entry.RequestID, "error", err)
		}
	}()
}
