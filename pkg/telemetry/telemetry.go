// Package telemetry tracks request latency, cache effectiveness and errors
// for the search routes.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taaft-ai/toolsearch/pkg/models"
)

// Stats holds lifetime request counters plus a rolling window that is
// summarized to the log and then cleared. Record calls share the read lock;
// Reset and Snapshot take the write lock so they observe a consistent set of
// counters.
type Stats struct {
	mu          sync.RWMutex
	total       atomic.Int64
	cached      atomic.Int64
	slow        atomic.Int64
	failed      atomic.Int64
	totalNanos  atomic.Int64
	cachedNanos atomic.Int64
	lastReset   time.Time

	windowMu sync.Mutex
	window   window

	slowThreshold time.Duration
	reportEvery   int
	now           func() time.Time
	logger        *slog.Logger
}

type window struct {
	requests    int
	cached      int
	elapsed     time.Duration
	cachedTotal time.Duration
}

// Option configures Stats.
type Option func(*Stats)

// WithSlowThreshold sets the latency above which a request counts as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(s *Stats) {
		if d > 0 {
			s.slowThreshold = d
		}
	}
}

// WithReportEvery flushes the rolling window after n requests. Zero
// disables count-based flushing.
func WithReportEvery(n int) Option {
	return func(s *Stats) {
		if n >= 0 {
			s.reportEvery = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Stats) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stats) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates zeroed Stats.
func New(opts ...Option) *Stats {
	s := &Stats{
		slowThreshold: time.Second,
		reportEvery:   100,
		now:           time.Now,
		logger:        slog.Default().With("component", "telemetry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastReset = s.now()
	return s
}

// Record adds one completed request.
func (s *Stats) Record(elapsed time.Duration, cached, failed bool) {
	if elapsed < 0 {
		elapsed = 0
	}

	s.mu.RLock()
	s.total.Add(1)
	s.totalNanos.Add(int64(elapsed))
	if cached {
		s.cached.Add(1)
		s.cachedNanos.Add(int64(elapsed))
	}
	if elapsed > s.slowThreshold {
		s.slow.Add(1)
	}
	if failed {
		s.failed.Add(1)
	}
	s.mu.RUnlock()

	s.windowMu.Lock()
	s.window.requests++
	s.window.elapsed += elapsed
	if cached {
		s.window.cached++
		s.window.cachedTotal += elapsed
	}
	full := s.reportEvery > 0 && s.window.requests >= s.reportEvery
	s.windowMu.Unlock()

	if full {
		s.Flush()
	}
}

// Snapshot returns the lifetime counters with derived averages and ratios.
// Response times are in seconds.
func (s *Stats) Snapshot() models.PerformanceReport {
	s.mu.Lock()
	total := s.total.Load()
	cached := s.cached.Load()
	slow := s.slow.Load()
	failed := s.failed.Load()
	totalTime := time.Duration(s.totalNanos.Load()).Seconds()
	cachedTime := time.Duration(s.cachedNanos.Load()).Seconds()
	lastReset := s.lastReset
	s.mu.Unlock()

	uncached := total - cached
	return models.PerformanceReport{
		TotalRequests:           total,
		CachedRequests:          cached,
		UncachedRequests:        uncached,
		SlowRequests:            slow,
		ErrorRequests:           failed,
		TotalResponseTime:       totalTime,
		CachedResponseTime:      cachedTime,
		AvgResponseTime:         ratio(totalTime, total),
		AvgCachedResponseTime:   ratio(cachedTime, cached),
		AvgUncachedResponseTime: ratio(totalTime-cachedTime, uncached),
		CacheHitRatio:           ratio(float64(cached), total),
		SlowRequestRatio:        ratio(float64(slow), total),
		ErrorRate:               ratio(float64(failed), total),
		LastReset:               lastReset,
		Uptime:                  s.now().Sub(lastReset).Round(time.Second).String(),
	}
}

// Reset zeroes every counter and the rolling window.
func (s *Stats) Reset() {
	s.mu.Lock()
	s.total.Store(0)
	s.cached.Store(0)
	s.slow.Store(0)
	s.failed.Store(0)
	s.totalNanos.Store(0)
	s.cachedNanos.Store(0)
	s.lastReset = s.now()
	s.mu.Unlock()

	s.windowMu.Lock()
	s.window = window{}
	s.windowMu.Unlock()
}

// Flush logs a summary of the rolling window and clears it. An empty window
// logs nothing.
func (s *Stats) Flush() {
	s.windowMu.Lock()
	w := s.window
	s.window = window{}
	s.windowMu.Unlock()

	if w.requests == 0 {
		return
	}
	uncached := w.requests - w.cached
	s.logger.Info("request summary",
		"requests", w.requests,
		"cached", w.cached,
		"uncached", uncached,
		"avg_ms", avgMillis(w.elapsed, w.requests),
		"avg_cached_ms", avgMillis(w.cachedTotal, w.cached),
		"avg_uncached_ms", avgMillis(w.elapsed-w.cachedTotal, uncached),
	)
}

// Run flushes the rolling window every interval until ctx is cancelled.
func (s *Stats) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Flush()
		}
	}
}

func (s *Stats) windowSize() int {
	s.windowMu.Lock()
	defer s.windowMu.Unlock()
	return s.window.requests
}

func ratio(num float64, den int64) float64 {
	if den == 0 {
		return 0
	}
	return num / float64(den)
}

func avgMillis(d time.Duration, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(d.Milliseconds()) / float64(n)
}
