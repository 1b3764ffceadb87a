package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	s := New(WithSlowThreshold(time.Second), WithReportEvery(0))
	s.Record(200*time.Millisecond, false, false)
	s.Record(100*time.Millisecond, true, false)
	s.Record(2*time.Second, false, true)

	r := s.Snapshot()
	assert.Equal(t, int64(3), r.TotalRequests)
	assert.Equal(t, int64(1), r.CachedRequests)
	assert.Equal(t, int64(2), r.UncachedRequests)
	assert.Equal(t, int64(1), r.SlowRequests)
	assert.Equal(t, int64(1), r.ErrorRequests)
	assert.InDelta(t, 2.3, r.TotalResponseTime, 1e-9)
	assert.InDelta(t, 0.1, r.CachedResponseTime, 1e-9)
	assert.InDelta(t, 2.3/3, r.AvgResponseTime, 1e-9)
	assert.InDelta(t, 0.1, r.AvgCachedResponseTime, 1e-9)
	assert.InDelta(t, 1.1, r.AvgUncachedResponseTime, 1e-9)
	assert.InDelta(t, 1.0/3, r.CacheHitRatio, 1e-9)
	assert.InDelta(t, 1.0/3, r.ErrorRate, 1e-9)
}

func TestSnapshotEmpty(t *testing.T) {
	r := New().Snapshot()
	assert.Zero(t, r.TotalRequests)
	assert.Zero(t, r.AvgResponseTime)
	assert.Zero(t, r.AvgCachedResponseTime)
	assert.Zero(t, r.AvgUncachedResponseTime)
	assert.Zero(t, r.CacheHitRatio)
	assert.Zero(t, r.ErrorRate)
}

func TestMonotonicAndReset(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return now }), WithReportEvery(0))
	first := s.Snapshot().LastReset

	var prevCount int64
	var prevTime float64
	for i := 0; i < 10; i++ {
		s.Record(time.Duration(i)*time.Millisecond, i%2 == 0, false)
		r := s.Snapshot()
		assert.Greater(t, r.TotalRequests, prevCount)
		assert.GreaterOrEqual(t, r.TotalResponseTime, prevTime)
		prevCount, prevTime = r.TotalRequests, r.TotalResponseTime
	}

	now = now.Add(time.Hour)
	s.Reset()
	r := s.Snapshot()
	assert.Zero(t, r.TotalRequests)
	assert.Zero(t, r.CachedRequests)
	assert.Zero(t, r.SlowRequests)
	assert.Zero(t, r.ErrorRequests)
	assert.Zero(t, r.TotalResponseTime)
	assert.Zero(t, r.CachedResponseTime)
	assert.True(t, r.LastReset.After(first))
	assert.Equal(t, "0s", r.Uptime)
}

func TestFlushEveryN(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := New(WithReportEvery(3), WithLogger(logger))

	s.Record(time.Millisecond, false, false)
	s.Record(time.Millisecond, true, false)
	assert.Equal(t, 2, s.windowSize())
	assert.Empty(t, buf.String())

	s.Record(time.Millisecond, false, false)
	assert.Equal(t, 0, s.windowSize())
	assert.Contains(t, buf.String(), "request summary")
	assert.Contains(t, buf.String(), "requests=3")

	// lifetime counters survive the window flush
	assert.Equal(t, int64(3), s.Snapshot().TotalRequests)
}

func TestFlushEmptyWindowIsSilent(t *testing.T) {
	var buf bytes.Buffer
	s := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	s.Flush()
	assert.Empty(t, buf.String())
}

func TestRunFlushesOnInterval(t *testing.T) {
	s := New(WithReportEvery(0))
	s.Record(time.Millisecond, false, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 5*time.Millisecond) }()

	assert.Eventually(t, func() bool { return s.windowSize() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestConcurrentRecordAndReset(t *testing.T) {
	s := New(WithReportEvery(7))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				s.Record(time.Microsecond, j%3 == 0, j%5 == 0)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			s.Reset()
			_ = s.Snapshot()
		}
	}()
	wg.Wait()

	r := s.Snapshot()
	assert.LessOrEqual(t, r.TotalRequests, int64(4000))
	assert.LessOrEqual(t, r.CachedRequests, r.TotalRequests)
}
