package models

import "time"

// CacheEntry is a cached response payload.
type CacheEntry struct {
	Payload   []byte        `json:"payload"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
}

// CacheStats reports response cache state.
type CacheStats struct {
	Enabled   bool  `json:"enabled"`
	Entries   int64 `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// PerformanceReport is the derived view of the request telemetry counters.
type PerformanceReport struct {
	TotalRequests           int64     `json:"total_requests"`
	CachedRequests          int64     `json:"cached_requests"`
	UncachedRequests        int64     `json:"uncached_requests"`
	SlowRequests            int64     `json:"slow_requests"`
	ErrorRequests           int64     `json:"error_requests"`
	TotalResponseTime       float64   `json:"total_response_time"`
	CachedResponseTime      float64   `json:"cached_response_time"`
	AvgResponseTime         float64   `json:"avg_response_time"`
	AvgCachedResponseTime   float64   `json:"avg_cached_response_time"`
	AvgUncachedResponseTime float64   `json:"avg_uncached_response_time"`
	CacheHitRatio           float64   `json:"cache_hit_ratio"`
	SlowRequestRatio        float64   `json:"slow_request_ratio"`
	ErrorRate               float64   `json:"error_rate"`
	LastReset               time.Time `json:"last_reset"`
	Uptime                  string    `json:"uptime_since_reset"`
}
