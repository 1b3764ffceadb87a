package models

import "time"

// QueryLogEntry represents a single logged search request.
type QueryLogEntry struct {
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	RouteClass string    `json:"route_class"`
	CacheKey   string    `json:"cache_key,omitempty"`
	Body       string    `json:"body,omitempty"`
	StatusCode int       `json:"status_code"`
	CacheHit   bool      `json:"cache_hit"`
	LatencyMs  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// QueryLogConfig controls the search query log.
type QueryLogConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
	MaxBodySize   int    `yaml:"max_body_size"` // bytes
}

// QueryLogOpts specifies filters for querying logged searches.
type QueryLogOpts struct {
	Path      string
	Since     time.Time
	RequestID string
	CacheHit  *bool
	Limit     int
}

// QueryLogStat holds aggregate counts for a route/day combination.
type QueryLogStat struct {
	Path         string
	Day          string
	Count        int
	CacheHits    int
	AvgLatencyMs float64
}
