package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/taaft-ai/toolsearch/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config holds all toolsearch configuration.
type Config struct {
	Listen    string                `yaml:"listen"`
	Index     IndexConfig           `yaml:"index"`
	LLM       LLMConfig             `yaml:"llm"`
	Cache     CacheConfig           `yaml:"cache"`
	Telemetry TelemetryConfig       `yaml:"telemetry"`
	Keywords  KeywordsConfig        `yaml:"keywords"`
	Search    SearchConfig          `yaml:"search"`
	QueryLog  models.QueryLogConfig `yaml:"query_log"`
}

// Index backends.
const (
	BackendSQLite  = "sqlite"
	BackendAlgolia = "algolia"
)

// IndexConfig selects and configures the search index backend.
// An empty Backend leaves the index unconfigured; search endpoints then
// answer 503 and the index client degrades to empty results.
type IndexConfig struct {
	Backend   string        `yaml:"backend"`
	Path      string        `yaml:"path"`
	AppID     string        `yaml:"app_id"`
	APIKey    string        `yaml:"api_key"`
	IndexName string        `yaml:"index_name"`
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LLMConfig configures the optional question classifier.
// BaseURL must point at an OpenAI-compatible API.
type LLMConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	MaxEntries    int           `yaml:"max_entries"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	TTL           TTLConfig     `yaml:"ttl"`
}

// TTLConfig holds the cache lifetime of each route class.
type TTLConfig struct {
	Conversational time.Duration `yaml:"conversational"`
	Suggest        time.Duration `yaml:"suggest"`
	Taxonomy       time.Duration `yaml:"taxonomy"`
	Default        time.Duration `yaml:"default"`
}

// TelemetryConfig controls request performance tracking.
type TelemetryConfig struct {
	SlowThreshold  time.Duration `yaml:"slow_threshold"`
	ReportInterval time.Duration `yaml:"report_interval"`
	ReportEvery    int           `yaml:"report_every"`
}

// KeywordsConfig controls keyword extraction and the known-keyword store.
type KeywordsConfig struct {
	Path         string  `yaml:"path"`
	InMemory     bool    `yaml:"in_memory"`
	MaxKeywords  int     `yaml:"max_keywords"`
	MaxExpanded  int     `yaml:"max_expanded"`
	MaxMessages  int     `yaml:"max_messages"`
	RepeatFactor float64 `yaml:"repeat_factor"`
}

// SearchConfig controls pagination defaults.
type SearchConfig struct {
	DefaultPerPage int `yaml:"default_per_page"`
	MaxPerPage     int `yaml:"max_per_page"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Index: IndexConfig{
			Backend:   BackendSQLite,
			Path:      "toolsearch.db",
			IndexName: "tools",
			Timeout:   5 * time.Second,
		},
		LLM: LLMConfig{
			Enabled: false,
			BaseURL: "http://localhost:11434/v1",
			APIKey:  "none",
			Model:   "qwen2.5:3b",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:       true,
			MaxEntries:    10000,
			SweepInterval: time.Minute,
			TTL: TTLConfig{
				Conversational: time.Minute,
				Suggest:        2 * time.Minute,
				Taxonomy:       10 * time.Minute,
				Default:        5 * time.Minute,
			},
		},
		Telemetry: TelemetryConfig{
			SlowThreshold:  time.Second,
			ReportInterval: time.Minute,
			ReportEvery:    100,
		},
		Keywords: KeywordsConfig{
			Path:         "keywords",
			MaxKeywords:  15,
			MaxExpanded:  20,
			MaxMessages:  5,
			RepeatFactor: 4,
		},
		Search: SearchConfig{
			DefaultPerPage: 20,
			MaxPerPage:     100,
		},
		QueryLog: models.QueryLogConfig{
			Enabled:       false,
			DBPath:        "querylog.db",
			RetentionDays: 30,
			MaxBodySize:   2048,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Index.Backend {
	case "", BackendSQLite, BackendAlgolia:
	default:
		return fmt.Errorf("config: unknown index backend %q", c.Index.Backend)
	}
	ttl := c.Cache.TTL
	if ttl.Conversational <= 0 || ttl.Suggest <= 0 || ttl.Taxonomy <= 0 || ttl.Default <= 0 {
		return errors.New("config: cache ttls must be positive")
	}
	if c.Cache.SweepInterval <= 0 {
		return errors.New("config: cache sweep_interval must be positive")
	}
	if c.Cache.MaxEntries <= 0 {
		return errors.New("config: cache max_entries must be positive")
	}
	if c.Telemetry.ReportInterval <= 0 {
		return errors.New("config: telemetry report_interval must be positive")
	}
	if c.Search.DefaultPerPage <= 0 || c.Search.MaxPerPage < c.Search.DefaultPerPage {
		return errors.New("config: search max_per_page must be >= default_per_page > 0")
	}
	if c.Keywords.MaxKeywords <= 0 || c.Keywords.MaxExpanded <= 0 {
		return errors.New("config: keyword caps must be positive")
	}
	return nil
}
