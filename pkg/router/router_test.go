package router

import (
	"testing"
	"time"

	"github.com/taaft-ai/toolsearch/pkg/config"
)

func TestTTLFor(t *testing.T) {
	r := New(config.Default())
	tests := []struct {
		path string
		want time.Duration
	}{
		{"/search/nlp-search", 60 * time.Second},
		{"/search/nlp", 60 * time.Second},
		{"/search/chat-search", 60 * time.Second},
		{"/search/suggest", 120 * time.Second},
		{"/api/autocomplete", 120 * time.Second},
		{"/search/categories", 600 * time.Second},
		{"/content/glossary", 600 * time.Second},
		{"/search/tools", 300 * time.Second},
		{"/unmatched/path", 300 * time.Second},
	}
	for _, tt := range tests {
		if got := r.TTLFor(tt.path); got != tt.want {
			t.Errorf("TTLFor(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestTTLForUsesConfiguredDefault(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.TTL.Default = 42 * time.Second
	r := New(cfg)
	if got := r.TTLFor("/search/tools"); got != 42*time.Second {
		t.Errorf("expected configured default, got %v", got)
	}
}

func TestClassify(t *testing.T) {
	r := New(config.Default())
	if c := r.Classify("/search/NLP-search"); c != ClassConversational {
		t.Errorf("expected conversational, got %s", c)
	}
	if c := r.Classify("/search/taxonomy"); c != ClassTaxonomy {
		t.Errorf("expected taxonomy, got %s", c)
	}
	if c := r.Classify("/search/keywords"); c != ClassDefault {
		t.Errorf("expected default, got %s", c)
	}
}

func TestParticipates(t *testing.T) {
	r := New(config.Default())
	for _, p := range []string{"/search/nlp-search", "/search/tools", "/search/search-with-matched-keywords", "/search/keywords"} {
		if !r.Participates(p) {
			t.Errorf("expected %s to participate", p)
		}
	}
	for _, p := range []string{"/search/stats", "/search/cache/clear", "/healthz", "/users/1"} {
		if r.Participates(p) {
			t.Errorf("expected %s to bypass", p)
		}
	}
}

func TestCacheable(t *testing.T) {
	r := New(config.Default())
	if !r.Cacheable("GET", "/search/tools") {
		t.Error("GET /search/tools should be cacheable")
	}
	if !r.Cacheable("POST", "/search/nlp-search") {
		t.Error("POST /search/nlp-search should be cacheable")
	}
	for _, m := range []string{"PUT", "DELETE", "PATCH"} {
		if r.Cacheable(m, "/search/tools") {
			t.Errorf("%s should never be cacheable", m)
		}
	}
	if r.Cacheable("GET", "/search/stats") {
		t.Error("stats should bypass the cache")
	}
}
