package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, time.Minute, cfg.Cache.TTL.Conversational)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL.Taxonomy)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL.Default)
	assert.Equal(t, 15, cfg.Keywords.MaxKeywords)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_ALGOLIA_KEY", "algolia-secret")

	content := `
listen: ":9090"
index:
  backend: algolia
  app_id: APP123
  api_key: ${TEST_ALGOLIA_KEY}
  index_name: tools_prod
cache:
  enabled: true
  ttl:
    conversational: 30s
    default: 10m
telemetry:
  slow_threshold: 500ms
query_log:
  enabled: true
  retention_days: 7
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, BackendAlgolia, cfg.Index.Backend)
	assert.Equal(t, "algolia-secret", cfg.Index.APIKey, "env var not expanded")
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL.Conversational)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL.Default)
	// untouched keys keep their defaults
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL.Suggest)
	assert.Equal(t, 500*time.Millisecond, cfg.Telemetry.SlowThreshold)
	assert.True(t, cfg.QueryLog.Enabled)
	assert.Equal(t, 7, cfg.QueryLog.RetentionDays)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index:\n  backend: elastic\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown index backend")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Search.MaxPerPage = 5
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Cache.TTL.Suggest = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Index.Backend = ""
	assert.NoError(t, cfg.Validate())
}
