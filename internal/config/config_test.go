package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "reviewdeck.db", cfg.DBPath)
	assert.Equal(t, "claude-sonnet-4-5", cfg.AnthropicModel)
	assert.Equal(t, 120*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 75, cfg.FallbackScore)
	assert.Equal(t, 8, cfg.BulkWorkers)
	assert.False(t, cfg.HasProviderCredentials())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REVIEWDECK_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("REVIEWDECK_DB_PATH", "/data/rd.db")
	t.Setenv("REVIEWDECK_ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("REVIEWDECK_ANTHROPIC_MODEL", "claude-opus-4-5")
	t.Setenv("REVIEWDECK_GITHUB_TOKEN", "ghp_test")
	t.Setenv("REVIEWDECK_PROVIDER_TIMEOUT", "45s")
	t.Setenv("REVIEWDECK_FALLBACK_SCORE", "50")
	t.Setenv("REVIEWDECK_BULK_WORKERS", "16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/data/rd.db", cfg.DBPath)
	assert.Equal(t, "sk-test", cfg.AnthropicAPIKey)
	assert.Equal(t, "claude-opus-4-5", cfg.AnthropicModel)
	assert.Equal(t, "ghp_test", cfg.GitHubToken)
	assert.Equal(t, 45*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 50, cfg.FallbackScore)
	assert.Equal(t, 16, cfg.BulkWorkers)
	assert.True(t, cfg.HasProviderCredentials())
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("REVIEWDECK_PROVIDER_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("REVIEWDECK_PROVIDER_TIMEOUT", "-5s")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_InvalidFallbackScore(t *testing.T) {
	t.Setenv("REVIEWDECK_FALLBACK_SCORE", "many")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("REVIEWDECK_FALLBACK_SCORE", "150")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_InvalidBulkWorkers(t *testing.T) {
	t.Setenv("REVIEWDECK_BULK_WORKERS", "0")
	_, err := Load()
	assert.Error(t, err)
}
