// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr      string
	DBPath          string
	AnthropicAPIKey string
	AnthropicModel  string
	GitHubToken     string
	ProviderTimeout time.Duration
	FallbackScore   int
	BulkWorkers     int
}

// HasProviderCredentials returns true when an Anthropic API key is configured.
// Used by the composition root to decide whether review triggering is enabled.
func (c *Config) HasProviderCredentials() bool {
	return c.AnthropicAPIKey != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// REVIEWDECK_ANTHROPIC_API_KEY and REVIEWDECK_GITHUB_TOKEN are optional; without
// them the server starts but review triggering and subject registration fail with
// provider errors. Optional variables with defaults:
// REVIEWDECK_LISTEN_ADDR (127.0.0.1:8080), REVIEWDECK_DB_PATH (reviewdeck.db),
// REVIEWDECK_ANTHROPIC_MODEL (claude-sonnet-4-5), REVIEWDECK_PROVIDER_TIMEOUT (120s),
// REVIEWDECK_FALLBACK_SCORE (75), REVIEWDECK_BULK_WORKERS (8).
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("REVIEWDECK_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "reviewdeck.db"
	if v, ok := os.LookupEnv("REVIEWDECK_DB_PATH"); ok {
		dbPath = v
	}

	apiKey := os.Getenv("REVIEWDECK_ANTHROPIC_API_KEY")

	modelName := "claude-sonnet-4-5"
	if v, ok := os.LookupEnv("REVIEWDECK_ANTHROPIC_MODEL"); ok && v != "" {
		modelName = v
	}

	githubToken := os.Getenv("REVIEWDECK_GITHUB_TOKEN")

	providerTimeout := 120 * time.Second
	if v, ok := os.LookupEnv("REVIEWDECK_PROVIDER_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("REVIEWDECK_PROVIDER_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("REVIEWDECK_PROVIDER_TIMEOUT must be positive, got %q", v)
		}
		providerTimeout = parsed
	}

	fallbackScore := 75
	if v, ok := os.LookupEnv("REVIEWDECK_FALLBACK_SCORE"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("REVIEWDECK_FALLBACK_SCORE has invalid integer %q: %w", v, err)
		}
		if parsed < 0 || parsed > 100 {
			return nil, fmt.Errorf("REVIEWDECK_FALLBACK_SCORE must be in [0,100], got %d", parsed)
		}
		fallbackScore = parsed
	}

	bulkWorkers := 8
	if v, ok := os.LookupEnv("REVIEWDECK_BULK_WORKERS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("REVIEWDECK_BULK_WORKERS has invalid integer %q: %w", v, err)
		}
		if parsed < 1 {
			return nil, fmt.Errorf("REVIEWDECK_BULK_WORKERS must be at least 1, got %d", parsed)
		}
		bulkWorkers = parsed
	}

	return &Config{
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
		AnthropicAPIKey: apiKey,
		AnthropicModel:  modelName,
		GitHubToken:     githubToken,
		ProviderTimeout: providerTimeout,
		FallbackScore:   fallbackScore,
		BulkWorkers:     bulkWorkers,
	}, nil
}
