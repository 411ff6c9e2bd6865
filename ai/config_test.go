package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://example:11434"),
		WithEmbeddingModel("mxbai-embed-large"),
		WithMaxRetries(5),
		WithRetryDelay(2*time.Second),
		WithRequestTimeout(time.Minute),
	)

	assert.Equal(t, "http://example:11434", cfg.Host)
	assert.Equal(t, "mxbai-embed-large", cfg.EmbeddingModel)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Equal(t, time.Minute, cfg.RequestTimeout)
}

func TestNormalizeTrimsTrailingSlash(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434/"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434", cfg.Host)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty host", func(c *Config) { c.Host = "" }},
		{"empty model", func(c *Config) { c.EmbeddingModel = "" }},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }},
		{"negative delay", func(c *Config) { c.RetryDelay = -time.Second }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
