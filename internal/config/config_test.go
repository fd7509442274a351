package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SESSION_STORE", "SESSION_TTL_HOURS", "PRICE_INPUT_PER_MILLION", "PRICE_OUTPUT_PER_MILLION"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.CredentialTTL)
	assert.Equal(t, 1.25, cfg.Pricing.InputPerMillion)
	assert.Equal(t, 10.00, cfg.Pricing.OutputPerMillion)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("SESSION_TTL_HOURS", "2")
	t.Setenv("PRICE_OUTPUT_PER_MILLION", "12.5")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 12.5, cfg.Pricing.OutputPerMillion)
	assert.Equal(t, "ollama", cfg.Ai.LLMProvider)
	assert.True(t, cfg.IsProduction())
}
