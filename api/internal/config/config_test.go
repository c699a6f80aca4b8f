package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "OPENROUTER_API_KEY", "OPENROUTER_MODEL", "SOLVE_MAX_TOKENS", "SOLVE_TEMPERATURE", "REQUEST_TIMEOUT_SEC"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "openai/gpt-4o", cfg.OpenRouterModel)
	assert.Equal(t, "https://openrouter.ai/api/v1/chat/completions", cfg.OpenRouterURL)
	assert.Equal(t, 2000, cfg.MaxTokens)
	assert.InDelta(t, 0.3, cfg.Temperature, 1e-6)
	assert.Equal(t, 180*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "School Task Solver", cfg.Title)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("SOLVE_MAX_TOKENS", "512")
	t.Setenv("SOLVE_TEMPERATURE", "0.7")
	t.Setenv("REQUEST_TIMEOUT_SEC", "nope")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Temperature, 1e-6)
	assert.Equal(t, 180*time.Second, cfg.RequestTimeout)
}

func TestRequire(t *testing.T) {
	cfg := &Config{OpenRouterAPIKey: "sk-or-v1-test"}
	require.NoError(t, cfg.Require("OPENROUTER_API_KEY"))

	err := cfg.Require("OPENROUTER_API_KEY", "TELEGRAM_BOT_TOKEN", "GEMINI_API_KEY")
	require.Error(t, err)
	assert.Equal(t, "missing required env TELEGRAM_BOT_TOKEN, GEMINI_API_KEY", err.Error())
}

func TestInitLogger(t *testing.T) {
	l, err := InitLogger("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))

	l, err = InitLogger("bogus")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1))
	Cleanup()
}
