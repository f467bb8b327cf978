package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "PORT", "CHUNK_SIZE", "CHUNK_OVERLAP", "TOP_K",
		"CONTEXT_BUDGET_CHARS", "MAX_PROMPT_CHARS",
		"SEARCH_TIMEOUT_SECONDS", "GENERATION_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 8, cfg.TopK)
	assert.Equal(t, 7000, cfg.ContextBudget)
	assert.Equal(t, 24000, cfg.MaxPromptChars)
	assert.Equal(t, 30*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 60*time.Second, cfg.GenerationTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CHUNK_SIZE", "512")
	t.Setenv("SEARCH_TIMEOUT_SECONDS", "5")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 512, cfg.ChunkSize)
	assert.Equal(t, 5*time.Second, cfg.SearchTimeout)
}

func TestLoadIgnoresMalformedInts(t *testing.T) {
	t.Setenv("TOP_K", "not-a-number")
	cfg := Load()
	assert.Equal(t, 8, cfg.TopK)
}
