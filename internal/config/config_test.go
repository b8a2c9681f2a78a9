package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("INGEST_SECRET", "test-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 0.5, cfg.ConfidenceThreshold)
	assert.Equal(t, 0.45, cfg.WeightSimilarity)
	assert.Equal(t, 0.35, cfg.WeightLexical)
	assert.Equal(t, 0.20, cfg.WeightLLMSelf)
	assert.True(t, cfg.QueryCacheEnabled)
}

func TestLoadConfigMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("INGEST_SECRET", "test-secret")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadConfigMissingIngestSecret(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("INGEST_SECRET", "")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INGEST_SECRET")
}

func TestLoadConfigRejectsOverlapAtOrAboveChunkSize(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CHUNK_SIZE", "100")
	t.Setenv("CHUNK_OVERLAP", "100")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHUNK_OVERLAP")
}

func TestLoadConfigRejectsWeightsNotSummingToOne(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WEIGHT_SIMILARITY", "0.5")
	t.Setenv("WEIGHT_LEXICAL", "0.5")
	t.Setenv("WEIGHT_LLM_SELF", "0.5")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights")
}

func TestLoadConfigCustomWeights(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WEIGHT_SIMILARITY", "0.6")
	t.Setenv("WEIGHT_LEXICAL", "0.3")
	t.Setenv("WEIGHT_LLM_SELF", "0.1")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.WeightSimilarity)
}
