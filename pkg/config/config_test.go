package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"LLM_PROVIDER", "MATCH_THRESHOLD", "MATCH_LIMIT", "COMPARISON_LIMIT", "AGENT_HISTORY_SIZE", "AUTH_CREDENTIAL_PREFIX", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 0.4, cfg.Retrieval.MatchThreshold)
	assert.Equal(t, 150, cfg.Retrieval.DefaultLimit)
	assert.Equal(t, 200, cfg.Retrieval.ComparisonLimit)
	assert.Equal(t, 12, cfg.Agent.HistorySize)
	assert.Equal(t, "PRICING_USER_", cfg.Auth.CredentialPrefix)
	assert.Equal(t, "vw_vendas_internas", cfg.Retrieval.InternalView)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("MATCH_THRESHOLD", "0.55")
	t.Setenv("SESSION_TTL_MINUTES", "30")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/pricing")
	t.Setenv("MATCH_DOCUMENTS_FN", "match_docs_v2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 0.55, cfg.Retrieval.MatchThreshold)
	assert.Equal(t, 30*time.Minute, cfg.Redis.SessionTTL)
	assert.Equal(t, "postgres://u:p@db:5432/pricing", cfg.Database.URL)
	assert.Equal(t, "match_docs_v2", cfg.Retrieval.DocumentsFunction)
}
