package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearAIEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PULSE_AI_ENABLED",
		"PULSE_AI_API_KEY",
		"PULSE_AI_BASE_URL",
		"PULSE_AI_EMBEDDING_MODEL",
		"PULSE_AI_CHAT_MODEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearAIEnvVars(t)

	p := &Profile{}
	p.FromEnv()

	require.False(t, p.AIEnabled)
	require.Equal(t, "https://api.openai.com/v1", p.AIBaseURL)
	require.Equal(t, "text-embedding-3-small", p.AIEmbeddingModel)
	require.Equal(t, "gpt-4o-mini", p.AIChatModel)
}

func TestFromEnvOverrides(t *testing.T) {
	clearAIEnvVars(t)
	t.Setenv("PULSE_AI_ENABLED", "true")
	t.Setenv("PULSE_AI_API_KEY", "sk-test")
	t.Setenv("PULSE_AI_CHAT_MODEL", "gpt-4o")

	p := &Profile{}
	p.FromEnv()

	require.True(t, p.AIEnabled)
	require.True(t, p.IsAIEnabled())
	require.Equal(t, "sk-test", p.AIAPIKey)
	require.Equal(t, "gpt-4o", p.AIChatModel)
}

func TestIsAIEnabledRequiresCredentials(t *testing.T) {
	p := &Profile{AIEnabled: true}
	require.False(t, p.IsAIEnabled())

	p.AIAPIKey = "sk-test"
	require.True(t, p.IsAIEnabled())
}

func TestValidateDefaultsSQLiteDSN(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{
		Mode:   "dev",
		Data:   dir,
		Driver: "sqlite",
	}

	require.NoError(t, p.Validate())
	require.Equal(t, filepath.Join(dir, "pulse_dev.db"), p.DSN)
}

func TestValidateNormalizesUnknownMode(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{
		Mode:   "staging",
		Data:   dir,
		Driver: "sqlite",
	}

	require.NoError(t, p.Validate())
	require.Equal(t, "demo", p.Mode)
}
