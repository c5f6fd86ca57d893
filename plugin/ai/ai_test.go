package ai

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/citypulse/pulse/internal/profile"
)

func TestNewConfigFromProfileDisabled(t *testing.T) {
	cfg := NewConfigFromProfile(&profile.Profile{})
	require.False(t, cfg.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromProfileEnabled(t *testing.T) {
	cfg := NewConfigFromProfile(&profile.Profile{
		AIEnabled:        true,
		AIAPIKey:         "sk-test",
		AIBaseURL:        "https://api.openai.com/v1",
		AIEmbeddingModel: "text-embedding-3-small",
		AIChatModel:      "gpt-4o-mini",
	})

	require.True(t, cfg.Enabled)
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultDimensions, cfg.Embedding.Dimensions)
	require.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestConfigValidateMissingModel(t *testing.T) {
	cfg := &Config{
		Enabled: true,
		Embedding: EmbeddingConfig{
			APIKey:     "sk-test",
			Dimensions: DefaultDimensions,
		},
	}
	require.Error(t, cfg.Validate())
}

func TestMockEmbeddingDeterministic(t *testing.T) {
	svc := NewMockEmbeddingService()
	ctx := context.Background()

	a1, err := svc.Embed(ctx, "street food in queens")
	require.NoError(t, err)
	a2, err := svc.Embed(ctx, "street food in queens")
	require.NoError(t, err)
	b, err := svc.Embed(ctx, "jazz in harlem")
	require.NoError(t, err)

	require.Equal(t, a1, a2)
	require.NotEqual(t, a1, b)
	require.Len(t, a1, DefaultDimensions)

	var norm float64
	for _, v := range a1 {
		norm += float64(v) * float64(v)
	}
	require.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestMockLLMRecordsMessages(t *testing.T) {
	svc := &MockLLMService{Answer: "nothing to report"}

	answer, err := svc.Chat(context.Background(), []Message{
		{Role: "system", Content: "summarize"},
		{Role: "user", Content: "what is happening"},
	})

	require.NoError(t, err)
	require.Equal(t, "nothing to report", answer)
	require.Len(t, svc.LastMessages, 2)
}
