package ai

import (
	"time"

	"github.com/pkg/errors"

	"github.com/citypulse/pulse/internal/profile"
)

// DefaultDimensions is the system-wide embedding dimension. Every stored item
// embedding, taste profile, and query vector has this length; the vector
// column in PostgreSQL is declared with it.
const DefaultDimensions = 1536

// Config represents AI provider configuration. Both services speak the
// OpenAI API; a compatible provider is selected through the base URL.
type Config struct {
	Enabled bool

	Embedding EmbeddingConfig
	LLM       LLMConfig
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	APIKey     string
	BaseURL    string
	Model      string // text-embedding-3-small
	Dimensions int    // 1536

	Timeout    time.Duration
	MaxRetries int
}

// LLMConfig represents chat completion configuration.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string  // gpt-4o-mini
	MaxTokens   int     // default: 200
	Temperature float32 // default: 0.3

	Timeout    time.Duration
	MaxRetries int
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.AIEnabled,
	}

	if !cfg.Enabled {
		return cfg
	}

	cfg.Embedding = EmbeddingConfig{
		APIKey:     p.AIAPIKey,
		BaseURL:    p.AIBaseURL,
		Model:      p.AIEmbeddingModel,
		Dimensions: DefaultDimensions,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}

	// Summaries are short and neutral; keep the generation tight.
	cfg.LLM = LLMConfig{
		APIKey:      p.AIAPIKey,
		BaseURL:     p.AIBaseURL,
		Model:       p.AIChatModel,
		MaxTokens:   200,
		Temperature: 0.3,
		Timeout:     60 * time.Second,
		MaxRetries:  3,
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return errors.New("embedding dimensions must be positive")
	}
	if c.Embedding.APIKey == "" && c.Embedding.BaseURL == "" {
		return errors.New("embedding API key or base URL is required")
	}
	if c.LLM.Model == "" {
		return errors.New("chat model is required")
	}

	return nil
}
