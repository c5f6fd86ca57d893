package ai

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
)

// MockEmbeddingService produces deterministic unit-length vectors seeded from
// the input text. The same text always embeds to the same vector, so demo
// mode and tests get stable similarity orderings without a provider.
type MockEmbeddingService struct {
	Dims int
}

// NewMockEmbeddingService creates a mock embedding service with the
// system-wide dimension.
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{Dims: DefaultDimensions}
}

func (s *MockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vector := make([]float32, s.Dims)
	var norm float64
	for i := range vector {
		v := rng.Float64()*2 - 1
		vector[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vector {
			vector[i] = float32(float64(vector[i]) / norm)
		}
	}
	return vector, nil
}

func (s *MockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

func (s *MockEmbeddingService) Dimensions() int {
	return s.Dims
}

// MockLLMService answers with a fixed template. Useful for demo mode and for
// tests that exercise the ask orchestration without a provider.
type MockLLMService struct {
	// Answer overrides the template response when set.
	Answer string
	// Err is returned from Chat when set.
	Err error

	// LastMessages records the most recent Chat input for assertions.
	LastMessages []Message
}

func (s *MockLLMService) Chat(_ context.Context, messages []Message) (string, error) {
	s.LastMessages = messages
	if s.Err != nil {
		return "", s.Err
	}
	if s.Answer != "" {
		return s.Answer, nil
	}
	return fmt.Sprintf("Mock summary over %d messages.", len(messages)), nil
}
