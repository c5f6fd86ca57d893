package sqlite

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// placeholder returns a placeholder for SQLite (uses ?)
func placeholder(int) string {
	return "?"
}

// placeholders returns n placeholders for SQLite
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// marshalFloats JSON-encodes a vector for storage in a TEXT column.
func marshalFloats(v []float32) (string, error) {
	if v == nil {
		v = []float32{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal vector")
	}
	return string(raw), nil
}

// unmarshalFloats decodes a JSON-encoded vector.
func unmarshalFloats(raw string) ([]float32, error) {
	if raw == "" {
		return []float32{}, nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal vector")
	}
	return v, nil
}

// marshalTags JSON-encodes a tag list for storage in a TEXT column.
func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal tags")
	}
	return string(raw), nil
}

// unmarshalTags decodes a JSON-encoded tag list.
func unmarshalTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal tags")
	}
	return tags, nil
}

// cosineSimilarity returns the cosine similarity of two vectors in [-1, 1].
// Zero-magnitude or mismatched vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
