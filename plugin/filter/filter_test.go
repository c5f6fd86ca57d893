package filter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/citypulse/pulse/store"
)

func TestNewRejectsInvalidExpressions(t *testing.T) {
	tests := []struct {
		name       string
		expression string
	}{
		{"syntax error", "tags in in"},
		{"unknown variable", "rating > 3"},
		{"non-boolean result", "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.expression)
			require.ErrorIs(t, err, ErrInvalidExpression)
		})
	}
}

func TestMatch(t *testing.T) {
	item := &store.Item{
		Title:       "Night market opening",
		Tags:        []string{"food", "market"},
		Zone:        store.ZoneQueens,
		ZoneSource:  store.ZoneSourceManual,
		CreatorID:   "creator-1",
		DurationSec: 42,
	}

	tests := []struct {
		name       string
		expression string
		expected   bool
	}{
		{"tag membership", `'food' in tags`, true},
		{"tag absent", `'sports' in tags`, false},
		{"title contains", `title.contains('market')`, true},
		{"duration bound", `duration_sec < 60.0`, true},
		{"zone match", `zone == 'queens'`, true},
		{"conjunction", `'market' in tags && zone_source == 'manual'`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.expression)
			require.NoError(t, err)

			matched, err := f.Match(item)
			require.NoError(t, err)
			require.Equal(t, tt.expected, matched)
		})
	}
}

func TestMatchNilTags(t *testing.T) {
	f, err := New(`size(tags) == 0`)
	require.NoError(t, err)

	matched, err := f.Match(&store.Item{})
	require.NoError(t, err)
	require.True(t, matched)
}
