package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainText(t *testing.T) {
	svc := NewService()

	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "plain text passes through",
			source:   "crowd gathering at the fountain",
			expected: "crowd gathering at the fountain",
		},
		{
			name:     "emphasis and links stripped",
			source:   "**huge** crowd at [the park](https://example.com) tonight",
			expected: "huge crowd at the park tonight",
		},
		{
			name:     "headings and lists flattened",
			source:   "# Live\n\n- food trucks\n- street music",
			expected: "Live food trucks street music",
		},
		{
			name:     "line breaks collapse to spaces",
			source:   "first line\nsecond line",
			expected: "first line second line",
		},
		{
			name:     "empty input",
			source:   "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, svc.PlainText(tt.source))
		})
	}
}
