package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(time.Hour, 2)

	require.True(t, rl.Allow("alice"))
	require.True(t, rl.Allow("alice"))
	require.False(t, rl.Allow("alice"), "burst exhausted")

	// Keys are independent.
	require.True(t, rl.Allow("bob"))
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	require.Equal(t, time.Second, rl.every)
	require.Equal(t, 1, rl.burst)
	require.True(t, rl.Allow("k"))
	require.False(t, rl.Allow("k"))
}
