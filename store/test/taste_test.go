package test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/citypulse/pulse/store"
)

func TestTasteProfileAbsentForNewUser(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	profile, err := ts.GetTasteProfile(ctx, &store.FindTasteProfile{UserID: "nobody"})
	require.NoError(t, err)
	require.Nil(t, profile)
}

func TestApplyPositiveEngagementRunningMean(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	profile, err := ts.ApplyPositiveEngagement(ctx, "user-1", []float32{1, 0})
	require.NoError(t, err)
	require.EqualValues(t, 1, profile.N)
	require.Equal(t, []float32{1, 0}, profile.Embedding)

	profile, err = ts.ApplyPositiveEngagement(ctx, "user-1", []float32{0, 1})
	require.NoError(t, err)
	require.EqualValues(t, 2, profile.N)
	require.InDelta(t, 0.5, profile.Embedding[0], 1e-6)
	require.InDelta(t, 0.5, profile.Embedding[1], 1e-6)

	// A re-read must observe the same mean despite the profile cache.
	reread, err := ts.GetTasteProfile(ctx, &store.FindTasteProfile{UserID: "user-1"})
	require.NoError(t, err)
	require.NotNil(t, reread)
	require.EqualValues(t, 2, reread.N)
	require.InDelta(t, 0.5, reread.Embedding[0], 1e-6)
	require.InDelta(t, 0.5, reread.Embedding[1], 1e-6)
}

func TestApplyPositiveEngagementOrderIndependent(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	embeddings := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{0.5, 0.5, 0},
	}
	shuffled := make([][]float32, len(embeddings))
	copy(shuffled, embeddings)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, e := range embeddings {
		_, err := ts.ApplyPositiveEngagement(ctx, "forward", e)
		require.NoError(t, err)
	}
	for _, e := range shuffled {
		_, err := ts.ApplyPositiveEngagement(ctx, "shuffled", e)
		require.NoError(t, err)
	}

	forward, err := ts.GetTasteProfile(ctx, &store.FindTasteProfile{UserID: "forward"})
	require.NoError(t, err)
	other, err := ts.GetTasteProfile(ctx, &store.FindTasteProfile{UserID: "shuffled"})
	require.NoError(t, err)

	require.Equal(t, forward.N, other.N)
	for i := range forward.Embedding {
		require.InDelta(t, forward.Embedding[i], other.Embedding[i], 1e-6)
	}
}

func TestApplyPositiveEngagementConcurrentNoLostUpdate(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := ts.ApplyPositiveEngagement(ctx, "busy-user", []float32{1, 1})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	profile, err := ts.GetTasteProfile(ctx, &store.FindTasteProfile{UserID: "busy-user"})
	require.NoError(t, err)
	require.EqualValues(t, workers, profile.N)
	require.InDelta(t, 1.0, profile.Embedding[0], 1e-6)
	require.InDelta(t, 1.0, profile.Embedding[1], 1e-6)
}

func TestApplyPositiveEngagementDifferentUsersIndependent(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.ApplyPositiveEngagement(ctx, "user-a", []float32{1, 0})
	require.NoError(t, err)
	_, err = ts.ApplyPositiveEngagement(ctx, "user-b", []float32{0, 1})
	require.NoError(t, err)

	a, err := ts.GetTasteProfile(ctx, &store.FindTasteProfile{UserID: "user-a"})
	require.NoError(t, err)
	b, err := ts.GetTasteProfile(ctx, &store.FindTasteProfile{UserID: "user-b"})
	require.NoError(t, err)

	require.Equal(t, []float32{1, 0}, a.Embedding)
	require.Equal(t, []float32{0, 1}, b.Embedding)
}
