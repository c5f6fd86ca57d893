package test

import (
	"context"
	"testing"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/pulse/store"
)

func newTestItem(zone store.Zone, embedding []float32, createdAt time.Time) *store.Item {
	return &store.Item{
		UID:        shortuuid.New(),
		CreatorID:  "creator-1",
		Zone:       zone,
		ZoneSource: store.ZoneSourceManual,
		Title:      "test item",
		Tags:       []string{"test"},
		Transcript: "a short transcript",
		Embedding:  embedding,
		CreatedTs:  createdAt.Unix(),
		ExpiresTs:  createdAt.Add(store.DefaultTTL).Unix(),
	}
}

func TestItemCreateAndGet(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreateItem(ctx, newTestItem(store.ZoneBrooklyn, []float32{1, 0}, time.Now()))
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	found, err := ts.GetItem(ctx, &store.FindItem{UID: &created.UID, NowTs: time.Now().Unix()})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, created.UID, found.UID)
	require.Equal(t, store.ZoneBrooklyn, found.Zone)
	require.Equal(t, []string{"test"}, found.Tags)
	require.Equal(t, []float32{1, 0}, found.Embedding)
}

func TestItemGetExpiredIsAbsent(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	// Created 25h ago, so past the 24h TTL.
	created, err := ts.CreateItem(ctx, newTestItem(store.ZoneQueens, []float32{1, 0}, time.Now().Add(-25*time.Hour)))
	require.NoError(t, err)

	found, err := ts.GetItem(ctx, &store.FindItem{UID: &created.UID, NowTs: time.Now().Unix()})
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestListItemCandidatesZoneIsolationAndOrder(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	now := time.Now()

	older, err := ts.CreateItem(ctx, newTestItem(store.ZoneBronx, []float32{1, 0}, now.Add(-2*time.Hour)))
	require.NoError(t, err)
	newer, err := ts.CreateItem(ctx, newTestItem(store.ZoneBronx, []float32{0, 1}, now.Add(-1*time.Hour)))
	require.NoError(t, err)
	_, err = ts.CreateItem(ctx, newTestItem(store.ZoneManhattan, []float32{0, 1}, now))
	require.NoError(t, err)

	candidates, err := ts.ListItemCandidates(ctx, &store.FindItemCandidates{
		Zone:    store.ZoneBronx,
		SinceTs: now.Add(-store.DefaultTTL).Unix(),
		NowTs:   now.Unix(),
	})
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	require.Equal(t, newer.UID, candidates[0].UID)
	require.Equal(t, older.UID, candidates[1].UID)
	for _, item := range candidates {
		require.Equal(t, store.ZoneBronx, item.Zone)
	}
}

func TestListItemCandidatesExcludesExpired(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	now := time.Now()

	_, err := ts.CreateItem(ctx, newTestItem(store.ZoneQueens, []float32{1, 0}, now.Add(-25*time.Hour)))
	require.NoError(t, err)
	fresh, err := ts.CreateItem(ctx, newTestItem(store.ZoneQueens, []float32{0, 1}, now))
	require.NoError(t, err)

	// Deliberately wide window: expiry filtering must still hold.
	candidates, err := ts.ListItemCandidates(ctx, &store.FindItemCandidates{
		Zone:    store.ZoneQueens,
		SinceTs: now.Add(-48 * time.Hour).Unix(),
		NowTs:   now.Unix(),
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, fresh.UID, candidates[0].UID)
}

func TestVectorSearchItemsOrdering(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	now := time.Now()

	aligned, err := ts.CreateItem(ctx, newTestItem(store.ZoneManhattan, []float32{1, 0}, now.Add(-time.Hour)))
	require.NoError(t, err)
	orthogonal, err := ts.CreateItem(ctx, newTestItem(store.ZoneManhattan, []float32{0, 1}, now.Add(-time.Hour)))
	require.NoError(t, err)
	opposite, err := ts.CreateItem(ctx, newTestItem(store.ZoneManhattan, []float32{-1, 0}, now.Add(-time.Hour)))
	require.NoError(t, err)

	results, err := ts.VectorSearchItems(ctx, &store.VectorSearchItemsOptions{
		Vector:  []float32{1, 0},
		Zone:    store.ZoneManhattan,
		SinceTs: now.Add(-store.DefaultTTL).Unix(),
		NowTs:   now.Unix(),
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Equal(t, aligned.UID, results[0].Item.UID)
	require.Equal(t, orthogonal.UID, results[1].Item.UID)
	require.Equal(t, opposite.UID, results[2].Item.UID)

	require.InDelta(t, 1.0, results[0].Score, 1e-6)
	require.InDelta(t, 0.0, results[1].Score, 1e-6)
	require.InDelta(t, -1.0, results[2].Score, 1e-6)
}

func TestVectorSearchItemsRespectsLimitAndZone(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	now := time.Now()

	for i := 0; i < 5; i++ {
		_, err := ts.CreateItem(ctx, newTestItem(store.ZoneBrooklyn, []float32{1, float32(i) / 10}, now.Add(-time.Hour)))
		require.NoError(t, err)
	}
	_, err := ts.CreateItem(ctx, newTestItem(store.ZoneQueens, []float32{1, 0}, now.Add(-time.Hour)))
	require.NoError(t, err)

	results, err := ts.VectorSearchItems(ctx, &store.VectorSearchItemsOptions{
		Vector:  []float32{1, 0},
		Zone:    store.ZoneBrooklyn,
		SinceTs: now.Add(-store.DefaultTTL).Unix(),
		NowTs:   now.Unix(),
		Limit:   3,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, result := range results {
		require.Equal(t, store.ZoneBrooklyn, result.Item.Zone)
	}
}

func TestDeleteExpiredItems(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	now := time.Now()

	_, err := ts.CreateItem(ctx, newTestItem(store.ZoneQueens, []float32{1, 0}, now.Add(-30*time.Hour)))
	require.NoError(t, err)
	_, err = ts.CreateItem(ctx, newTestItem(store.ZoneQueens, []float32{1, 0}, now.Add(-25*time.Hour)))
	require.NoError(t, err)
	fresh, err := ts.CreateItem(ctx, newTestItem(store.ZoneQueens, []float32{1, 0}, now))
	require.NoError(t, err)

	deleted, err := ts.DeleteExpiredItems(ctx, now.Unix())
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	remaining, err := ts.ListItemCandidates(ctx, &store.FindItemCandidates{
		Zone:    store.ZoneQueens,
		SinceTs: 0,
		NowTs:   now.Unix(),
	})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, fresh.UID, remaining[0].UID)
}
