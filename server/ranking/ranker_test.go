package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/pulse/store"
	storetest "github.com/citypulse/pulse/store/test"
)

func newTestdataItem(uid string, createdTs int64) *store.Item {
	return &store.Item{UID: uid, CreatedTs: createdTs}
}

func seedItem(t *testing.T, ctx context.Context, ts *store.Store, zone store.Zone, embedding []float32, age time.Duration, tags ...string) *store.Item {
	t.Helper()
	createdAt := time.Now().Add(-age)
	item, err := ts.CreateItem(ctx, &store.Item{
		UID:        shortuuid.New(),
		CreatorID:  "creator-1",
		Zone:       zone,
		ZoneSource: store.ZoneSourceManual,
		Title:      "item " + shortuuid.New()[:4],
		Tags:       tags,
		Transcript: "transcript",
		Embedding:  embedding,
		CreatedTs:  createdAt.Unix(),
		ExpiresTs:  createdAt.Add(store.DefaultTTL).Unix(),
	})
	require.NoError(t, err)
	return item
}

func newTestRanker(t *testing.T, ts *store.Store) *Ranker {
	t.Helper()
	ranker, err := NewRanker(ts, DefaultConfig())
	require.NoError(t, err)
	return ranker
}

func TestFeedRejectsInvalidZone(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	ranker := newTestRanker(t, ts)

	_, err := ranker.Feed(ctx, &FeedRequest{UserID: "u", Zone: "atlantis"})
	require.ErrorIs(t, err, store.ErrInvalidZone)
}

func TestFeedColdStartIsRecencyOrdered(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	ranker := newTestRanker(t, ts)

	oldest := seedItem(t, ctx, ts, store.ZoneBrooklyn, []float32{1, 0}, 3*time.Hour)
	middle := seedItem(t, ctx, ts, store.ZoneBrooklyn, []float32{0, 1}, 2*time.Hour)
	newest := seedItem(t, ctx, ts, store.ZoneBrooklyn, []float32{1, 1}, 1*time.Hour)

	result, err := ranker.Feed(ctx, &FeedRequest{UserID: "new-user", Zone: store.ZoneBrooklyn})
	require.NoError(t, err)
	require.False(t, result.Personalized)
	require.Len(t, result.Items, 3)
	require.Equal(t, newest.UID, result.Items[0].Item.UID)
	require.Equal(t, middle.UID, result.Items[1].Item.UID)
	require.Equal(t, oldest.UID, result.Items[2].Item.UID)
}

func TestFeedPersonalizedPrefersSimilar(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	ranker := newTestRanker(t, ts)

	// Items of equal age, so similarity decides the order.
	aligned := seedItem(t, ctx, ts, store.ZoneManhattan, []float32{1, 0}, time.Hour)
	opposite := seedItem(t, ctx, ts, store.ZoneManhattan, []float32{-1, 0}, time.Hour)

	_, err := ts.ApplyPositiveEngagement(ctx, "user-1", []float32{1, 0})
	require.NoError(t, err)

	result, err := ranker.Feed(ctx, &FeedRequest{UserID: "user-1", Zone: store.ZoneManhattan})
	require.NoError(t, err)
	require.True(t, result.Personalized)
	require.Len(t, result.Items, 2)
	require.Equal(t, aligned.UID, result.Items[0].Item.UID)
	require.Equal(t, opposite.UID, result.Items[1].Item.UID)
	require.Greater(t, result.Items[0].Breakdown.Final, result.Items[1].Breakdown.Final)
}

func TestFeedRecencyCanOutrankSimilarity(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	ranker := newTestRanker(t, ts)

	// Similar but stale vs dissimilar but fresh: with alpha=0.65 the stale
	// similar item still wins, matching the blended scoring scenario.
	similarStale := seedItem(t, ctx, ts, store.ZoneQueens, []float32{1, 0}, 20*time.Hour)
	dissimilarFresh := seedItem(t, ctx, ts, store.ZoneQueens, []float32{-0.6, 0.8}, time.Hour)

	_, err := ts.ApplyPositiveEngagement(ctx, "user-1", []float32{1, 0})
	require.NoError(t, err)

	result, err := ranker.Feed(ctx, &FeedRequest{UserID: "user-1", Zone: store.ZoneQueens})
	require.NoError(t, err)
	require.True(t, result.Personalized)
	require.Len(t, result.Items, 2)
	require.Equal(t, similarStale.UID, result.Items[0].Item.UID)
	require.Equal(t, dissimilarFresh.UID, result.Items[1].Item.UID)
}

func TestFeedZoneIsolation(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	ranker := newTestRanker(t, ts)

	seedItem(t, ctx, ts, store.ZoneBronx, []float32{1, 0}, time.Hour)
	seedItem(t, ctx, ts, store.ZoneStatenIsland, []float32{1, 0}, time.Hour)

	_, err := ts.ApplyPositiveEngagement(ctx, "user-1", []float32{1, 0})
	require.NoError(t, err)

	result, err := ranker.Feed(ctx, &FeedRequest{UserID: "user-1", Zone: store.ZoneBronx})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, store.ZoneBronx, result.Items[0].Item.Zone)
}

func TestFeedExcludesExpiredEvenWhenMostSimilar(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	ranker := newTestRanker(t, ts)

	// The expired item matches the taste vector perfectly; it must still be
	// invisible.
	seedItem(t, ctx, ts, store.ZoneManhattan, []float32{1, 0}, 25*time.Hour)
	survivor := seedItem(t, ctx, ts, store.ZoneManhattan, []float32{0, 1}, time.Hour)

	_, err := ts.ApplyPositiveEngagement(ctx, "user-1", []float32{1, 0})
	require.NoError(t, err)

	result, err := ranker.Feed(ctx, &FeedRequest{UserID: "user-1", Zone: store.ZoneManhattan})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, survivor.UID, result.Items[0].Item.UID)
}

func TestFeedEmptyZoneReturnsEmptyList(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	ranker := newTestRanker(t, ts)

	result, err := ranker.Feed(ctx, &FeedRequest{UserID: "user-1", Zone: store.ZoneStatenIsland})
	require.NoError(t, err)
	require.Empty(t, result.Items)
	require.False(t, result.HasMore)
}

func TestFeedPagination(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	ranker := newTestRanker(t, ts)

	for i := 0; i < 5; i++ {
		seedItem(t, ctx, ts, store.ZoneBrooklyn, []float32{1, 0}, time.Duration(i+1)*time.Hour)
	}
	_, err := ts.ApplyPositiveEngagement(ctx, "user-1", []float32{1, 0})
	require.NoError(t, err)

	first, err := ranker.Feed(ctx, &FeedRequest{UserID: "user-1", Zone: store.ZoneBrooklyn, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.True(t, first.HasMore)

	second, err := ranker.Feed(ctx, &FeedRequest{UserID: "user-1", Zone: store.ZoneBrooklyn, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	require.True(t, second.HasMore)

	last, err := ranker.Feed(ctx, &FeedRequest{UserID: "user-1", Zone: store.ZoneBrooklyn, Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	require.False(t, last.HasMore)

	seen := map[string]bool{}
	for _, page := range [][]*RankedItem{first.Items, second.Items, last.Items} {
		for _, item := range page {
			require.False(t, seen[item.Item.UID], "item %s appeared twice across pages", item.Item.UID)
			seen[item.Item.UID] = true
		}
	}
}

func TestFeedFilterExpression(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	ranker := newTestRanker(t, ts)

	food := seedItem(t, ctx, ts, store.ZoneQueens, []float32{1, 0}, time.Hour, "food")
	seedItem(t, ctx, ts, store.ZoneQueens, []float32{1, 0}, time.Hour, "music")

	result, err := ranker.Feed(ctx, &FeedRequest{UserID: "new-user", Zone: store.ZoneQueens, Filter: `'food' in tags`})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, food.UID, result.Items[0].Item.UID)
}

func TestFeedInvalidFilterIsClientError(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	ranker := newTestRanker(t, ts)

	_, err := ranker.Feed(ctx, &FeedRequest{UserID: "u", Zone: store.ZoneQueens, Filter: "tags in in"})
	require.Error(t, err)
}

func TestRecentFeed(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	ranker := newTestRanker(t, ts)

	older := seedItem(t, ctx, ts, store.ZoneManhattan, []float32{1, 0}, 2*time.Hour)
	newer := seedItem(t, ctx, ts, store.ZoneManhattan, []float32{0, 1}, time.Hour)

	result, err := ranker.Recent(ctx, store.ZoneManhattan, 10, 0, 0)
	require.NoError(t, err)
	require.False(t, result.Personalized)
	require.Len(t, result.Items, 2)
	require.Equal(t, newer.UID, result.Items[0].Item.UID)
	require.Equal(t, older.UID, result.Items[1].Item.UID)
}

func TestRecentRejectsInvalidZone(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	ranker := newTestRanker(t, ts)

	_, err := ranker.Recent(ctx, "nowhere", 10, 0, 0)
	require.ErrorIs(t, err, store.ErrInvalidZone)
}
