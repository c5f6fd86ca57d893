package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/citypulse/pulse/store"
)

func TestEngagementEventLog(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	now := time.Now().Unix()

	for i, uid := range []string{"item-1", "item-2", "item-1"} {
		_, err := ts.CreateEngagementEvent(ctx, &store.EngagementEvent{
			UserID:    "user-1",
			ItemUID:   uid,
			CreatedTs: now + int64(i),
		})
		require.NoError(t, err)
	}

	userID := "user-1"
	events, err := ts.ListEngagementEvents(ctx, &store.FindEngagementEvent{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, events, 3)
	// Newest first.
	require.Equal(t, "item-1", events[0].ItemUID)

	itemUID := "item-1"
	count, err := ts.CountEngagementEvents(ctx, &store.FindEngagementEvent{UserID: &userID, ItemUID: &itemUID})
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	other := "user-2"
	count, err = ts.CountEngagementEvents(ctx, &store.FindEngagementEvent{UserID: &other})
	require.NoError(t, err)
	require.Zero(t, count)
}
