package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/pulse/store"
	storetest "github.com/citypulse/pulse/store/test"
)

func TestRunOnceDeletesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	now := time.Now()

	for _, age := range []time.Duration{30 * time.Hour, 25 * time.Hour, time.Hour} {
		createdAt := now.Add(-age)
		_, err := ts.CreateItem(ctx, &store.Item{
			UID:        shortuuid.New(),
			CreatorID:  "creator-1",
			Zone:       store.ZoneBrooklyn,
			ZoneSource: store.ZoneSourceManual,
			Embedding:  []float32{1, 0},
			CreatedTs:  createdAt.Unix(),
			ExpiresTs:  createdAt.Add(store.DefaultTTL).Unix(),
		})
		require.NoError(t, err)
	}

	NewRunner(ts).RunOnce(ctx)

	remaining, err := ts.ListItemCandidates(ctx, &store.FindItemCandidates{
		Zone:    store.ZoneBrooklyn,
		SinceTs: 0,
		NowTs:   now.Unix(),
	})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
}

func TestRunStopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ts := storetest.NewTestingStore(context.Background(), t)

	done := make(chan struct{})
	go func() {
		NewRunner(ts).Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
