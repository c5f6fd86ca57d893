// Package sweeper deletes expired items in the background. Read paths filter
// expiry at query time, so the sweeper is hygiene for storage, not a
// correctness dependency.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/citypulse/pulse/store"
)

type Runner struct {
	store    *store.Store
	interval time.Duration
}

// NewRunner creates a TTL sweep runner.
func NewRunner(store *store.Store) *Runner {
	return &Runner{
		store:    store,
		interval: 10 * time.Minute,
	}
}

// Run starts the background sweep loop. It sweeps once on startup, then on
// every tick until the context is done.
func (r *Runner) Run(ctx context.Context) {
	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		}
	}
}

// RunOnce sweeps once (for manual trigger and tests).
func (r *Runner) RunOnce(ctx context.Context) {
	r.sweep(ctx)
}

func (r *Runner) sweep(ctx context.Context) {
	deleted, err := r.store.DeleteExpiredItems(ctx, time.Now().Unix())
	if err != nil {
		slog.Error("failed to delete expired items", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("swept expired items", "count", deleted)
	}
}
