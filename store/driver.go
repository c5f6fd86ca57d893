package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Item model related methods.
	CreateItem(ctx context.Context, create *Item) (*Item, error)
	GetItem(ctx context.Context, find *FindItem) (*Item, error)
	ListItemCandidates(ctx context.Context, find *FindItemCandidates) ([]*Item, error)
	DeleteItem(ctx context.Context, delete *DeleteItem) error
	DeleteExpiredItems(ctx context.Context, nowTs int64) (int64, error)

	// VectorSearchItems performs cosine similarity search restricted to the
	// zone/time predicate, ordered by descending raw similarity.
	VectorSearchItems(ctx context.Context, opts *VectorSearchItemsOptions) ([]*ItemWithScore, error)

	// TasteProfile model related methods.
	GetTasteProfile(ctx context.Context, find *FindTasteProfile) (*TasteProfile, error)
	ApplyPositiveEngagement(ctx context.Context, userID string, embedding []float32) (*TasteProfile, error)

	// EngagementEvent model related methods.
	CreateEngagementEvent(ctx context.Context, create *EngagementEvent) (*EngagementEvent, error)
	ListEngagementEvents(ctx context.Context, find *FindEngagementEvent) ([]*EngagementEvent, error)
	CountEngagementEvents(ctx context.Context, find *FindEngagementEvent) (int64, error)
}
