package store

import "context"

// EngagementEvent is an append-only record of one positive engagement. The
// taste profile stays authoritative for ranking; the log exists for audit and
// for future policy changes that need per-event history.
type EngagementEvent struct {
	ID        int32
	UserID    string
	ItemUID   string
	CreatedTs int64
}

// FindEngagementEvent is the find condition for engagement events.
type FindEngagementEvent struct {
	UserID  *string
	ItemUID *string

	Limit  *int
	Offset *int
}

// CreateEngagementEvent appends an engagement event.
func (s *Store) CreateEngagementEvent(ctx context.Context, create *EngagementEvent) (*EngagementEvent, error) {
	return s.driver.CreateEngagementEvent(ctx, create)
}

// ListEngagementEvents lists engagement events, newest first.
func (s *Store) ListEngagementEvents(ctx context.Context, find *FindEngagementEvent) ([]*EngagementEvent, error) {
	return s.driver.ListEngagementEvents(ctx, find)
}

// CountEngagementEvents counts events matching the condition.
func (s *Store) CountEngagementEvents(ctx context.Context, find *FindEngagementEvent) (int64, error) {
	return s.driver.CountEngagementEvents(ctx, find)
}
