package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// DefaultTTL is how long an item stays visible after creation. Nothing past
// its TTL is ever returned by any read path; lookback windows elsewhere are
// clamped to this value rather than widened past it.
const DefaultTTL = 24 * time.Hour

// Item is a short content record scoped to a zone. Items are created once by
// the ingestion side with the embedding already computed, read many times by
// the ranking and ask paths, never mutated, and removed solely by TTL.
type Item struct {
	ID  int32
	UID string

	CreatorID string

	Zone       Zone
	ZoneSource ZoneSource

	Title         string
	Tags          []string
	Transcript    string
	VisualSummary string

	MediaPath   string
	DurationSec float64

	// Embedding dimension is fixed system-wide; see plugin/ai config.
	Embedding []float32

	CreatedTs int64
	ExpiresTs int64
}

// Expired reports whether the item is past its TTL at the given time.
func (i *Item) Expired(nowTs int64) bool {
	return nowTs >= i.ExpiresTs
}

// ContextText returns the text used for ask context assembly. The fused
// multimodal summary wins over the raw transcript when present.
func (i *Item) ContextText() string {
	if i.VisualSummary != "" {
		return i.VisualSummary
	}
	return i.Transcript
}

// FindItem is the find condition for a single item.
type FindItem struct {
	ID  *int32
	UID *string

	// NowTs filters out expired rows. Zero means no expiry filtering.
	NowTs int64
}

// FindItemCandidates selects non-expired items in a zone created at or after
// SinceTs, ordered by created_ts descending.
type FindItemCandidates struct {
	Zone    Zone
	SinceTs int64
	NowTs   int64

	Limit  *int
	Offset *int
}

// ItemWithScore is a vector search result with its raw cosine similarity,
// in [-1, 1] as the store returns it. Normalization happens in the scorer.
type ItemWithScore struct {
	Item  *Item
	Score float64
}

// VectorSearchItemsOptions restricts nearest-neighbor search to the same
// zone/time predicate as candidate listing.
type VectorSearchItemsOptions struct {
	Vector  []float32
	Zone    Zone
	SinceTs int64
	NowTs   int64
	Limit   int
}

// DeleteItem is the delete condition for items.
type DeleteItem struct {
	ID int32
}

// CreateItem creates an item. A missing UID is assigned and a missing
// ExpiresTs defaults to CreatedTs plus the TTL.
func (s *Store) CreateItem(ctx context.Context, create *Item) (*Item, error) {
	if !create.Zone.Valid() {
		return nil, errors.Wrapf(ErrInvalidZone, "zone %q", create.Zone)
	}
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if create.ExpiresTs == 0 {
		create.ExpiresTs = create.CreatedTs + int64(DefaultTTL.Seconds())
	}
	return s.driver.CreateItem(ctx, create)
}

// GetItem returns the matching item, or nil when missing or expired.
func (s *Store) GetItem(ctx context.Context, find *FindItem) (*Item, error) {
	return s.driver.GetItem(ctx, find)
}

// ListItemCandidates lists the recency-ordered candidate set for a zone.
func (s *Store) ListItemCandidates(ctx context.Context, find *FindItemCandidates) ([]*Item, error) {
	return s.driver.ListItemCandidates(ctx, find)
}

// VectorSearchItems performs cosine similarity search within a zone and
// lookback window, most similar first, at most opts.Limit results.
func (s *Store) VectorSearchItems(ctx context.Context, opts *VectorSearchItemsOptions) ([]*ItemWithScore, error) {
	return s.driver.VectorSearchItems(ctx, opts)
}

// DeleteItem deletes an item.
func (s *Store) DeleteItem(ctx context.Context, delete *DeleteItem) error {
	return s.driver.DeleteItem(ctx, delete)
}

// DeleteExpiredItems removes every item whose TTL has elapsed and returns the
// number of rows deleted. Read paths filter expiry themselves, so this is
// hygiene, not a correctness dependency.
func (s *Store) DeleteExpiredItems(ctx context.Context, nowTs int64) (int64, error) {
	return s.driver.DeleteExpiredItems(ctx, nowTs)
}
