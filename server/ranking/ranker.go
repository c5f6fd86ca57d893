package ranking

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/citypulse/pulse/plugin/filter"
	"github.com/citypulse/pulse/store"
)

const (
	defaultLimit = 20
	maxLimit     = 50
)

// Ranker orchestrates candidate retrieval, scoring, and pagination for the
// feed operation.
type Ranker struct {
	store  *store.Store
	config Config
}

// NewRanker creates a ranker over the given store.
func NewRanker(s *store.Store, config Config) (*Ranker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid ranking config")
	}
	return &Ranker{store: s, config: config}, nil
}

// Config returns the ranking configuration in use.
func (r *Ranker) Config() Config {
	return r.config
}

// FeedRequest is one personalized feed call.
type FeedRequest struct {
	UserID string
	Zone   store.Zone
	Limit  int
	Offset int
	// Lookback bounds how far back candidates may be created. Zero means
	// the configured default; it is always clamped to TTL.
	Lookback time.Duration
	// Filter is an optional CEL expression evaluated against each item
	// before pagination.
	Filter string
}

// RankedItem is an item with its score decomposition.
type RankedItem struct {
	Item      *store.Item
	Breakdown Breakdown
}

// FeedResult is an ordered page of ranked items.
type FeedResult struct {
	Items []*RankedItem
	// Personalized reports whether the order came from the user's taste
	// vector rather than pure recency.
	Personalized bool
	HasMore      bool
}

// Feed returns the ranked feed page for a user in a zone.
//
// With a taste profile the candidates come from similarity search and are
// scored by the similarity/recency blend. Without one, or when similarity
// search fails or returns nothing, the zone's recency ordering serves the
// page instead; degrading the ordering beats failing the request.
func (r *Ranker) Feed(ctx context.Context, req *FeedRequest) (*FeedResult, error) {
	if !req.Zone.Valid() {
		return nil, errors.Wrapf(store.ErrInvalidZone, "zone %q", req.Zone)
	}

	limit, offset := clampPage(req.Limit, req.Offset)
	lookback := r.config.ClampLookback(req.Lookback)

	var itemFilter *filter.ItemFilter
	if req.Filter != "" {
		var err error
		if itemFilter, err = filter.New(req.Filter); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	nowTs := now.Unix()
	sinceTs := now.Add(-lookback).Unix()

	profile, err := r.store.GetTasteProfile(ctx, &store.FindTasteProfile{UserID: req.UserID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load taste profile")
	}

	if profile != nil && profile.N > 0 {
		result, err := r.personalizedFeed(ctx, profile, req.Zone, sinceTs, nowTs, limit, offset, itemFilter)
		if err == nil && len(result.Items) > 0 {
			return result, nil
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			slog.Warn("similarity search failed, falling back to recency",
				slog.String("user", req.UserID),
				slog.String("zone", req.Zone.String()),
				slog.String("error", err.Error()))
		}
	}

	return r.recencyFeed(ctx, req.Zone, sinceTs, nowTs, limit, offset, itemFilter)
}

func (r *Ranker) personalizedFeed(ctx context.Context, profile *store.TasteProfile, zone store.Zone, sinceTs, nowTs int64, limit, offset int, itemFilter *filter.ItemFilter) (*FeedResult, error) {
	overfetchK := (offset + limit) * r.config.OverfetchFactor
	if overfetchK < r.config.OverfetchMin {
		overfetchK = r.config.OverfetchMin
	}

	matches, err := r.store.VectorSearchItems(ctx, &store.VectorSearchItemsOptions{
		Vector:  profile.Embedding,
		Zone:    zone,
		SinceTs: sinceTs,
		NowTs:   nowTs,
		Limit:   overfetchK,
	})
	if err != nil {
		return nil, errors.Wrap(err, "similarity search failed")
	}

	ranked := make([]*RankedItem, 0, len(matches))
	for _, match := range matches {
		ranked = append(ranked, &RankedItem{
			Item:      match.Item,
			Breakdown: r.config.Score(match.Score, match.Item.CreatedTs, nowTs),
		})
	}

	if ranked, err = applyFilter(ranked, itemFilter); err != nil {
		return nil, err
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})

	page, hasMore := paginate(ranked, limit, offset)
	return &FeedResult{Items: page, Personalized: true, HasMore: hasMore}, nil
}

func (r *Ranker) recencyFeed(ctx context.Context, zone store.Zone, sinceTs, nowTs int64, limit, offset int, itemFilter *filter.ItemFilter) (*FeedResult, error) {
	find := &store.FindItemCandidates{
		Zone:    zone,
		SinceTs: sinceTs,
		NowTs:   nowTs,
	}

	// With a filter in play pagination must happen after filtering, so pull
	// the whole overfetch window; otherwise let the store paginate and fetch
	// one extra row to detect a further page.
	if itemFilter == nil {
		fetch := limit + 1
		find.Limit = &fetch
		find.Offset = &offset
	}

	candidates, err := r.store.ListItemCandidates(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list candidates")
	}

	ranked := make([]*RankedItem, 0, len(candidates))
	for _, item := range candidates {
		ranked = append(ranked, &RankedItem{
			Item:      item,
			Breakdown: r.config.RecencyScore(item.CreatedTs, nowTs),
		})
	}

	if itemFilter == nil {
		hasMore := len(ranked) > limit
		if hasMore {
			ranked = ranked[:limit]
		}
		return &FeedResult{Items: ranked, HasMore: hasMore}, nil
	}

	if ranked, err = applyFilter(ranked, itemFilter); err != nil {
		return nil, err
	}
	page, hasMore := paginate(ranked, limit, offset)
	return &FeedResult{Items: page, HasMore: hasMore}, nil
}

// Recent is the non-personalized recency feed for a zone.
func (r *Ranker) Recent(ctx context.Context, zone store.Zone, limit, offset int, lookback time.Duration) (*FeedResult, error) {
	if !zone.Valid() {
		return nil, errors.Wrapf(store.ErrInvalidZone, "zone %q", zone)
	}

	limit, offset = clampPage(limit, offset)
	window := r.config.ClampLookback(lookback)
	now := time.Now()

	return r.recencyFeed(ctx, zone, now.Add(-window).Unix(), now.Unix(), limit, offset, nil)
}

func applyFilter(ranked []*RankedItem, itemFilter *filter.ItemFilter) ([]*RankedItem, error) {
	if itemFilter == nil {
		return ranked, nil
	}
	filtered := ranked[:0]
	for _, candidate := range ranked {
		matched, err := itemFilter.Match(candidate.Item)
		if err != nil {
			return nil, err
		}
		if matched {
			filtered = append(filtered, candidate)
		}
	}
	return filtered, nil
}

func paginate(ranked []*RankedItem, limit, offset int) ([]*RankedItem, bool) {
	if offset >= len(ranked) {
		return []*RankedItem{}, false
	}
	end := offset + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[offset:end], end < len(ranked)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	} else if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
