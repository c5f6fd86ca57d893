// Package taste turns positive-engagement events into taste profile updates.
package taste

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/citypulse/pulse/plugin/ai"
	"github.com/citypulse/pulse/store"
)

// Learner owns the write path of taste profiles.
type Learner struct {
	store *store.Store
}

// NewLearner creates a learner over the given store.
func NewLearner(s *store.Store) *Learner {
	return &Learner{store: s}
}

// RecordPositiveEngagement folds the item's embedding into the user's taste
// profile and appends an engagement event. A like on a missing or expired
// item is rejected with ErrItemNotFound: an expired embedding is no longer an
// authoritative signal of current taste.
//
// Repeated likes on the same item shift the mean again each time. That is
// weighting by repetition, not a bug; callers wanting mean-over-distinct-items
// must de-duplicate before calling.
func (l *Learner) RecordPositiveEngagement(ctx context.Context, userID, itemUID string) (*store.TasteProfile, error) {
	now := time.Now()

	item, err := l.store.GetItem(ctx, &store.FindItem{UID: &itemUID, NowTs: now.Unix()})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get item")
	}
	if item == nil {
		return nil, errors.Wrapf(store.ErrItemNotFound, "item %q", itemUID)
	}
	if len(item.Embedding) != ai.DefaultDimensions {
		return nil, errors.Errorf("item %q has embedding dimension %d, want %d", itemUID, len(item.Embedding), ai.DefaultDimensions)
	}

	profile, err := l.store.ApplyPositiveEngagement(ctx, userID, item.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to apply positive engagement")
	}

	// The profile is already updated; a lost log entry costs audit detail,
	// not ranking correctness.
	if _, err := l.store.CreateEngagementEvent(ctx, &store.EngagementEvent{
		UserID:    userID,
		ItemUID:   itemUID,
		CreatedTs: now.Unix(),
	}); err != nil {
		slog.Warn("failed to append engagement event",
			slog.String("user", userID),
			slog.String("item", itemUID),
			slog.String("error", err.Error()))
	}

	return profile, nil
}

// Summary is the sanitized taste view for debugging and analytics. The raw
// vector never leaves the engine.
type Summary struct {
	UserID          string  `json:"user_id"`
	HasTasteProfile bool    `json:"has_taste_profile"`
	LikesCount      int64   `json:"likes_count"`
	UpdatedTs       int64   `json:"updated_ts,omitempty"`
	Dimensions      int     `json:"dimensions,omitempty"`
	Magnitude       float64 `json:"magnitude,omitempty"`
	Mean            float64 `json:"mean,omitempty"`
	Std             float64 `json:"std,omitempty"`
}

// Profile returns the user's taste summary. A user without engagement gets an
// empty summary, not an error.
func (l *Learner) Profile(ctx context.Context, userID string) (*Summary, error) {
	profile, err := l.store.GetTasteProfile(ctx, &store.FindTasteProfile{UserID: userID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get taste profile")
	}
	if profile == nil {
		return &Summary{UserID: userID}, nil
	}

	magnitude, mean, std := vectorStats(profile.Embedding)
	return &Summary{
		UserID:          userID,
		HasTasteProfile: true,
		LikesCount:      profile.N,
		UpdatedTs:       profile.UpdatedTs,
		Dimensions:      len(profile.Embedding),
		Magnitude:       magnitude,
		Mean:            mean,
		Std:             std,
	}, nil
}

func vectorStats(v []float32) (magnitude, mean, std float64) {
	if len(v) == 0 {
		return 0, 0, 0
	}
	var sum, sumSquares float64
	for _, x := range v {
		sum += float64(x)
		sumSquares += float64(x) * float64(x)
	}
	n := float64(len(v))
	mean = sum / n
	magnitude = math.Sqrt(sumSquares)
	std = math.Sqrt(sumSquares/n - mean*mean)
	return magnitude, mean, std
}
