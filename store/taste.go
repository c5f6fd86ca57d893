package store

import (
	"context"
	"fmt"
)

// TasteProfile is a user's learned preference vector. Embedding is always the
// exact arithmetic mean of the embeddings of every item the user positively
// engaged with, independent of event order. N counts contributing events and
// is at least 1 once the profile exists.
type TasteProfile struct {
	UserID    string
	Embedding []float32
	N         int64
	UpdatedTs int64
}

// FindTasteProfile is the find condition for taste profiles.
type FindTasteProfile struct {
	UserID string
}

func tasteProfileCacheKey(userID string) string {
	return fmt.Sprintf("taste:%s", userID)
}

// GetTasteProfile returns the user's taste profile, or nil when the user has
// no recorded engagement yet.
func (s *Store) GetTasteProfile(ctx context.Context, find *FindTasteProfile) (*TasteProfile, error) {
	if cached, ok := s.tasteProfileCache.Get(ctx, tasteProfileCacheKey(find.UserID)); ok {
		if profile, ok := cached.(*TasteProfile); ok {
			return profile, nil
		}
	}

	profile, err := s.driver.GetTasteProfile(ctx, find)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		s.tasteProfileCache.Set(ctx, tasteProfileCacheKey(find.UserID), profile)
	}
	return profile, nil
}

// ApplyPositiveEngagement folds one item embedding into the user's running
// mean, creating the profile with n=1 on first engagement. The update is
// atomic per user: two concurrent engagements both land, neither is lost.
// The cache entry is invalidated on every apply so readers pick up the new
// mean on the next read.
func (s *Store) ApplyPositiveEngagement(ctx context.Context, userID string, embedding []float32) (*TasteProfile, error) {
	profile, err := s.driver.ApplyPositiveEngagement(ctx, userID, embedding)
	s.tasteProfileCache.Delete(ctx, tasteProfileCacheKey(userID))
	if err != nil {
		return nil, err
	}
	return profile, nil
}
