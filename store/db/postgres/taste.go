package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/citypulse/pulse/store"
)

// The taste_profile row stores the running SUM of engaged item embeddings
// plus the event count. Summation is commutative, so the mean handed back to
// callers is exact regardless of the order concurrent engagements land in.

// GetTasteProfile returns the user's taste profile with the embedding already
// reduced to the mean, or nil when the user has no profile yet.
func (d *DB) GetTasteProfile(ctx context.Context, find *store.FindTasteProfile) (*store.TasteProfile, error) {
	query := `
		SELECT user_id, embedding_sum, n, updated_ts
		FROM taste_profile
		WHERE user_id = $1
	`

	var profile store.TasteProfile
	var sum pgvector.Vector
	err := d.db.QueryRowContext(ctx, query, find.UserID).Scan(
		&profile.UserID,
		&sum,
		&profile.N,
		&profile.UpdatedTs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get taste profile")
	}

	profile.Embedding = meanFromSum(sum.Slice(), profile.N)
	return &profile, nil
}

// ApplyPositiveEngagement folds one embedding into the user's profile in a
// single upsert statement. PostgreSQL serializes the conflicting row update,
// so two concurrent engagements for the same user both land.
func (d *DB) ApplyPositiveEngagement(ctx context.Context, userID string, embedding []float32) (*store.TasteProfile, error) {
	stmt := `
		INSERT INTO taste_profile (user_id, embedding_sum, n, updated_ts)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET
			embedding_sum = taste_profile.embedding_sum + EXCLUDED.embedding_sum,
			n = taste_profile.n + 1,
			updated_ts = EXCLUDED.updated_ts
		RETURNING user_id, embedding_sum, n, updated_ts
	`

	var profile store.TasteProfile
	var sum pgvector.Vector
	err := d.db.QueryRowContext(ctx, stmt,
		userID,
		pgvector.NewVector(embedding),
		time.Now().Unix(),
	).Scan(
		&profile.UserID,
		&sum,
		&profile.N,
		&profile.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to apply positive engagement")
	}

	profile.Embedding = meanFromSum(sum.Slice(), profile.N)
	return &profile, nil
}

// meanFromSum divides the stored sum by the event count.
func meanFromSum(sum []float32, n int64) []float32 {
	if n <= 0 {
		return sum
	}
	mean := make([]float32, len(sum))
	for i, v := range sum {
		mean[i] = v / float32(n)
	}
	return mean
}
