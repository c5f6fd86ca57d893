package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/citypulse/pulse/store"
)

// The taste_profile row stores the running SUM of engaged item embeddings
// plus the event count, mirroring the PostgreSQL layout. SQLite has no vector
// arithmetic, so the fold happens in Go under a driver-level mutex; SQLite
// serializes writers anyway, the mutex just keeps the read-modify-write from
// interleaving between connections.

// GetTasteProfile returns the user's taste profile with the embedding already
// reduced to the mean, or nil when the user has no profile yet.
func (d *DB) GetTasteProfile(ctx context.Context, find *store.FindTasteProfile) (*store.TasteProfile, error) {
	query := `
		SELECT user_id, embedding_sum, n, updated_ts
		FROM taste_profile
		WHERE user_id = ?
	`

	var profile store.TasteProfile
	var rawSum string
	err := d.db.QueryRowContext(ctx, query, find.UserID).Scan(
		&profile.UserID,
		&rawSum,
		&profile.N,
		&profile.UpdatedTs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get taste profile")
	}

	sum, err := unmarshalFloats(rawSum)
	if err != nil {
		return nil, err
	}
	profile.Embedding = meanFromSum(sum, profile.N)
	return &profile, nil
}

// ApplyPositiveEngagement folds one embedding into the user's running sum
// inside a transaction, creating the row with n=1 on first engagement.
func (d *DB) ApplyPositiveEngagement(ctx context.Context, userID string, embedding []float32) (*store.TasteProfile, error) {
	d.tasteMu.Lock()
	defer d.tasteMu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var rawSum string
	var n int64
	err = tx.QueryRowContext(ctx, `SELECT embedding_sum, n FROM taste_profile WHERE user_id = ?`, userID).Scan(&rawSum, &n)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.Wrap(err, "failed to read taste profile")
	}

	updatedTs := time.Now().Unix()
	var sum []float32
	if err == sql.ErrNoRows {
		sum = append([]float32(nil), embedding...)
		n = 1
	} else {
		sum, err = unmarshalFloats(rawSum)
		if err != nil {
			return nil, err
		}
		if len(sum) != len(embedding) {
			return nil, errors.Errorf("embedding dimension mismatch: profile has %d, item has %d", len(sum), len(embedding))
		}
		for i, v := range embedding {
			sum[i] += v
		}
		n++
	}

	encoded, err := marshalFloats(sum)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO taste_profile (user_id, embedding_sum, n, updated_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id)
		DO UPDATE SET embedding_sum = excluded.embedding_sum, n = excluded.n, updated_ts = excluded.updated_ts
	`
	if _, err := tx.ExecContext(ctx, stmt, userID, encoded, n, updatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to apply positive engagement")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit taste update")
	}

	return &store.TasteProfile{
		UserID:    userID,
		Embedding: meanFromSum(sum, n),
		N:         n,
		UpdatedTs: updatedTs,
	}, nil
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
