package postgres

import (
	"context"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/citypulse/pulse/store"
)

// CreateItem inserts a fully-populated item. The caller is responsible for
// assigning the uid and the created/expires timestamps.
func (d *DB) CreateItem(ctx context.Context, create *store.Item) (*store.Item, error) {
	stmt := `
		INSERT INTO item (
			uid, creator_id, zone, zone_source, title, tags, transcript,
			visual_summary, media_path, duration_sec, embedding, created_ts, expires_ts
		)
		VALUES (` + placeholders(13) + `)
		RETURNING id
	`

	err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.CreatorID,
		string(create.Zone),
		string(create.ZoneSource),
		create.Title,
		pq.Array(create.Tags),
		create.Transcript,
		create.VisualSummary,
		create.MediaPath,
		create.DurationSec,
		pgvector.NewVector(create.Embedding),
		create.CreatedTs,
		create.ExpiresTs,
	).Scan(&create.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create item")
	}

	return create, nil
}

// GetItem returns the matching item, or nil when absent. When find.NowTs is
// set, rows past their TTL are treated as absent.
func (d *DB) GetItem(ctx context.Context, find *store.FindItem) (*store.Item, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.NowTs > 0 {
		where, args = append(where, "expires_ts > "+placeholder(len(args)+1)), append(args, find.NowTs)
	}

	query := `
		SELECT
			id, uid, creator_id, zone, zone_source, title, tags, transcript,
			visual_summary, media_path, duration_sec, embedding, created_ts, expires_ts
		FROM item
		WHERE ` + strings.Join(where, " AND ") + `
		LIMIT 1
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get item")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	item, err := scanItem(rows)
	if err != nil {
		return nil, err
	}
	return item, rows.Err()
}

// ListItemCandidates lists non-expired items in a zone created at or after
// SinceTs, newest first.
func (d *DB) ListItemCandidates(ctx context.Context, find *store.FindItemCandidates) ([]*store.Item, error) {
	args := []any{string(find.Zone), find.SinceTs, find.NowTs}
	query := `
		SELECT
			id, uid, creator_id, zone, zone_source, title, tags, transcript,
			visual_summary, media_path, duration_sec, embedding, created_ts, expires_ts
		FROM item
		WHERE zone = $1 AND created_ts >= $2 AND expires_ts > $3
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
		if find.Offset != nil {
			query += " OFFSET " + placeholder(len(args)+1)
			args = append(args, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list item candidates")
	}
	defer rows.Close()

	list := []*store.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// VectorSearchItems performs vector similarity search using pgvector.
// The <=> operator computes cosine distance (1 - cosine_similarity), so the
// score expression recovers the raw similarity and ordering by distance
// ascending yields most similar first.
func (d *DB) VectorSearchItems(ctx context.Context, opts *store.VectorSearchItemsOptions) ([]*store.ItemWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			id, uid, creator_id, zone, zone_source, title, tags, transcript,
			visual_summary, media_path, duration_sec, embedding, created_ts, expires_ts,
			1 - (embedding <=> $1) AS score
		FROM item
		WHERE zone = $2 AND created_ts >= $3 AND expires_ts > $4
		ORDER BY embedding <=> $5
		LIMIT $6
	`

	vector := pgvector.NewVector(opts.Vector)
	rows, err := d.db.QueryContext(ctx, query,
		vector,
		string(opts.Zone),
		opts.SinceTs,
		opts.NowTs,
		vector,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search items")
	}
	defer rows.Close()

	results := []*store.ItemWithScore{}
	for rows.Next() {
		var item store.Item
		var tags pq.StringArray
		var embedding pgvector.Vector
		var result store.ItemWithScore

		err := rows.Scan(
			&item.ID,
			&item.UID,
			&item.CreatorID,
			&item.Zone,
			&item.ZoneSource,
			&item.Title,
			&tags,
			&item.Transcript,
			&item.VisualSummary,
			&item.MediaPath,
			&item.DurationSec,
			&embedding,
			&item.CreatedTs,
			&item.ExpiresTs,
			&result.Score,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}

		item.Tags = []string(tags)
		item.Embedding = embedding.Slice()
		result.Item = &item
		results = append(results, &result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// DeleteItem deletes an item.
func (d *DB) DeleteItem(ctx context.Context, delete *store.DeleteItem) error {
	stmt := `DELETE FROM item WHERE id = $1`
	result, err := d.db.ExecContext(ctx, stmt, delete.ID)
	if err != nil {
		return errors.Wrap(err, "failed to delete item")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.Errorf("item with id %d not found", delete.ID)
	}
	return nil
}

// DeleteExpiredItems removes items whose TTL elapsed at or before nowTs.
func (d *DB) DeleteExpiredItems(ctx context.Context, nowTs int64) (int64, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM item WHERE expires_ts <= $1`, nowTs)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired items")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count deleted items")
	}
	return rows, nil
}

// scanItem scans one item row in field order.
func scanItem(rows interface {
	Scan(dest ...any) error
}) (*store.Item, error) {
	var item store.Item
	var tags pq.StringArray
	var embedding pgvector.Vector

	err := rows.Scan(
		&item.ID,
		&item.UID,
		&item.CreatorID,
		&item.Zone,
		&item.ZoneSource,
		&item.Title,
		&tags,
		&item.Transcript,
		&item.VisualSummary,
		&item.MediaPath,
		&item.DurationSec,
		&embedding,
		&item.CreatedTs,
		&item.ExpiresTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan item")
	}

	item.Tags = []string(tags)
	item.Embedding = embedding.Slice()
	return &item, nil
}
