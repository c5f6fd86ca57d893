package sqlite

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/citypulse/pulse/store"
)

// CreateItem inserts a fully-populated item. The caller is responsible for
// assigning the uid and the created/expires timestamps.
func (d *DB) CreateItem(ctx context.Context, create *store.Item) (*store.Item, error) {
	tags, err := marshalTags(create.Tags)
	if err != nil {
		return nil, err
	}
	embedding, err := marshalFloats(create.Embedding)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO item (
			uid, creator_id, zone, zone_source, title, tags, transcript,
			visual_summary, media_path, duration_sec, embedding, created_ts, expires_ts
		)
		VALUES (` + placeholders(13) + `)
		RETURNING id
	`

	err = d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.CreatorID,
		string(create.Zone),
		string(create.ZoneSource),
		create.Title,
		tags,
		create.Transcript,
		create.VisualSummary,
		create.MediaPath,
		create.DurationSec,
		embedding,
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
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.NowTs > 0 {
		where, args = append(where, "expires_ts > ?"), append(args, find.NowTs)
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
		WHERE zone = ? AND created_ts >= ? AND expires_ts > ?
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
		if find.Offset != nil {
			query += " OFFSET ?"
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

// VectorSearchItems performs a brute-force cosine scan over the zone/time
// candidate set. SQLite has no vector index, so similarity is computed in
// process; ordering and limits match the PostgreSQL driver.
func (d *DB) VectorSearchItems(ctx context.Context, opts *store.VectorSearchItemsOptions) ([]*store.ItemWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	candidates, err := d.ListItemCandidates(ctx, &store.FindItemCandidates{
		Zone:    opts.Zone,
		SinceTs: opts.SinceTs,
		NowTs:   opts.NowTs,
	})
	if err != nil {
		return nil, err
	}

	results := make([]*store.ItemWithScore, 0, len(candidates))
	for _, item := range candidates {
		results = append(results, &store.ItemWithScore{
			Item:  item,
			Score: cosineSimilarity(opts.Vector, item.Embedding),
		})
	}

	// Most similar first; ties resolve newest first to keep the ordering
	// deterministic like the PostgreSQL distance ordering.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Item.CreatedTs > results[j].Item.CreatedTs
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteItem deletes an item.
func (d *DB) DeleteItem(ctx context.Context, delete *store.DeleteItem) error {
	stmt := `DELETE FROM item WHERE id = ?`
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
	result, err := d.db.ExecContext(ctx, `DELETE FROM item WHERE expires_ts <= ?`, nowTs)
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
	var rawTags, rawEmbedding string

	err := rows.Scan(
		&item.ID,
		&item.UID,
		&item.CreatorID,
		&item.Zone,
		&item.ZoneSource,
		&item.Title,
		&rawTags,
		&item.Transcript,
		&item.VisualSummary,
		&item.MediaPath,
		&item.DurationSec,
		&rawEmbedding,
		&item.CreatedTs,
		&item.ExpiresTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan item")
	}

	if item.Tags, err = unmarshalTags(rawTags); err != nil {
		return nil, err
	}
	if item.Embedding, err = unmarshalFloats(rawEmbedding); err != nil {
		return nil, err
	}
	return &item, nil
}
