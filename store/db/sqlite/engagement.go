package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/citypulse/pulse/store"
)

// CreateEngagementEvent appends an engagement event.
func (d *DB) CreateEngagementEvent(ctx context.Context, create *store.EngagementEvent) (*store.EngagementEvent, error) {
	stmt := `
		INSERT INTO engagement_event (user_id, item_uid, created_ts)
		VALUES (` + placeholders(3) + `)
		RETURNING id
	`

	err := d.db.QueryRowContext(ctx, stmt,
		create.UserID,
		create.ItemUID,
		create.CreatedTs,
	).Scan(&create.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create engagement event")
	}

	return create, nil
}

// ListEngagementEvents lists engagement events, newest first.
func (d *DB) ListEngagementEvents(ctx context.Context, find *store.FindEngagementEvent) ([]*store.EngagementEvent, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.ItemUID != nil {
		where, args = append(where, "item_uid = ?"), append(args, *find.ItemUID)
	}

	query := `
		SELECT id, user_id, item_uid, created_ts
		FROM engagement_event
		WHERE ` + strings.Join(where, " AND ") + `
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
		return nil, errors.Wrap(err, "failed to list engagement events")
	}
	defer rows.Close()

	list := []*store.EngagementEvent{}
	for rows.Next() {
		var event store.EngagementEvent
		if err := rows.Scan(&event.ID, &event.UserID, &event.ItemUID, &event.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan engagement event")
		}
		list = append(list, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// CountEngagementEvents counts events matching the condition.
func (d *DB) CountEngagementEvents(ctx context.Context, find *store.FindEngagementEvent) (int64, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.ItemUID != nil {
		where, args = append(where, "item_uid = ?"), append(args, *find.ItemUID)
	}

	query := `SELECT COUNT(*) FROM engagement_event WHERE ` + strings.Join(where, " AND ")

	var count int64
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count engagement events")
	}
	return count, nil
}
