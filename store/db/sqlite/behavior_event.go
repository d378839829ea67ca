package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/peakform/coach/store"
)

func (d *DB) CreateBehaviorEvent(ctx context.Context, create *store.BehaviorEvent) (*store.BehaviorEvent, error) {
	stmt := `INSERT INTO behavior_event (action_key, outcome, occurred_ts)
		VALUES (` + placeholders(3) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, create.ActionKey, create.Outcome, create.OccurredTs).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create behavior event")
	}
	return create, nil
}

func (d *DB) ListBehaviorEvents(ctx context.Context, find *store.FindBehaviorEvent) ([]*store.BehaviorEvent, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ActionKey; v != nil {
		where, args = append(where, "behavior_event.action_key = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.OccurredAfterTs; v != nil {
		where, args = append(where, "behavior_event.occurred_ts > "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, action_key, outcome, occurred_ts
		FROM behavior_event
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY behavior_event.occurred_ts ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list behavior events")
	}
	defer rows.Close()

	var events []*store.BehaviorEvent
	for rows.Next() {
		ev := &store.BehaviorEvent{}
		if err := rows.Scan(&ev.ID, &ev.ActionKey, &ev.Outcome, &ev.OccurredTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan behavior event")
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
