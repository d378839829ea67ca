package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/peakform/coach/store"
)

func (d *DB) CreateSignal(ctx context.Context, create *store.Signal) (*store.Signal, error) {
	fields := []string{"uid", "title", "detail", "source", "domain", "severity", "confidence", "created_ts", "expires_ts"}
	values := []any{create.UID, create.Title, create.Detail, create.Source, create.Domain, create.Severity, create.Confidence, create.CreatedTs, create.ExpiresTs}

	stmt := `INSERT INTO signal (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(values)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, values...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create signal")
	}
	return create, nil
}

func (d *DB) ListSignals(ctx context.Context, find *store.FindSignal) ([]*store.Signal, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "signal.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "signal.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Domain; v != nil {
		where, args = append(where, "signal.domain = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Resolved; v != nil {
		where, args = append(where, "signal.resolved = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ActiveAtTs; v != nil {
		where, args = append(where, "signal.expires_ts > "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, uid, title, detail, source, domain, severity, confidence,
			created_ts, expires_ts, resolved, resolution_note
		FROM signal
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY signal.created_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list signals")
	}
	defer rows.Close()

	var signals []*store.Signal
	for rows.Next() {
		sig := &store.Signal{}
		if err := rows.Scan(
			&sig.ID, &sig.UID, &sig.Title, &sig.Detail, &sig.Source, &sig.Domain,
			&sig.Severity, &sig.Confidence, &sig.CreatedTs, &sig.ExpiresTs,
			&sig.Resolved, &sig.ResolutionNote,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan signal")
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

func (d *DB) ResolveSignal(ctx context.Context, resolve *store.ResolveSignal) error {
	result, err := d.db.ExecContext(ctx,
		`UPDATE signal SET resolved = TRUE, resolution_note = $1 WHERE uid = $2`,
		resolve.Note, resolve.UID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to resolve signal")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.Errorf("signal not found: %s", resolve.UID)
	}
	return nil
}

func (d *DB) PruneExpiredSignals(ctx context.Context, nowTs int64) (int64, error) {
	result, err := d.db.ExecContext(ctx,
		`UPDATE signal SET resolved = TRUE, resolution_note = 'expired'
		WHERE resolved = FALSE AND expires_ts <= $1`,
		nowTs,
	)
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune expired signals")
	}
	return result.RowsAffected()
}
