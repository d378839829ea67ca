package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

func (d *DB) UpsertCooldown(ctx context.Context, key string, ts int64) error {
	stmt := `INSERT INTO cooldown (key, ts)
		VALUES (` + placeholders(2) + `)
		ON CONFLICT (key) DO UPDATE SET ts = excluded.ts`
	if _, err := d.db.ExecContext(ctx, stmt, key, ts); err != nil {
		return errors.Wrap(err, "failed to upsert cooldown")
	}
	return nil
}

func (d *DB) GetCooldown(ctx context.Context, key string) (int64, bool, error) {
	var ts int64
	if err := d.db.QueryRowContext(ctx, `SELECT ts FROM cooldown WHERE key = `+placeholder(1), key).Scan(&ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, "failed to get cooldown")
	}
	return ts, true, nil
}
