package postgres

import (
	"context"
	"database/sql"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/peakform/coach/internal/profile"
	"github.com/peakform/coach/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

const latestSchema = `
CREATE TABLE IF NOT EXISTS signal (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	domain TEXT NOT NULL DEFAULT '',
	severity REAL NOT NULL DEFAULT 0,
	confidence REAL NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL,
	expires_ts BIGINT NOT NULL,
	resolved BOOLEAN NOT NULL DEFAULT FALSE,
	resolution_note TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_signal_domain ON signal (domain);
CREATE INDEX IF NOT EXISTS idx_signal_expires_ts ON signal (expires_ts);

CREATE TABLE IF NOT EXISTS behavior_event (
	id BIGSERIAL PRIMARY KEY,
	action_key TEXT NOT NULL,
	outcome TEXT NOT NULL,
	occurred_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_behavior_event_occurred_ts ON behavior_event (occurred_ts);

CREATE TABLE IF NOT EXISTS cooldown (
	key TEXT PRIMARY KEY,
	ts BIGINT NOT NULL
);
`

func NewDB(p *profile.Profile) (store.Driver, error) {
	if p == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", p.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", p.DSN)
	}

	// Single-user deployment: keep the pool small.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	driver := &DB{
		db:      db,
		profile: p,
	}
	if err := driver.migrate(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}
	return driver, nil
}

func (d *DB) migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, latestSchema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}
