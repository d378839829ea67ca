package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/peakform/coach/internal/profile"
	"github.com/peakform/coach/store"
)

// DB is the SQLite implementation of store.Driver.
type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

const latestSchema = `
CREATE TABLE IF NOT EXISTS signal (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	domain TEXT NOT NULL DEFAULT '',
	severity REAL NOT NULL DEFAULT 0,
	confidence REAL NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL,
	expires_ts BIGINT NOT NULL,
	resolved INTEGER NOT NULL DEFAULT 0,
	resolution_note TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_signal_expires ON signal (expires_ts);

CREATE TABLE IF NOT EXISTS behavior_event (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	action_key TEXT NOT NULL,
	outcome TEXT NOT NULL,
	occurred_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_behavior_event_occurred ON behavior_event (occurred_ts);

CREATE TABLE IF NOT EXISTS cooldown (
	key TEXT PRIMARY KEY,
	ts BIGINT NOT NULL
);
`

// NewDB opens the SQLite database at the profile's DSN and ensures the
// schema exists.
func NewDB(p *profile.Profile) (store.Driver, error) {
	if p == nil {
		return nil, errors.New("profile is nil")
	}
	if p.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL keeps the single-writer workload responsive; busy_timeout
	// covers the prune sweep racing the app process.
	db, err := sql.Open("sqlite", p.DSN+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", p.DSN)
	}

	driver := &DB{db: db, profile: p}
	if err := driver.migrate(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}
	return driver, nil
}

func (d *DB) migrate(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, latestSchema)
	return err
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}
