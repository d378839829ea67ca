package store

import (
	"context"
	"database/sql"
)

// Driver is the narrow persistence interface the coaching pipeline
// reads and writes through.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Signal model related methods.
	CreateSignal(ctx context.Context, create *Signal) (*Signal, error)
	ListSignals(ctx context.Context, find *FindSignal) ([]*Signal, error)
	ResolveSignal(ctx context.Context, resolve *ResolveSignal) error
	PruneExpiredSignals(ctx context.Context, nowTs int64) (int64, error)

	// BehaviorEvent model related methods. Events are append-only.
	CreateBehaviorEvent(ctx context.Context, create *BehaviorEvent) (*BehaviorEvent, error)
	ListBehaviorEvents(ctx context.Context, find *FindBehaviorEvent) ([]*BehaviorEvent, error)

	// Cooldown model related methods.
	UpsertCooldown(ctx context.Context, key string, ts int64) error
	GetCooldown(ctx context.Context, key string) (int64, bool, error)
}
