// Package store provides database access to the coaching pipeline's
// persisted objects: signals, behavior events, and cooldown timestamps.
package store

import (
	"context"
	"time"
)

// Store provides access through narrow accessors; the pipeline never
// touches the driver directly.
type Store struct {
	driver Driver
}

// New creates a new Store over the given driver.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

// GetDriver exposes the underlying driver.
func (s *Store) GetDriver() Driver {
	return s.driver
}

// Close closes the underlying driver.
func (s *Store) Close() error {
	return s.driver.Close()
}

// GetCooldown returns the persisted cooldown timestamp for key.
// Implements the policy engine's CooldownStore.
func (s *Store) GetCooldown(ctx context.Context, key string) (time.Time, bool, error) {
	ts, ok, err := s.driver.GetCooldown(ctx, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	return time.Unix(ts, 0), true, nil
}

// UpsertCooldown persists a cooldown timestamp for key.
func (s *Store) UpsertCooldown(ctx context.Context, key string, ts time.Time) error {
	return s.driver.UpsertCooldown(ctx, key, ts.Unix())
}
