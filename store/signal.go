package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/peakform/coach/plugin/coach/fitness"
)

// Signal is a persisted, time-bounded fact about user state. Active
// means not resolved and not yet expired.
type Signal struct {
	ID  int32
	UID string

	Title      string
	Detail     string
	Source     string
	Domain     string
	Severity   float64
	Confidence float64

	CreatedTs      int64
	ExpiresTs      int64
	Resolved       bool
	ResolutionNote string
}

// FindSignal filters a signal listing.
type FindSignal struct {
	ID       *int32
	UID      *string
	Domain   *string
	Resolved *bool
	// ActiveAtTs keeps only signals whose expiry is after this instant.
	ActiveAtTs *int64
}

// ResolveSignal marks a signal resolved with an optional note.
type ResolveSignal struct {
	UID  string
	Note string
}

// View converts the persisted record to the pipeline's read-side shape.
func (s *Signal) View() fitness.Signal {
	return fitness.Signal{
		UID:        s.UID,
		Title:      s.Title,
		Detail:     s.Detail,
		Source:     s.Source,
		Domain:     s.Domain,
		Severity:   s.Severity,
		Confidence: s.Confidence,
		CreatedAt:  time.Unix(s.CreatedTs, 0),
		ExpiresAt:  time.Unix(s.ExpiresTs, 0),
	}
}

// CreateSignal validates and persists a new signal, generating a UID
// when absent.
func (s *Store) CreateSignal(ctx context.Context, create *Signal) (*Signal, error) {
	if create.ExpiresTs <= create.CreatedTs {
		return nil, errors.Errorf("signal must expire after creation: expires=%d created=%d", create.ExpiresTs, create.CreatedTs)
	}
	if create.Severity < 0 || create.Severity > 1 {
		return nil, errors.Errorf("severity out of range: %f", create.Severity)
	}
	if create.Confidence < 0 || create.Confidence > 1 {
		return nil, errors.Errorf("confidence out of range: %f", create.Confidence)
	}
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	return s.driver.CreateSignal(ctx, create)
}

// ListSignals lists signals matching the filter.
func (s *Store) ListSignals(ctx context.Context, find *FindSignal) ([]*Signal, error) {
	return s.driver.ListSignals(ctx, find)
}

// ActiveSignals returns the unresolved, unexpired signals at now,
// converted to the pipeline's view type.
func (s *Store) ActiveSignals(ctx context.Context, now time.Time) ([]fitness.Signal, error) {
	resolved := false
	nowTs := now.Unix()
	signals, err := s.driver.ListSignals(ctx, &FindSignal{Resolved: &resolved, ActiveAtTs: &nowTs})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active signals")
	}
	views := make([]fitness.Signal, 0, len(signals))
	for _, sig := range signals {
		views = append(views, sig.View())
	}
	return views, nil
}

// ResolveSignal marks a signal resolved.
func (s *Store) ResolveSignal(ctx context.Context, resolve *ResolveSignal) error {
	return s.driver.ResolveSignal(ctx, resolve)
}

// PruneExpiredSignals resolves every signal whose expiry has passed,
// returning how many were swept.
func (s *Store) PruneExpiredSignals(ctx context.Context, now time.Time) (int64, error) {
	return s.driver.PruneExpiredSignals(ctx, now.Unix())
}
