package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/peakform/coach/plugin/coach/fitness"
)

// BehaviorEvent is one append-only interaction record. Never mutated
// after insert.
type BehaviorEvent struct {
	ID         int32
	ActionKey  string
	Outcome    string
	OccurredTs int64
}

// FindBehaviorEvent filters an event listing.
type FindBehaviorEvent struct {
	ActionKey *string
	// OccurredAfterTs bounds the listing to the rolling window.
	OccurredAfterTs *int64
}

// View converts the persisted record to the pipeline's shape.
func (e *BehaviorEvent) View() fitness.BehaviorEvent {
	return fitness.BehaviorEvent{
		ActionKey:  fitness.ActionKind(e.ActionKey),
		Outcome:    fitness.BehaviorOutcome(e.Outcome),
		OccurredAt: time.Unix(e.OccurredTs, 0),
	}
}

// CreateBehaviorEvent appends an interaction record.
func (s *Store) CreateBehaviorEvent(ctx context.Context, create *BehaviorEvent) (*BehaviorEvent, error) {
	if create.ActionKey == "" {
		return nil, errors.New("behavior event requires an action key")
	}
	if create.Outcome == "" {
		return nil, errors.New("behavior event requires an outcome")
	}
	return s.driver.CreateBehaviorEvent(ctx, create)
}

// ListBehaviorEvents lists events matching the filter.
func (s *Store) ListBehaviorEvents(ctx context.Context, find *FindBehaviorEvent) ([]*BehaviorEvent, error) {
	return s.driver.ListBehaviorEvents(ctx, find)
}

// EventsSince returns events in the window starting at since, converted
// to the pipeline's view type.
func (s *Store) EventsSince(ctx context.Context, since time.Time) ([]fitness.BehaviorEvent, error) {
	sinceTs := since.Unix()
	events, err := s.driver.ListBehaviorEvents(ctx, &FindBehaviorEvent{OccurredAfterTs: &sinceTs})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list behavior events")
	}
	views := make([]fitness.BehaviorEvent, 0, len(events))
	for _, ev := range events {
		views = append(views, ev.View())
	}
	return views, nil
}
