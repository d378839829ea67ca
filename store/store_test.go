package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver is an in-memory Driver for facade-level tests.
type fakeDriver struct {
	signals   []*Signal
	events    []*BehaviorEvent
	cooldowns map[string]int64
	nextID    int32
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{cooldowns: make(map[string]int64), nextID: 1}
}

func (d *fakeDriver) GetDB() *sql.DB { return nil }
func (d *fakeDriver) Close() error   { return nil }

func (d *fakeDriver) CreateSignal(_ context.Context, create *Signal) (*Signal, error) {
	create.ID = d.nextID
	d.nextID++
	d.signals = append(d.signals, create)
	return create, nil
}

func (d *fakeDriver) ListSignals(_ context.Context, find *FindSignal) ([]*Signal, error) {
	var out []*Signal
	for _, sig := range d.signals {
		if find.UID != nil && sig.UID != *find.UID {
			continue
		}
		if find.Domain != nil && sig.Domain != *find.Domain {
			continue
		}
		if find.Resolved != nil && sig.Resolved != *find.Resolved {
			continue
		}
		if find.ActiveAtTs != nil && sig.ExpiresTs <= *find.ActiveAtTs {
			continue
		}
		out = append(out, sig)
	}
	return out, nil
}

func (d *fakeDriver) ResolveSignal(_ context.Context, resolve *ResolveSignal) error {
	for _, sig := range d.signals {
		if sig.UID == resolve.UID {
			sig.Resolved = true
			sig.ResolutionNote = resolve.Note
			return nil
		}
	}
	return sql.ErrNoRows
}

func (d *fakeDriver) PruneExpiredSignals(_ context.Context, nowTs int64) (int64, error) {
	var pruned int64
	for _, sig := range d.signals {
		if !sig.Resolved && sig.ExpiresTs <= nowTs {
			sig.Resolved = true
			sig.ResolutionNote = "expired"
			pruned++
		}
	}
	return pruned, nil
}

func (d *fakeDriver) CreateBehaviorEvent(_ context.Context, create *BehaviorEvent) (*BehaviorEvent, error) {
	create.ID = d.nextID
	d.nextID++
	d.events = append(d.events, create)
	return create, nil
}

func (d *fakeDriver) ListBehaviorEvents(_ context.Context, find *FindBehaviorEvent) ([]*BehaviorEvent, error) {
	var out []*BehaviorEvent
	for _, ev := range d.events {
		if find.ActionKey != nil && ev.ActionKey != *find.ActionKey {
			continue
		}
		if find.OccurredAfterTs != nil && ev.OccurredTs <= *find.OccurredAfterTs {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (d *fakeDriver) UpsertCooldown(_ context.Context, key string, ts int64) error {
	d.cooldowns[key] = ts
	return nil
}

func (d *fakeDriver) GetCooldown(_ context.Context, key string) (int64, bool, error) {
	ts, ok := d.cooldowns[key]
	return ts, ok, nil
}

var _ Driver = (*fakeDriver)(nil)

func TestCreateSignalValidation(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeDriver())
	now := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		signal *Signal
		ok     bool
	}{
		{
			name: "valid",
			signal: &Signal{
				Title: "knee pain", Domain: "pain",
				Severity: 0.8, Confidence: 0.9,
				CreatedTs: now.Unix(), ExpiresTs: now.Add(24 * time.Hour).Unix(),
			},
			ok: true,
		},
		{
			name: "expiry before creation",
			signal: &Signal{
				Title:     "stale",
				CreatedTs: now.Unix(), ExpiresTs: now.Add(-time.Hour).Unix(),
			},
		},
		{
			name: "severity out of range",
			signal: &Signal{
				Title: "bad", Severity: 1.5,
				CreatedTs: now.Unix(), ExpiresTs: now.Add(time.Hour).Unix(),
			},
		},
		{
			name: "confidence out of range",
			signal: &Signal{
				Title: "bad", Confidence: -0.1,
				CreatedTs: now.Unix(), ExpiresTs: now.Add(time.Hour).Unix(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := s.CreateSignal(ctx, tt.signal)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, created.UID, "UID is generated when absent")
			assert.NotZero(t, created.ID)
		})
	}
}

func TestActiveSignals(t *testing.T) {
	ctx := context.Background()
	driver := newFakeDriver()
	s := New(driver)
	now := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)

	mk := func(title string, expires time.Time, resolved bool) {
		_, err := s.CreateSignal(ctx, &Signal{
			Title:     title,
			CreatedTs: now.Add(-48 * time.Hour).Unix(),
			ExpiresTs: expires.Unix(),
			Resolved:  resolved,
		})
		require.NoError(t, err)
	}
	mk("live", now.Add(time.Hour), false)
	mk("expired", now.Add(-time.Hour), false)
	mk("resolved", now.Add(time.Hour), true)

	active, err := s.ActiveSignals(ctx, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "live", active[0].Title)
	assert.Equal(t, now.Add(time.Hour).Unix(), active[0].ExpiresAt.Unix())
}

func TestPruneExpiredSignals(t *testing.T) {
	ctx := context.Background()
	driver := newFakeDriver()
	s := New(driver)
	now := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)

	_, err := s.CreateSignal(ctx, &Signal{
		Title:     "stale soreness",
		CreatedTs: now.Add(-72 * time.Hour).Unix(),
		ExpiresTs: now.Add(-time.Hour).Unix(),
	})
	require.NoError(t, err)

	pruned, err := s.PruneExpiredSignals(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)
	assert.True(t, driver.signals[0].Resolved)
	assert.Equal(t, "expired", driver.signals[0].ResolutionNote)
}

func TestBehaviorEventValidationAndWindow(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeDriver())
	now := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)

	_, err := s.CreateBehaviorEvent(ctx, &BehaviorEvent{Outcome: "performed", OccurredTs: now.Unix()})
	assert.Error(t, err, "action key is required")

	_, err = s.CreateBehaviorEvent(ctx, &BehaviorEvent{ActionKey: "log_food", OccurredTs: now.Unix()})
	assert.Error(t, err, "outcome is required")

	_, err = s.CreateBehaviorEvent(ctx, &BehaviorEvent{
		ActionKey: "log_food", Outcome: "performed", OccurredTs: now.Add(-48 * time.Hour).Unix(),
	})
	require.NoError(t, err)
	_, err = s.CreateBehaviorEvent(ctx, &BehaviorEvent{
		ActionKey: "log_food", Outcome: "completed", OccurredTs: now.Add(-40 * 24 * time.Hour).Unix(),
	})
	require.NoError(t, err)

	events, err := s.EventsSince(ctx, now.AddDate(0, 0, -28))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "log_food", string(events[0].ActionKey))
	assert.Equal(t, "performed", string(events[0].Outcome))
}

func TestCooldownRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeDriver())

	_, ok, err := s.GetCooldown(ctx, "plan_proposal")
	require.NoError(t, err)
	assert.False(t, ok)

	ts := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertCooldown(ctx, "plan_proposal", ts))

	got, ok, err := s.GetCooldown(ctx, "plan_proposal")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(ts))
}
