package recovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scoreNow = time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)

type fakeHistory struct {
	sessions  []Session
	exercises []Exercise

	sessionCalls  int
	exerciseCalls int
}

func (f *fakeHistory) RecentSessions(_ context.Context, _ int) ([]Session, error) {
	f.sessionCalls++
	return f.sessions, nil
}

func (f *fakeHistory) ExerciseHistory(_ context.Context) ([]Exercise, error) {
	f.exerciseCalls++
	return f.exercises, nil
}

func hoursPtr(h float64) *float64 { return &h }

func TestStatusForHours(t *testing.T) {
	tests := []struct {
		name     string
		hours    *float64
		expected Status
	}{
		{"never trained", nil, StatusReady},
		{"well rested", hoursPtr(72), StatusReady},
		{"exactly 48", hoursPtr(48), StatusReady},
		{"recovering", hoursPtr(36), StatusRecovering},
		{"exactly 24", hoursPtr(24), StatusRecovering},
		{"fresh fatigue", hoursPtr(6), StatusTired},
		{"zero", hoursPtr(0), StatusTired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusForHours(tt.hours))
		})
	}
}

func TestStatusesFromSessions(t *testing.T) {
	history := &fakeHistory{
		sessions: []Session{
			{Name: "push", Muscles: []string{"chest", "triceps"}, CompletedAt: scoreNow.Add(-10 * time.Hour), Completed: true},
			{Name: "legs", Muscles: []string{"legs"}, CompletedAt: scoreNow.Add(-30 * time.Hour), Completed: true},
			{Name: "abandoned", Muscles: []string{"back"}, CompletedAt: scoreNow.Add(-2 * time.Hour), Completed: false},
		},
	}
	scorer := NewScorer(history, Config{})

	infos, err := scorer.Statuses(context.Background(), scoreNow, false)
	require.NoError(t, err)
	require.Len(t, infos, len(TrackedCategories()))

	byCategory := make(map[Category]Info)
	for _, info := range infos {
		byCategory[info.Category] = info
	}

	assert.Equal(t, StatusTired, byCategory[CategoryChest].Status)
	assert.Equal(t, StatusTired, byCategory[CategoryArms].Status)
	assert.Equal(t, StatusRecovering, byCategory[CategoryQuads].Status)
	assert.Equal(t, StatusRecovering, byCategory[CategoryGlutes].Status)
	// The incomplete session does not count; back was never trained.
	assert.Equal(t, StatusReady, byCategory[CategoryBack].Status)
	assert.Nil(t, byCategory[CategoryBack].LastActiveAt)
}

func TestStatusesExerciseFallback(t *testing.T) {
	history := &fakeHistory{
		exercises: []Exercise{
			{Name: "barbell row", Muscle: "lats", PerformedAt: scoreNow.Add(-20 * time.Hour)},
		},
	}
	scorer := NewScorer(history, Config{})

	infos, err := scorer.Statuses(context.Background(), scoreNow, false)
	require.NoError(t, err)

	for _, info := range infos {
		if info.Category == CategoryBack {
			assert.Equal(t, StatusTired, info.Status)
			require.NotNil(t, info.HoursSince)
			assert.InDelta(t, 20, *info.HoursSince, 0.01)
		}
	}
}

func TestStatusCacheTTL(t *testing.T) {
	history := &fakeHistory{}
	scorer := NewScorer(history, Config{})

	_, err := scorer.Statuses(context.Background(), scoreNow, false)
	require.NoError(t, err)
	assert.Equal(t, 1, history.sessionCalls)

	// Within the 90s TTL the cached result serves.
	_, err = scorer.Statuses(context.Background(), scoreNow.Add(60*time.Second), false)
	require.NoError(t, err)
	assert.Equal(t, 1, history.sessionCalls)

	// Past the TTL the scorer rebuilds.
	_, err = scorer.Statuses(context.Background(), scoreNow.Add(2*time.Minute), false)
	require.NoError(t, err)
	assert.Equal(t, 2, history.sessionCalls)
}

func TestStatusForceRefreshBypassesStatusCacheOnly(t *testing.T) {
	history := &fakeHistory{
		exercises: []Exercise{
			{Name: "curl", Muscle: "biceps", PerformedAt: scoreNow.Add(-5 * time.Hour)},
		},
	}
	scorer := NewScorer(history, Config{})

	_, err := scorer.Statuses(context.Background(), scoreNow, false)
	require.NoError(t, err)
	require.Equal(t, 1, history.sessionCalls)

	_, err = scorer.Statuses(context.Background(), scoreNow.Add(time.Second), true)
	require.NoError(t, err)
	assert.Equal(t, 2, history.sessionCalls, "force refresh must rebuild statuses")
	assert.True(t, scorer.lookupCache.valid, "exercise lookup cache keeps its own TTL")
	assert.Equal(t, scoreNow, scorer.lookupCache.builtAt)
}

func TestCategoriesForMuscle(t *testing.T) {
	assert.Equal(t, []Category{CategoryChest}, CategoriesForMuscle("Chest"))
	assert.Equal(t, []Category{CategoryArms}, CategoriesForMuscle(" biceps "))
	assert.ElementsMatch(t,
		[]Category{CategoryQuads, CategoryHamstrings, CategoryGlutes, CategoryCalves},
		CategoriesForMuscle("legs"))
	assert.Len(t, CategoriesForMuscle("full_body"), len(TrackedCategories()))
	assert.Len(t, CategoriesForMuscle("full body"), len(TrackedCategories()))
	assert.Empty(t, CategoriesForMuscle("unknown"))
}
