package packet

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakform/coach/plugin/coach/fitness"
	"github.com/peakform/coach/plugin/coach/pattern"
)

var packetNow = time.Date(2026, 3, 16, 19, 30, 0, 0, time.UTC)

func packetInputs() *fitness.Inputs {
	return &fitness.Inputs{
		Goals: &fitness.Goals{ProteinGrams: 150, Calories: 2400, WorkoutsPerWeek: 4},
		Day: fitness.DayState{
			HasActiveWorkout:       true,
			ReminderCompletionRate: 0.3,
			PendingReminders:       3,
			WeightLoggedThisWeek:   true,
			HasWorkoutToday:        true,
		},
		Signals: []fitness.Signal{
			{
				UID:        "sig-1",
				Title:      "left knee pain",
				Domain:     "pain",
				Severity:   0.8,
				Confidence: 0.9,
				CreatedAt:  packetNow.Add(-2 * time.Hour),
				ExpiresAt:  packetNow.Add(24 * time.Hour),
			},
		},
	}
}

func packetProfile() *pattern.Profile {
	p := pattern.EmptyProfile()
	p.WorkoutWindowScores[pattern.WindowEvening] = 0.7
	p.MealWindowScores[pattern.WindowMorning] = 0.5
	p.CommonAnchors = []string{"Greek Yogurt", "Chicken Breast"}
	p.AdherenceNotes = []string{"logging is sparse: 4 of the last 14 days"}
	return p
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		content  string
		expected int
	}{
		{"", 1},
		{"one", 1},
		{"two words", 3}, // round(2*1.25)
		{"a b c d", 5},
		{"a b c d e f g h", 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, EstimateTokens(tt.content), "content %q", tt.content)
	}
}

func TestAssembleDeterministic(t *testing.T) {
	a := NewAssembler(0)
	first := a.Assemble(packetNow, packetProfile(), nil, packetInputs())
	second := a.Assemble(packetNow, packetProfile(), nil, packetInputs())

	require.NotNil(t, first)
	assert.Equal(t, first.Summary, second.Summary, "identical inputs must produce byte-identical packets")
	assert.Equal(t, first, second)
}

func TestAssembleRespectsCategoryLimits(t *testing.T) {
	a := NewAssembler(0)
	trend := &pattern.Trend{LowProteinStreak: 5, DaysSinceWorkout: 6}
	pkt := a.Assemble(packetNow, packetProfile(), trend, packetInputs())

	assert.LessOrEqual(t, len(pkt.Constraints), 2)
	assert.LessOrEqual(t, len(pkt.Patterns), 3)
	assert.LessOrEqual(t, len(pkt.Anomalies), 2)
	assert.LessOrEqual(t, len(pkt.Actions), 2)
}

func TestAssembleBudgetInvariant(t *testing.T) {
	in := packetInputs()
	trend := &pattern.Trend{LowProteinStreak: 5, DaysSinceWorkout: 6}
	profile := packetProfile()

	for _, budget := range []int{1, 5, 10, 20, 50, 700} {
		a := NewAssembler(budget)
		pkt := a.Assemble(packetNow, profile, trend, in)
		require.NotNil(t, pkt)

		// Either the packet fits, or it has been trimmed to the
		// irreducible floor of one item per surviving category.
		if pkt.EstimatedTokens > budget {
			assert.Empty(t, pkt.Anomalies, "budget %d", budget)
			assert.LessOrEqual(t, len(pkt.Patterns), 1, "budget %d", budget)
			assert.LessOrEqual(t, len(pkt.Actions), 1, "budget %d", budget)
			assert.LessOrEqual(t, len(pkt.Constraints), 1, "budget %d", budget)
		}
		assert.NotEmpty(t, pkt.Goal)
	}
}

func TestAssembleTrimOrder(t *testing.T) {
	in := packetInputs()
	trend := &pattern.Trend{LowProteinStreak: 5, DaysSinceWorkout: 6}
	profile := packetProfile()

	full := NewAssembler(700).Assemble(packetNow, profile, trend, in)
	require.NotEmpty(t, full.Anomalies)

	// A budget just below the full estimate forces trimming, which must
	// take anomalies before constraints.
	trimmed := NewAssembler(full.EstimatedTokens - 1).Assemble(packetNow, profile, trend, in)
	assert.Less(t, len(trimmed.Anomalies), len(full.Anomalies))
	assert.Equal(t, full.Constraints, trimmed.Constraints)
}

func TestAssembleGoalLine(t *testing.T) {
	a := NewAssembler(0)

	t.Run("no goals", func(t *testing.T) {
		pkt := a.Assemble(packetNow, nil, nil, &fitness.Inputs{})
		assert.Equal(t, "general fitness", pkt.Goal)
	})

	t.Run("nil snapshot", func(t *testing.T) {
		pkt := a.Assemble(packetNow, nil, nil, nil)
		assert.Equal(t, "general fitness", pkt.Goal)
		assert.Empty(t, pkt.Constraints)
		assert.GreaterOrEqual(t, pkt.EstimatedTokens, 1)
	})

	t.Run("full goals", func(t *testing.T) {
		pkt := a.Assemble(packetNow, nil, nil, packetInputs())
		assert.Equal(t, "protein 150g, 2400 kcal, 4 workouts/wk", pkt.Goal)
	})
}

func TestAssembleSummaryShape(t *testing.T) {
	a := NewAssembler(0)
	pkt := a.Assemble(packetNow, packetProfile(), nil, packetInputs())

	lines := strings.Split(pkt.Summary, "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "goal="))
	for _, line := range lines[1:] {
		parts := strings.SplitN(line, "=", 2)
		require.Len(t, parts, 2)
		assert.Contains(t, []string{"constraints", "patterns", "anomalies", "actions"}, parts[0])
	}
}

func TestAssembleExpiredSignalsExcluded(t *testing.T) {
	a := NewAssembler(0)
	in := &fitness.Inputs{
		Day: fitness.DayState{WeightLoggedThisWeek: true, HasWorkoutToday: true},
		Signals: []fitness.Signal{
			{
				UID:       "expired",
				Title:     "old soreness",
				Domain:    "recovery",
				Severity:  0.9,
				CreatedAt: packetNow.Add(-72 * time.Hour),
				ExpiresAt: packetNow.Add(-time.Hour),
			},
		},
	}
	pkt := a.Assemble(packetNow, nil, nil, in)
	assert.Empty(t, pkt.Anomalies)
}
