package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakform/coach/plugin/coach/fitness"
)

var affinityBase = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func event(kind fitness.ActionKind, outcome fitness.BehaviorOutcome, minuteOffset int) fitness.BehaviorEvent {
	return fitness.BehaviorEvent{
		ActionKey:  kind,
		Outcome:    outcome,
		OccurredAt: affinityBase.Add(time.Duration(minuteOffset) * time.Minute),
	}
}

func TestFollowThroughRate(t *testing.T) {
	horizon := 90 * time.Minute

	t.Run("too few opportunities", func(t *testing.T) {
		events := []fitness.BehaviorEvent{
			event(fitness.ActionLogFood, fitness.OutcomeOpened, 0),
			event(fitness.ActionLogFood, fitness.OutcomePerformed, 10),
		}
		_, ok := followThroughRate(events, horizon)
		assert.False(t, ok)
	})

	t.Run("each conversion matches one opportunity", func(t *testing.T) {
		events := []fitness.BehaviorEvent{
			event(fitness.ActionLogFood, fitness.OutcomeOpened, 0),
			event(fitness.ActionLogFood, fitness.OutcomeOpened, 5),
			event(fitness.ActionLogFood, fitness.OutcomePerformed, 10),
		}
		rate, ok := followThroughRate(events, horizon)
		require.True(t, ok)
		assert.InDelta(t, 0.5, rate, 1e-9)
	})

	t.Run("conversion outside horizon does not count", func(t *testing.T) {
		events := []fitness.BehaviorEvent{
			event(fitness.ActionLogFood, fitness.OutcomeOpened, 0),
			event(fitness.ActionLogFood, fitness.OutcomeOpened, 5),
			event(fitness.ActionLogFood, fitness.OutcomePerformed, 200),
		}
		rate, ok := followThroughRate(events, horizon)
		require.True(t, ok)
		assert.InDelta(t, 0, rate, 1e-9)
	})

	t.Run("full follow-through", func(t *testing.T) {
		events := []fitness.BehaviorEvent{
			event(fitness.ActionStartWorkout, fitness.OutcomeSuggestedTap, 0),
			event(fitness.ActionStartWorkout, fitness.OutcomeCompleted, 30),
			event(fitness.ActionStartWorkout, fitness.OutcomeSuggestedTap, 120),
			event(fitness.ActionStartWorkout, fitness.OutcomeCompleted, 150),
		}
		rate, ok := followThroughRate(events, horizon)
		require.True(t, ok)
		assert.InDelta(t, 1.0, rate, 1e-9)
	})
}

func TestBehaviorAffinityOutcomeWeights(t *testing.T) {
	horizon := 90 * time.Minute

	// A single event per kind: below the opportunity minimum, so the raw
	// weight comes through unscaled.
	events := []fitness.BehaviorEvent{
		event(fitness.ActionLogFood, fitness.OutcomeCompleted, 0),
		event(fitness.ActionLogWeight, fitness.OutcomePerformed, 1),
		event(fitness.ActionStartWorkout, fitness.OutcomeDismissed, 2),
	}
	scores := behaviorAffinity(events, horizon)

	assert.InDelta(t, 1.15, scores[fitness.ActionLogFood], 1e-9)
	assert.InDelta(t, 1.0, scores[fitness.ActionLogWeight], 1e-9)
	// Dismissals floor at zero, never go negative.
	assert.InDelta(t, 0, scores[fitness.ActionStartWorkout], 1e-9)
}

func TestBehaviorAffinityFollowThroughMultiplier(t *testing.T) {
	horizon := 90 * time.Minute

	// Two opportunities, both converting: rate 1.0, multiplier 1.3.
	events := []fitness.BehaviorEvent{
		event(fitness.ActionLogFood, fitness.OutcomeOpened, 0),
		event(fitness.ActionLogFood, fitness.OutcomePerformed, 10),
		event(fitness.ActionLogFood, fitness.OutcomeOpened, 60),
		event(fitness.ActionLogFood, fitness.OutcomePerformed, 70),
	}
	scores := behaviorAffinity(events, horizon)

	raw := 2*0.35 + 2*1.0
	assert.InDelta(t, raw*1.3, scores[fitness.ActionLogFood], 1e-9)
}

func TestFollowThroughMultiplierBound(t *testing.T) {
	// The multiplier crosses 1 at rate 1/3: below it the kind is damped,
	// above it the kind is boosted.
	for _, rate := range []float64{0, 0.25, 1.0 / 3.0} {
		m := followThroughBase + followThroughScale*rate
		assert.LessOrEqual(t, m, 1.0+1e-9, "rate %f", rate)
	}
	for _, rate := range []float64{0.34, 0.5, 0.78, 1.0} {
		m := followThroughBase + followThroughScale*rate
		assert.Greater(t, m, 1.0, "rate %f", rate)
	}
}

func TestMergeAffinity(t *testing.T) {
	behavior := map[fitness.ActionKind]float64{
		fitness.ActionLogFood:      3,
		fitness.ActionStartWorkout: 1,
	}
	legacy := map[fitness.ActionKind]int{
		fitness.ActionLogWeight: 10,
	}

	merged := mergeAffinity(behavior, legacy)

	total := 0.0
	for _, v := range merged {
		total += v
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	// Behavior carries 0.85 of the mass, legacy 0.15.
	assert.InDelta(t, 0.85*0.75, merged[fitness.ActionLogFood], 1e-9)
	assert.InDelta(t, 0.85*0.25, merged[fitness.ActionStartWorkout], 1e-9)
	assert.InDelta(t, 0.15, merged[fitness.ActionLogWeight], 1e-9)
}

func TestMergeAffinityEmptySources(t *testing.T) {
	merged := mergeAffinity(nil, nil)
	assert.Empty(t, merged)
}

func TestMergeAffinityBehaviorOnly(t *testing.T) {
	behavior := map[fitness.ActionKind]float64{
		fitness.ActionLogFood: 2,
	}
	merged := mergeAffinity(behavior, nil)
	assert.InDelta(t, 1.0, merged[fitness.ActionLogFood], 1e-9)
}
