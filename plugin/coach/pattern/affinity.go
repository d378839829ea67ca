package pattern

import (
	"sort"
	"time"

	"github.com/peakform/coach/plugin/coach/fitness"
)

// Outcome weights for behavior-event affinity scoring. Dismissals pull
// a kind's score down; completions pull hardest upward.
var outcomeWeights = map[fitness.BehaviorOutcome]float64{
	fitness.OutcomePresented:    0.12,
	fitness.OutcomeOpened:       0.35,
	fitness.OutcomeSuggestedTap: 0.70,
	fitness.OutcomePerformed:    1.0,
	fitness.OutcomeCompleted:    1.15,
	fitness.OutcomeDismissed:    -0.40,
}

const (
	// behaviorWeight vs legacyWeight splits the merge between the
	// behavior-event source and the legacy usage-count source.
	behaviorWeight = 0.85
	legacyWeight   = 0.15

	// Follow-through multiplier: 0.85 + 0.45*rate. It exceeds 1 only
	// when the rate is above 1/3.
	followThroughBase  = 0.85
	followThroughScale = 0.45

	// minOpportunities is required before a follow-through rate counts.
	minOpportunities = 2
)

func isOpportunity(o fitness.BehaviorOutcome) bool {
	return o == fitness.OutcomePresented || o == fitness.OutcomeOpened || o == fitness.OutcomeSuggestedTap
}

func isConversion(o fitness.BehaviorOutcome) bool {
	return o == fitness.OutcomePerformed || o == fitness.OutcomeCompleted
}

// followThroughRate greedily matches each opportunity, in time order, to
// the next unused conversion within the horizon. It is a merge-style scan
// over two sorted timestamp lists; duplicate timestamps match in
// sorted-stable order. The second return is false when the kind has too
// few opportunities to judge.
func followThroughRate(events []fitness.BehaviorEvent, horizon time.Duration) (float64, bool) {
	var opportunities, conversions []time.Time
	for _, ev := range events {
		switch {
		case isOpportunity(ev.Outcome):
			opportunities = append(opportunities, ev.OccurredAt)
		case isConversion(ev.Outcome):
			conversions = append(conversions, ev.OccurredAt)
		}
	}
	if len(opportunities) < minOpportunities {
		return 0, false
	}

	sort.SliceStable(opportunities, func(i, j int) bool { return opportunities[i].Before(opportunities[j]) })
	sort.SliceStable(conversions, func(i, j int) bool { return conversions[i].Before(conversions[j]) })

	matched := 0
	j := 0
	for _, opp := range opportunities {
		for j < len(conversions) && conversions[j].Before(opp) {
			j++
		}
		if j < len(conversions) && conversions[j].Sub(opp) <= horizon {
			matched++
			j++
		}
	}
	return float64(matched) / float64(len(opportunities)), true
}

// behaviorAffinity computes per-kind scores from behavior events:
// signed outcome weights summed per kind, floored at zero, then scaled
// by the follow-through multiplier where a rate is computable.
func behaviorAffinity(events []fitness.BehaviorEvent, horizon time.Duration) map[fitness.ActionKind]float64 {
	byKind := make(map[fitness.ActionKind][]fitness.BehaviorEvent)
	for _, ev := range events {
		byKind[ev.ActionKey] = append(byKind[ev.ActionKey], ev)
	}

	scores := make(map[fitness.ActionKind]float64, len(byKind))
	for kind, kindEvents := range byKind {
		sum := 0.0
		for _, ev := range kindEvents {
			sum += outcomeWeights[ev.Outcome]
		}
		if sum < 0 {
			sum = 0
		}
		if rate, ok := followThroughRate(kindEvents, horizon); ok {
			sum *= followThroughBase + followThroughScale*rate
		}
		scores[kind] = sum
	}
	return scores
}

// mergeAffinity merges the behavior-event source with the legacy
// usage-count source (0.85 / 0.15), normalizing each side first, then
// normalizes the merged result to sum to 1 across kinds with positive
// score. Returns an empty map when nothing is positive.
func mergeAffinity(behavior map[fitness.ActionKind]float64, legacy map[fitness.ActionKind]int) map[fitness.ActionKind]float64 {
	normBehavior := normalize(behavior)

	legacyFloat := make(map[fitness.ActionKind]float64, len(legacy))
	for kind, count := range legacy {
		if count > 0 {
			legacyFloat[kind] = float64(count)
		}
	}
	normLegacy := normalize(legacyFloat)

	merged := make(map[fitness.ActionKind]float64)
	for kind, v := range normBehavior {
		merged[kind] += behaviorWeight * v
	}
	for kind, v := range normLegacy {
		merged[kind] += legacyWeight * v
	}
	return normalize(merged)
}

// normalize scales positive values to sum to 1, dropping the rest.
func normalize(scores map[fitness.ActionKind]float64) map[fitness.ActionKind]float64 {
	total := 0.0
	for _, v := range scores {
		if v > 0 {
			total += v
		}
	}
	result := make(map[fitness.ActionKind]float64)
	if total == 0 {
		return result
	}
	for kind, v := range scores {
		if v > 0 {
			result[kind] = v / total
		}
	}
	return result
}
