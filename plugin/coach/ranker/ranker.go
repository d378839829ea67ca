package ranker

import (
	"sort"
	"time"

	"github.com/peakform/coach/plugin/coach/fitness"
	"github.com/peakform/coach/plugin/coach/pattern"
)

// RankedAction is one scored candidate. Produced transiently; never
// persisted.
type RankedAction struct {
	Kind   fitness.ActionKind `json:"kind"`
	Score  float64            `json:"score"`
	Reason string             `json:"reason,omitempty"`
}

// Rank scores every plausible next action against the current state and
// returns them sorted descending. Zero-scored candidates stay in the
// list and rank last; ties keep the canonical candidate order (stable
// sort).
func Rank(now time.Time, profile *pattern.Profile, trend *pattern.Trend, in *fitness.Inputs) []RankedAction {
	if profile == nil {
		profile = pattern.EmptyProfile()
	}
	if in == nil {
		in = fitness.EmptyInputs()
	}
	day := in.Day

	candidates := []RankedAction{
		scoreReviewPlan(now, in),
		scoreLogWeight(now, day),
		scoreStartWorkout(now, profile, day),
		scoreLogFood(now, profile, day),
		scoreCompleteReminder(in),
		scoreOpenWeight(day),
		scoreOpenWorkouts(day),
		scorePlanMeals(trend),
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// Top returns the highest-ranked candidate, false when the list is
// empty.
func Top(ranked []RankedAction) (RankedAction, bool) {
	if len(ranked) == 0 {
		return RankedAction{}, false
	}
	return ranked[0], true
}

// ScoreOf looks up a kind's ranked score, 0 when absent.
func ScoreOf(ranked []RankedAction, kind fitness.ActionKind) float64 {
	for _, r := range ranked {
		if r.Kind == kind {
			return r.Score
		}
	}
	return 0
}

func scoreReviewPlan(now time.Time, in *fitness.Inputs) RankedAction {
	r := RankedAction{Kind: fitness.ActionReviewPlan}
	if in.PlanReview == nil {
		return r
	}
	r.Score = 0.84
	r.Reason = "plan review requested"
	if !in.PlanReview.LastReviewAt.IsZero() && now.Sub(in.PlanReview.LastReviewAt) > 30*24*time.Hour {
		r.Score += 0.06
		r.Reason = "plan review requested, last review over 30 days ago"
	}
	r.Score = clamp01(r.Score)
	return r
}

func scoreLogWeight(now time.Time, day fitness.DayState) RankedAction {
	r := RankedAction{Kind: fitness.ActionLogWeight}
	staleDays := day.DaysSinceWeightLog >= 3
	usualDay := isUsualWeightDay(now, day)
	knownHour := inWeightLogHours(now, day)
	if !staleDays && !usualDay && !knownHour {
		return r
	}
	r.Score = clamp01(0.76 + 0.02*clamp01(day.RoutineStrength))
	switch {
	case staleDays:
		r.Reason = "several days since last weight log"
	case usualDay:
		r.Reason = "today is a usual weigh-in day"
	default:
		r.Reason = "current hour matches the usual weigh-in window"
	}
	return r
}

func scoreOpenWeight(day fitness.DayState) RankedAction {
	r := RankedAction{Kind: fitness.ActionOpenWeight}
	if day.WeightLoggedThisWeek {
		return r
	}
	r.Score = clamp01(0.54 + 0.08*clamp01(day.RoutineStrength))
	r.Reason = "no weight log this week"
	return r
}

func scoreStartWorkout(now time.Time, profile *pattern.Profile, day fitness.DayState) RankedAction {
	r := RankedAction{Kind: fitness.ActionStartWorkout}
	if day.HasWorkoutToday || day.HasActiveWorkout {
		return r
	}
	hour := now.Hour()
	configured := day.WorkoutWindowEnd > 0 && hour >= day.WorkoutWindowStart && hour < day.WorkoutWindowEnd
	learned := profile.WorkoutWindowScores[pattern.WorkoutWindow(hour)] >= 0.25
	if !configured && !learned {
		return r
	}
	affinity := profile.ActionAffinity[fitness.ActionStartWorkout]
	r.Score = clamp01(0.74 + 0.02*affinity)
	r.Reason = "in the usual training window"
	return r
}

func scoreLogFood(now time.Time, profile *pattern.Profile, day fitness.DayState) RankedAction {
	r := RankedAction{Kind: fitness.ActionLogFood}
	if day.MealsLoggedToday > 0 {
		return r
	}
	windowScore := profile.MealWindowScores[pattern.MealWindow(now.Hour())]
	if windowScore < 0.2 {
		return r
	}
	r.Score = clamp01(0.58 + 0.15*windowScore)
	r.Reason = "usual meal window with nothing logged yet"
	return r
}

func scoreCompleteReminder(in *fitness.Inputs) RankedAction {
	r := RankedAction{Kind: fitness.ActionCompleteReminder}
	if len(in.Reminders) == 0 {
		return r
	}
	best := 0.0
	for _, rem := range in.Reminders {
		if rem.Relevance > best {
			best = rem.Relevance
		}
	}
	r.Score = clamp01(0.55 + 0.15*clamp01(best))
	r.Reason = "pending reminders"
	return r
}

func scoreOpenWorkouts(day fitness.DayState) RankedAction {
	r := RankedAction{Kind: fitness.ActionOpenWorkouts}
	if day.HasWorkoutToday || day.HasActiveWorkout {
		return r
	}
	r.Score = 0.3
	r.Reason = "no workout yet today"
	return r
}

func scorePlanMeals(trend *pattern.Trend) RankedAction {
	r := RankedAction{Kind: fitness.ActionPlanMeals}
	if trend == nil {
		return r
	}
	if trend.LowProteinStreak >= 2 {
		r.Score = clamp01(0.35 + 0.05*float64(min(trend.LowProteinStreak, 5)))
		r.Reason = "protein has been low for a few days"
	}
	return r
}

func isUsualWeightDay(now time.Time, day fitness.DayState) bool {
	for _, wd := range day.UsualWeightLogDays {
		if wd == now.Weekday() {
			return true
		}
	}
	return false
}

func inWeightLogHours(now time.Time, day fitness.DayState) bool {
	if day.WeightLogHourEnd <= 0 {
		return false
	}
	h := now.Hour()
	return h >= day.WeightLogHourStart && h < day.WeightLogHourEnd
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
