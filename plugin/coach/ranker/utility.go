// Package ranker scores candidate next actions and the shared utility
// signals consumed by the context assembler.
package ranker

import (
	"time"

	"github.com/peakform/coach/plugin/coach/fitness"
)

// SignalUtility scores an active signal: severity dominates, confidence
// tempers.
func SignalUtility(sig fitness.Signal) float64 {
	return clamp01(0.7*sig.Severity + 0.3*sig.Confidence)
}

// MissedWorkoutWindowScore returns 0.8 when the configured workout
// window has passed with no workout or active session today. The second
// return is false when the constraint does not apply.
func MissedWorkoutWindowScore(now time.Time, day fitness.DayState) (float64, bool) {
	if day.WorkoutWindowEnd <= 0 {
		return 0, false
	}
	if day.HasWorkoutToday || day.HasActiveWorkout {
		return 0, false
	}
	if now.Hour() < day.WorkoutWindowEnd {
		return 0, false
	}
	return 0.8, true
}

// ReminderRateScore scores the low reminder-completion-rate constraint.
// Applies only when the rate is known and below 0.6.
func ReminderRateScore(rate float64) (float64, bool) {
	if rate < 0 || rate >= 0.6 {
		return 0, false
	}
	return clamp01(0.64 + 0.25*(1-rate)), true
}

// PendingReminderScore scores the pending-reminder-count constraint.
func PendingReminderScore(count int) (float64, bool) {
	if count <= 0 {
		return 0, false
	}
	if count > 4 {
		count = 4
	}
	return clamp01(0.61 + 0.08*float64(count)), true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
