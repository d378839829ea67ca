package pattern

import (
	"time"

	"github.com/peakform/coach/plugin/coach/fitness"
)

// Trend is a short-window aggregate of adherence metrics. Immutable once
// built.
type Trend struct {
	DaysWindow       int `json:"days_window"`
	DaysWithLogs     int `json:"days_with_logs"`
	ProteinHitDays   int `json:"protein_hit_days"`
	CalorieHitDays   int `json:"calorie_hit_days"`
	WorkoutDays      int `json:"workout_days"`
	LowProteinStreak int `json:"low_protein_streak"`
	DaysSinceWorkout int `json:"days_since_workout"`
}

// Trend aggregates the trailing window ending at now. Returns nil when
// no goal context exists; the snapshot is meaningless without targets.
func (a *Analyzer) Trend(now time.Time, in *fitness.Inputs) *Trend {
	if in == nil || in.Goals == nil {
		return nil
	}
	return a.TrendWindow(now, in, a.cfg.TrendDays)
}

// TrendWindow is Trend with an explicit trailing window in days.
func (a *Analyzer) TrendWindow(now time.Time, in *fitness.Inputs, daysWindow int) *Trend {
	if in == nil || in.Goals == nil {
		return nil
	}
	if daysWindow <= 0 {
		daysWindow = a.cfg.TrendDays
	}
	goals := in.Goals

	type dayTotals struct {
		protein  float64
		calories float64
		entries  int
	}
	today := dateOf(now)
	totals := make(map[string]*dayTotals)
	dayKey := func(t time.Time) string { return t.Format("2006-01-02") }

	for _, e := range in.Food {
		d := dateOf(e.LoggedAt)
		if d.After(today) {
			continue
		}
		key := dayKey(d)
		t, ok := totals[key]
		if !ok {
			t = &dayTotals{}
			totals[key] = t
		}
		t.protein += e.ProteinGrams
		t.calories += e.Calories
		t.entries++
	}

	trend := &Trend{DaysWindow: daysWindow}
	for i := 0; i < daysWindow; i++ {
		key := dayKey(today.AddDate(0, 0, -i))
		t, ok := totals[key]
		if !ok {
			continue
		}
		trend.DaysWithLogs++
		if goals.ProteinGrams > 0 && t.protein >= 0.8*goals.ProteinGrams {
			trend.ProteinHitDays++
		}
		if goals.Calories > 0 && t.entries > 0 &&
			t.calories >= 0.8*goals.Calories && t.calories <= 1.15*goals.Calories {
			trend.CalorieHitDays++
		}
	}

	workoutDays := make(map[string]bool)
	for _, s := range in.Workouts {
		d := dateOf(s.StartedAt)
		if d.After(today) {
			continue
		}
		workoutDays[dayKey(d)] = true
	}
	for i := 0; i < daysWindow; i++ {
		if workoutDays[dayKey(today.AddDate(0, 0, -i))] {
			trend.WorkoutDays++
		}
	}

	// Consecutive low-protein days ending today. A day with no logs
	// counts as low; the streak stops at the first qualifying day.
	if goals.ProteinGrams > 0 {
		lowThreshold := 0.65 * goals.ProteinGrams
		for i := 0; i < a.cfg.PatternDays; i++ {
			key := dayKey(today.AddDate(0, 0, -i))
			protein := 0.0
			if t, ok := totals[key]; ok {
				protein = t.protein
			}
			if protein >= lowThreshold {
				break
			}
			trend.LowProteinStreak++
		}
	}

	trend.DaysSinceWorkout = a.daysSinceWorkout(today, workoutDays)
	return trend
}

func (a *Analyzer) daysSinceWorkout(today time.Time, workoutDays map[string]bool) int {
	for i := 0; i <= a.cfg.WorkoutGapDefault; i++ {
		if workoutDays[today.AddDate(0, 0, -i).Format("2006-01-02")] {
			return i
		}
	}
	return a.cfg.WorkoutGapDefault
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
