package pattern

import (
	"time"

	"github.com/peakform/coach/plugin/coach/fitness"
)

// Profile is the rolling behavioral summary rebuilt fully on each request.
// An empty profile is a valid default for users with no history.
type Profile struct {
	// WorkoutWindowScores maps each time window to the fraction of
	// workouts that started in it, in [0,1].
	WorkoutWindowScores map[TimeWindow]float64 `json:"workout_window_scores"`
	// MealWindowScores is the meal-timing equivalent.
	MealWindowScores map[TimeWindow]float64 `json:"meal_window_scores"`
	// CommonAnchors are up to three title-cased names of high-protein
	// foods the user reaches for repeatedly.
	CommonAnchors []string `json:"common_anchors"`
	// AdherenceNotes are up to two short free-text observations.
	AdherenceNotes []string `json:"adherence_notes"`
	// ActionAffinity sums to at most 1 across kinds with positive score.
	ActionAffinity map[fitness.ActionKind]float64 `json:"action_affinity"`
	// Confidence in [0,1] reflects how much history backs this profile.
	Confidence float64 `json:"confidence"`
}

// EmptyProfile returns a profile with no learned content.
func EmptyProfile() *Profile {
	return &Profile{
		WorkoutWindowScores: map[TimeWindow]float64{},
		MealWindowScores:    map[TimeWindow]float64{},
		ActionAffinity:      map[fitness.ActionKind]float64{},
	}
}

// TopWorkoutWindow returns the strongest workout window and its score,
// or ("", 0) when nothing is learned. Ties resolve in day order.
func (p *Profile) TopWorkoutWindow() (TimeWindow, float64) {
	return topWindow(p.WorkoutWindowScores)
}

// TopMealWindow returns the strongest meal window and its score.
func (p *Profile) TopMealWindow() (TimeWindow, float64) {
	return topWindow(p.MealWindowScores)
}

func topWindow(scores map[TimeWindow]float64) (TimeWindow, float64) {
	var best TimeWindow
	bestScore := 0.0
	for _, w := range AllWindows {
		if s := scores[w]; s > bestScore {
			best, bestScore = w, s
		}
	}
	return best, bestScore
}

// MaxAffinity returns the largest affinity value, 0 when empty.
func (p *Profile) MaxAffinity() float64 {
	max := 0.0
	for _, v := range p.ActionAffinity {
		if v > max {
			max = v
		}
	}
	return max
}

// Config holds the extractor's tunables.
type Config struct {
	// PatternDays is the rolling window for profile building.
	PatternDays int
	// TrendDays is the default trailing window for trend snapshots.
	TrendDays int
	// CoverageDays is the window for adherence-note coverage checks.
	CoverageDays int
	// AnchorMinProtein is the floor for anchor qualification in grams.
	AnchorMinProtein float64
	// AnchorGoalRatio scales the protein goal into an anchor threshold.
	AnchorGoalRatio float64
	// FollowThroughHorizon bounds opportunity-to-conversion matching.
	FollowThroughHorizon time.Duration
	// WorkoutGapDefault is returned for days-since-workout when no
	// workout exists in the lookback.
	WorkoutGapDefault int
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		PatternDays:          28,
		TrendDays:            7,
		CoverageDays:         14,
		AnchorMinProtein:     20,
		AnchorGoalRatio:      0.2,
		FollowThroughHorizon: 90 * time.Minute,
		WorkoutGapDefault:    30,
	}
}
