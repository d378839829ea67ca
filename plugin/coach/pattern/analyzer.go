package pattern

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/peakform/coach/plugin/coach/fitness"
)

// Analyzer extracts a Profile and Trend from historical logs. It holds
// no mutable state; every call recomputes from the rolling window.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer. A zero-valued config falls back to
// the defaults field by field.
func NewAnalyzer(cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.PatternDays <= 0 {
		cfg.PatternDays = def.PatternDays
	}
	if cfg.TrendDays <= 0 {
		cfg.TrendDays = def.TrendDays
	}
	if cfg.CoverageDays <= 0 {
		cfg.CoverageDays = def.CoverageDays
	}
	if cfg.AnchorMinProtein <= 0 {
		cfg.AnchorMinProtein = def.AnchorMinProtein
	}
	if cfg.AnchorGoalRatio <= 0 {
		cfg.AnchorGoalRatio = def.AnchorGoalRatio
	}
	if cfg.FollowThroughHorizon <= 0 {
		cfg.FollowThroughHorizon = def.FollowThroughHorizon
	}
	if cfg.WorkoutGapDefault <= 0 {
		cfg.WorkoutGapDefault = def.WorkoutGapDefault
	}
	return &Analyzer{cfg: cfg}
}

// Analyze builds the behavioral profile from the rolling window ending at
// now. Missing history yields an empty profile, never an error.
func (a *Analyzer) Analyze(now time.Time, in *fitness.Inputs) *Profile {
	if in == nil {
		return EmptyProfile()
	}
	cutoff := now.AddDate(0, 0, -a.cfg.PatternDays)

	food := filterFood(in.Food, cutoff, now)
	workouts := filterWorkouts(in.Workouts, cutoff, now)
	events := filterEvents(in.Events, cutoff, now)

	profile := &Profile{
		WorkoutWindowScores: workoutWindowScores(workouts),
		MealWindowScores:    mealWindowScores(food),
		CommonAnchors:       a.proteinAnchors(food, in.Goals),
		AdherenceNotes:      a.adherenceNotes(now, food, in.Goals),
		ActionAffinity:      mergeAffinity(behaviorAffinity(events, a.cfg.FollowThroughHorizon), in.LegacyUsage),
	}
	profile.Confidence = a.confidence(now, food, workouts, events, profile)
	return profile
}

func filterFood(entries []fitness.FoodEntry, cutoff, now time.Time) []fitness.FoodEntry {
	var out []fitness.FoodEntry
	for _, e := range entries {
		if e.LoggedAt.After(cutoff) && !e.LoggedAt.After(now) {
			out = append(out, e)
		}
	}
	return out
}

func filterWorkouts(sessions []fitness.WorkoutSession, cutoff, now time.Time) []fitness.WorkoutSession {
	var out []fitness.WorkoutSession
	for _, s := range sessions {
		if s.StartedAt.After(cutoff) && !s.StartedAt.After(now) {
			out = append(out, s)
		}
	}
	return out
}

func filterEvents(events []fitness.BehaviorEvent, cutoff, now time.Time) []fitness.BehaviorEvent {
	var out []fitness.BehaviorEvent
	for _, ev := range events {
		if ev.OccurredAt.After(cutoff) && !ev.OccurredAt.After(now) {
			out = append(out, ev)
		}
	}
	return out
}

func workoutWindowScores(sessions []fitness.WorkoutSession) map[TimeWindow]float64 {
	counts := make(map[TimeWindow]int)
	for _, s := range sessions {
		counts[WorkoutWindow(s.StartedAt.Hour())]++
	}
	return normalizeWindowCounts(counts, len(sessions))
}

func mealWindowScores(entries []fitness.FoodEntry) map[TimeWindow]float64 {
	counts := make(map[TimeWindow]int)
	for _, e := range entries {
		counts[MealWindow(e.LoggedAt.Hour())]++
	}
	return normalizeWindowCounts(counts, len(entries))
}

func normalizeWindowCounts(counts map[TimeWindow]int, total int) map[TimeWindow]float64 {
	scores := make(map[TimeWindow]float64, len(counts))
	if total == 0 {
		return scores
	}
	for w, c := range counts {
		scores[w] = float64(c) / float64(total)
	}
	return scores
}

// proteinAnchors finds up to three foods the user repeatedly uses to hit
// protein: entries above max(AnchorMinProtein, ratio*goal), grouped by a
// normalized name key, ranked by count then total protein.
func (a *Analyzer) proteinAnchors(food []fitness.FoodEntry, goals *fitness.Goals) []string {
	threshold := a.cfg.AnchorMinProtein
	if goals != nil {
		if scaled := a.cfg.AnchorGoalRatio * goals.ProteinGrams; scaled > threshold {
			threshold = scaled
		}
	}

	type group struct {
		key          string
		count        int
		totalProtein float64
	}
	groups := make(map[string]*group)
	for _, e := range food {
		if e.ProteinGrams < threshold {
			continue
		}
		key := anchorKey(e.Name)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &group{key: key}
			groups[key] = g
		}
		g.count++
		g.totalProtein += e.ProteinGrams
	}

	ranked := make([]*group, 0, len(groups))
	for _, g := range groups {
		ranked = append(ranked, g)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		if ranked[i].totalProtein != ranked[j].totalProtein {
			return ranked[i].totalProtein > ranked[j].totalProtein
		}
		return ranked[i].key < ranked[j].key
	})

	var anchors []string
	for i := 0; i < len(ranked) && i < 3; i++ {
		anchors = append(anchors, titleCase(ranked[i].key))
	}
	return anchors
}

// anchorKey normalizes a food name: lowercase, alphanumeric-only tokens,
// first four tokens.
func anchorKey(name string) string {
	tokens := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	if len(tokens) > 4 {
		tokens = tokens[:4]
	}
	return strings.Join(tokens, " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// adherenceNotes returns up to two short observations about logging and
// protein adherence over the coverage window.
func (a *Analyzer) adherenceNotes(now time.Time, food []fitness.FoodEntry, goals *fitness.Goals) []string {
	days := a.cfg.CoverageDays
	cutoff := now.AddDate(0, 0, -days)

	loggedDays := make(map[string]bool)
	dayProtein := make(map[string]float64)
	dayWeekday := make(map[string]time.Weekday)
	for _, e := range food {
		if !e.LoggedAt.After(cutoff) || e.LoggedAt.After(now) {
			continue
		}
		key := e.LoggedAt.Format("2006-01-02")
		loggedDays[key] = true
		dayProtein[key] += e.ProteinGrams
		dayWeekday[key] = e.LoggedAt.Weekday()
	}

	var notes []string
	coverage := float64(len(loggedDays)) / float64(days)
	if coverage < 0.45 {
		notes = append(notes, fmt.Sprintf("logging is sparse: %d of the last %d days", len(loggedDays), days))
	}

	if goals != nil && goals.ProteinGrams > 0 {
		if len(loggedDays) >= 4 {
			hit := 0
			for key := range loggedDays {
				if dayProtein[key] >= 0.8*goals.ProteinGrams {
					hit++
				}
			}
			rate := float64(hit) / float64(len(loggedDays))
			if rate < 0.45 {
				notes = append(notes, fmt.Sprintf("protein goal hit on only %d of %d logged days", hit, len(loggedDays)))
			}
		}

		// The weekday note only needs two samples on one weekday, so it
		// is not gated on overall coverage.
		if len(notes) < 2 {
			if weekday, ok := weakestWeekday(loggedDays, dayProtein, dayWeekday, goals.ProteinGrams); ok {
				notes = append(notes, fmt.Sprintf("%ss tend to fall short on protein", weekday))
			}
		}
	}

	if len(notes) > 2 {
		notes = notes[:2]
	}
	return notes
}

// weakestWeekday finds a weekday whose protein-hit rate is at or below
// 0.35 with at least two logged samples. Ties resolve to the earliest
// weekday (Sunday first).
func weakestWeekday(loggedDays map[string]bool, dayProtein map[string]float64, dayWeekday map[string]time.Weekday, goal float64) (time.Weekday, bool) {
	samples := make(map[time.Weekday]int)
	hits := make(map[time.Weekday]int)
	for key := range loggedDays {
		wd := dayWeekday[key]
		samples[wd]++
		if dayProtein[key] >= 0.8*goal {
			hits[wd]++
		}
	}

	found := false
	var weakest time.Weekday
	weakestRate := math.MaxFloat64
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if samples[wd] < 2 {
			continue
		}
		rate := float64(hits[wd]) / float64(samples[wd])
		if rate <= 0.35 && rate < weakestRate {
			weakest, weakestRate, found = wd, rate, true
		}
	}
	return weakest, found
}

// confidence weighs logging coverage, workout coverage, behavior volume,
// and affinity strength into [0,1].
func (a *Analyzer) confidence(now time.Time, food []fitness.FoodEntry, workouts []fitness.WorkoutSession, events []fitness.BehaviorEvent, profile *Profile) float64 {
	foodDays := make(map[string]bool)
	for _, e := range food {
		foodDays[e.LoggedAt.Format("2006-01-02")] = true
	}
	workoutDays := make(map[string]bool)
	for _, s := range workouts {
		workoutDays[s.StartedAt.Format("2006-01-02")] = true
	}

	loggingCoverage := math.Min(1, float64(len(foodDays))/float64(a.cfg.PatternDays))
	workoutCoverage := math.Min(1, float64(len(workoutDays))/12.0)
	behaviorVolume := math.Min(1, float64(len(events))/42.0)

	c := 0.40*loggingCoverage + 0.25*workoutCoverage + 0.20*behaviorVolume + 0.15*profile.MaxAffinity()
	return clamp01(c)
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
