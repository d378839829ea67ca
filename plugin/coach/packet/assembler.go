// Package packet assembles the compact, token-budgeted context packet
// handed to the prompt-construction layer.
package packet

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/peakform/coach/plugin/coach/fitness"
	"github.com/peakform/coach/plugin/coach/pattern"
	"github.com/peakform/coach/plugin/coach/ranker"
)

// DefaultTokenBudget bounds the packet when the caller gives none.
const DefaultTokenBudget = 700

// Per-category selection limits.
const (
	maxConstraints = 2
	maxPatterns    = 3
	maxAnomalies   = 2
	maxActions     = 2
)

// ContextPacket is the budget-bounded summary of user state. Built fresh
// per request.
type ContextPacket struct {
	Goal            string   `json:"goal"`
	Constraints     []string `json:"constraints"`
	Patterns        []string `json:"patterns"`
	Anomalies       []string `json:"anomalies"`
	Actions         []string `json:"actions"`
	EstimatedTokens int      `json:"estimated_tokens"`
	Summary         string   `json:"summary"`
}

// Assembler builds context packets under a token budget.
type Assembler struct {
	budget int
}

// NewAssembler creates an assembler. Budgets below 1 fall back to the
// default.
func NewAssembler(tokenBudget int) *Assembler {
	if tokenBudget < 1 {
		tokenBudget = DefaultTokenBudget
	}
	return &Assembler{budget: tokenBudget}
}

type scoredItem struct {
	text  string
	score float64
}

// Assemble combines current state, active signals, and the pattern
// profile into a packet whose estimate fits the budget, trimming the
// most disposable detail first. Identical inputs and clock produce
// byte-identical packets.
func (a *Assembler) Assemble(now time.Time, profile *pattern.Profile, trend *pattern.Trend, in *fitness.Inputs) *ContextPacket {
	if profile == nil {
		profile = pattern.EmptyProfile()
	}
	if in == nil {
		in = fitness.EmptyInputs()
	}

	constraints := selectTop(a.constraintItems(now, in), maxConstraints)
	patterns := selectTop(a.patternItems(profile), maxPatterns)
	anomalies := selectTop(a.anomalyItems(now, trend, in), maxAnomalies)
	actions := selectTop(a.actionItems(now, profile, trend, in), maxActions)

	goal := goalLine(in.Goals)
	packet := a.build(goal, constraints, patterns, anomalies, actions)

	// Trim one item at a time from the lowest-priority category until
	// the estimate fits: anomalies are the most disposable, constraints
	// the least.
	for packet.EstimatedTokens > a.budget {
		switch {
		case len(anomalies) > 0:
			anomalies = anomalies[:len(anomalies)-1]
		case len(patterns) > 1:
			patterns = patterns[:len(patterns)-1]
		case len(actions) > 1:
			actions = actions[:len(actions)-1]
		case len(constraints) > 1:
			constraints = constraints[:len(constraints)-1]
		default:
			return packet
		}
		packet = a.build(goal, constraints, patterns, anomalies, actions)
	}
	return packet
}

func (a *Assembler) build(goal string, constraints, patterns, anomalies, actions []string) *ContextPacket {
	var lines []string
	lines = append(lines, "goal="+goal)
	if len(constraints) > 0 {
		lines = append(lines, "constraints="+strings.Join(constraints, "|"))
	}
	if len(patterns) > 0 {
		lines = append(lines, "patterns="+strings.Join(patterns, "|"))
	}
	if len(anomalies) > 0 {
		lines = append(lines, "anomalies="+strings.Join(anomalies, "|"))
	}
	if len(actions) > 0 {
		lines = append(lines, "actions="+strings.Join(actions, "|"))
	}
	summary := strings.Join(lines, "\n")

	return &ContextPacket{
		Goal:            goal,
		Constraints:     constraints,
		Patterns:        patterns,
		Anomalies:       anomalies,
		Actions:         actions,
		EstimatedTokens: EstimateTokens(summary),
		Summary:         summary,
	}
}

// EstimateTokens approximates the token count as 1.25 tokens per word,
// minimum 1.
func EstimateTokens(content string) int {
	words := len(strings.Fields(content))
	tokens := int(math.Round(float64(words) * 1.25))
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

func goalLine(goals *fitness.Goals) string {
	if goals == nil {
		return "general fitness"
	}
	parts := []string{}
	if goals.ProteinGrams > 0 {
		parts = append(parts, fmt.Sprintf("protein %.0fg", goals.ProteinGrams))
	}
	if goals.Calories > 0 {
		parts = append(parts, fmt.Sprintf("%.0f kcal", goals.Calories))
	}
	if goals.WorkoutsPerWeek > 0 {
		parts = append(parts, fmt.Sprintf("%d workouts/wk", goals.WorkoutsPerWeek))
	}
	if len(parts) == 0 {
		return "general fitness"
	}
	return strings.Join(parts, ", ")
}

func (a *Assembler) constraintItems(now time.Time, in *fitness.Inputs) []scoredItem {
	var items []scoredItem
	day := in.Day
	if day.HasActiveWorkout {
		items = append(items, scoredItem{"session=active", 0.75})
	}
	if score, ok := ranker.MissedWorkoutWindowScore(now, day); ok {
		items = append(items, scoredItem{"workout_window=missed", score})
	}
	if score, ok := ranker.ReminderRateScore(day.ReminderCompletionRate); ok {
		items = append(items, scoredItem{fmt.Sprintf("reminder_follow=low:%.2f", day.ReminderCompletionRate), score})
	}
	if score, ok := ranker.PendingReminderScore(day.PendingReminders); ok {
		items = append(items, scoredItem{fmt.Sprintf("reminders_pending=%d", day.PendingReminders), score})
	}
	return items
}

func (a *Assembler) patternItems(profile *pattern.Profile) []scoredItem {
	var items []scoredItem
	if w, score := profile.TopWorkoutWindow(); w != "" {
		items = append(items, scoredItem{fmt.Sprintf("workout_window=%s:%.2f", w, score), score})
	}
	if w, score := profile.TopMealWindow(); w != "" {
		items = append(items, scoredItem{fmt.Sprintf("meal_window=%s:%.2f", w, score), score})
	}
	if len(profile.CommonAnchors) > 0 {
		items = append(items, scoredItem{"protein_anchors=" + strings.Join(profile.CommonAnchors, ", "), 0.5})
	}
	for _, note := range profile.AdherenceNotes {
		items = append(items, scoredItem{"note=" + note, 0.45})
	}
	return items
}

func (a *Assembler) anomalyItems(now time.Time, trend *pattern.Trend, in *fitness.Inputs) []scoredItem {
	var items []scoredItem
	for _, sig := range in.Signals {
		if !sig.Active(now) {
			continue
		}
		items = append(items, scoredItem{
			fmt.Sprintf("%s=%s", sig.Domain, sig.Title),
			ranker.SignalUtility(sig),
		})
	}
	if trend != nil {
		if trend.LowProteinStreak >= 3 {
			score := clamp01(0.6 + 0.05*float64(minInt(trend.LowProteinStreak, 4)))
			items = append(items, scoredItem{fmt.Sprintf("low_protein_streak=%d", trend.LowProteinStreak), score})
		}
		if trend.DaysSinceWorkout >= 4 {
			score := clamp01(0.55 + 0.04*float64(minInt(trend.DaysSinceWorkout, 6)))
			items = append(items, scoredItem{fmt.Sprintf("workout_gap_days=%d", trend.DaysSinceWorkout), score})
		}
	}
	return items
}

func (a *Assembler) actionItems(now time.Time, profile *pattern.Profile, trend *pattern.Trend, in *fitness.Inputs) []scoredItem {
	var items []scoredItem
	for _, action := range ranker.Rank(now, profile, trend, in) {
		if action.Score <= 0 {
			continue
		}
		items = append(items, scoredItem{
			fmt.Sprintf("next=%s:%.2f", action.Kind, action.Score),
			action.Score,
		})
	}
	return items
}

// selectTop sorts descending (stable: insertion order breaks ties) and
// keeps the prefix.
func selectTop(items []scoredItem, limit int) []string {
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })
	var out []string
	for i := 0; i < len(items) && i < limit; i++ {
		out = append(out, items[i].text)
	}
	return out
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

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
