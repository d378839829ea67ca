package policy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/peakform/coach/plugin/coach/fitness"
	"github.com/peakform/coach/plugin/coach/pattern"
	"github.com/peakform/coach/plugin/coach/ranker"
)

// Version tags every recommendation for downstream analytics.
const Version = "policy/v3"

// PlanProposalCooldownKey is the persisted cooldown slot for plan
// proposals.
const PlanProposalCooldownKey = "plan_proposal"

// PostWorkoutQuestionID identifies the scripted post-workout follow-up.
const PostWorkoutQuestionID = "post_workout_checkin"

// Ranking-override thresholds.
const (
	installThreshold = 0.74
	replaceThreshold = 0.78
	replaceMargin    = 0.18
)

const planProposalCooldown = 7 * 24 * time.Hour

// CooldownStore persists the only cross-cycle memory the engine keeps:
// cooldown timestamps.
type CooldownStore interface {
	GetCooldown(ctx context.Context, key string) (time.Time, bool, error)
	UpsertCooldown(ctx context.Context, key string, ts time.Time) error
}

// Engine applies the guardrail stages in fixed order. Each stage is a
// total function over the cycle state; absent or invalid data fails the
// stage's precondition and leaves the recommendation unchanged.
type Engine struct {
	cooldowns CooldownStore
	logger    *slog.Logger
}

// NewEngine creates a guardrail engine. cooldowns may be nil, in which
// case the plan-proposal cooldown never suppresses.
func NewEngine(cooldowns CooldownStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cooldowns: cooldowns, logger: logger}
}

// Apply runs one recommendation cycle: it starts from the proposal (or
// a deterministic skeleton when nil), walks the stages in order, and
// returns the stamped recommendation.
func (e *Engine) Apply(ctx context.Context, now time.Time, in *fitness.Inputs, profile *pattern.Profile, trend *pattern.Trend, ranked []ranker.RankedAction, proposal *Proposal) *Recommendation {
	if profile == nil {
		profile = pattern.EmptyProfile()
	}
	rec := e.seed(profile, trend, proposal)

	e.validateReminderTarget(rec, in)
	e.applyPlanEligibility(ctx, rec, now, in, trend)
	e.applyQuestionPolicy(rec, now, in)
	e.applyActionPolicy(rec, now, in)
	e.injectPostWorkoutFollowUp(rec, now, in)
	e.applyWeightPriority(rec, now, in)
	e.applyRankingOverride(rec, ranked)
	e.stamp(rec, trend, ranked)

	return rec
}

// seed builds the cycle's starting recommendation.
func (e *Engine) seed(profile *pattern.Profile, trend *pattern.Trend, proposal *Proposal) *Recommendation {
	rec := &Recommendation{
		Title:      "Daily check-in",
		Confidence: confidenceLabel(profile.Confidence),
	}
	if proposal != nil {
		if proposal.Title != "" {
			rec.Title = proposal.Title
		}
		rec.Message = proposal.Message
		rec.Prompt = proposal.Prompt
		rec.Reasons = append(rec.Reasons, proposal.Reasons...)
		if proposal.Confidence != "" {
			rec.Confidence = proposal.Confidence
		}
	}
	if rec.Message == "" {
		rec.Message = defaultMessage(trend)
	}
	return rec
}

// Stage 1: a complete-reminder action must reference a pending
// candidate; with no reference it survives only when exactly one
// candidate exists.
func (e *Engine) validateReminderTarget(rec *Recommendation, in *fitness.Inputs) {
	action, ok := rec.Prompt.(*ActionPrompt)
	if !ok || action.Kind != fitness.ActionCompleteReminder {
		return
	}

	id := action.Meta("reminder_id")
	if id != "" {
		for _, rem := range in.Reminders {
			if rem.ID == id {
				return
			}
		}
		e.logger.Debug("dropping reminder action with unresolvable target", "reminder_id", id)
		rec.Prompt = nil
		return
	}

	if len(in.Reminders) == 1 {
		action.SetMeta("reminder_id", in.Reminders[0].ID)
		return
	}
	e.logger.Debug("dropping ambiguous reminder action", "candidates", len(in.Reminders))
	rec.Prompt = nil
}

// Stage 2: plan proposals need supporting evidence, and eligible ones
// respect a persisted 7-day cooldown.
func (e *Engine) applyPlanEligibility(ctx context.Context, rec *Recommendation, now time.Time, in *fitness.Inputs, trend *pattern.Trend) {
	if _, ok := rec.Prompt.(*PlanProposalPrompt); !ok {
		return
	}

	if !planEvidence(now, in, trend) {
		rec.Prompt = &QuestionPrompt{
			ID:           "plan_checkin",
			Text:         "Want to take a quick look at how your plan has been going?",
			Choices:      []string{"Yes", "Not now"},
			SingleChoice: true,
		}
		return
	}

	if e.cooldowns != nil {
		last, ok, err := e.cooldowns.GetCooldown(ctx, PlanProposalCooldownKey)
		if err != nil {
			e.logger.Warn("cooldown lookup failed, allowing proposal", "error", err)
		} else if ok && now.Sub(last) < planProposalCooldown {
			// Inside the cooldown the proposal drops to a plain note.
			rec.Prompt = nil
			return
		}
		if err := e.cooldowns.UpsertCooldown(ctx, PlanProposalCooldownKey, now); err != nil {
			e.logger.Warn("failed to persist plan-proposal cooldown", "error", err)
		}
	}
}

func planEvidence(now time.Time, in *fitness.Inputs, trend *pattern.Trend) bool {
	if trend != nil {
		if trend.LowProteinStreak >= 3 {
			return true
		}
		if trend.DaysSinceWorkout >= 4 {
			return true
		}
	}
	for _, sig := range in.Signals {
		if !sig.Active(now) {
			continue
		}
		switch sig.Domain {
		case "pain", "recovery", "nutrition":
			if sig.Severity >= 0.7 && sig.Confidence >= 0.6 {
				return true
			}
		}
	}
	return false
}

// Stage 3: question policy.
func (e *Engine) applyQuestionPolicy(rec *Recommendation, now time.Time, in *fitness.Inputs) {
	question, ok := rec.Prompt.(*QuestionPrompt)
	if !ok {
		return
	}
	if !in.AllowQuestions {
		rec.Prompt = nil
		return
	}
	for _, blocked := range in.BlockedQuestionIDs {
		if blocked == question.ID {
			rec.Prompt = nil
			return
		}
	}
	if question.ID == PostWorkoutQuestionID && !postWorkoutWindowOpen(now, in) {
		rec.Prompt = nil
	}
}

// Stage 4: action guardrails. Starting a workout over an active session
// becomes a locked resume; food logging after a done-eating response
// becomes meal planning.
func (e *Engine) applyActionPolicy(rec *Recommendation, now time.Time, in *fitness.Inputs) {
	action, ok := rec.Prompt.(*ActionPrompt)
	if !ok {
		return
	}

	if action.Kind == fitness.ActionStartWorkout && in.Day.HasActiveWorkout {
		title := "Resume your workout"
		if in.Day.ActiveWorkoutName != "" {
			title = "Resume " + in.Day.ActiveWorkoutName
		}
		rec.Prompt = &ActionPrompt{
			Kind:     fitness.ActionResumeWorkout,
			Title:    title,
			Locked:   true,
			Metadata: map[string]string{"guardrail": "active_session"},
		}
		return
	}

	if action.Kind == fitness.ActionLogFood && doneEatingTonight(now, in.Day) {
		rec.Prompt = &ActionPrompt{
			Kind:     fitness.ActionPlanMeals,
			Title:    "Plan tomorrow's meals",
			Metadata: map[string]string{"guardrail": "done_eating"},
		}
	}
}

// doneEatingTonight: the user said they are done eating today, during
// evening hours, and it is still that same evening.
func doneEatingTonight(now time.Time, day fitness.DayState) bool {
	if day.DoneEatingAt == nil {
		return false
	}
	resp := *day.DoneEatingAt
	sameDay := resp.Year() == now.Year() && resp.YearDay() == now.YearDay()
	return sameDay && resp.Hour() >= 17 && now.Hour() >= 17
}

// Stage 5: inject the scripted post-workout follow-up into an empty
// prompt slot.
func (e *Engine) injectPostWorkoutFollowUp(rec *Recommendation, now time.Time, in *fitness.Inputs) {
	if rec.Prompt != nil {
		return
	}
	if !in.AllowQuestions {
		return
	}
	for _, blocked := range in.BlockedQuestionIDs {
		if blocked == PostWorkoutQuestionID {
			return
		}
	}
	if !postWorkoutWindowOpen(now, in) {
		return
	}
	if checkInSignalToday(now, in.Signals) {
		return
	}

	text := "How did today's workout feel?"
	if name := in.Day.CompletedWorkoutName; name != "" {
		text = fmt.Sprintf("How did %s feel?", name)
	}
	rec.Prompt = &QuestionPrompt{
		ID:   PostWorkoutQuestionID,
		Text: text,
		Choices: []string{
			"Felt strong",
			"Hard but manageable",
			"Too fatigued",
			"Something hurt",
		},
		SingleChoice: true,
	}
}

// postWorkoutWindowOpen: a workout finished 20 minutes to 8 hours ago.
// Lacking a precise timestamp, within 6 hours by hour-of-day comparison.
func postWorkoutWindowOpen(now time.Time, in *fitness.Inputs) bool {
	if in.Day.HasActiveWorkout || !in.Day.HasWorkoutToday {
		return false
	}
	if completed := in.Day.WorkoutCompletedAt; completed != nil {
		since := now.Sub(*completed)
		return since >= 20*time.Minute && since <= 8*time.Hour
	}
	if h := in.Day.WorkoutCompletedHour; h >= 0 {
		diff := now.Hour() - h
		return diff >= 0 && diff <= 6
	}
	return false
}

func checkInSignalToday(now time.Time, signals []fitness.Signal) bool {
	for _, sig := range signals {
		if sig.Domain != "checkin" {
			continue
		}
		if sig.CreatedAt.Year() == now.Year() && sig.CreatedAt.YearDay() == now.YearDay() {
			return true
		}
	}
	return false
}

// Stage 6: morning weight priority. During hours 4-11, an overdue
// weigh-in with a morning habit forces a weight action into an empty
// slot or replaces a workout-start/open-workouts action.
func (e *Engine) applyWeightPriority(rec *Recommendation, now time.Time, in *fitness.Inputs) {
	hour := now.Hour()
	if hour < 4 || hour > 11 {
		return
	}
	day := in.Day
	if day.DaysSinceWeightLog <= 0 {
		return
	}

	morningWindow := day.WeightLogHourEnd > 0 && day.WeightLogHourStart < 12
	usualDay := false
	for _, wd := range day.UsualWeightLogDays {
		if wd == now.Weekday() {
			usualDay = true
			break
		}
	}
	if !morningWindow && !usualDay && day.RoutineStrength < 0.42 {
		return
	}

	weightAction := &ActionPrompt{
		Kind:     fitness.ActionLogWeight,
		Title:    "Log your weight",
		Metadata: map[string]string{"guardrail": "morning_weight"},
	}

	switch current := rec.Prompt.(type) {
	case nil:
		rec.Prompt = weightAction
	case *ActionPrompt:
		if current.Locked || weightRelated(current.Kind) {
			return
		}
		if current.Kind == fitness.ActionStartWorkout || current.Kind == fitness.ActionOpenWorkouts {
			rec.Prompt = weightAction
		}
	}
}

func weightRelated(kind fitness.ActionKind) bool {
	return kind == fitness.ActionLogWeight || kind == fitness.ActionOpenWeight
}

// Stage 7: deterministic ranking override.
func (e *Engine) applyRankingOverride(rec *Recommendation, ranked []ranker.RankedAction) {
	top, ok := ranker.Top(ranked)
	if !ok || top.Score <= 0 {
		return
	}

	switch current := rec.Prompt.(type) {
	case nil:
		if top.Score >= installThreshold {
			rec.Prompt = &ActionPrompt{
				Kind:     top.Kind,
				Title:    actionTitle(top.Kind),
				Metadata: map[string]string{"reason": top.Reason},
			}
		}
	case *ActionPrompt:
		if current.Locked || weightRelated(current.Kind) {
			return
		}
		if top.Kind == current.Kind {
			return
		}
		if isCompletion(current.Kind) && !isCompletion(top.Kind) {
			return
		}
		currentScore := ranker.ScoreOf(ranked, current.Kind)
		if top.Score >= replaceThreshold && top.Score-currentScore >= replaceMargin {
			rec.Prompt = &ActionPrompt{
				Kind:     top.Kind,
				Title:    actionTitle(top.Kind),
				Metadata: map[string]string{"reason": top.Reason},
			}
		}
	}
}

func isCompletion(kind fitness.ActionKind) bool {
	return kind == fitness.ActionCompleteReminder
}

// Stage 8: telemetry stamping. Annotates, never changes behavior.
func (e *Engine) stamp(rec *Recommendation, trend *pattern.Trend, ranked []ranker.RankedAction) {
	rec.ID = uuid.New().String()
	rec.TomorrowPreview = tomorrowPreview(trend)

	top := ranked
	if len(top) > 3 {
		top = top[:3]
	}

	telemetry := map[string]string{
		"policy_version": Version,
	}
	var candidates []string
	for _, r := range top {
		candidates = append(candidates, fmt.Sprintf("%s:%.2f", r.Kind, r.Score))
	}
	telemetry["candidates"] = strings.Join(candidates, ",")

	if action, ok := rec.Prompt.(*ActionPrompt); ok {
		rec.PrimaryAction = string(action.Kind)
		for i, r := range top {
			if r.Kind == action.Kind {
				telemetry["chosen_rank"] = fmt.Sprintf("%d", i+1)
				telemetry["chosen_score"] = fmt.Sprintf("%.2f", r.Score)
				break
			}
		}
		for _, r := range top {
			if r.Kind != action.Kind && r.Score > 0 {
				rec.SecondaryAction = string(r.Kind)
				break
			}
		}
	}
	rec.Telemetry = telemetry
}

func actionTitle(kind fitness.ActionKind) string {
	switch kind {
	case fitness.ActionLogFood:
		return "Log your next meal"
	case fitness.ActionLogWeight:
		return "Log your weight"
	case fitness.ActionOpenWeight:
		return "Check your weight trend"
	case fitness.ActionStartWorkout:
		return "Start your workout"
	case fitness.ActionOpenWorkouts:
		return "Browse workouts"
	case fitness.ActionResumeWorkout:
		return "Resume your workout"
	case fitness.ActionCompleteReminder:
		return "Finish a reminder"
	case fitness.ActionPlanMeals:
		return "Plan tomorrow's meals"
	case fitness.ActionReviewPlan:
		return "Review your plan"
	default:
		return string(kind)
	}
}

func confidenceLabel(confidence float64) string {
	switch {
	case confidence >= 0.7:
		return "high"
	case confidence >= 0.4:
		return "medium"
	default:
		return "low"
	}
}

func defaultMessage(trend *pattern.Trend) string {
	if trend == nil {
		return "Here's where things stand today."
	}
	return fmt.Sprintf("Over the last %d days you logged %d and trained %d.",
		trend.DaysWindow, trend.DaysWithLogs, trend.WorkoutDays)
}

func tomorrowPreview(trend *pattern.Trend) string {
	if trend == nil {
		return ""
	}
	if trend.LowProteinStreak >= 2 {
		return "Tomorrow: front-load protein early in the day."
	}
	if trend.DaysSinceWorkout >= 2 {
		return "Tomorrow: a training day would break the gap."
	}
	return "Tomorrow: keep the streak going."
}
