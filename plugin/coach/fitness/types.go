// Package fitness defines the structured records exchanged between the
// deterministic coaching pipeline and its collaborators (persistence,
// health-data ingestion, presentation). These are plain in-memory values;
// no wire format lives here.
package fitness

import (
	"time"
)

// ActionKind identifies a next-action candidate the app can surface.
type ActionKind string

const (
	ActionLogFood          ActionKind = "log_food"
	ActionLogWeight        ActionKind = "log_weight"
	ActionOpenWeight       ActionKind = "open_weight"
	ActionStartWorkout     ActionKind = "start_workout"
	ActionOpenWorkouts     ActionKind = "open_workouts"
	ActionResumeWorkout    ActionKind = "resume_workout"
	ActionCompleteReminder ActionKind = "complete_reminder"
	ActionPlanMeals        ActionKind = "plan_meals"
	ActionReviewPlan       ActionKind = "review_plan"
)

// BehaviorOutcome is what happened when an action surface was shown.
type BehaviorOutcome string

const (
	OutcomePresented    BehaviorOutcome = "presented"
	OutcomeOpened       BehaviorOutcome = "opened"
	OutcomeSuggestedTap BehaviorOutcome = "suggested_tap"
	OutcomePerformed    BehaviorOutcome = "performed"
	OutcomeCompleted    BehaviorOutcome = "completed"
	OutcomeDismissed    BehaviorOutcome = "dismissed"
)

// BehaviorEvent is one append-only interaction record.
type BehaviorEvent struct {
	ActionKey  ActionKind      `json:"action_key"`
	Outcome    BehaviorOutcome `json:"outcome"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Goals holds the user's configured daily/weekly targets.
type Goals struct {
	ProteinGrams    float64 `json:"protein_grams"`
	Calories        float64 `json:"calories"`
	WorkoutsPerWeek int     `json:"workouts_per_week"`
}

// FoodEntry is one logged food item.
type FoodEntry struct {
	Name         string    `json:"name"`
	ProteinGrams float64   `json:"protein_grams"`
	Calories     float64   `json:"calories"`
	LoggedAt     time.Time `json:"logged_at"`
}

// WorkoutSession is one workout, completed or in progress.
type WorkoutSession struct {
	Name        string    `json:"name"`
	Muscles     []string  `json:"muscles"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Completed   bool      `json:"completed"`
}

// ExerciseRecord is one entry of the per-exercise history log, the
// secondary source for recovery timestamps.
type ExerciseRecord struct {
	Exercise    string    `json:"exercise"`
	Muscle      string    `json:"muscle"`
	PerformedAt time.Time `json:"performed_at"`
}

// WeightEntry is one body-weight log.
type WeightEntry struct {
	Kilograms float64   `json:"kilograms"`
	LoggedAt  time.Time `json:"logged_at"`
}

// Signal is the read-side view of a persisted, time-bounded fact about
// user state. Active means not resolved and not yet expired.
type Signal struct {
	UID        string    `json:"uid"`
	Title      string    `json:"title"`
	Detail     string    `json:"detail"`
	Source     string    `json:"source"`
	Domain     string    `json:"domain"`
	Severity   float64   `json:"severity"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Active reports whether the signal is live at the given instant.
func (s Signal) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// ReminderCandidate is a pending reminder with an externally computed
// relevance score in [0,1].
type ReminderCandidate struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Relevance   float64   `json:"relevance"`
}

// PlanReviewTrigger is an optional external request to review the
// training/nutrition plan.
type PlanReviewTrigger struct {
	Message      string             `json:"message"`
	LastReviewAt time.Time          `json:"last_review_at"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// DayState aggregates today's already-computed facts. Collaborators own
// the aggregation; the pipeline only reads it.
type DayState struct {
	HasWorkoutToday      bool       `json:"has_workout_today"`
	HasActiveWorkout     bool       `json:"has_active_workout"`
	ActiveWorkoutName    string     `json:"active_workout_name"`
	WorkoutCompletedAt   *time.Time `json:"workout_completed_at,omitempty"`
	WorkoutCompletedHour int        `json:"workout_completed_hour"` // -1 when unknown
	CompletedWorkoutName string     `json:"completed_workout_name"`

	MealsLoggedToday int     `json:"meals_logged_today"`
	ProteinSoFar     float64 `json:"protein_so_far"`
	CaloriesSoFar    float64 `json:"calories_so_far"`

	DaysSinceWeightLog   int            `json:"days_since_weight_log"`
	WeightLoggedThisWeek bool           `json:"weight_logged_this_week"`
	UsualWeightLogDays   []time.Weekday `json:"usual_weight_log_days"`
	WeightLogHourStart   int            `json:"weight_log_hour_start"`
	WeightLogHourEnd     int            `json:"weight_log_hour_end"` // 0 when unknown
	RoutineStrength      float64        `json:"routine_strength"`    // [0,1]

	ReminderCompletionRate float64 `json:"reminder_completion_rate"` // -1 when unknown
	PendingReminders       int     `json:"pending_reminders"`

	DoneEatingAt *time.Time `json:"done_eating_at,omitempty"`

	WorkoutWindowStart int `json:"workout_window_start"`
	WorkoutWindowEnd   int `json:"workout_window_end"` // 0 when unset
}

// Inputs is the full structured snapshot a recommendation cycle runs on.
// Histories are already bounded to their rolling windows by the caller.
type Inputs struct {
	Goals     *Goals              `json:"goals,omitempty"`
	Day       DayState            `json:"day"`
	Food      []FoodEntry         `json:"food,omitempty"`
	Workouts  []WorkoutSession    `json:"workouts,omitempty"`
	Exercises []ExerciseRecord    `json:"exercises,omitempty"`
	Weights   []WeightEntry       `json:"weights,omitempty"`
	Events    []BehaviorEvent     `json:"events,omitempty"`
	Signals   []Signal            `json:"signals,omitempty"`
	Reminders []ReminderCandidate `json:"reminders,omitempty"`

	PlanReview *PlanReviewTrigger `json:"plan_review,omitempty"`

	AllowQuestions     bool               `json:"allow_questions"`
	BlockedQuestionIDs []string           `json:"blocked_question_ids,omitempty"`
	LegacyUsage        map[ActionKind]int `json:"legacy_usage,omitempty"`
}

// EmptyInputs returns a neutral snapshot with the unknown sentinels set,
// so pipeline stages handed a nil snapshot behave as if nothing happened
// today.
func EmptyInputs() *Inputs {
	return &Inputs{
		Day: DayState{
			WorkoutCompletedHour:   -1,
			ReminderCompletionRate: -1,
		},
	}
}
