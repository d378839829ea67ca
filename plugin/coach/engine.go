// Package coach wires the deterministic coaching pipeline together:
// pattern extraction, recovery scoring, context assembly, action
// ranking, and the guardrail engine.
package coach

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/peakform/coach/plugin/coach/fitness"
	"github.com/peakform/coach/plugin/coach/packet"
	"github.com/peakform/coach/plugin/coach/pattern"
	"github.com/peakform/coach/plugin/coach/policy"
	"github.com/peakform/coach/plugin/coach/ranker"
	"github.com/peakform/coach/plugin/coach/recovery"
)

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	TokenBudget int
	Pattern     pattern.Config
	Recovery    recovery.Config
}

// Engine runs recommendation cycles. The whole pipeline executes
// synchronously on the calling goroutine; the only asynchronous
// boundary (the generative-model call) happens outside, between
// BuildContext and Recommend.
type Engine struct {
	analyzer  *pattern.Analyzer
	scorer    *recovery.Scorer
	history   *inputsHistory
	assembler *packet.Assembler
	policy    *policy.Engine
	logger    *slog.Logger
}

// NewEngine creates an engine. cooldowns may be nil (no cooldown
// persistence); logger may be nil.
func NewEngine(cfg Config, cooldowns policy.CooldownStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	history := &inputsHistory{}
	return &Engine{
		analyzer:  pattern.NewAnalyzer(cfg.Pattern),
		scorer:    recovery.NewScorer(history, cfg.Recovery),
		history:   history,
		assembler: packet.NewAssembler(cfg.TokenBudget),
		policy:    policy.NewEngine(cooldowns, logger),
		logger:    logger,
	}
}

// BuildContext assembles the budget-bounded context packet for the
// prompt-construction layer.
func (e *Engine) BuildContext(now time.Time, in *fitness.Inputs) *packet.ContextPacket {
	profile := e.analyzer.Analyze(now, in)
	trend := e.analyzer.Trend(now, in)
	return e.assembler.Assemble(now, profile, trend, in)
}

// Recommend runs one full cycle. proposal may be nil for a
// deterministic-only cycle; a discarded generative response should be
// passed as nil too.
func (e *Engine) Recommend(ctx context.Context, now time.Time, in *fitness.Inputs, proposal *policy.Proposal) *policy.Recommendation {
	start := time.Now()
	profile := e.analyzer.Analyze(now, in)
	trend := e.analyzer.Trend(now, in)
	ranked := ranker.Rank(now, profile, trend, in)

	rec := e.policy.Apply(ctx, now, in, profile, trend, ranked, proposal)
	e.logger.Debug("recommendation cycle complete",
		"recommendation_id", rec.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"has_prompt", rec.Prompt != nil)
	return rec
}

// RecoveryStatuses exposes the per-category freshness view over the
// given snapshot. forceRefresh bypasses the status cache; the scorer's
// TTL caches persist across calls.
func (e *Engine) RecoveryStatuses(ctx context.Context, now time.Time, in *fitness.Inputs, forceRefresh bool) ([]recovery.Info, error) {
	e.history.in = in
	return e.scorer.Statuses(ctx, now, forceRefresh)
}

// inputsHistory adapts a fitness snapshot to the recovery scorer's
// provider interface. The pipeline is confined to one logical execution
// context, so a plain field swap suffices.
type inputsHistory struct {
	in *fitness.Inputs
}

func (h *inputsHistory) RecentSessions(_ context.Context, limit int) ([]recovery.Session, error) {
	if h.in == nil {
		return nil, nil
	}
	sessions := make([]recovery.Session, 0, len(h.in.Workouts))
	for _, w := range h.in.Workouts {
		sessions = append(sessions, recovery.Session{
			Name:        w.Name,
			Muscles:     w.Muscles,
			CompletedAt: w.CompletedAt,
			Completed:   w.Completed,
		})
	}
	// Most recent first, so the limit keeps the freshest sessions
	// regardless of caller ordering.
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CompletedAt.After(sessions[j].CompletedAt)
	})
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

func (h *inputsHistory) ExerciseHistory(_ context.Context) ([]recovery.Exercise, error) {
	if h.in == nil {
		return nil, nil
	}
	exercises := make([]recovery.Exercise, 0, len(h.in.Exercises))
	for _, ex := range h.in.Exercises {
		exercises = append(exercises, recovery.Exercise{
			Name:        ex.Exercise,
			Muscle:      ex.Muscle,
			PerformedAt: ex.PerformedAt,
		})
	}
	return exercises, nil
}
