package recovery

import (
	"context"
	"sort"
	"time"
)

// Status is the tiered freshness classification.
type Status string

const (
	StatusReady      Status = "ready"
	StatusRecovering Status = "recovering"
	StatusTired      Status = "tired"
)

// Hour thresholds for status tiers.
const (
	readyAfterHours      = 48
	recoveringAfterHours = 24
)

// Info is the per-category freshness result. LastActiveAt and HoursSince
// are nil for never-trained categories, which count as ready.
type Info struct {
	Category     Category   `json:"category"`
	Status       Status     `json:"status"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
	HoursSince   *float64   `json:"hours_since,omitempty"`
}

// StatusForHours maps hours-since-activity to a status. A nil value
// means never trained, which is available.
func StatusForHours(hoursSince *float64) Status {
	if hoursSince == nil {
		return StatusReady
	}
	switch {
	case *hoursSince >= readyAfterHours:
		return StatusReady
	case *hoursSince >= recoveringAfterHours:
		return StatusRecovering
	default:
		return StatusTired
	}
}

// HistoryProvider supplies the activity history the scorer scans.
// Sessions should be most-recent-first; the scorer sorts defensively.
type HistoryProvider interface {
	RecentSessions(ctx context.Context, limit int) ([]Session, error)
	ExerciseHistory(ctx context.Context) ([]Exercise, error)
}

// Session is a completed workout with its trained muscle tags.
type Session struct {
	Name        string
	Muscles     []string
	CompletedAt time.Time
	Completed   bool
}

// Exercise is one per-exercise history record, the secondary source.
type Exercise struct {
	Name        string
	Muscle      string
	PerformedAt time.Time
}

// Config holds the scorer's cache TTLs and scan bounds.
type Config struct {
	StatusTTL    time.Duration // default 90s
	LookupTTL    time.Duration // default 6min
	MaxSessions  int           // default 50
	LookbackDays int           // default 90
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		StatusTTL:    90 * time.Second,
		LookupTTL:    6 * time.Minute,
		MaxSessions:  50,
		LookbackDays: 90,
	}
}

// Scorer computes per-category recovery statuses. It owns two
// independent TTL caches; freshness is checked against the caller's
// clock, never an internal one. Not safe for concurrent use; the
// pipeline is single-threaded by design.
type Scorer struct {
	provider HistoryProvider
	cfg      Config

	statusCache struct {
		infos   []Info
		builtAt time.Time
		valid   bool
	}
	lookupCache struct {
		categories map[string][]Category
		builtAt    time.Time
		valid      bool
	}
}

// NewScorer creates a scorer over the given history provider.
func NewScorer(provider HistoryProvider, cfg Config) *Scorer {
	def := DefaultConfig()
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = def.StatusTTL
	}
	if cfg.LookupTTL <= 0 {
		cfg.LookupTTL = def.LookupTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = def.LookbackDays
	}
	return &Scorer{provider: provider, cfg: cfg}
}

// Statuses returns an Info for every tracked category. forceRefresh
// invalidates the status cache only; the exercise-lookup cache keeps its
// own TTL.
func (s *Scorer) Statuses(ctx context.Context, now time.Time, forceRefresh bool) ([]Info, error) {
	if !forceRefresh && s.statusCache.valid && now.Sub(s.statusCache.builtAt) < s.cfg.StatusTTL {
		return s.statusCache.infos, nil
	}

	lastActive, err := s.buildLastActive(ctx, now)
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(TrackedCategories()))
	for _, cat := range TrackedCategories() {
		info := Info{Category: cat}
		if ts, ok := lastActive[cat]; ok {
			t := ts
			hours := now.Sub(ts).Hours()
			info.LastActiveAt = &t
			info.HoursSince = &hours
		}
		info.Status = StatusForHours(info.HoursSince)
		infos = append(infos, info)
	}

	s.statusCache.infos = infos
	s.statusCache.builtAt = now
	s.statusCache.valid = true
	return infos, nil
}

// buildLastActive scans completed sessions first, then falls back to the
// per-exercise history, stopping early once every tracked category has a
// timestamp.
func (s *Scorer) buildLastActive(ctx context.Context, now time.Time) (map[Category]time.Time, error) {
	cutoff := now.AddDate(0, 0, -s.cfg.LookbackDays)
	lastActive := make(map[Category]time.Time)
	tracked := len(TrackedCategories())

	sessions, err := s.provider.RecentSessions(ctx, s.cfg.MaxSessions)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CompletedAt.After(sessions[j].CompletedAt)
	})
	for _, session := range sessions {
		if !session.Completed || session.CompletedAt.Before(cutoff) || session.CompletedAt.After(now) {
			continue
		}
		for _, tag := range session.Muscles {
			for _, cat := range CategoriesForMuscle(tag) {
				if _, seen := lastActive[cat]; !seen {
					lastActive[cat] = session.CompletedAt
				}
			}
		}
		if len(lastActive) == tracked {
			return lastActive, nil
		}
	}

	exercises, err := s.provider.ExerciseHistory(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(exercises, func(i, j int) bool {
		return exercises[i].PerformedAt.After(exercises[j].PerformedAt)
	})
	lookup := s.exerciseLookup(now, exercises)
	for _, ex := range exercises {
		if ex.PerformedAt.Before(cutoff) || ex.PerformedAt.After(now) {
			continue
		}
		for _, cat := range lookup[ex.Name] {
			if _, seen := lastActive[cat]; !seen {
				lastActive[cat] = ex.PerformedAt
			}
		}
		if len(lastActive) == tracked {
			break
		}
	}
	return lastActive, nil
}

// exerciseLookup returns the exercise-name-to-categories table, rebuilt
// only when its TTL lapses.
func (s *Scorer) exerciseLookup(now time.Time, exercises []Exercise) map[string][]Category {
	if s.lookupCache.valid && now.Sub(s.lookupCache.builtAt) < s.cfg.LookupTTL {
		return s.lookupCache.categories
	}

	lookup := make(map[string][]Category)
	for _, ex := range exercises {
		if _, seen := lookup[ex.Name]; seen {
			continue
		}
		lookup[ex.Name] = CategoriesForMuscle(ex.Muscle)
	}

	s.lookupCache.categories = lookup
	s.lookupCache.builtAt = now
	s.lookupCache.valid = true
	return lookup
}
