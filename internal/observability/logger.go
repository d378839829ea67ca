package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldCycleID is the field name for decision cycle ID.
	LogFieldCycleID = "cycle_id"
	// LogFieldStage is the field name for pipeline stage.
	LogFieldStage = "stage"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldTokens is the field name for estimated token count.
	LogFieldTokens = "estimated_tokens"
	// LogFieldAction is the field name for the chosen action kind.
	LogFieldAction = "action"
)

// CycleContext carries structured logging state for a single decision cycle.
type CycleContext struct {
	CycleID   string
	Stage     string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewCycleContext creates a new cycle context with a generated cycle ID.
func NewCycleContext(logger *slog.Logger, stage string) *CycleContext {
	return &CycleContext{
		CycleID:   uuid.New().String(),
		Stage:     stage,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// WithStage returns a copy of the context scoped to a different pipeline stage.
func (c *CycleContext) WithStage(stage string) *CycleContext {
	clone := *c
	clone.Stage = stage
	return &clone
}

// Info logs an info message.
func (c *CycleContext) Info(msg string, attrs ...slog.Attr) {
	c.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, c.baseAttrsAppended(attrs...)...)
}

// Debug logs a debug message.
func (c *CycleContext) Debug(msg string, attrs ...slog.Attr) {
	c.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, c.baseAttrsAppended(attrs...)...)
}

// Warn logs a warning message.
func (c *CycleContext) Warn(msg string, attrs ...slog.Attr) {
	c.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, c.baseAttrsAppended(attrs...)...)
}

// Error logs an error message with the error.
func (c *CycleContext) Error(msg string, err error, attrs ...slog.Attr) {
	allAttrs := append(attrs, slog.String("error", err.Error()))
	c.Logger.LogAttrs(context.Background(), slog.LevelError, msg, c.baseAttrsAppended(allAttrs...)...)
}

// DurationMs returns the elapsed time in milliseconds since the cycle started.
func (c *CycleContext) DurationMs() int64 {
	return time.Since(c.StartTime).Milliseconds()
}

func (c *CycleContext) baseAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String(LogFieldCycleID, c.CycleID),
		slog.String(LogFieldStage, c.Stage),
	}
}

func (c *CycleContext) baseAttrsAppended(attrs ...slog.Attr) []slog.Attr {
	return append(c.baseAttrs(), attrs...)
}

type ctxKey struct{}

// WithCycleContext adds the cycle context to the context.
func WithCycleContext(ctx context.Context, cycleCtx *CycleContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, cycleCtx)
}

// FromContext extracts the cycle context from the context.
func FromContext(ctx context.Context) (*CycleContext, bool) {
	cycleCtx, ok := ctx.Value(ctxKey{}).(*CycleContext)
	return cycleCtx, ok
}
