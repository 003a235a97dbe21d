package services

import "context"

type contextKey string

const (
	monthKey contextKey = "month"
	runIDKey contextKey = "run_id"
)

// WithMonth annotates context with the month identifier being processed.
func WithMonth(ctx context.Context, month int) context.Context {
	if month <= 0 {
		return ctx
	}
	return context.WithValue(ctx, monthKey, month)
}

// MonthFromContext extracts the month identifier if present.
func MonthFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(monthKey).(int); ok && v > 0 {
		return v, true
	}
	return 0, false
}

// WithRunID annotates context with a run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
