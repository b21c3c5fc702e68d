package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// GenerateTraceID creates a new unique trace ID using UUID v4
func GenerateTraceID() string {
	return uuid.New().String()
}

// EnsureTraceID ensures the context has a trace ID, generating one if needed
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return WithTraceID(ctx, GenerateTraceID())
	}
	return ctx
}

// LoggerWithContext returns base with the context's trace ID attached.
// A nil base falls back to the process logger. This is the preferred way
// to get a logger for request handling.
func LoggerWithContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = GetLogger()
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		base = base.With("trace_id", traceID)
	}
	return base
}
