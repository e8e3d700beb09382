package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into returns a context carrying l.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the logger carried by ctx, or fallback when there is none.
// A nil fallback resolves to the process default.
func From(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	if fallback == nil {
		return LoggerWrapper()
	}
	return fallback
}
