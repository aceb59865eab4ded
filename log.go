package components

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var slogCtxKey = ctxKey{}

// LoggingContext attaches a logger to the context. Renders log compile and
// cache activity at debug level through it; without one they stay silent.
func LoggingContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, slogCtxKey, logger)
}

func logger(ctx context.Context) *slog.Logger {
	val := ctx.Value(slogCtxKey)
	if val == nil {
		return slog.New(noopHandler{})
	}
	l, ok := val.(*slog.Logger)
	if !ok {
		return slog.New(noopHandler{})
	}
	return l
}

type noopHandler struct{}

func (noopHandler) Enabled(_ context.Context, _ slog.Level) bool { return false }

func (noopHandler) Handle(_ context.Context, _ slog.Record) error { return nil }

func (n noopHandler) WithAttrs(_ []slog.Attr) slog.Handler { return n }

func (n noopHandler) WithGroup(_ string) slog.Handler { return n }
