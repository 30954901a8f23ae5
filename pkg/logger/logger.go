package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// New returns the process logger: JSON on stdout, debug level in local and dev.
func New(appEnv string) *slog.Logger {
	return NewWithWriter(os.Stdout, appEnv)
}

// NewWithWriter is New with an explicit sink. The CLI logs to stderr so stdout stays clean.
func NewWithWriter(w io.Writer, appEnv string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: Level(appEnv)})
	return slog.New(h).With("env", appEnv)
}

func Level(appEnv string) slog.Level {
	if appEnv == "local" || appEnv == "dev" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
