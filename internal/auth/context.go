package auth

import (
	"context"

	"platform-console/internal/session"
)

type ctxKey int

const (
	ctxSession ctxKey = iota
	ctxClientIP
)

// WithSession stores the verified session for downstream handlers and RPC calls.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, ctxSession, s)
}

func SessionFrom(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(ctxSession).(*session.Session)
	return s, ok && s != nil
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxClientIP, ip)
}

func ClientIPFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxClientIP).(string); ok {
		return s
	}
	return ""
}
