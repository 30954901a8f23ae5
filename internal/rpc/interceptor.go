package rpc

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"platform-console/pkg/logger"
)

// AuthInterceptor attaches "Authorization: Bearer <token>" to every outgoing
// unary call. A failed token lookup is logged and the call proceeds without the
// header; the backend answers unauthenticated.
func AuthInterceptor(src TokenSource, log *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if src == nil || !req.Spec().IsClient {
				return next(ctx, req)
			}
			token, err := src.Token(ctx)
			if err != nil {
				l := log
				if l == nil {
					l = logger.From(ctx)
				}
				l.Warn("failed to get access token", "procedure", req.Spec().Procedure, "err", err)
				return next(ctx, req)
			}
			if token != "" {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}
