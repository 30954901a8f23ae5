package main

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"platform-console/internal/auth"
	"platform-console/internal/rpc"
	"platform-console/internal/web"
)

type routeDeps struct {
	identity *auth.Identity
	clients  *rpc.Clients
	tokens   rpc.TokenSource
	pageSize int
	log      *slog.Logger
}

// registerRoutes wires the proxy and the pages.
// Keep this file free of business logic.
//
// /health and /auth/* have no registered routes: the proxy answers them from
// the NoRoute chain, which runs global middleware too.
func registerRoutes(r *gin.Engine, d routeDeps) error {
	r.Use(auth.Proxy(d.identity, d.log))
	return web.NewHandlers(d.clients, d.tokens, d.pageSize).Register(r)
}
