package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"platform-console/internal/config"
	"platform-console/internal/devapi"
	"platform-console/pkg/logger"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDevAPI()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env).With("service", "devapi")
	slog.SetDefault(log)
	gin.SetMode(gin.ReleaseMode)

	svc := devapi.NewService(devapi.SeedRepo(time.Now()), cfg.WorkspaceID)
	srv := devapi.NewServer(cfg.HTTPAddr(), devapi.Handler(svc, cfg.AllowedOrigins, log))

	go func() {
		log.Info("devapi listening", "addr", srv.Addr, "origins", cfg.AllowedOrigins)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
