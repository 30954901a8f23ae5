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
	_ "github.com/jackc/pgx/v5/stdlib"

	"platform-console/internal/audit"
	"platform-console/internal/auth"
	"platform-console/internal/auth/oidc"
	"platform-console/internal/config"
	"platform-console/internal/rpc"
	"platform-console/internal/session"
	"platform-console/pkg/logger"
	"platform-console/pkg/utils"
)

type stores interface {
	session.Store
	session.TransactionStore
}

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var store stores
	switch cfg.Session.Store {
	case "redis":
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.Session.RedisAddr})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb, "")
	default:
		store = session.NewMemoryStore()
	}

	var auditRepo audit.Repository = audit.NewMemoryRepo(cfg.Audit.MemoryLimit)
	if cfg.Audit.DatabaseURL != "" {
		db, err := utils.OpenPostgres(rootCtx, utils.PostgresConfig{
			DSN:             cfg.Audit.DatabaseURL,
			MaxConns:        cfg.Audit.MaxConns,
			ConnMaxLifetime: cfg.Audit.ConnMaxLifetime,
		})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		repo := audit.NewPostgresRepo(db)
		if err := repo.EnsureSchema(rootCtx); err != nil {
			log.Error("audit schema init failed", "err", err)
			os.Exit(1)
		}
		auditRepo = repo
		log.Info("audit events persisted", "db", utils.RedactDSN(cfg.Audit.DatabaseURL))
	}

	provider, err := oidc.NewProvider(rootCtx, oidc.Config{
		Domain:       cfg.Auth.Domain,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		RedirectURL:  cfg.CallbackURL(),
		Audience:     cfg.Auth.Audience,
	})
	if err != nil {
		log.Error("oidc init failed", "err", err)
		os.Exit(1)
	}

	cookies, err := auth.NewManager(cfg.Auth.Secret, cfg.Auth.BaseURL)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	identity, err := auth.NewIdentity(provider, store, store, cookies, auth.Options{
		BaseURL:          cfg.Auth.BaseURL,
		RollingDuration:  cfg.Session.RollingDuration,
		AbsoluteDuration: cfg.Session.AbsoluteDuration,
		Logger:           log,
		Recorder:         audit.NewService(auditRepo),
	})
	if err != nil {
		log.Error("identity init failed", "err", err)
		os.Exit(1)
	}

	tokens := rpc.SessionTokens{Identity: identity}
	clients, err := rpc.New(rpc.Config{
		BaseURL:     cfg.API.URL,
		HTTPClient:  rpc.NewH2CClient(cfg.API.Timeout),
		TokenSource: tokens,
		Logger:      log,
	})
	if err != nil {
		log.Error("rpc init failed", "err", err)
		os.Exit(1)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log, auth.HealthPath))

	if err := registerRoutes(r, routeDeps{
		identity: identity,
		clients:  clients,
		tokens:   tokens,
		pageSize: cfg.Workspace.UsersPageSize,
		log:      log,
	}); err != nil {
		log.Error("route init failed", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("console listening", "addr", srv.Addr, "api", cfg.API.URL, "session_store", cfg.Session.Store)
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
