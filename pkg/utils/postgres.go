package utils

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// PostgresConfig describes one database/sql pool over the pgx stdlib driver.
// The driver is registered by the caller's blank import of github.com/jackc/pgx/v5/stdlib.
type PostgresConfig struct {
	DSN string
	// Driver defaults to "pgx".
	Driver string

	MaxConns        int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

func (c PostgresConfig) withDefaults() PostgresConfig {
	out := c
	if out.Driver == "" {
		out.Driver = "pgx"
	}
	if out.MaxConns <= 0 {
		out.MaxConns = 5
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 5 * time.Second
	}
	return out
}

// OpenPostgres opens the pool and pings it. Errors name the database by its
// redacted DSN only.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*sql.DB, error) {
	cfg = cfg.withDefaults()
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres %s: %w", RedactDSN(cfg.DSN), err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := HealthCheck(ctx, db, cfg.PingTimeout); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres %s: %w", RedactDSN(cfg.DSN), err)
	}
	return db, nil
}

// RedactDSN drops the password from a URL-form DSN for logs and errors.
// Keyword/value DSNs are not parsed and come back as "postgres".
func RedactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "postgres"
	}
	return u.Redacted()
}

func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WithTx runs fn in a transaction. It commits when fn returns nil and rolls
// back on error or panic; a panic is re-raised after the rollback.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}
