package audit

import (
	"context"
	"database/sql"
	"fmt"

	"platform-console/pkg/utils"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS auth_events (
	id         UUID PRIMARY KEY,
	type       TEXT NOT NULL,
	subject    TEXT NOT NULL DEFAULT '',
	ip_address TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
)`

const createIndexSQL = `CREATE INDEX IF NOT EXISTS auth_events_subject_created_idx ON auth_events (subject, created_at DESC)`

const insertEventSQL = `
INSERT INTO auth_events (id, type, subject, ip_address, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// PostgresRepo stores events in auth_events. It only ever inserts.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// EnsureSchema creates the table and index when missing.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	return utils.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("audit: create table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, createIndexSQL); err != nil {
			return fmt.Errorf("audit: create index: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.ID, string(e.Type), e.Subject, e.IPAddress, e.Message, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert %s event: %w", e.Type, err)
	}
	return nil
}

// listBySubject returns the most recent events for subject, newest first.
func (r *PostgresRepo) listBySubject(ctx context.Context, subject string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, subject, ip_address, message, created_at
		 FROM auth_events WHERE subject = $1 ORDER BY created_at DESC LIMIT $2`,
		subject, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("audit: list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var typ string
		if err := rows.Scan(&e.ID, &typ, &e.Subject, &e.IPAddress, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.Type = EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
