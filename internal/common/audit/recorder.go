// Package audit persists one row per completed lookup.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	apperrors "ksel-bot/internal/common/errors"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Entry struct {
	CorrelationID string
	ModelKey      string
	Outcome       string
	ChannelID     string
	Duration      time.Duration
	FromCache     bool
	CreatedAt     time.Time
}

type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// NopRecorder is used when auditing is disabled.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) error { return nil }

type PostgresRecorder struct {
	db         *sql.DB
	table      string
	insertStmt string
}

func NewPostgresRecorder(db *sql.DB, table string) (*PostgresRecorder, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, apperrors.NewConfigInvalidError(fmt.Sprintf("invalid audit table name %q", table))
	}
	return &PostgresRecorder{
		db:    db,
		table: table,
		insertStmt: fmt.Sprintf(
			`INSERT INTO %s (correlation_id, model_key, outcome, duration_ms, channel_id, from_cache, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			table,
		),
	}, nil
}

// EnsureTable creates the audit table if it does not exist yet.
func (r *PostgresRecorder) EnsureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	correlation_id TEXT NOT NULL,
	model_key TEXT NOT NULL,
	outcome TEXT NOT NULL,
	duration_ms BIGINT NOT NULL,
	channel_id TEXT,
	from_cache BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
)`, r.table)
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return apperrors.NewAuditWriteFailedError(err)
	}
	return nil
}

func (r *PostgresRecorder) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, r.insertStmt,
		e.CorrelationID,
		e.ModelKey,
		e.Outcome,
		e.Duration.Milliseconds(),
		e.ChannelID,
		e.FromCache,
		e.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAuditWriteFailedError(err)
	}
	return nil
}
