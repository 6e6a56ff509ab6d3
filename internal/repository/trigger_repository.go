// Package repository persists trigger ledger rows in PostgreSQL.
package repository

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/database/postgres"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
)

const (
	// DefaultListLimit caps ListRecentTriggers when the caller passes a non-positive limit.
	DefaultListLimit = 50
	// MaxListLimit is the largest page ListRecentTriggers returns.
	MaxListLimit = 500
)

// createTriggerEventsSQL creates the ledger table in the schema selected by search_path.
const createTriggerEventsSQL = `
	CREATE TABLE IF NOT EXISTS trigger_events (
		id           UUID PRIMARY KEY,
		session_id   TEXT        NOT NULL,
		username     TEXT        NOT NULL,
		token_source TEXT        NOT NULL,
		triggered_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS trigger_events_triggered_at_idx ON trigger_events (triggered_at DESC)`

// TriggerRepository defines persistence for Analyze presses that opened the gate.
type TriggerRepository interface {
	// EnsureSchema creates the ledger table if it does not exist.
	EnsureSchema(ctx context.Context) error

	// RecordTrigger appends one event.
	RecordTrigger(ctx context.Context, event *models.TriggerEvent) error

	// ListRecentTriggers returns the newest events first.
	ListRecentTriggers(ctx context.Context, limit int) ([]models.TriggerEvent, error)
}

// PoolGetter is a function that returns the current database connection pool.
type PoolGetter func() *pgxpool.Pool

// PostgresTriggerRepository implements TriggerRepository for PostgreSQL.
type PostgresTriggerRepository struct {
	getPool     PoolGetter
	schemaReady atomic.Bool
}

// NewPostgresTriggerRepository creates a new PostgreSQL trigger repository.
// The poolGetter function lets the repository follow reconnections of the manager.
func NewPostgresTriggerRepository(poolGetter PoolGetter) *PostgresTriggerRepository {
	return &PostgresTriggerRepository{
		getPool: poolGetter,
	}
}

// EnsureSchema creates the trigger_events table and its index. Writes and
// reads call it too, so a database that was down at startup is migrated on
// first use.
func (r *PostgresTriggerRepository) EnsureSchema(ctx context.Context) error {
	pool := r.getPool()
	if pool == nil {
		return postgres.ErrDatabaseUnavailable
	}
	return r.ensureSchema(ctx, pool)
}

func (r *PostgresTriggerRepository) ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if r.schemaReady.Load() {
		return nil
	}
	if _, err := pool.Exec(ctx, createTriggerEventsSQL); err != nil {
		return fmt.Errorf("failed to create trigger_events table: %w", err)
	}
	r.schemaReady.Store(true)
	return nil
}

// RecordTrigger inserts a ledger row. The credential is never part of the row.
func (r *PostgresTriggerRepository) RecordTrigger(ctx context.Context, event *models.TriggerEvent) error {
	pool := r.getPool()
	if pool == nil {
		return postgres.ErrDatabaseUnavailable
	}
	if err := r.ensureSchema(ctx, pool); err != nil {
		return err
	}

	query := `
		INSERT INTO trigger_events (id, session_id, username, token_source, triggered_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := pool.Exec(ctx, query,
		event.ID,
		event.SessionID,
		event.Username,
		string(event.TokenSource),
		event.TriggeredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record trigger event: %w", err)
	}

	return nil
}

// ListRecentTriggers returns up to limit events ordered by triggered_at descending.
func (r *PostgresTriggerRepository) ListRecentTriggers(ctx context.Context, limit int) ([]models.TriggerEvent, error) {
	pool := r.getPool()
	if pool == nil {
		return nil, postgres.ErrDatabaseUnavailable
	}
	if err := r.ensureSchema(ctx, pool); err != nil {
		return nil, err
	}

	query := `
		SELECT id, session_id, username, token_source, triggered_at
		FROM trigger_events
		ORDER BY triggered_at DESC
		LIMIT $1`

	rows, err := pool.Query(ctx, query, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list trigger events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TriggerEvent, error) {
		var (
			event  models.TriggerEvent
			source string
		)
		scanErr := row.Scan(&event.ID, &event.SessionID, &event.Username, &source, &event.TriggeredAt)
		event.TokenSource = models.CredentialSource(source)
		return event, scanErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan trigger events: %w", err)
	}

	return events, nil
}

// ClampLimit maps a requested page size into [1, MaxListLimit], defaulting non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
