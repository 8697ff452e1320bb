// Package store provides storage backends for FlowPilot.
//
// This file implements a PostgreSQL-backed store for interactions and the
// component catalog.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BranchCode/FlowPilot/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	slog.Debug("Opening Postgres database connection")
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// AddInteraction implements Store.
func (s *PostgresStore) AddInteraction(ctx context.Context, interaction models.Interaction) (int64, error) {
	workflowJSON, stateJSON, err := marshalInteraction(interaction)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO interactions (session_id, prompt, response, workflow, state) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		interaction.SessionID, interaction.Prompt, interaction.Response, workflowJSON, stateJSON).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore AddInteraction failed", "error", err, "sessionID", interaction.SessionID)
		return 0, fmt.Errorf("failed to insert interaction for %s: %w", interaction.SessionID, err)
	}
	slog.Debug("PostgresStore AddInteraction succeeded", "sessionID", interaction.SessionID, "id", id)
	return id, nil
}

// ListInteractions implements Store.
func (s *PostgresStore) ListInteractions(ctx context.Context, sessionID string) ([]models.Interaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, prompt, response, workflow, state, timestamp FROM interactions WHERE session_id = $1 ORDER BY timestamp`,
		sessionID)
	if err != nil {
		slog.Error("PostgresStore ListInteractions query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()
	return scanInteractions(rows)
}

// LatestState implements Store.
func (s *PostgresStore) LatestState(ctx context.Context, sessionID string) (*models.TurnState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT state FROM interactions WHERE session_id = $1 ORDER BY timestamp DESC, id DESC LIMIT 1`,
		sessionID)
	return scanState(row, sessionID)
}

// AddComponent implements Store.
func (s *PostgresStore) AddComponent(ctx context.Context, component models.Component) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO components (id, name, type, description) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, type = EXCLUDED.type, description = EXCLUDED.description`,
		component.ID, component.Name, component.Type, component.Description)
	if err != nil {
		slog.Error("PostgresStore AddComponent failed", "error", err, "id", component.ID)
		return fmt.Errorf("failed to upsert component %s: %w", component.ID, err)
	}
	return nil
}

// ListComponents implements Store.
func (s *PostgresStore) ListComponents(ctx context.Context) ([]models.Component, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type, description FROM components`)
	if err != nil {
		slog.Error("PostgresStore ListComponents query failed", "error", err)
		return nil, fmt.Errorf("failed to query components: %w", err)
	}
	defer rows.Close()
	return scanComponents(rows)
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
