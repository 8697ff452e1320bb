// Package store provides storage backends for FlowPilot.
//
// This file implements an SQLite-backed store for interactions and the
// component catalog.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/BranchCode/FlowPilot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	slog.Debug("Opening SQLite database connection")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// AddInteraction implements Store.
func (s *SQLiteStore) AddInteraction(ctx context.Context, interaction models.Interaction) (int64, error) {
	workflowJSON, stateJSON, err := marshalInteraction(interaction)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (session_id, prompt, response, workflow, state) VALUES (?, ?, ?, ?, ?)`,
		interaction.SessionID, interaction.Prompt, interaction.Response, workflowJSON, stateJSON)
	if err != nil {
		slog.Error("SQLiteStore AddInteraction failed", "error", err, "sessionID", interaction.SessionID)
		return 0, fmt.Errorf("failed to insert interaction for %s: %w", interaction.SessionID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read interaction ID: %w", err)
	}
	slog.Debug("SQLiteStore AddInteraction succeeded", "sessionID", interaction.SessionID, "id", id)
	return id, nil
}

// ListInteractions implements Store.
func (s *SQLiteStore) ListInteractions(ctx context.Context, sessionID string) ([]models.Interaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, prompt, response, workflow, state, timestamp FROM interactions WHERE session_id = ? ORDER BY timestamp`,
		sessionID)
	if err != nil {
		slog.Error("SQLiteStore ListInteractions query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()
	return scanInteractions(rows)
}

// LatestState implements Store.
func (s *SQLiteStore) LatestState(ctx context.Context, sessionID string) (*models.TurnState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT state FROM interactions WHERE session_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1`,
		sessionID)
	return scanState(row, sessionID)
}

// AddComponent implements Store.
func (s *SQLiteStore) AddComponent(ctx context.Context, component models.Component) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO components (id, name, type, description) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, type = excluded.type, description = excluded.description`,
		component.ID, component.Name, component.Type, component.Description)
	if err != nil {
		slog.Error("SQLiteStore AddComponent failed", "error", err, "id", component.ID)
		return fmt.Errorf("failed to upsert component %s: %w", component.ID, err)
	}
	return nil
}

// ListComponents implements Store.
func (s *SQLiteStore) ListComponents(ctx context.Context) ([]models.Component, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type, description FROM components`)
	if err != nil {
		slog.Error("SQLiteStore ListComponents query failed", "error", err)
		return nil, fmt.Errorf("failed to query components: %w", err)
	}
	defer rows.Close()
	return scanComponents(rows)
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func marshalInteraction(interaction models.Interaction) (workflowJSON, stateJSON []byte, err error) {
	workflowJSON, err = json.Marshal(interaction.Workflow)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal workflow: %w", err)
	}
	stateJSON, err = json.Marshal(interaction.State)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return workflowJSON, stateJSON, nil
}

func scanInteractions(rows *sql.Rows) ([]models.Interaction, error) {
	var interactions []models.Interaction
	for rows.Next() {
		var it models.Interaction
		var workflowJSON, stateJSON []byte
		if err := rows.Scan(&it.ID, &it.SessionID, &it.Prompt, &it.Response, &workflowJSON, &stateJSON, &it.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan interaction row: %w", err)
		}
		if err := json.Unmarshal(workflowJSON, &it.Workflow); err != nil {
			return nil, fmt.Errorf("failed to unmarshal workflow: %w", err)
		}
		if err := json.Unmarshal(stateJSON, &it.State); err != nil {
			return nil, fmt.Errorf("failed to unmarshal state: %w", err)
		}
		interactions = append(interactions, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interaction rows: %w", err)
	}
	return interactions, nil
}

func scanState(row *sql.Row, sessionID string) (*models.TurnState, error) {
	var stateJSON []byte
	if err := row.Scan(&stateJSON); err != nil {
		if err == sql.ErrNoRows {
			slog.Debug("store.scanState: no state for session", "sessionID", sessionID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest state: %w", err)
	}
	var state models.TurnState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

func scanComponents(rows *sql.Rows) ([]models.Component, error) {
	var components []models.Component
	for rows.Next() {
		var c models.Component
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan component row: %w", err)
		}
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate component rows: %w", err)
	}
	return components, nil
}
