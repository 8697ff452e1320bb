// Package store provides storage backends for FlowPilot.
//
// It persists session interactions (prompt, response, workflow, full turn
// state) and the component catalog the search index ranks over. Backends:
// in-memory, SQLite, and PostgreSQL.
package store

import (
	"context"
	"strings"

	"github.com/BranchCode/FlowPilot/internal/models"
)

// Store is the persistence interface shared by all backends.
type Store interface {
	// AddInteraction persists one exchange and returns its ID.
	AddInteraction(ctx context.Context, interaction models.Interaction) (int64, error)
	// ListInteractions returns a session's exchanges in chronological order.
	ListInteractions(ctx context.Context, sessionID string) ([]models.Interaction, error)
	// LatestState returns the most recently persisted turn state for a
	// session, or nil if the session is unknown.
	LatestState(ctx context.Context, sessionID string) (*models.TurnState, error)
	// AddComponent adds or replaces a catalog component.
	AddComponent(ctx context.Context, component models.Component) error
	// ListComponents returns the full component catalog.
	ListComponents(ctx context.Context) ([]models.Component, error)
	// Close releases backend resources.
	Close() error
}

// Opts holds configuration options for store implementations.
type Opts struct {
	// DSN is the database connection string (Postgres URL or SQLite path).
	DSN string
}

// Option configures store creation.
type Option func(*Opts)

// WithPostgresDSN configures a PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithSQLiteDSN configures a SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL-style DSNs and "sqlite"
// for anything else (file paths).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
