// Package api provides HTTP handlers and the main API server logic for FlowPilot.
//
// It exposes RESTful endpoints for turning prompts into workflow documents,
// inspecting session history, and executing finished workflows. The API
// integrates with the agent, store, cache, and engine modules.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/BranchCode/FlowPilot/internal/agent"
	"github.com/BranchCode/FlowPilot/internal/cache"
	"github.com/BranchCode/FlowPilot/internal/connectors"
	"github.com/BranchCode/FlowPilot/internal/engine"
	"github.com/BranchCode/FlowPilot/internal/genai"
	"github.com/BranchCode/FlowPilot/internal/models"
	"github.com/BranchCode/FlowPilot/internal/search"
	"github.com/BranchCode/FlowPilot/internal/store"
)

// Default configuration constants.
const (
	// DefaultAddr is the default API server listen address.
	DefaultAddr = ":8080"
	// DefaultTurnTimeout bounds a single prompt-processing turn, including
	// model retries.
	DefaultTurnTimeout = 120 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	// Addr is the listen address.
	Addr string
	// TurnTimeout bounds one prompt-processing turn.
	TurnTimeout time.Duration
	// RedisAddr enables the Redis cache when non-empty.
	RedisAddr string
	// RedisPassword is the optional Redis auth password.
	RedisPassword string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithTurnTimeout sets the per-turn processing timeout.
func WithTurnTimeout(d time.Duration) Option {
	return func(o *Opts) { o.TurnTimeout = d }
}

// WithRedisAddr enables Redis-backed caching of turn state and replies.
func WithRedisAddr(addr string) Option {
	return func(o *Opts) { o.RedisAddr = addr }
}

// WithRedisPassword sets the Redis auth password.
func WithRedisPassword(password string) Option {
	return func(o *Opts) { o.RedisPassword = password }
}

// Server holds the wired modules serving the HTTP API.
type Server struct {
	addr        string
	turnTimeout time.Duration

	st     store.Store
	cache  cache.Cache
	agent  *agent.Agent
	engine *engine.Engine
}

// NewServer creates a Server from already-constructed modules. Run is the
// usual entry point; NewServer exists for tests and embedding.
func NewServer(st store.Store, c cache.Cache, ag *agent.Agent, eng *engine.Engine, opts ...Option) *Server {
	cfg := Opts{
		Addr:        DefaultAddr,
		TurnTimeout: DefaultTurnTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		addr:        cfg.Addr,
		turnTimeout: cfg.TurnTimeout,
		st:          st,
		cache:       c,
		agent:       ag,
		engine:      eng,
	}
}

// Run wires all modules from their option slices and serves the API until the
// listener fails.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, agentOpts []agent.Option, apiOpts []Option) error {
	cfg := Opts{
		Addr:        DefaultAddr,
		TurnTimeout: DefaultTurnTimeout,
	}
	for _, opt := range apiOpts {
		opt(&cfg)
	}

	st, err := buildStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := store.SeedDefaultComponents(ctx, st); err != nil {
		return fmt.Errorf("failed to seed component catalog: %w", err)
	}

	gaClient, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize GenAI client: %w", err)
	}

	index := search.NewComponentIndex(storeComponentSource{st})
	ag := agent.New(gaClient, index, agentOpts...)

	registry, err := buildConnectorRegistry(ctx, st)
	if err != nil {
		return fmt.Errorf("failed to build connector registry: %w", err)
	}
	eng := engine.New(registry)

	var c cache.Cache = cache.NewNoop()
	if cfg.RedisAddr != "" {
		slog.Info("api.Run: Redis cache enabled", "addr", cfg.RedisAddr)
		c = cache.New(cfg.RedisAddr, cfg.RedisPassword, 0)
	} else {
		slog.Debug("api.Run: no Redis address configured, caching disabled")
	}

	srv := NewServer(st, c, ag, eng, apiOpts...)
	slog.Info("FlowPilot API running", "addr", srv.addr)
	return http.ListenAndServe(srv.addr, srv.Handler())
}

// Handler returns the routed HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/workflow", s.workflowHandler)
	mux.HandleFunc("/api/v1/workflow/execute", s.executeHandler)
	mux.HandleFunc("/api/v1/sessions/", s.sessionsHandler)
	mux.HandleFunc("/api/v1/components", s.componentsHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// buildStore selects a backend from the store options: Postgres for
// PostgreSQL-style DSNs, SQLite for file paths, in-memory when no DSN is
// configured.
func buildStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Debug("api.buildStore: using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(cfg.DSN) == "postgres" {
		slog.Debug("api.buildStore: using PostgreSQL store")
		return store.NewPostgresStore(storeOpts...)
	}
	slog.Debug("api.buildStore: using SQLite store")
	return store.NewSQLiteStore(storeOpts...)
}

// buildConnectorRegistry registers a connector for every SCM provider in the
// component catalog.
func buildConnectorRegistry(ctx context.Context, st store.Store) (*connectors.Registry, error) {
	components, err := st.ListComponents(ctx)
	if err != nil {
		return nil, err
	}
	registry := connectors.NewRegistry()
	for _, component := range components {
		if component.Type != models.ComponentTypeSCMProvider {
			continue
		}
		registry.Register(&connectors.Connector{ID: component.ID, Name: component.Name})
	}
	slog.Debug("api.buildConnectorRegistry: registry built", "connectors", len(registry.List()))
	return registry, nil
}

// storeComponentSource adapts a store.Store to the search.ComponentSource
// interface.
type storeComponentSource struct {
	st store.Store
}

func (s storeComponentSource) ListComponents(ctx context.Context) ([]models.Component, error) {
	return s.st.ListComponents(ctx)
}
