// Package agent implements the turn-processing state machine that converts
// natural-language requests into workflow documents and revises them across
// turns.
//
// One Process call runs exactly one turn: classify the prompt's intent, route
// to the matching node (generate, modify, general, unclear), and return the
// updated turn state. Every node is wrapped with uniform error containment so
// the host always receives a complete, well-formed state.
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/BranchCode/FlowPilot/internal/genai"
	"github.com/BranchCode/FlowPilot/internal/models"
	"github.com/BranchCode/FlowPilot/internal/search"
)

// Defaults mirroring the service configuration.
const (
	// DefaultMaxRetries is the default bound on generation attempts.
	DefaultMaxRetries = 3
	// DefaultTopK is the number of search results used for context grounding.
	DefaultTopK = 5
	// DefaultBackoffUnit is the time unit for exponential retry backoff.
	DefaultBackoffUnit = time.Second
)

// nodeFunc is a single state-transition function of the turn machine. Wrapped
// node functions keep this exact signature but never return a non-nil error.
type nodeFunc func(ctx context.Context, state models.TurnState) (models.TurnState, error)

// Opts holds configuration for the Agent.
type Opts struct {
	MaxRetries  int
	TopK        int
	BackoffUnit time.Duration
}

// Option configures the Agent.
type Option func(*Opts)

// WithMaxRetries bounds the number of generation attempts per call.
func WithMaxRetries(n int) Option {
	return func(o *Opts) { o.MaxRetries = n }
}

// WithTopK sets how many search results feed the grounding context.
func WithTopK(k int) Option {
	return func(o *Opts) { o.TopK = k }
}

// WithBackoffUnit sets the retry backoff time unit. Tests use a tiny unit to
// avoid real sleeps.
func WithBackoffUnit(unit time.Duration) Option {
	return func(o *Opts) { o.BackoffUnit = unit }
}

// Agent wires the turn nodes, intent router, and error containment into a
// single state machine. It holds no per-turn state; all mutable context lives
// in the TurnState threaded through Process.
type Agent struct {
	genaiClient genai.ClientInterface
	searcher    search.Searcher
	maxRetries  int
	topK        int
	backoffUnit time.Duration

	classify nodeFunc
	nodes    map[models.Intent]nodeFunc
}

// New creates an Agent with the given generation and search capabilities.
func New(genaiClient genai.ClientInterface, searcher search.Searcher, opts ...Option) *Agent {
	cfg := Opts{
		MaxRetries:  DefaultMaxRetries,
		TopK:        DefaultTopK,
		BackoffUnit: DefaultBackoffUnit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &Agent{
		genaiClient: genaiClient,
		searcher:    searcher,
		maxRetries:  cfg.MaxRetries,
		topK:        cfg.TopK,
		backoffUnit: cfg.BackoffUnit,
	}

	// Containment is applied once here, at wiring time. Node bodies stay free
	// of cross-cutting recovery logic.
	a.classify = contain("classify_intent", a.classifyIntent)
	a.nodes = map[models.Intent]nodeFunc{
		models.IntentNewWorkflow:    contain("generate_workflow", a.generateWorkflow),
		models.IntentModifyWorkflow: contain("modify_workflow", a.modifyWorkflow),
		models.IntentGeneral:        contain("handle_general", a.handleGeneral),
		models.IntentUnclear:        contain("handle_unclear", a.handleUnclear),
	}

	slog.Debug("agent.New: agent wired", "maxRetries", cfg.MaxRetries, "topK", cfg.TopK)
	return a
}

// Process runs one turn: it sets the prompt on the incoming state, classifies
// intent, routes to exactly one downstream node, and returns that node's
// output state. The agent performs no persistence; the caller owns loading
// and saving state between turns.
func (a *Agent) Process(ctx context.Context, previous models.TurnState, prompt string) models.TurnState {
	state := previous
	state.Prompt = prompt
	state.Error = nil
	state.Intent = models.IntentUnclear

	slog.Info("Agent.Process: processing turn", "promptLength", len(prompt), "historyLength", len(state.History))

	state, _ = a.classify(ctx, state)
	node := a.route(state.Intent)
	state, _ = node(ctx, state)

	slog.Info("Agent.Process: turn complete", "intent", state.Intent, "awaitingInput", state.AwaitingInput, "failed", state.Error != nil)
	return state
}

// route maps a classified intent to the node that handles it. Unknown intents
// cannot occur after coercion, but the unclear node is the safe default.
func (a *Agent) route(intent models.Intent) nodeFunc {
	slog.Debug("Agent.route: routing intent", "intent", intent)
	if node, ok := a.nodes[intent]; ok {
		return node
	}
	return a.nodes[models.IntentUnclear]
}
