// Package cache provides the session-state and response cache backing the
// API layer. A Redis implementation is used when Redis is configured; the
// no-op implementation keeps the API code path uniform when it is not.
package cache

import (
	"context"

	"github.com/BranchCode/FlowPilot/internal/models"
)

// Cache is the read-through cache consumed by the API layer. A nil result
// with a nil error means "miss".
type Cache interface {
	// GetState returns the cached turn state for a session.
	GetState(ctx context.Context, sessionID string) (*models.TurnState, error)
	// SetState caches the turn state for a session.
	SetState(ctx context.Context, sessionID string, state models.TurnState) error
	// GetReply returns the cached reply for a (session, prompt) pair.
	GetReply(ctx context.Context, sessionID, prompt string) (*models.WorkflowReply, error)
	// SetReply caches the reply for a (session, prompt) pair.
	SetReply(ctx context.Context, sessionID, prompt string, reply models.WorkflowReply) error
}

// Noop is a Cache that stores nothing and always misses.
type Noop struct{}

// NewNoop creates a no-op cache.
func NewNoop() *Noop {
	return &Noop{}
}

func (*Noop) GetState(ctx context.Context, sessionID string) (*models.TurnState, error) {
	return nil, nil
}

func (*Noop) SetState(ctx context.Context, sessionID string, state models.TurnState) error {
	return nil
}

func (*Noop) GetReply(ctx context.Context, sessionID, prompt string) (*models.WorkflowReply, error) {
	return nil, nil
}

func (*Noop) SetReply(ctx context.Context, sessionID, prompt string, reply models.WorkflowReply) error {
	return nil
}
