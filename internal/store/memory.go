// Package store provides storage backends for FlowPilot.
//
// This file implements the in-memory store used when no DSN is configured and
// as the default test double.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/BranchCode/FlowPilot/internal/models"
)

// InMemoryStore keeps interactions and the component catalog in process
// memory. Safe for concurrent use.
type InMemoryStore struct {
	mu           sync.RWMutex
	interactions []models.Interaction
	components   []models.Component
	nextID       int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

// AddInteraction implements Store.
func (s *InMemoryStore) AddInteraction(ctx context.Context, interaction models.Interaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	interaction.ID = s.nextID
	s.nextID++
	if interaction.Timestamp.IsZero() {
		interaction.Timestamp = time.Now()
	}
	s.interactions = append(s.interactions, interaction)
	return interaction.ID, nil
}

// ListInteractions implements Store.
func (s *InMemoryStore) ListInteractions(ctx context.Context, sessionID string) ([]models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Interaction
	for _, it := range s.interactions {
		if it.SessionID == sessionID {
			out = append(out, it)
		}
	}
	return out, nil
}

// LatestState implements Store.
func (s *InMemoryStore) LatestState(ctx context.Context, sessionID string) (*models.TurnState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.interactions) - 1; i >= 0; i-- {
		if s.interactions[i].SessionID == sessionID {
			state := s.interactions[i].State
			return &state, nil
		}
	}
	return nil, nil
}

// AddComponent implements Store.
func (s *InMemoryStore) AddComponent(ctx context.Context, component models.Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.components {
		if c.ID == component.ID {
			s.components[i] = component
			return nil
		}
	}
	s.components = append(s.components, component)
	return nil
}

// ListComponents implements Store.
func (s *InMemoryStore) ListComponents(ctx context.Context) ([]models.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Component, len(s.components))
	copy(out, s.components)
	return out, nil
}

// Close implements Store.
func (s *InMemoryStore) Close() error {
	return nil
}
