// Package connectors manages the SCM and ticketing connectors a workflow
// document can execute through.
package connectors

import (
	"log/slog"
	"sync"
)

// Valid SCM actions a connector will accept.
var validSCMActions = map[string]struct{}{
	"commit":       {},
	"push":         {},
	"pull_request": {},
}

// Connector is a single registered integration endpoint.
type Connector struct {
	ID   string
	Name string
}

// ValidateAction reports whether the connector supports the given action.
func (c *Connector) ValidateAction(action string) bool {
	_, ok := validSCMActions[action]
	slog.Debug("Connector.ValidateAction: validated action", "connector", c.Name, "action", action, "valid", ok)
	return ok
}

// Registry holds connectors keyed by ID. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]*Connector
}

// NewRegistry creates an empty connector registry.
func NewRegistry() *Registry {
	slog.Debug("connectors.NewRegistry: creating registry")
	return &Registry{connectors: make(map[string]*Connector)}
}

// Register adds a connector under its ID, replacing any previous entry.
func (r *Registry) Register(c *Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slog.Info("Registry.Register: registering connector", "id", c.ID, "name", c.Name)
	r.connectors[c.ID] = c
}

// Get returns the connector with the given ID, or nil if unknown.
func (r *Registry) Get(id string) *Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := r.connectors[id]
	slog.Debug("Registry.Get: lookup", "id", id, "found", c != nil)
	return c
}

// List returns all registered connectors.
func (r *Registry) List() []*Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connector, 0, len(r.connectors))
	for _, c := range r.connectors {
		out = append(out, c)
	}
	return out
}
