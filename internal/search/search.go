// Package search provides the ranked component search capability used to
// ground workflow generation. Results describe SCM providers, ticketing
// systems, and connectors known to the platform, ordered by relevance.
package search

import (
	"context"

	"github.com/BranchCode/FlowPilot/internal/models"
)

// Searcher defines the search capability consumed by the agent's context
// retriever. Implementations may return an empty slice; they must respect the
// context deadline.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]models.Component, error)
}
