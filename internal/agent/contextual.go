package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// noContextFound is the sentinel context when search returns nothing or fails.
const noContextFound = "No context found"

// retrieveContext queries the component search capability and formats the top
// matches into a short grounding context. Failures here are always absorbed:
// a missing context degrades generation quality but never fails a turn.
func (a *Agent) retrieveContext(ctx context.Context, query string) string {
	results, err := a.searcher.Search(ctx, query, a.topK)
	if err != nil {
		slog.Warn("Agent.retrieveContext: search failed, using sentinel", "error", err)
		return noContextFound
	}
	if len(results) == 0 {
		slog.Debug("Agent.retrieveContext: no results", "queryLength", len(query))
		return noContextFound
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		name := r.Name
		if name == "" {
			name = "unknown"
		}
		componentType := r.Type
		if componentType == "" {
			componentType = "unknown"
		}
		id := r.ID
		if id == "" {
			id = "N/A"
		}
		lines = append(lines, fmt.Sprintf("Name: %s, Type: %s, ID: %s", name, componentType, id))
	}
	slog.Info("Agent.retrieveContext: context retrieved", "results", len(results))
	return strings.Join(lines, "\n")
}
