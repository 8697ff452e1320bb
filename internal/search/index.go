// Package search provides a catalog-backed implementation of the Searcher capability.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/BranchCode/FlowPilot/internal/models"
)

// ComponentSource supplies the component catalog the index ranks over. The
// store implements this.
type ComponentSource interface {
	ListComponents(ctx context.Context) ([]models.Component, error)
}

// ComponentIndex ranks catalog components against a query by keyword overlap.
// It reloads the catalog on every search so newly registered connectors are
// visible without a restart.
type ComponentIndex struct {
	source ComponentSource
}

// NewComponentIndex creates an index over the given catalog source.
func NewComponentIndex(source ComponentSource) *ComponentIndex {
	slog.Debug("search.NewComponentIndex: creating index")
	return &ComponentIndex{source: source}
}

// Search implements Searcher. Components are scored by the number of query
// tokens appearing in their name, type, or description; zero-score components
// are dropped and the remainder returned in descending score order, capped at
// topK.
func (ix *ComponentIndex) Search(ctx context.Context, query string, topK int) ([]models.Component, error) {
	components, err := ix.source.ListComponents(ctx)
	if err != nil {
		slog.Error("ComponentIndex.Search: failed to load catalog", "error", err)
		return nil, fmt.Errorf("failed to load component catalog: %w", err)
	}

	tokens := tokenize(query)
	if len(tokens) == 0 {
		slog.Debug("ComponentIndex.Search: empty query, no results", "query", query)
		return nil, nil
	}

	type scored struct {
		component models.Component
		score     int
	}
	var ranked []scored
	for _, c := range components {
		haystack := strings.ToLower(c.Name + " " + c.Type + " " + c.Description)
		score := 0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{component: c, score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	results := make([]models.Component, 0, len(ranked))
	for _, s := range ranked {
		results = append(results, s.component)
	}
	slog.Info("ComponentIndex.Search: query complete", "query", query, "results", len(results))
	return results, nil
}

// tokenize splits a query into lowercase alphanumeric tokens, dropping
// single-character noise.
func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var tokens []string
	for _, f := range fields {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
