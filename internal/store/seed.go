package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BranchCode/FlowPilot/internal/models"
)

// defaultComponents is the starting component catalog: providers the platform
// knows out of the box. IDs for ticketing systems are placeholders until a
// real integration is linked.
var defaultComponents = []models.Component{
	{ID: "adf1f67b-e369-4701-af47-d9733ef27326", Name: "GitLab", Type: models.ComponentTypeSCMProvider, Description: "GitLab source control provider"},
	{ID: "scm-github", Name: "GitHub", Type: models.ComponentTypeSCMProvider, Description: "GitHub source control provider"},
	{ID: "scm-bitbucket", Name: "Bitbucket", Type: models.ComponentTypeSCMProvider, Description: "Bitbucket source control provider"},
	{ID: "ticket-jira-placeholder", Name: "Jira", Type: models.ComponentTypeTicketingSystem, Description: "Jira ticketing system"},
}

// SeedDefaultComponents populates the component catalog when it is empty.
// An already populated catalog is left untouched.
func SeedDefaultComponents(ctx context.Context, st Store) error {
	existing, err := st.ListComponents(ctx)
	if err != nil {
		return fmt.Errorf("failed to check component catalog: %w", err)
	}
	if len(existing) > 0 {
		slog.Debug("store.SeedDefaultComponents: catalog already populated", "count", len(existing))
		return nil
	}
	for _, c := range defaultComponents {
		if err := st.AddComponent(ctx, c); err != nil {
			return fmt.Errorf("failed to seed component %s: %w", c.ID, err)
		}
	}
	slog.Info("store.SeedDefaultComponents: catalog seeded", "count", len(defaultComponents))
	return nil
}
