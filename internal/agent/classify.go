package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BranchCode/FlowPilot/internal/models"
)

// Canned clarification texts shared by the classify short-circuit and the
// unclear handler.
const (
	clarifyResponse = "I'm not sure what you mean. Can you clarify?"
	clarifyQuestion = "Can you clarify?"
)

// classifyIntent determines the purpose of the turn. Degenerate prompts
// short-circuit to unclear without touching the generation capability; any
// other prompt is classified by the model against the closed intent set, and
// the raw reply is coerced into that set.
func (a *Agent) classifyIntent(ctx context.Context, state models.TurnState) (models.TurnState, error) {
	slog.Info("Agent.classifyIntent: classifying prompt", "promptLength", len(state.Prompt))

	if strings.TrimSpace(state.Prompt) == "" {
		state.Intent = models.IntentUnclear
		state.Response = clarifyResponse
		state.NextQuestion = clarifyQuestion
		slog.Debug("Agent.classifyIntent: empty prompt, short-circuiting to unclear")
		return state, nil
	}

	historyStr := formatHistory(state.History)
	enrichedQuery := fmt.Sprintf("Prompt: %s\nHistory: %s\nWorkflow: %s",
		state.Prompt, historyStr, serializeWorkflow(state.Workflow))
	searchContext := a.retrieveContext(ctx, enrichedQuery)

	reply, err := a.invokeWithRetry(ctx, classifyTemplate, false, map[string]string{
		"prompt":         state.Prompt,
		"history":        historyStr,
		"search_context": searchContext,
	}, 0)
	if err != nil {
		return state, fmt.Errorf("intent classification failed: %w", err)
	}

	state.Intent = models.CoerceIntent(reply)
	slog.Info("Agent.classifyIntent: classified intent", "intent", state.Intent, "raw", reply)
	return state, nil
}

// formatHistory renders the chronological exchange history the way it appears
// inside prompts: one "user: ... / agent: ..." pair per line.
func formatHistory(history []models.HistoryEntry) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history)*2)
	for _, entry := range history {
		lines = append(lines, "user: "+entry.Prompt, "agent: "+entry.Response)
	}
	return strings.Join(lines, "\n")
}

// serializeWorkflow renders the current document for prompt embedding, or a
// sentinel when there is nothing to show.
func serializeWorkflow(w models.WorkflowDocument) string {
	if len(w.Structure) == 0 {
		return "No workflow"
	}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		slog.Warn("agent.serializeWorkflow: marshal failed", "error", err)
		return "No workflow"
	}
	return string(data)
}
