package agent

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/BranchCode/FlowPilot/internal/models"
)

const needDetailsQuestion = "What specific actions or conditions do you want?"

// generateWorkflow creates a brand new workflow document from the prompt. On
// any failure the document is reset to empty and the user is asked for
// specifics; raw errors never reach the response. The turn always ends
// awaiting input.
func (a *Agent) generateWorkflow(ctx context.Context, state models.TurnState) (models.TurnState, error) {
	slog.Info("Agent.generateWorkflow: generating workflow")

	historyStr := formatHistory(state.History)
	searchContext := a.retrieveContext(ctx, state.Prompt)

	reply, err := a.invokeWithRetry(ctx, generateTemplate, true, map[string]string{
		"prompt":         state.Prompt,
		"history":        historyStr,
		"search_context": searchContext,
	}, 0)
	if err != nil {
		slog.Error("Agent.generateWorkflow: generation failed", "error", err)
		state.Workflow = models.WorkflowDocument{}
		state.Response = "I couldn't generate a workflow yet. " + needDetailsQuestion
		state.NextQuestion = needDetailsQuestion
		state.AwaitingInput = true
		return state, nil
	}

	var workflow models.WorkflowDocument
	if err := json.Unmarshal([]byte(reply), &workflow); err != nil || !workflow.Usable() {
		slog.Warn("Agent.generateWorkflow: discarding unusable document", "parseError", err, "usable", workflow.Usable())
		state.Workflow = models.WorkflowDocument{}
		state.Response = "I need more details to create a workflow. " + needDetailsQuestion
		state.NextQuestion = needDetailsQuestion
		state.AwaitingInput = true
		return state, nil
	}

	fillDocumentIDs(&workflow)
	state.Workflow = workflow
	state.Response = "Let's build it! I've created a workflow based on your request."
	state.NextQuestion = "Anything else to add?"
	state.AwaitingInput = true
	slog.Info("Agent.generateWorkflow: workflow created", "nodes", len(workflow.Structure), "entries", len(workflow.Data))
	return state, nil
}
