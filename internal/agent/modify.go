package agent

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/BranchCode/FlowPilot/internal/models"
)

// modifyWorkflow asks the model for a full replacement of the existing
// document reflecting the requested edit. A missing document is a legal input:
// the model is told to start fresh. Unlike generate, failure leaves the prior
// document untouched. The turn always ends awaiting input.
func (a *Agent) modifyWorkflow(ctx context.Context, state models.TurnState) (models.TurnState, error) {
	slog.Info("Agent.modifyWorkflow: modifying workflow", "hasWorkflow", state.Workflow.Usable())

	historyStr := formatHistory(state.History)
	searchContext := a.retrieveContext(ctx, state.Prompt)

	existing := "No existing workflow"
	if !state.Workflow.IsEmpty() {
		if data, err := json.Marshal(state.Workflow); err == nil {
			existing = string(data)
		}
	}

	reply, err := a.invokeWithRetry(ctx, modifyTemplate, true, map[string]string{
		"prompt":            state.Prompt,
		"history":           historyStr,
		"search_context":    searchContext,
		"existing_workflow": existing,
	}, 0)
	if err != nil {
		slog.Error("Agent.modifyWorkflow: modification failed", "error", err)
		state.Response = "I couldn't update the workflow. What do you want to change?"
		state.NextQuestion = "What do you want to change?"
		state.AwaitingInput = true
		return state, nil
	}

	var workflow models.WorkflowDocument
	if err := json.Unmarshal([]byte(reply), &workflow); err != nil {
		slog.Warn("Agent.modifyWorkflow: reply did not parse, keeping prior document", "error", err)
		state.Response = "I couldn't update the workflow. What do you want to change?"
		state.NextQuestion = "What do you want to change?"
		state.AwaitingInput = true
		return state, nil
	}

	fillDocumentIDs(&workflow)
	state.Workflow = workflow
	state.Response = "Got it. I've updated the workflow for you."
	state.NextQuestion = "Anything else to add?"
	state.AwaitingInput = true
	slog.Info("Agent.modifyWorkflow: workflow replaced", "nodes", len(workflow.Structure), "entries", len(workflow.Data))
	return state, nil
}
