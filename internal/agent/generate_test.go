package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/BranchCode/FlowPilot/internal/models"
)

func priorDocument() models.WorkflowDocument {
	return models.WorkflowDocument{
		Structure: []models.WorkflowNode{{ID: "node-1", Name: "sync-issues", Type: models.NodeKindNormal}},
		Data:      []models.WorkflowEntry{{Name: "sync-issues", Type: models.ActionKindExternalSource, TicketingID: "ticket-jira-placeholder"}},
	}
}

func TestGenerate_FailureResetsWorkflow(t *testing.T) {
	prior := models.NewTurnState()
	prior.Workflow = priorDocument()

	client := &scriptedGenAI{script: []invokeResult{
		{reply: "new_workflow"},
		{err: errors.New("model down")},
	}}
	a := newTestAgent(client, nil, WithMaxRetries(1))

	state := a.Process(context.Background(), prior, "create a workflow for GitHub")

	if !state.Workflow.IsEmpty() {
		t.Errorf("expected workflow reset to empty on failure, got %+v", state.Workflow)
	}
	if !state.AwaitingInput {
		t.Error("expected awaiting_input true")
	}
	if !strings.Contains(state.Response, "What specific actions or conditions do you want?") {
		t.Errorf("expected need-more-details response, got %q", state.Response)
	}
	if strings.Contains(state.Response, "model down") {
		t.Error("raw error must never surface to the user")
	}
	if state.Error != nil {
		t.Errorf("handled generation failure should not set the error record, got %+v", state.Error)
	}
}

func TestGenerate_EmptyStructureDiscarded(t *testing.T) {
	// The reply parses but carries an empty structure; the document must be
	// discarded rather than shown broken.
	client := &scriptedGenAI{script: []invokeResult{
		{reply: "new_workflow"},
		{reply: `{"structure": [], "data": [{"name": "x"}]}`},
	}}
	a := newTestAgent(client, nil, WithMaxRetries(1))

	state := a.Process(context.Background(), models.NewTurnState(), "create something")

	if !state.Workflow.IsEmpty() {
		t.Errorf("expected empty workflow, got %+v", state.Workflow)
	}
	if !state.AwaitingInput {
		t.Error("expected awaiting_input true")
	}
	if !strings.Contains(state.Response, "I need more details") {
		t.Errorf("expected more-details response, got %q", state.Response)
	}
}

func TestGenerate_UnparseableReplyDiscarded(t *testing.T) {
	client := &scriptedGenAI{script: []invokeResult{
		{reply: "new_workflow"},
		{reply: "I am sorry, I cannot do that"},
	}}
	a := newTestAgent(client, nil, WithMaxRetries(1))

	state := a.Process(context.Background(), models.NewTurnState(), "create something")
	if !state.Workflow.IsEmpty() {
		t.Errorf("expected empty workflow for unparseable reply, got %+v", state.Workflow)
	}
}

func TestModify_FailurePreservesWorkflow(t *testing.T) {
	prior := models.NewTurnState()
	prior.Workflow = priorDocument()

	client := &scriptedGenAI{script: []invokeResult{
		{reply: "modify_workflow"},
		{err: errors.New("model down")},
	}}
	a := newTestAgent(client, nil, WithMaxRetries(1))

	state := a.Process(context.Background(), prior, "add a step")

	if len(state.Workflow.Structure) != 1 || state.Workflow.Structure[0].Name != "sync-issues" {
		t.Errorf("expected prior workflow preserved on failure, got %+v", state.Workflow)
	}
	if state.Response != "I couldn't update the workflow. What do you want to change?" {
		t.Errorf("unexpected failure response: %q", state.Response)
	}
	if !state.AwaitingInput {
		t.Error("expected awaiting_input true")
	}
}

func TestGenerate_UsesSearchContext(t *testing.T) {
	searcher := &staticSearcher{results: []models.Component{
		{ID: "scm-github", Name: "GitHub", Type: models.ComponentTypeSCMProvider},
	}}
	client := &scriptedGenAI{script: []invokeResult{
		{reply: "new_workflow"},
		{reply: validDocumentJSON},
	}}
	a := newTestAgent(client, searcher)

	a.Process(context.Background(), models.NewTurnState(), "create a workflow for GitHub")

	got := client.calls[1].vars["search_context"]
	if !strings.Contains(got, "Name: GitHub, Type: scm_provider, ID: scm-github") {
		t.Errorf("expected formatted component context, got %q", got)
	}
}

func TestGenerate_SearchFailureAbsorbed(t *testing.T) {
	searcher := &staticSearcher{err: errors.New("index offline")}
	client := &scriptedGenAI{script: []invokeResult{
		{reply: "new_workflow"},
		{reply: validDocumentJSON},
	}}
	a := newTestAgent(client, searcher)

	state := a.Process(context.Background(), models.NewTurnState(), "create a workflow for GitHub")

	if got := client.calls[1].vars["search_context"]; got != "No context found" {
		t.Errorf("expected sentinel context on search failure, got %q", got)
	}
	if !state.Workflow.Usable() {
		t.Error("search failure must not fail the turn")
	}
}
