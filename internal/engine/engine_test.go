package engine

import (
	"testing"

	"github.com/BranchCode/FlowPilot/internal/connectors"
	"github.com/BranchCode/FlowPilot/internal/models"
)

func newTestEngine() *Engine {
	registry := connectors.NewRegistry()
	registry.Register(&connectors.Connector{ID: "scm-github", Name: "GitHub"})
	return New(registry)
}

func scmEntry(name, action, scmID string) models.WorkflowEntry {
	return models.WorkflowEntry{
		Name:       name,
		Type:       models.ActionKindSCM,
		Properties: map[string]interface{}{"action": action},
		SCMID:      scmID,
	}
}

func TestExecute_CompletedWorkflow(t *testing.T) {
	e := newTestEngine()
	workflow := models.WorkflowDocument{
		Structure: []models.WorkflowNode{
			{ID: "node-1", Name: "fetch-issues", Type: models.NodeKindNormal},
			{ID: "node-2", Name: "commit-code", Type: models.NodeKindNormal},
			{ID: "node-3", Name: "check-type", Type: models.NodeKindBranch},
		},
		Data: []models.WorkflowEntry{
			{Name: "fetch-issues", Type: models.ActionKindExternalSource, TicketingID: "ticket-jira-placeholder"},
			scmEntry("commit-code", "commit", "scm-github"),
			{Name: "check-type", Type: models.ActionKindExternalSource, TicketingID: "t"},
		},
	}

	result := e.Execute(workflow)
	if result.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (%+v)", result.Status, result)
	}
	if len(result.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(result.Steps))
	}
	if result.Steps[0].Status != StatusTriggered {
		t.Errorf("external source step should be triggered, got %q", result.Steps[0].Status)
	}
	if result.Steps[1].Status != StatusSuccess {
		t.Errorf("SCM step should succeed, got %q", result.Steps[1].Status)
	}
	if result.Steps[2].Status != StatusBranched {
		t.Errorf("branch step should be branched, got %q", result.Steps[2].Status)
	}
}

func TestExecute_MissingDataAborts(t *testing.T) {
	e := newTestEngine()
	workflow := models.WorkflowDocument{
		Structure: []models.WorkflowNode{
			{ID: "node-1", Name: "orphan", Type: models.NodeKindNormal},
			{ID: "node-2", Name: "commit-code", Type: models.NodeKindNormal},
		},
		Data: []models.WorkflowEntry{scmEntry("commit-code", "commit", "scm-github")},
	}

	result := e.Execute(workflow)
	if result.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", result.Status)
	}
	if len(result.Steps) != 1 {
		t.Fatalf("expected execution aborted after orphan node, got %d steps", len(result.Steps))
	}
	if result.Steps[0].Reason != "No matching data" {
		t.Errorf("expected no-matching-data reason, got %q", result.Steps[0].Reason)
	}
}

func TestExecute_UnknownConnectorFailsStep(t *testing.T) {
	e := newTestEngine()
	workflow := models.WorkflowDocument{
		Structure: []models.WorkflowNode{{ID: "node-1", Name: "commit-code", Type: models.NodeKindNormal}},
		Data:      []models.WorkflowEntry{scmEntry("commit-code", "commit", "scm-unknown")},
	}

	result := e.Execute(workflow)
	if result.Status != StatusFailed {
		t.Errorf("expected failed result, got %q", result.Status)
	}
}

func TestExecute_InvalidNodeType(t *testing.T) {
	e := newTestEngine()
	workflow := models.WorkflowDocument{
		Structure: []models.WorkflowNode{{ID: "node-1", Name: "weird", Type: "teleport"}},
		Data:      []models.WorkflowEntry{{Name: "weird", Type: models.ActionKindExternalSource, TicketingID: "t"}},
	}

	result := e.Execute(workflow)
	if result.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", result.Status)
	}
	if result.Steps[0].Result != models.ErrInvalidNodeType.Error() {
		t.Errorf("expected invalid node type result, got %q", result.Steps[0].Result)
	}
}

func TestExecute_UnsupportedAction(t *testing.T) {
	e := newTestEngine()
	workflow := models.WorkflowDocument{
		Structure: []models.WorkflowNode{{ID: "node-1", Name: "commit-code", Type: models.NodeKindNormal}},
		Data:      []models.WorkflowEntry{scmEntry("commit-code", "force-push", "scm-github")},
	}

	result := e.Execute(workflow)
	if result.Status != StatusFailed {
		t.Errorf("expected failed result for unsupported action, got %q", result.Status)
	}
}

func TestExecute_EmptyDocument(t *testing.T) {
	e := newTestEngine()
	result := e.Execute(models.WorkflowDocument{})
	if result.Status != StatusFailed {
		t.Errorf("expected failed for empty document, got %q", result.Status)
	}
}
