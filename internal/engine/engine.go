// Package engine executes workflow documents produced by the agent: it walks
// the structure sequence, joins each node to its data entry by name, and
// dispatches each (node kind, action kind) pair to the matching executor.
package engine

import (
	"log/slog"

	"github.com/BranchCode/FlowPilot/internal/connectors"
	"github.com/BranchCode/FlowPilot/internal/models"
)

// Execution statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSuccess   = "success"
	StatusTriggered = "triggered"
	StatusBranched  = "branched"
)

// StepResult summarises the outcome of one workflow node.
type StepResult struct {
	Node   string          `json:"node"`
	Type   models.NodeKind `json:"type"`
	Status string          `json:"status"`
	Result string          `json:"result,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

// Result is the outcome of executing a full workflow document.
type Result struct {
	Status string       `json:"status"`
	Steps  []StepResult `json:"steps"`
	Error  string       `json:"error,omitempty"`
}

// Engine walks a workflow document and executes its nodes sequentially.
type Engine struct {
	registry *connectors.Registry
}

// New creates an engine backed by the given connector registry.
func New(registry *connectors.Registry) *Engine {
	slog.Debug("engine.New: creating engine")
	return &Engine{registry: registry}
}

// Execute runs the document node by node. A node without a matching data entry
// aborts execution; any failed step marks the overall result failed.
func (e *Engine) Execute(workflow models.WorkflowDocument) Result {
	slog.Info("Engine.Execute: executing workflow", "nodes", len(workflow.Structure))
	if !workflow.Usable() {
		return Result{Status: StatusFailed, Error: models.ErrWorkflowNotUsable.Error()}
	}

	result := Result{Status: StatusCompleted}
	for _, node := range workflow.Structure {
		entry := workflow.EntryByName(node.Name)
		if entry == nil {
			slog.Error("Engine.Execute: no data for node", "node", node.Name)
			result.Status = StatusFailed
			result.Steps = append(result.Steps, StepResult{
				Node:   node.Name,
				Type:   node.Type,
				Status: StatusFailed,
				Reason: "No matching data",
			})
			return result
		}

		step := e.executeNode(node, *entry)
		if step.Status == StatusFailed {
			result.Status = StatusFailed
		}
		result.Steps = append(result.Steps, step)
		slog.Debug("Engine.Execute: processed node", "node", step.Node, "status", step.Status)
	}
	return result
}

// executeNode dispatches on the (node kind, action kind) pair. The switch is
// exhaustive over the finite tag set; anything else is an invalid node type.
func (e *Engine) executeNode(node models.WorkflowNode, entry models.WorkflowEntry) StepResult {
	step := StepResult{Node: node.Name, Type: node.Type}

	switch node.Type {
	case models.NodeKindNormal:
		switch entry.Type {
		case models.ActionKindExternalSource:
			step.Status = StatusTriggered
		case models.ActionKindSCM:
			step.Status, step.Result = e.executeSCMAction(entry)
		default:
			step.Status = StatusFailed
			step.Result = models.ErrInvalidNodeType.Error()
		}
	case models.NodeKindBranch:
		// Branch conditions are not evaluated yet; execution follows the
		// true arm.
		step.Status = StatusBranched
		step.Result = "branched to true"
	default:
		step.Status = StatusFailed
		step.Result = models.ErrInvalidNodeType.Error()
	}
	return step
}

// executeSCMAction validates the entry's action against its connector.
func (e *Engine) executeSCMAction(entry models.WorkflowEntry) (status, result string) {
	connector := e.registry.Get(entry.SCMID)
	if connector == nil {
		slog.Error("Engine.executeSCMAction: connector not found", "scmID", entry.SCMID, "entry", entry.Name)
		return StatusFailed, "Connector not found: " + entry.SCMID
	}
	action := entry.Action()
	if !connector.ValidateAction(action) {
		slog.Warn("Engine.executeSCMAction: unsupported action", "action", action, "connector", connector.Name)
		return StatusFailed, "Unsupported action: " + action
	}
	slog.Info("Engine.executeSCMAction: SCM action executed", "action", action, "connector", connector.Name)
	return StatusSuccess, "SCM action executed"
}
