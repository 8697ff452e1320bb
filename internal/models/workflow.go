// Package models defines the workflow document produced by the agent.
package models

import (
	"errors"
	"fmt"
)

// NodeKind tags a structure node as a plain step or a conditional branch.
type NodeKind string

const (
	// NodeKindNormal is a regular sequential step.
	NodeKindNormal NodeKind = "normal"
	// NodeKindBranch is a conditional decision point.
	NodeKindBranch NodeKind = "branch"
)

// ActionKind tags a data entry with the kind of action it describes.
type ActionKind string

const (
	// ActionKindSCM is a source-control action executed via a connector.
	ActionKindSCM ActionKind = "SCM_ACTION"
	// ActionKindExternalSource is an externally triggered source event.
	ActionKindExternalSource ActionKind = "EXTERNAL_SOURCE"
)

// Position is the layout hint for a structure node. Nodes are enumerated
// left-to-right with increasing X.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// WorkflowNode is one element of the document's structure sequence.
type WorkflowNode struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Type     NodeKind               `json:"type"`
	Content  map[string]interface{} `json:"content"`
	Position Position               `json:"position"`
}

// ConnectorRef identifies the connector a data entry executes through.
type ConnectorRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// EntryMetadata carries the display title and connector descriptor of a data entry.
type EntryMetadata struct {
	Title     string       `json:"title,omitempty"`
	Connector ConnectorRef `json:"connector,omitempty"`
}

// WorkflowEntry is one element of the document's data sequence, keyed by name
// to its corresponding structure node. Exactly one of SCMID or TicketingID is
// expected to be set.
type WorkflowEntry struct {
	ID          string                 `json:"id,omitempty"`
	Name        string                 `json:"name"`
	Type        ActionKind             `json:"type"`
	Version     string                 `json:"version,omitempty"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
	Metadata    EntryMetadata          `json:"metadata,omitempty"`
	SCMID       string                 `json:"scm_id,omitempty"`
	TicketingID string                 `json:"ticketing_id,omitempty"`
}

// Action returns the action name from the entry's properties, or "" if absent.
func (e WorkflowEntry) Action() string {
	if e.Properties == nil {
		return ""
	}
	action, _ := e.Properties["action"].(string)
	return action
}

// WorkflowDocument is the artifact under construction: a structure sequence
// plus the data entries backing it. It is always replaced wholesale, never
// patched element-wise.
type WorkflowDocument struct {
	Structure []WorkflowNode  `json:"structure"`
	Data      []WorkflowEntry `json:"data"`
}

// IsEmpty reports whether the document carries nothing at all.
func (w WorkflowDocument) IsEmpty() bool {
	return len(w.Structure) == 0 && len(w.Data) == 0
}

// Usable reports whether the document can be handed to the execution engine:
// both structure and data must be non-empty.
func (w WorkflowDocument) Usable() bool {
	return len(w.Structure) > 0 && len(w.Data) > 0
}

// EntryByName returns the data entry matching the given node name, or nil.
func (w WorkflowDocument) EntryByName(name string) *WorkflowEntry {
	for i := range w.Data {
		if w.Data[i].Name == name {
			return &w.Data[i]
		}
	}
	return nil
}

// Validate checks the document invariants enforced downstream: every structure
// node needs a same-named data entry, SCM entries need an action property, and
// each entry needs exactly one of scm_id or ticketing_id.
func (w WorkflowDocument) Validate() error {
	if !w.Usable() {
		return ErrMissingRequiredKeys
	}
	for _, node := range w.Structure {
		if node.Type != NodeKindNormal && node.Type != NodeKindBranch {
			return fmt.Errorf("node %q: %w: %q", node.Name, ErrInvalidNodeType, node.Type)
		}
		if w.EntryByName(node.Name) == nil {
			return fmt.Errorf("node %q has no matching data entry", node.Name)
		}
	}
	for _, entry := range w.Data {
		if entry.Type == ActionKindSCM && entry.Action() == "" {
			return fmt.Errorf("data entry %q: SCM_ACTION requires an 'action' property", entry.Name)
		}
		if entry.SCMID != "" && entry.TicketingID != "" {
			return fmt.Errorf("data entry %q: scm_id and ticketing_id are mutually exclusive", entry.Name)
		}
		if entry.SCMID == "" && entry.TicketingID == "" {
			return fmt.Errorf("data entry %q: one of scm_id or ticketing_id is required", entry.Name)
		}
	}
	return nil
}

// ErrWorkflowNotUsable is returned when a document is handed off without both
// structure and data populated.
var ErrWorkflowNotUsable = errors.New("workflow document is not usable")
