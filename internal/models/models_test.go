package models

import "testing"

func TestCoerceIntent(t *testing.T) {
	cases := []struct {
		raw  string
		want Intent
	}{
		{"new_workflow", IntentNewWorkflow},
		{"'modify_workflow'", IntentModifyWorkflow},
		{"\"general\"", IntentGeneral},
		{"  unclear  ", IntentUnclear},
		{"NEW_WORKFLOW", IntentNewWorkflow},
		{"make me a sandwich", IntentUnclear},
		{"", IntentUnclear},
		{"new_workflow extra words", IntentUnclear},
	}
	for _, c := range cases {
		if got := CoerceIntent(c.raw); got != c.want {
			t.Errorf("CoerceIntent(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestIsValidIntent(t *testing.T) {
	for _, i := range []Intent{IntentNewWorkflow, IntentModifyWorkflow, IntentGeneral, IntentUnclear} {
		if !IsValidIntent(i) {
			t.Errorf("expected %q to be valid", i)
		}
	}
	if IsValidIntent("workflow") {
		t.Error("expected 'workflow' to be invalid")
	}
}

func TestWorkflowDocument_Usable(t *testing.T) {
	var empty WorkflowDocument
	if empty.Usable() {
		t.Error("empty document should not be usable")
	}
	if !empty.IsEmpty() {
		t.Error("empty document should report IsEmpty")
	}

	onlyStructure := WorkflowDocument{Structure: []WorkflowNode{{ID: "node-1", Name: "commit-code", Type: NodeKindNormal}}}
	if onlyStructure.Usable() {
		t.Error("document without data should not be usable")
	}

	full := WorkflowDocument{
		Structure: []WorkflowNode{{ID: "node-1", Name: "commit-code", Type: NodeKindNormal}},
		Data:      []WorkflowEntry{{Name: "commit-code", Type: ActionKindSCM}},
	}
	if !full.Usable() {
		t.Error("document with structure and data should be usable")
	}
}

func TestWorkflowDocument_Validate(t *testing.T) {
	doc := WorkflowDocument{
		Structure: []WorkflowNode{{ID: "node-1", Name: "commit-code", Type: NodeKindNormal}},
		Data: []WorkflowEntry{{
			Name:       "commit-code",
			Type:       ActionKindSCM,
			Properties: map[string]interface{}{"action": "commit"},
			SCMID:      "adf1f67b-e369-4701-af47-d9733ef27326",
		}},
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("expected valid document, got %v", err)
	}

	// Missing matching data entry
	orphan := doc
	orphan.Structure = []WorkflowNode{{ID: "node-1", Name: "deploy", Type: NodeKindNormal}}
	if err := orphan.Validate(); err == nil {
		t.Error("expected error for node without data entry")
	}

	// SCM entry without an action property
	noAction := WorkflowDocument{
		Structure: doc.Structure,
		Data:      []WorkflowEntry{{Name: "commit-code", Type: ActionKindSCM, SCMID: "x"}},
	}
	if err := noAction.Validate(); err == nil {
		t.Error("expected error for SCM entry without action")
	}

	// Both identifiers set
	both := WorkflowDocument{
		Structure: doc.Structure,
		Data: []WorkflowEntry{{
			Name:        "commit-code",
			Type:        ActionKindSCM,
			Properties:  map[string]interface{}{"action": "push"},
			SCMID:       "a",
			TicketingID: "b",
		}},
	}
	if err := both.Validate(); err == nil {
		t.Error("expected error when both scm_id and ticketing_id are set")
	}
}
