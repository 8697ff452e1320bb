// Package models defines state structures for the FlowPilot turn machine.
package models

import "time"

// HistoryEntry is one user-utterance/agent-response pair. History order is
// chronological and is serialized verbatim into prompts, so it must never be
// reordered.
type HistoryEntry struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// ErrorDetails is the structured diagnostic attached to a turn that failed
// internally. It is for operator-side inspection only and is never shown to
// the user.
type ErrorDetails struct {
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
	Node    string `json:"node"`
}

// TurnState is the unit of mutable context threaded through the agent state
// machine. The orchestrator holds no state of its own; the host loads and
// persists TurnState between calls.
type TurnState struct {
	Prompt        string           `json:"prompt"`
	History       []HistoryEntry   `json:"history"`
	Workflow      WorkflowDocument `json:"workflow"`
	Intent        Intent           `json:"intent"`
	Response      string           `json:"response"`
	AwaitingInput bool             `json:"awaiting_input"`
	NextQuestion  string           `json:"next_question"`
	Error         *ErrorDetails    `json:"error,omitempty"`
}

// NewTurnState returns the state for a never-before-seen session: empty
// history, empty workflow document, unclear intent.
func NewTurnState() TurnState {
	return TurnState{
		Workflow: WorkflowDocument{},
		Intent:   IntentUnclear,
	}
}

// AppendHistory records a completed exchange at the end of the history.
func (s *TurnState) AppendHistory(prompt, response string) {
	s.History = append(s.History, HistoryEntry{Prompt: prompt, Response: response})
}

// Interaction is one persisted prompt/response exchange within a session.
type Interaction struct {
	ID        int64            `json:"id"`
	SessionID string           `json:"session_id"`
	Prompt    string           `json:"prompt"`
	Response  string           `json:"response"`
	Workflow  WorkflowDocument `json:"workflow"`
	State     TurnState        `json:"state"`
	Timestamp time.Time        `json:"timestamp"`
}
