// Package models defines the core data structures for FlowPilot.
//
// It includes the turn state threaded through the agent state machine, the
// workflow document under construction, and shared API types.
package models

import (
	"errors"
	"strings"
)

// Intent is the classified purpose of a turn. It is a closed set; anything
// outside it is coerced to IntentUnclear before being stored on a TurnState.
type Intent string

const (
	// IntentNewWorkflow means the user wants a brand new workflow generated.
	IntentNewWorkflow Intent = "new_workflow"
	// IntentModifyWorkflow means the user wants the existing workflow changed.
	IntentModifyWorkflow Intent = "modify_workflow"
	// IntentGeneral means the user asked a question or made a non-specific request.
	IntentGeneral Intent = "general"
	// IntentUnclear means the intent could not be determined.
	IntentUnclear Intent = "unclear"
)

// Error variables for better error handling and testability
var (
	ErrEmptyPrompt         = errors.New("prompt cannot be empty")
	ErrMissingRequiredKeys = errors.New("missing 'structure' or 'data' in workflow")
	ErrEmptySession        = errors.New("session ID cannot be empty")
	ErrInvalidNodeType     = errors.New("invalid node type")
)

// IsValidIntent checks if the given intent is a member of the closed set.
func IsValidIntent(i Intent) bool {
	switch i {
	case IntentNewWorkflow, IntentModifyWorkflow, IntentGeneral, IntentUnclear:
		return true
	default:
		return false
	}
}

// CoerceIntent normalizes a raw classifier reply into a member of the closed
// intent set. The reply is trimmed, stripped of surrounding quotes, and
// lowercased; anything that still falls outside the set becomes IntentUnclear.
func CoerceIntent(raw string) Intent {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, "'\"")
	cleaned = strings.ToLower(strings.TrimSpace(cleaned))
	if i := Intent(cleaned); IsValidIntent(i) {
		return i
	}
	return IntentUnclear
}

// Component is a single entry of the searchable component catalog: an SCM
// provider, ticketing system, or connector known to the platform.
type Component struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Component type tags used in the catalog.
const (
	ComponentTypeSCMProvider     = "scm_provider"
	ComponentTypeTicketingSystem = "ticketing_system"
	ComponentTypeConnector       = "connector"
)

// WorkflowRequest is the payload for processing a user prompt.
type WorkflowRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id,omitempty"`
}

// WorkflowReply is the response returned for a processed prompt.
type WorkflowReply struct {
	Conversation  string            `json:"conversation"`
	SessionID     string            `json:"session_id"`
	Workflow      *WorkflowDocument `json:"workflow,omitempty"`
	NextQuestion  string            `json:"next_question,omitempty"`
	InteractionID int64             `json:"interaction_id,omitempty"`
}

// ExecuteRequest is the payload for running a workflow document through the
// execution engine.
type ExecuteRequest struct {
	Workflow WorkflowDocument `json:"workflow"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}
