package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BranchCode/FlowPilot/internal/agent"
	"github.com/BranchCode/FlowPilot/internal/cache"
	"github.com/BranchCode/FlowPilot/internal/engine"
	"github.com/BranchCode/FlowPilot/internal/models"
	"github.com/BranchCode/FlowPilot/internal/search"
	"github.com/BranchCode/FlowPilot/internal/store"
)

const testDocumentJSON = `{
	"structure": [
		{"id": "n1", "name": "Commit code", "type": "normal", "content": {}, "position": {"x": 0, "y": 0}}
	],
	"data": [
		{"id": "d1", "name": "Commit code", "type": "SCM_ACTION", "properties": {"action": "commit"}, "scm_id": "scm-github"}
	]
}`

// scriptedGenAI replays canned replies and records every invocation.
type scriptedGenAI struct {
	replies []string
	errs    []error
	calls   int
}

func (m *scriptedGenAI) Invoke(ctx context.Context, template string, structured bool, vars map[string]string) (string, error) {
	i := m.calls
	m.calls++
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	return m.replies[i], nil
}

// stubCache is an in-memory Cache for exercising the read-through path.
type stubCache struct {
	states  map[string]models.TurnState
	replies map[string]models.WorkflowReply
}

func newStubCache() *stubCache {
	return &stubCache{
		states:  make(map[string]models.TurnState),
		replies: make(map[string]models.WorkflowReply),
	}
}

func (c *stubCache) GetState(ctx context.Context, sessionID string) (*models.TurnState, error) {
	if state, ok := c.states[sessionID]; ok {
		return &state, nil
	}
	return nil, nil
}

func (c *stubCache) SetState(ctx context.Context, sessionID string, state models.TurnState) error {
	c.states[sessionID] = state
	return nil
}

func (c *stubCache) GetReply(ctx context.Context, sessionID, prompt string) (*models.WorkflowReply, error) {
	if reply, ok := c.replies[sessionID+"|"+prompt]; ok {
		return &reply, nil
	}
	return nil, nil
}

func (c *stubCache) SetReply(ctx context.Context, sessionID, prompt string, reply models.WorkflowReply) error {
	c.replies[sessionID+"|"+prompt] = reply
	return nil
}

func newTestServer(t *testing.T, ga *scriptedGenAI, c cache.Cache) (*Server, store.Store) {
	t.Helper()
	st := store.NewInMemoryStore()
	if err := store.SeedDefaultComponents(context.Background(), st); err != nil {
		t.Fatalf("failed to seed components: %v", err)
	}

	index := search.NewComponentIndex(storeComponentSource{st})
	ag := agent.New(ga, index)

	registry, err := buildConnectorRegistry(context.Background(), st)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	eng := engine.New(registry)

	if c == nil {
		c = cache.NewNoop()
	}
	return NewServer(st, c, ag, eng), st
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return resp
}

func TestWorkflowHandler_GeneratesWorkflow(t *testing.T) {
	ga := &scriptedGenAI{replies: []string{"new_workflow", testDocumentJSON}}
	srv, st := newTestServer(t, ga, nil)

	body := []byte(`{"prompt":"create a workflow that commits my code"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflow", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()
	srv.workflowHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp.Status != string(models.APIStatusOK) {
		t.Errorf("expected ok status, got %q", resp.Status)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected reply object in result, got %T", resp.Result)
	}
	if result["conversation"] != "Let's build it! I've created a workflow based on your request." {
		t.Errorf("unexpected conversation: %v", result["conversation"])
	}
	sessionID, _ := result["session_id"].(string)
	if sessionID == "" {
		t.Fatal("expected a generated session ID")
	}
	if result["workflow"] == nil {
		t.Error("expected workflow in reply")
	}

	interactions, err := st.ListInteractions(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("failed to list interactions: %v", err)
	}
	if len(interactions) != 1 {
		t.Fatalf("expected 1 persisted interaction, got %d", len(interactions))
	}
	if interactions[0].Prompt != "create a workflow that commits my code" {
		t.Errorf("unexpected persisted prompt: %q", interactions[0].Prompt)
	}
}

func TestWorkflowHandler_EmptyPromptAsksForClarification(t *testing.T) {
	ga := &scriptedGenAI{replies: []string{"unused"}}
	srv, _ := newTestServer(t, ga, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflow", bytes.NewBufferString(`{"prompt":""}`))
	rr := httptest.NewRecorder()
	srv.workflowHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ga.calls != 0 {
		t.Errorf("expected no model calls for empty prompt, got %d", ga.calls)
	}
	resp := decodeResponse(t, rr)
	result := resp.Result.(map[string]interface{})
	if result["conversation"] != "I'm not sure what you mean. Can you clarify?" {
		t.Errorf("unexpected conversation: %v", result["conversation"])
	}
}

func TestWorkflowHandler_SessionContinuity(t *testing.T) {
	ga := &scriptedGenAI{replies: []string{"new_workflow", testDocumentJSON, "general", "You have one workflow step."}}
	srv, _ := newTestServer(t, ga, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflow", bytes.NewBufferString(`{"prompt":"commit my code","session_id":"session-cont"}`))
	rr := httptest.NewRecorder()
	srv.workflowHandler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first turn: expected 200, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/workflow", bytes.NewBufferString(`{"prompt":"what does my workflow do?","session_id":"session-cont"}`))
	rr = httptest.NewRecorder()
	srv.workflowHandler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("second turn: expected 200, got %d", rr.Code)
	}

	resp := decodeResponse(t, rr)
	result := resp.Result.(map[string]interface{})
	// The workflow from the first turn survives a general-question turn.
	if result["workflow"] == nil {
		t.Error("expected workflow to persist across turns")
	}
	if result["conversation"] != "You have one workflow step." {
		t.Errorf("unexpected conversation: %v", result["conversation"])
	}
}

func TestWorkflowHandler_CachedReplySkipsAgent(t *testing.T) {
	ga := &scriptedGenAI{replies: []string{"unused"}}
	c := newStubCache()
	c.replies["session-c|make a workflow"] = models.WorkflowReply{
		Conversation: "cached answer",
		SessionID:    "session-c",
	}
	srv, _ := newTestServer(t, ga, c)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflow", bytes.NewBufferString(`{"prompt":"make a workflow","session_id":"session-c"}`))
	rr := httptest.NewRecorder()
	srv.workflowHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ga.calls != 0 {
		t.Errorf("expected agent to be skipped on cache hit, got %d model calls", ga.calls)
	}
	resp := decodeResponse(t, rr)
	result := resp.Result.(map[string]interface{})
	if result["conversation"] != "cached answer" {
		t.Errorf("expected cached conversation, got %v", result["conversation"])
	}
}

func TestWorkflowHandler_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedGenAI{replies: []string{"unused"}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflow", bytes.NewBufferString(`{not json`))
	rr := httptest.NewRecorder()
	srv.workflowHandler(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestWorkflowHandler_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedGenAI{replies: []string{"unused"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/workflow", nil)
	rr := httptest.NewRecorder()
	srv.workflowHandler(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestSessionsHandler_ListInteractions(t *testing.T) {
	ga := &scriptedGenAI{replies: []string{"new_workflow", testDocumentJSON}}
	srv, _ := newTestServer(t, ga, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflow", bytes.NewBufferString(`{"prompt":"commit my code","session_id":"session-list"}`))
	rr := httptest.NewRecorder()
	srv.workflowHandler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions/session-list/interactions", nil)
	rr = httptest.NewRecorder()
	srv.sessionsHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeResponse(t, rr)
	interactions, ok := resp.Result.([]interface{})
	if !ok {
		t.Fatalf("expected interaction list, got %T", resp.Result)
	}
	if len(interactions) != 1 {
		t.Errorf("expected 1 interaction, got %d", len(interactions))
	}
}

func TestSessionsHandler_UnknownEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedGenAI{replies: []string{"unused"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc", nil)
	rr := httptest.NewRecorder()
	srv.sessionsHandler(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestExecuteHandler_RunsWorkflow(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedGenAI{replies: []string{"unused"}}, nil)

	body := []byte(`{"workflow": ` + testDocumentJSON + `}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflow/execute", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()
	srv.executeHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	result := resp.Result.(map[string]interface{})
	if result["status"] != engine.StatusCompleted {
		t.Errorf("expected completed execution, got %v", result["status"])
	}
}

func TestExecuteHandler_RejectsInvalidWorkflow(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedGenAI{replies: []string{"unused"}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflow/execute", bytes.NewBufferString(`{"workflow":{"structure":[],"data":[]}}`))
	rr := httptest.NewRecorder()
	srv.executeHandler(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestComponentsHandler_ReturnsCatalog(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedGenAI{replies: []string{"unused"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/components", nil)
	rr := httptest.NewRecorder()
	srv.componentsHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeResponse(t, rr)
	components, ok := resp.Result.([]interface{})
	if !ok {
		t.Fatalf("expected component list, got %T", resp.Result)
	}
	if len(components) == 0 {
		t.Error("expected seeded components")
	}
}

func TestHealthHandler_Healthy(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedGenAI{replies: []string{"unused"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	srv.healthHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var health map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if health["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", health["status"])
	}
}

func TestBuildConnectorRegistry_RegistersSCMProviders(t *testing.T) {
	st := store.NewInMemoryStore()
	if err := store.SeedDefaultComponents(context.Background(), st); err != nil {
		t.Fatalf("failed to seed components: %v", err)
	}

	registry, err := buildConnectorRegistry(context.Background(), st)
	if err != nil {
		t.Fatalf("buildConnectorRegistry returned error: %v", err)
	}
	if registry.Get("scm-github") == nil {
		t.Error("expected GitHub connector to be registered")
	}
	// Ticketing systems are not connectors.
	if registry.Get("ticket-jira-placeholder") != nil {
		t.Error("did not expect ticketing components in the connector registry")
	}
}
