// Package api provides HTTP handlers for FlowPilot endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BranchCode/FlowPilot/internal/models"
	"github.com/google/uuid"
)

// workflowHandler processes a user prompt through the agent (POST /api/v1/workflow).
func (s *Server) workflowHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.workflowHandler: processing workflow request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.workflowHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.WorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.workflowHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	// A fresh session ID is issued when the client does not supply one.
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
		slog.Debug("Server.workflowHandler: issued new session", "sessionID", sessionID)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.turnTimeout)
	defer cancel()

	// Identical prompts within a session are served from the reply cache
	// without re-running the agent.
	if cached, err := s.cache.GetReply(ctx, sessionID, req.Prompt); err != nil {
		slog.Warn("Server.workflowHandler: reply cache lookup failed", "error", err, "sessionID", sessionID)
	} else if cached != nil {
		slog.Info("Server.workflowHandler: serving cached reply", "sessionID", sessionID)
		writeJSONResponse(w, http.StatusOK, models.Success(cached))
		return
	}

	state, err := s.loadState(ctx, sessionID)
	if err != nil {
		slog.Error("Server.workflowHandler: failed to load session state", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session state"))
		return
	}

	newState := s.agent.Process(ctx, state, req.Prompt)
	newState.AppendHistory(req.Prompt, newState.Response)

	reply := models.WorkflowReply{
		Conversation: newState.Response,
		SessionID:    sessionID,
		NextQuestion: newState.NextQuestion,
	}
	if newState.Workflow.Usable() {
		workflow := newState.Workflow
		reply.Workflow = &workflow
	}

	// Failed turns are returned to the client but never persisted or cached,
	// so a retry starts from the last good state.
	if newState.Error == nil {
		interactionID, err := s.st.AddInteraction(ctx, models.Interaction{
			SessionID: sessionID,
			Prompt:    req.Prompt,
			Response:  newState.Response,
			Workflow:  newState.Workflow,
			State:     newState,
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			slog.Error("Server.workflowHandler: failed to persist interaction", "error", err, "sessionID", sessionID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to persist interaction"))
			return
		}
		reply.InteractionID = interactionID

		if err := s.cache.SetState(ctx, sessionID, newState); err != nil {
			slog.Warn("Server.workflowHandler: failed to cache state", "error", err, "sessionID", sessionID)
		}
		if err := s.cache.SetReply(ctx, sessionID, req.Prompt, reply); err != nil {
			slog.Warn("Server.workflowHandler: failed to cache reply", "error", err, "sessionID", sessionID)
		}
	} else {
		slog.Warn("Server.workflowHandler: turn failed, skipping persistence", "sessionID", sessionID, "node", newState.Error.Node)
	}

	slog.Info("Server.workflowHandler: turn processed", "sessionID", sessionID, "intent", newState.Intent, "hasWorkflow", reply.Workflow != nil)
	writeJSONResponse(w, http.StatusOK, models.Success(reply))
}

// loadState resolves the session's prior turn state: cache first, then the
// store, then a fresh state with history rebuilt from persisted interactions.
func (s *Server) loadState(ctx context.Context, sessionID string) (models.TurnState, error) {
	if cached, err := s.cache.GetState(ctx, sessionID); err != nil {
		slog.Warn("Server.loadState: state cache lookup failed", "error", err, "sessionID", sessionID)
	} else if cached != nil {
		slog.Debug("Server.loadState: state loaded from cache", "sessionID", sessionID)
		return *cached, nil
	}

	stored, err := s.st.LatestState(ctx, sessionID)
	if err != nil {
		return models.TurnState{}, err
	}
	if stored != nil {
		slog.Debug("Server.loadState: state loaded from store", "sessionID", sessionID)
		return *stored, nil
	}

	state := models.NewTurnState()
	interactions, err := s.st.ListInteractions(ctx, sessionID)
	if err != nil {
		return models.TurnState{}, err
	}
	for _, interaction := range interactions {
		state.AppendHistory(interaction.Prompt, interaction.Response)
	}
	if len(interactions) > 0 {
		state.Workflow = interactions[len(interactions)-1].Workflow
		slog.Debug("Server.loadState: state rebuilt from interactions", "sessionID", sessionID, "interactions", len(interactions))
	}
	return state, nil
}

// executeHandler runs a finished workflow document through the engine
// (POST /api/v1/workflow/execute).
func (s *Server) executeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.executeHandler: processing execute request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.executeHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.executeHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Workflow.Validate(); err != nil {
		slog.Warn("Server.executeHandler: workflow validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	result := s.engine.Execute(req.Workflow)
	slog.Info("Server.executeHandler: workflow executed", "status", result.Status, "steps", len(result.Steps))
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// sessionsHandler routes session sub-resources (GET /api/v1/sessions/{id}/interactions).
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.sessionsHandler: routing session request", "method", r.Method, "path", r.URL.Path)

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/")
	segments := strings.Split(path, "/")

	if len(segments) == 2 && segments[1] == "interactions" {
		switch r.Method {
		case http.MethodGet:
			s.listInteractionsHandler(w, r, segments[0])
		default:
			w.Header().Set("Allow", http.MethodGet)
			writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		}
		return
	}

	writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown session endpoint"))
}

// listInteractionsHandler returns a session's persisted exchanges.
func (s *Server) listInteractionsHandler(w http.ResponseWriter, r *http.Request, sessionID string) {
	if sessionID == "" {
		slog.Warn("Server.listInteractionsHandler: empty session ID")
		writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrEmptySession.Error()))
		return
	}

	interactions, err := s.st.ListInteractions(r.Context(), sessionID)
	if err != nil {
		slog.Error("Server.listInteractionsHandler: failed to fetch interactions", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch interactions"))
		return
	}
	slog.Debug("Server.listInteractionsHandler: interactions fetched", "sessionID", sessionID, "count", len(interactions))
	writeJSONResponse(w, http.StatusOK, models.Success(interactions))
}

// componentsHandler returns the searchable component catalog (GET /api/v1/components).
func (s *Server) componentsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.componentsHandler: processing components request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.componentsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	components, err := s.st.ListComponents(r.Context())
	if err != nil {
		slog.Error("Server.componentsHandler: failed to fetch components", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch components"))
		return
	}
	slog.Debug("Server.componentsHandler: components fetched", "count", len(components))
	writeJSONResponse(w, http.StatusOK, models.Success(components))
}

// healthHandler provides a health check endpoint for monitoring and load balancing.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	// The component catalog doubles as a storage health probe.
	if components, err := s.st.ListComponents(ctx); err != nil {
		slog.Warn("Health check: failed to list components", "error", err)
		healthData["status"] = "degraded"
		healthData["error"] = "Failed to fetch component catalog"
	} else {
		healthData["components"] = len(components)
	}

	statusCode := http.StatusOK
	if healthData["status"] == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, statusCode, healthData)
}
