package agent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/BranchCode/FlowPilot/internal/models"
)

var nameIntroRe = regexp.MustCompile(`(?i)my name is (\w+)`)

// handleUnclear produces the deterministic clarification request. No external
// calls are made.
func (a *Agent) handleUnclear(ctx context.Context, state models.TurnState) (models.TurnState, error) {
	slog.Info("Agent.handleUnclear: handling unclear intent")
	state.Response = clarifyResponse
	state.NextQuestion = clarifyQuestion
	state.AwaitingInput = true
	return state, nil
}

// handleGeneral answers questions and non-specific requests. Self-introductions
// get a templated greeting without any model call; everything else gets a short
// conversational reply grounded on search context.
func (a *Agent) handleGeneral(ctx context.Context, state models.TurnState) (models.TurnState, error) {
	slog.Info("Agent.handleGeneral: handling general prompt")

	if m := nameIntroRe.FindStringSubmatch(state.Prompt); m != nil {
		name := capitalize(m[1])
		state.Response = fmt.Sprintf("Hi %s! How can I assist you today?", name)
		state.NextQuestion = "How can I assist you today?"
		state.AwaitingInput = true
		slog.Debug("Agent.handleGeneral: greeted by name", "name", name)
		return state, nil
	}

	historyStr := formatHistory(state.History)
	searchContext := a.retrieveContext(ctx, state.Prompt)

	reply, err := a.invokeWithRetry(ctx, generalTemplate, false, map[string]string{
		"prompt":         state.Prompt,
		"history":        historyStr,
		"search_context": searchContext,
	}, 0)
	if err != nil {
		return state, fmt.Errorf("general response failed: %w", err)
	}

	state.Response = reply
	if strings.Contains(strings.ToLower(state.Prompt), "start new workflow") {
		state.NextQuestion = "What do you want to do next?"
	} else {
		state.NextQuestion = "How can I assist you further?"
	}
	state.AwaitingInput = true
	return state, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
