package agent

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/BranchCode/FlowPilot/internal/models"
)

// containedResponse is shown to the user whenever a node fails internally.
// Diagnostics stay in the state's error record, never in the response.
const containedResponse = "An error occurred. Please try again or clarify."

// contain wraps a node function with uniform error containment: any returned
// error or panic becomes a well-formed state update instead of propagating.
// The wrapped function has the same signature and always returns a nil error,
// so the orchestrator's output contract holds even in total failure.
func contain(name string, fn nodeFunc) nodeFunc {
	return func(ctx context.Context, state models.TurnState) (out models.TurnState, _ error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("agent.contain: node panicked", "node", name, "panic", r)
				out = failedState(state, name, fmt.Sprintf("%v", r), string(debug.Stack()))
			}
		}()

		out, err := fn(ctx, state)
		if err != nil {
			slog.Error("agent.contain: node failed", "node", name, "error", err)
			return failedState(state, name, err.Error(), string(debug.Stack())), nil
		}
		return out, nil
	}
}

// failedState converts a node failure into the uniform degraded turn state:
// generic response, unclear intent, awaiting input, structured diagnostics.
func failedState(state models.TurnState, node, message, trace string) models.TurnState {
	state.Response = containedResponse
	state.Intent = models.IntentUnclear
	state.AwaitingInput = true
	state.Error = &models.ErrorDetails{
		Message: message,
		Trace:   trace,
		Node:    node,
	}
	return state
}
