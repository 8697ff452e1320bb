package agent

import (
	"context"
	"time"

	"github.com/BranchCode/FlowPilot/internal/models"
)

// invokeCall records one call made to the scripted generation client.
type invokeCall struct {
	template   string
	structured bool
	vars       map[string]string
}

// invokeResult is one scripted reply.
type invokeResult struct {
	reply string
	err   error
}

// scriptedGenAI implements genai.ClientInterface with a fixed reply script.
// When the script runs out, the last result repeats.
type scriptedGenAI struct {
	script []invokeResult
	calls  []invokeCall
}

func (s *scriptedGenAI) Invoke(ctx context.Context, template string, structured bool, vars map[string]string) (string, error) {
	s.calls = append(s.calls, invokeCall{template: template, structured: structured, vars: vars})
	idx := len(s.calls) - 1
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	if idx < 0 {
		return "", nil
	}
	return s.script[idx].reply, s.script[idx].err
}

// staticSearcher implements search.Searcher with fixed results.
type staticSearcher struct {
	results []models.Component
	err     error
}

func (s *staticSearcher) Search(ctx context.Context, query string, topK int) ([]models.Component, error) {
	return s.results, s.err
}

// newTestAgent wires an agent with scripted capabilities and no real backoff.
func newTestAgent(client *scriptedGenAI, searcher *staticSearcher, opts ...Option) *Agent {
	if searcher == nil {
		searcher = &staticSearcher{}
	}
	base := []Option{WithBackoffUnit(time.Microsecond)}
	return New(client, searcher, append(base, opts...)...)
}
