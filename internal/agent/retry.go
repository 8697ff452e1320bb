package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// invokeWithRetry calls the generation capability up to retries times with
// exponential backoff between attempts: after failed attempt n (zero-indexed)
// it waits 2^n backoff units before trying again. Structured replies that fail
// validation count as failed attempts. The final attempt's error is returned
// to the caller; converting it into a user-facing message is the node's job.
//
// The backoff waits on the context as well as the timer, so a cancelled
// request never sits in a sleep.
func (a *Agent) invokeWithRetry(ctx context.Context, template string, structured bool, vars map[string]string, retries int) (string, error) {
	if retries <= 0 {
		retries = a.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		reply, err := a.genaiClient.Invoke(ctx, template, structured, vars)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if attempt == retries-1 {
			break
		}
		delay := time.Duration(1<<uint(attempt)) * a.backoffUnit
		slog.Warn("Agent.invokeWithRetry: attempt failed, backing off",
			"attempt", attempt+1,
			"retries", retries,
			"delay", delay,
			"error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("generation aborted during backoff: %w", ctx.Err())
		}
	}

	slog.Error("Agent.invokeWithRetry: all attempts exhausted", "retries", retries, "error", lastErr)
	return "", fmt.Errorf("generation failed after %d attempts: %w", retries, lastErr)
}
