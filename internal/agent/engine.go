// Package agent drives the external agent process for one scripted session.
package agent

import (
	"context"
	"time"
)

// Engine runs one full scripted session against an agent and returns the
// raw transcript.
type Engine interface {
	// Invoke submits the prompt script and collects the complete session
	// transcript. Implementations must guarantee that any spawned process
	// is no longer running when Invoke returns, on every exit path.
	Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error)
}

// InvokeRequest describes one scripted session.
type InvokeRequest struct {
	// Prompts are submitted in order, one per line, followed by the
	// session-terminating exit command.
	Prompts []string

	// Timeout bounds the whole session, from spawn to exit.
	Timeout time.Duration

	// Connector is the test case's opaque provider/capability block,
	// passed through from the test definition.
	Connector map[string]any
}

// InvokeResponse is the captured output of one session.
type InvokeResponse struct {
	// Transcript is the trimmed standard output of the session.
	Transcript string

	DurationMs int64
}
