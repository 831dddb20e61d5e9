package agent

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MockEngine fabricates session transcripts without spawning a process.
// Used by harness tests and anywhere a deterministic agent is needed.
type MockEngine struct {
	// BodyFor produces the response body for a prompt. When nil, a canned
	// body naming the prompt is emitted.
	BodyFor func(prompt string) string

	// Err, when set, fails every invocation.
	Err error

	// Delay is slept before responding, to exercise deadline handling.
	Delay time.Duration
}

var _ Engine = (*MockEngine)(nil)

func (m *MockEngine) Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error) {
	start := time.Now()

	if m.Err != nil {
		return nil, m.Err
	}

	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		if m.Delay >= req.Timeout && req.Timeout > 0 {
			return nil, &TimeoutError{Timeout: req.Timeout}
		}
	}

	var sb strings.Builder
	for _, prompt := range req.Prompts {
		body := fmt.Sprintf("Mock response for: %s", prompt)
		if m.BodyFor != nil {
			body = m.BodyFor(prompt)
		}
		sb.WriteString("Query:\n")
		sb.WriteString(body)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Exiting...\n")

	return &InvokeResponse{
		Transcript: strings.TrimSpace(sb.String()),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}
