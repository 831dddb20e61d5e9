package harness

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentprobe/agentprobe/internal/agent"
	"github.com/agentprobe/agentprobe/internal/models"
)

func singleTurnCase(name string) models.TestCase {
	return models.TestCase{
		Name:       name,
		TimeoutSec: models.DefaultTimeoutSec,
		Turns:      []models.TestTurn{{Prompt: "give me status as JSON"}},
	}
}

func okEngine() *agent.MockEngine {
	return &agent.MockEngine{BodyFor: func(string) string {
		return "Sure, here you go:\n```json\n{\"status\": \"ok\"}\n```"
	}}
}

func TestRunCase_PassingIteration(t *testing.T) {
	tc := models.TestCase{
		Name: "status check",
		Turns: []models.TestTurn{{
			Prompt:         "give me status as JSON",
			ExpectedValues: map[string]any{"status": "ok"},
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"status"},
			},
		}},
	}
	require.NoError(t, tc.Validate())

	r := New(Config{}, okEngine())
	result := r.RunCase(context.Background(), &tc, 1, 1)

	require.True(t, result.Passed)
	require.Equal(t, 1, result.SuccessfulRuns)
	require.Equal(t, 1, result.TotalRuns)
	require.Len(t, result.Iterations, 1)

	it := result.Iterations[0]
	require.True(t, it.Passed)
	require.Len(t, it.Extracted, 1)
	require.Equal(t, map[string]any{"status": "ok"}, it.Extracted[0])
}

func TestRunCase_AllIterationsMustPass(t *testing.T) {
	// Second trial returns a payload the expectation rejects.
	calls := 0
	var mu sync.Mutex
	engine := &agent.MockEngine{BodyFor: func(string) string {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 2 {
			return `{"status": "degraded"}`
		}
		return `{"status": "ok"}`
	}}

	tc := models.TestCase{
		Name: "flaky agent",
		Turns: []models.TestTurn{{
			Prompt:         "status please",
			ExpectedValues: map[string]any{"status": "ok"},
		}},
	}
	require.NoError(t, tc.Validate())

	r := New(Config{Iterations: 3}, engine)
	result := r.RunCase(context.Background(), &tc, 1, 1)

	require.False(t, result.Passed)
	require.Equal(t, 2, result.SuccessfulRuns)
	require.Equal(t, 3, result.TotalRuns)
	require.Equal(t, "only 2/3 iterations passed", result.ErrorMsg)
	require.Len(t, result.Iterations, 3)
	require.True(t, result.Iterations[0].Passed)
	require.False(t, result.Iterations[1].Passed)
	require.True(t, result.Iterations[2].Passed)

	// Representative is the first successful trial.
	rep := result.Representative()
	require.NotNil(t, rep)
	require.Equal(t, 1, rep.Iteration)
}

func TestRunIteration_StopsAtFirstFailedTurn(t *testing.T) {
	engine := &agent.MockEngine{BodyFor: func(prompt string) string {
		if prompt == "second" {
			return "no payload in this reply at all"
		}
		return `{"ok": true}`
	}}

	tc := models.TestCase{
		Name: "multi turn",
		Turns: []models.TestTurn{
			{Prompt: "first"},
			{Prompt: "second"},
			{Prompt: "third"},
		},
	}
	require.NoError(t, tc.Validate())

	r := New(Config{}, engine)
	result := r.RunCase(context.Background(), &tc, 1, 1)

	require.False(t, result.Passed)
	it := result.Iterations[0]
	require.Contains(t, it.ErrorMsg, "turn 2 failed")
	// All responses were already collected; extraction stopped after turn 1.
	require.Len(t, it.Responses, 3)
	require.Len(t, it.Extracted, 1)
}

func TestRunIteration_EngineErrorBecomesFailure(t *testing.T) {
	engine := &agent.MockEngine{Err: errors.New("spawn failed")}

	tc := singleTurnCase("broken agent")
	r := New(Config{}, engine)
	result := r.RunCase(context.Background(), &tc, 1, 1)

	require.False(t, result.Passed)
	require.Contains(t, result.Iterations[0].ErrorMsg, "spawn failed")
}

func TestRunIteration_ResponseCountMismatch(t *testing.T) {
	// An empty body segments to zero responses for one prompt.
	engine := &agent.MockEngine{BodyFor: func(string) string { return "" }}

	tc := singleTurnCase("silent agent")
	r := New(Config{}, engine)
	result := r.RunCase(context.Background(), &tc, 1, 1)

	require.False(t, result.Passed)
	require.Contains(t, result.Iterations[0].ErrorMsg, "expected 1 responses, got 0")
}

func TestRunAll_SequentialAndParallelAgree(t *testing.T) {
	cases := []models.TestCase{
		singleTurnCase("alpha"),
		singleTurnCase("beta"),
		singleTurnCase("gamma"),
	}

	for _, parallel := range []bool{false, true} {
		r := New(Config{Parallel: parallel, Workers: 2}, okEngine())
		outcome := r.RunAll(context.Background(), cases)

		require.True(t, outcome.AllPassed())
		require.Len(t, outcome.Cases, 3)
		// Results keep input order regardless of scheduling.
		require.Equal(t, "alpha", outcome.Cases[0].Name)
		require.Equal(t, "beta", outcome.Cases[1].Name)
		require.Equal(t, "gamma", outcome.Cases[2].Name)
	}
}

func TestRunner_ProgressEvents(t *testing.T) {
	var mu sync.Mutex
	var events []ProgressEvent

	r := New(Config{Iterations: 2}, okEngine())
	r.OnProgress(func(e ProgressEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	cases := []models.TestCase{singleTurnCase("observed")}
	r.RunAll(context.Background(), cases)

	var types []EventType
	for _, e := range events {
		types = append(types, e.EventType)
	}
	require.Equal(t, []EventType{
		EventRunStart,
		EventCaseStart,
		EventIterationStart,
		EventIterationComplete,
		EventIterationStart,
		EventIterationComplete,
		EventCaseComplete,
		EventRunComplete,
	}, types)

	require.Equal(t, models.StatusPassed, events[3].Status)
	require.Equal(t, "observed", events[1].CaseName)
	require.Equal(t, 2, events[2].Iterations)
}

func TestRunCase_WaitIsCancellable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tc := singleTurnCase("cancelled early")
	r := New(Config{Iterations: 3, Wait: time.Hour}, okEngine())

	start := time.Now()
	result := r.RunCase(ctx, &tc, 1, 1)
	require.Less(t, time.Since(start), 5*time.Second)
	require.Len(t, result.Iterations, 3)
}

func TestNew_Defaults(t *testing.T) {
	r := New(Config{Iterations: -2, Wait: -time.Second, Workers: 0}, okEngine())
	require.Equal(t, 1, r.cfg.Iterations)
	require.Equal(t, time.Duration(0), r.cfg.Wait)
	require.Equal(t, 4, r.cfg.Workers)
}
