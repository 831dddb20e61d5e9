// Package harness orchestrates robustness runs: each test case is executed
// repeatedly against the agent and passes only when every trial passes.
package harness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentprobe/agentprobe/internal/agent"
	"github.com/agentprobe/agentprobe/internal/extract"
	"github.com/agentprobe/agentprobe/internal/models"
	"github.com/agentprobe/agentprobe/internal/transcript"
	"github.com/agentprobe/agentprobe/internal/validate"
)

// Config controls run behavior.
type Config struct {
	// Iterations is the trial count per test case. Default 1.
	Iterations int

	// Wait is the delay between trials after the first. It exists to avoid
	// tripping upstream rate limits on the agent's provider, not for
	// correctness.
	Wait time.Duration

	// Parallel runs independent test cases concurrently. Iterations within
	// one case always execute sequentially.
	Parallel bool

	// Workers bounds concurrency when Parallel is set. Default 4.
	Workers int
}

// EventType identifies a progress event.
type EventType string

const (
	EventRunStart          EventType = "run_start"
	EventRunComplete       EventType = "run_complete"
	EventCaseStart         EventType = "case_start"
	EventCaseComplete      EventType = "case_complete"
	EventIterationStart    EventType = "iteration_start"
	EventIterationComplete EventType = "iteration_complete"
)

// ProgressEvent is a progress update delivered to listeners.
type ProgressEvent struct {
	EventType  EventType
	CaseName   string
	CaseNum    int
	TotalCases int
	Iteration  int
	Iterations int
	Status     models.Status
	DurationMs int64
	ErrorMsg   string
}

// ProgressListener receives progress updates. Listeners may be called from
// multiple goroutines when Parallel is enabled.
type ProgressListener func(event ProgressEvent)

// Runner executes test cases against an agent engine.
type Runner struct {
	cfg    Config
	engine agent.Engine

	mu        sync.Mutex
	listeners []ProgressListener
}

// New creates a Runner, applying config defaults.
func New(cfg Config, engine agent.Engine) *Runner {
	if cfg.Iterations < 1 {
		cfg.Iterations = 1
	}
	if cfg.Wait < 0 {
		cfg.Wait = 0
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Runner{cfg: cfg, engine: engine}
}

// OnProgress registers a progress listener.
func (r *Runner) OnProgress(listener ProgressListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notify(event ProgressEvent) {
	r.mu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// RunAll executes every test case and returns the aggregate outcome.
// Cases run sequentially unless Parallel is set; each invocation owns its
// own child process and buffers, so no state is shared across cases.
func (r *Runner) RunAll(ctx context.Context, cases []models.TestCase) *models.RunOutcome {
	start := time.Now()
	r.notify(ProgressEvent{EventType: EventRunStart, TotalCases: len(cases)})

	results := make([]models.CaseResult, len(cases))

	if r.cfg.Parallel && len(cases) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.cfg.Workers)
		for i := range cases {
			g.Go(func() error {
				results[i] = r.RunCase(gctx, &cases[i], i+1, len(cases))
				return nil
			})
		}
		_ = g.Wait() // case failures are data, never errors
	} else {
		for i := range cases {
			results[i] = r.RunCase(ctx, &cases[i], i+1, len(cases))
		}
	}

	outcome := &models.RunOutcome{
		Iterations: r.cfg.Iterations,
		Cases:      results,
		DurationMs: time.Since(start).Milliseconds(),
	}

	r.notify(ProgressEvent{EventType: EventRunComplete, DurationMs: outcome.DurationMs})
	return outcome
}

// RunCase runs one test case r.cfg.Iterations times and aggregates the
// verdict. Every iteration outcome is retained in index order; the case
// passes only when all iterations passed.
func (r *Runner) RunCase(ctx context.Context, tc *models.TestCase, caseNum, totalCases int) models.CaseResult {
	r.notify(ProgressEvent{
		EventType:  EventCaseStart,
		CaseName:   tc.Name,
		CaseNum:    caseNum,
		TotalCases: totalCases,
		Iterations: r.cfg.Iterations,
	})

	iterations := make([]models.IterationResult, 0, r.cfg.Iterations)
	successful := 0
	var caseDurationMs int64

	for i := 1; i <= r.cfg.Iterations; i++ {
		if i > 1 && r.cfg.Wait > 0 {
			// The wait must stay cancellable: a cancelled run should not
			// sit out the full delay.
			timer := time.NewTimer(r.cfg.Wait)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}

		r.notify(ProgressEvent{
			EventType:  EventIterationStart,
			CaseName:   tc.Name,
			CaseNum:    caseNum,
			TotalCases: totalCases,
			Iteration:  i,
			Iterations: r.cfg.Iterations,
		})

		result := r.runIteration(ctx, tc, i)
		caseDurationMs += result.DurationMs
		if result.Passed {
			successful++
		}
		iterations = append(iterations, result)

		status := models.StatusFailed
		if result.Passed {
			status = models.StatusPassed
		}
		r.notify(ProgressEvent{
			EventType:  EventIterationComplete,
			CaseName:   tc.Name,
			CaseNum:    caseNum,
			TotalCases: totalCases,
			Iteration:  i,
			Iterations: r.cfg.Iterations,
			Status:     status,
			DurationMs: result.DurationMs,
			ErrorMsg:   result.ErrorMsg,
		})
	}

	result := models.CaseResult{
		Name:           tc.Name,
		Passed:         successful == r.cfg.Iterations,
		Iterations:     iterations,
		SuccessfulRuns: successful,
		TotalRuns:      r.cfg.Iterations,
		DurationMs:     caseDurationMs,
	}
	if !result.Passed {
		result.ErrorMsg = fmt.Sprintf("only %d/%d iterations passed", successful, r.cfg.Iterations)
	}

	r.notify(ProgressEvent{
		EventType:  EventCaseComplete,
		CaseName:   tc.Name,
		CaseNum:    caseNum,
		TotalCases: totalCases,
		Status:     result.Status(),
		DurationMs: caseDurationMs,
		ErrorMsg:   result.ErrorMsg,
	})

	return result
}

// runIteration executes one full trial: invoke the agent with the whole
// prompt script, segment the transcript, then extract and validate each
// turn's payload. Any failure is captured in the result, never raised.
func (r *Runner) runIteration(ctx context.Context, tc *models.TestCase, index int) models.IterationResult {
	start := time.Now()

	fail := func(msg string) models.IterationResult {
		return models.IterationResult{
			Iteration:  index,
			Passed:     false,
			ErrorMsg:   msg,
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	resp, err := r.engine.Invoke(ctx, &agent.InvokeRequest{
		Prompts:   tc.Prompts(),
		Timeout:   time.Duration(tc.TimeoutSec) * time.Second,
		Connector: tc.Connector,
	})
	if err != nil {
		return fail(err.Error())
	}

	responses, err := transcript.SegmentExact(resp.Transcript, len(tc.Turns))
	if err != nil {
		return fail(err.Error())
	}

	extracted := make([]any, 0, len(tc.Turns))
	for i, turn := range tc.Turns {
		value, err := extract.FromResponse(responses[i])
		if err == nil {
			err = validate.Value(value, turn.ExpectedValues, turn.Schema)
		}
		if err != nil {
			// The whole script was already submitted to the agent, so a
			// failed turn cannot be rewound or retried; remaining turns
			// are not evaluated.
			result := fail(fmt.Sprintf("turn %d failed: %v", i+1, err))
			result.Responses = responses
			result.Extracted = extracted
			return result
		}
		extracted = append(extracted, value)
	}

	return models.IterationResult{
		Iteration:  index,
		Passed:     true,
		Responses:  responses,
		Extracted:  extracted,
		DurationMs: time.Since(start).Milliseconds(),
	}
}
