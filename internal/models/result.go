package models

// Status represents the outcome status of a case or iteration.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// IterationResult is the outcome of one trial of one test case.
// Write-once: constructed by the harness and never mutated afterwards.
type IterationResult struct {
	Iteration int      `json:"iteration"`
	Passed    bool     `json:"passed"`
	Responses []string `json:"responses,omitempty"`
	Extracted []any    `json:"extracted,omitempty"`
	ErrorMsg  string   `json:"error,omitempty"`

	DurationMs int64 `json:"duration_ms"`
}

// CaseResult aggregates all iterations of one test case.
type CaseResult struct {
	Name           string            `json:"name"`
	Passed         bool              `json:"passed"`
	Iterations     []IterationResult `json:"iterations"`
	SuccessfulRuns int               `json:"successful_runs"`
	TotalRuns      int               `json:"total_runs"`
	ErrorMsg       string            `json:"error,omitempty"`

	// DurationMs is the case wall time excluding inter-iteration waits.
	DurationMs int64 `json:"duration_ms"`
}

// Status maps the aggregate verdict onto a Status value.
func (c *CaseResult) Status() Status {
	if c.Passed {
		return StatusPassed
	}
	return StatusFailed
}

// Representative returns the iteration used for diagnostic display: the
// first successful one, or the last iteration when none succeeded. It is
// never used for pass/fail determination.
func (c *CaseResult) Representative() *IterationResult {
	for i := range c.Iterations {
		if c.Iterations[i].Passed {
			return &c.Iterations[i]
		}
	}
	if len(c.Iterations) == 0 {
		return nil
	}
	return &c.Iterations[len(c.Iterations)-1]
}

// RunOutcome is the full results document for one harness invocation.
type RunOutcome struct {
	Provider   string       `json:"provider"`
	TestFile   string       `json:"test_file"`
	Iterations int          `json:"iterations_per_case"`
	Cases      []CaseResult `json:"cases"`
	DurationMs int64        `json:"duration_ms"`
}

// AllPassed reports whether every case verdict passed.
func (o *RunOutcome) AllPassed() bool {
	for i := range o.Cases {
		if !o.Cases[i].Passed {
			return false
		}
	}
	return true
}

// Counts returns (passed, failed) case totals.
func (o *RunOutcome) Counts() (passed, failed int) {
	for i := range o.Cases {
		if o.Cases[i].Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
