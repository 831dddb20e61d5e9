// Package extract recovers a JSON payload from free-form agent response
// text. Agent output is the least controllable part of the system, so every
// failed strategy is recorded and surfaced in the error: failures must be
// triageable without re-running against the live agent.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	jsonFence    = "```json"
	genericFence = "```"

	// previewLimit bounds how much of the offending response is echoed
	// back in a NoJSONError.
	previewLimit = 500
)

// objectPattern matches balanced-brace object literals one level deep,
// which covers the payload shapes agents actually emit inline.
var objectPattern = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

// Attempt records one failed extraction strategy.
type Attempt struct {
	Strategy string
	Detail   string
}

// NoJSONError means every strategy failed. It carries the full attempt log
// and a bounded preview of the response.
type NoJSONError struct {
	Attempts []Attempt
	Preview  string
}

func (e *NoJSONError) Error() string {
	var sb strings.Builder
	sb.WriteString("no valid JSON found in response; attempted extractions:\n")
	for _, a := range e.Attempts {
		fmt.Fprintf(&sb, "  - %s: %s\n", a.Strategy, a.Detail)
	}
	fmt.Fprintf(&sb, "response content (first %d chars): %s", previewLimit, e.Preview)
	return sb.String()
}

// FromResponse returns the first structurally valid JSON value found in
// response, trying strategies in fixed priority order:
//
//  1. the first ```json fenced block
//  2. the first generic fenced block
//  3. each balanced-brace object substring, in order of appearance
//  4. the entire trimmed response
//
// Each attempt is independent of the previous one failing. An opening fence
// without a matching close is an attempt failure, not a silent skip.
func FromResponse(response string) (any, error) {
	var attempts []Attempt

	if v, ok := tryFence(response, jsonFence, "json fenced block", &attempts); ok {
		return v, nil
	}
	if v, ok := tryFence(response, genericFence, "generic fenced block", &attempts); ok {
		return v, nil
	}

	matches := objectPattern.FindAllString(response, -1)
	if len(matches) == 0 {
		attempts = append(attempts, Attempt{"object pattern scan", "no JSON-like patterns found"})
	}
	for i, m := range matches {
		var v any
		err := json.Unmarshal([]byte(strings.TrimSpace(m)), &v)
		if err == nil {
			return v, nil
		}
		attempts = append(attempts, Attempt{fmt.Sprintf("object pattern match %d", i+1), err.Error()})
	}

	var v any
	err := json.Unmarshal([]byte(strings.TrimSpace(response)), &v)
	if err == nil {
		return v, nil
	}
	attempts = append(attempts, Attempt{"direct parse", err.Error()})

	return nil, &NoJSONError{Attempts: attempts, Preview: preview(response)}
}

// tryFence attempts to parse the content of the first fenced block opened by
// open. Returns (value, true) on success; otherwise records the failure in
// attempts when an opening delimiter was present at all.
func tryFence(response, open, strategy string, attempts *[]Attempt) (any, bool) {
	idx := strings.Index(response, open)
	if idx < 0 {
		return nil, false
	}
	start := idx + len(open)
	rel := strings.Index(response[start:], genericFence)
	if rel < 0 {
		*attempts = append(*attempts, Attempt{strategy, fmt.Sprintf("found opening %s but no closing %s", open, genericFence)})
		return nil, false
	}

	text := strings.TrimSpace(response[start : start+rel])
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		*attempts = append(*attempts, Attempt{strategy, err.Error()})
		return nil, false
	}
	return v, true
}

func preview(response string) string {
	if len(response) <= previewLimit {
		return response
	}
	return response[:previewLimit]
}
