// Package transcript splits a raw agent session transcript into the
// per-prompt response bodies.
package transcript

import (
	"fmt"
	"regexp"
	"strings"
)

// queryMarker precedes each agent reply in the session transcript.
// Blank lines between the marker and the body are absorbed by trimming.
var queryMarker = regexp.MustCompile(`(?m)^Query:[ \t]*\r?\n`)

// terminalMarker ends the session body: either the agent's exit line or
// the session-close banner.
var terminalMarker = regexp.MustCompile(`\r?\n(?:Session with|Exiting\.\.\.)`)

// CountMismatchError reports that segmentation recovered a different number
// of responses than the number of prompts submitted. This signals a crashed
// agent, a changed output format, or a reply that never arrived; the
// enclosing iteration must fail rather than pad or truncate to align.
type CountMismatchError struct {
	Want int
	Got  int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("expected %d responses, got %d", e.Want, e.Got)
}

// Segment extracts the response bodies from a full session transcript, in
// submission order. Each body spans from a Query: marker to the next marker,
// a terminal marker, or end of input. Bodies that are empty after trimming,
// or that begin with a terminal phrase, are dropped.
func Segment(raw string) []string {
	markers := queryMarker.FindAllStringIndex(raw, -1)

	var responses []string
	for i, loc := range markers {
		start := loc[1]
		end := len(raw)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		if t := terminalMarker.FindStringIndex(raw[start:end]); t != nil {
			end = start + t[0]
		}

		body := strings.TrimSpace(raw[start:end])
		if body == "" || strings.HasPrefix(body, "Exiting") || strings.HasPrefix(body, "Session with") {
			continue
		}
		responses = append(responses, body)
	}
	return responses
}

// SegmentExact segments raw and enforces that exactly want responses were
// recovered, returning a *CountMismatchError otherwise.
func SegmentExact(raw string, want int) ([]string, error) {
	responses := Segment(raw)
	if len(responses) != want {
		return nil, &CountMismatchError{Want: want, Got: len(responses)}
	}
	return responses, nil
}
