package transcript

import (
	"errors"
	"testing"
)

func TestSegment_MultiTurn(t *testing.T) {
	raw := `Starting session...
Query:
The capital of France is Paris.

Query:
{"answer": 42}

Query:
Done with everything.
Exiting...
`

	got := Segment(raw)
	want := []string{
		"The capital of France is Paris.",
		`{"answer": 42}`,
		"Done with everything.",
	}

	if len(got) != len(want) {
		t.Fatalf("Segment() returned %d responses, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("response %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSegment_SessionCloseTerminal(t *testing.T) {
	raw := `Query:
Final answer here.
Session with gemini ended.
`
	got := Segment(raw)
	if len(got) != 1 || got[0] != "Final answer here." {
		t.Fatalf("Segment() = %q, want [\"Final answer here.\"]", got)
	}
}

func TestSegment_DropsEmptyAndTerminalBodies(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"empty body", "Query:\n\nQuery:\nreal content\n", 1},
		{"body is exit line", "Query:\nExiting...\n", 0},
		{"body is session banner", "Query:\nSession with ollama closed\n", 0},
		{"no markers at all", "just some chatter, no markers\n", 0},
		{"marker must start line", "prefix Query:\nnot a marker\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(tt.raw)
			if len(got) != tt.want {
				t.Errorf("Segment() returned %d responses, want %d: %q", len(got), tt.want, got)
			}
		})
	}
}

func TestSegment_CRLF(t *testing.T) {
	raw := "Query:\r\nwindows style body\r\nExiting...\r\n"
	got := Segment(raw)
	if len(got) != 1 || got[0] != "windows style body" {
		t.Fatalf("Segment() = %q, want [\"windows style body\"]", got)
	}
}

func TestSegment_TrailingSpacesAfterMarker(t *testing.T) {
	raw := "Query:  \t\nbody here\n"
	got := Segment(raw)
	if len(got) != 1 || got[0] != "body here" {
		t.Fatalf("Segment() = %q, want [\"body here\"]", got)
	}
}

func TestSegmentExact(t *testing.T) {
	raw := "Query:\none\n\nQuery:\ntwo\nExiting...\n"

	got, err := SegmentExact(raw, 2)
	if err != nil {
		t.Fatalf("SegmentExact() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("SegmentExact() returned %d responses, want 2", len(got))
	}

	_, err = SegmentExact(raw, 3)
	var mismatch *CountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("SegmentExact() error = %v, want *CountMismatchError", err)
	}
	if mismatch.Want != 3 || mismatch.Got != 2 {
		t.Errorf("mismatch = %+v, want Want=3 Got=2", mismatch)
	}
}
