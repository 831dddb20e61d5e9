package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agentprobe/agentprobe/internal/transcript"
)

func TestMockEngine_TranscriptShape(t *testing.T) {
	m := &MockEngine{BodyFor: func(prompt string) string {
		return "reply to " + prompt
	}}

	resp, err := m.Invoke(context.Background(), &InvokeRequest{
		Prompts: []string{"a", "b"},
		Timeout: time.Second,
	})
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}

	// The fabricated transcript must segment like a real one.
	bodies, err := transcript.SegmentExact(resp.Transcript, 2)
	if err != nil {
		t.Fatalf("SegmentExact() error: %v", err)
	}
	if bodies[0] != "reply to a" || bodies[1] != "reply to b" {
		t.Errorf("bodies = %q", bodies)
	}
}

func TestMockEngine_Err(t *testing.T) {
	wantErr := errors.New("agent exploded")
	m := &MockEngine{Err: wantErr}

	_, err := m.Invoke(context.Background(), &InvokeRequest{Prompts: []string{"a"}})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Invoke() error = %v, want %v", err, wantErr)
	}
}

func TestMockEngine_DelayExceedsTimeout(t *testing.T) {
	m := &MockEngine{Delay: 20 * time.Millisecond}

	_, err := m.Invoke(context.Background(), &InvokeRequest{
		Prompts: []string{"a"},
		Timeout: 10 * time.Millisecond,
	})

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("Invoke() error = %v, want *TimeoutError", err)
	}
}

func TestMockEngine_DelayHonorsContext(t *testing.T) {
	m := &MockEngine{Delay: 10 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Invoke(ctx, &InvokeRequest{Prompts: []string{"a"}, Timeout: time.Minute})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Invoke() error = %v, want context deadline", err)
	}
}
