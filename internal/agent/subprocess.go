package agent

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultExitCommand ends the agent session when written on its own line.
const DefaultExitCommand = "quit"

// DefaultTimeout applies when an invocation carries no deadline of its own.
const DefaultTimeout = 30 * time.Second

// TimeoutError reports that a session exceeded its deadline. The child
// process has been terminated by the time this error is returned.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("agent process timed out after %v", e.Timeout)
}

// ExitError reports a non-zero agent exit, with the captured diagnostic
// output.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("agent failed with code %d: %s", e.Code, strings.TrimSpace(e.Stderr))
}

// Options configures a SubprocessEngine.
type Options struct {
	// Command launches the agent, e.g. "wrp" or "python3".
	Command string
	// Args precede the configuration-path argument.
	Args []string
	// ConfDir holds per-provider configuration files.
	ConfDir string
	// Provider selects the configuration file within ConfDir.
	Provider string
	// ExitCommand overrides DefaultExitCommand when non-empty.
	ExitCommand string
}

// connectorOverrides are the keys of the test case's connector block the
// engine honors; everything else in the block belongs to the agent itself.
type connectorOverrides struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	Config  string   `mapstructure:"config"`
}

// SubprocessEngine spawns the agent as a child process per session, writes
// the prompt script to its stdin, and collects stdout under a deadline.
type SubprocessEngine struct {
	opts Options
}

var _ Engine = (*SubprocessEngine)(nil)

// NewSubprocessEngine creates an engine for the given provider.
func NewSubprocessEngine(opts Options) *SubprocessEngine {
	if opts.ExitCommand == "" {
		opts.ExitCommand = DefaultExitCommand
	}
	return &SubprocessEngine{opts: opts}
}

// ConfigPath returns the provider configuration file the agent is launched with.
func (e *SubprocessEngine) ConfigPath() string {
	return filepath.Join(e.opts.ConfDir, e.opts.Provider+".yaml")
}

// Invoke runs one session. Exactly one child process is spawned, and it is
// terminated or reaped before Invoke returns, including on timeout.
func (e *SubprocessEngine) Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error) {
	start := time.Now()

	command := e.opts.Command
	args := append([]string(nil), e.opts.Args...)
	confPath := e.ConfigPath()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if len(req.Connector) > 0 {
		var ov connectorOverrides
		if err := mapstructure.Decode(req.Connector, &ov); err == nil {
			if ov.Command != "" {
				command = ov.Command
			}
			if len(ov.Args) > 0 {
				args = append([]string(nil), ov.Args...)
			}
			if ov.Config != "" {
				confPath = ov.Config
			}
		}
	}

	script := e.buildScript(req.Prompts)

	cmd := exec.Command(command, append(args, "--conf="+confPath)...)
	cmd.Stdin = strings.NewReader(script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("spawning agent",
		"command", command,
		"conf", confPath,
		"prompts", len(req.Prompts),
		"timeout", timeout)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("agent execution failed: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done // reap
		return nil, fmt.Errorf("agent execution failed: %w", ctx.Err())

	case <-timer.C:
		_ = cmd.Process.Kill()
		<-done // reap
		return nil, &TimeoutError{Timeout: timeout}

	case err := <-done:
		if err != nil {
			if ee, ok := err.(*exec.ExitError); ok {
				return nil, &ExitError{Code: ee.ExitCode(), Stderr: stderr.String()}
			}
			return nil, fmt.Errorf("agent execution failed: %w", err)
		}
	}

	resp := &InvokeResponse{
		Transcript: strings.TrimSpace(stdout.String()),
		DurationMs: time.Since(start).Milliseconds(),
	}

	slog.Debug("agent session complete",
		"duration_ms", resp.DurationMs,
		"transcript_bytes", len(resp.Transcript))

	return resp, nil
}

// buildScript concatenates the prompts, one per line, with the exit command
// last so the session ends naturally.
func (e *SubprocessEngine) buildScript(prompts []string) string {
	var sb strings.Builder
	for _, p := range prompts {
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	sb.WriteString(e.opts.ExitCommand)
	sb.WriteString("\n")
	return sb.String()
}
