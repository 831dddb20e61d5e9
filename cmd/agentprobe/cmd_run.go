package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentprobe/agentprobe/internal/agent"
	"github.com/agentprobe/agentprobe/internal/harness"
	"github.com/agentprobe/agentprobe/internal/models"
	"github.com/agentprobe/agentprobe/internal/reporting"
)

// Providers the agent knows how to load configuration for.
var knownProviders = []string{"gemini", "ollama", "openai", "claude", "opencode", "claudecode"}

var (
	provider   string
	iterations int
	waitSecs   float64
	agentCmd   string
	agentArgs  []string
	confDir    string
	parallel   bool
	workers    int
	verbose    bool
	outputPath string
	junitPath  string
	htmlPath   string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <tests.yaml>",
		Short: "Run a conformance test file against an agent",
		Long: `Run the test cases in a YAML test file against an agent process.

Each case's prompts are written to the agent's stdin as a single script,
the transcript is segmented into per-turn responses, and each response's
JSON payload is extracted and validated. With --iterations > 1 every
case must pass on every trial to pass overall.`,
		Args: cobra.ExactArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", fmt.Sprintf("Agent provider, one of: %s", strings.Join(knownProviders, ", ")))
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 1, "Trials per test case; all must pass")
	cmd.Flags().Float64Var(&waitSecs, "wait", 3, "Seconds to wait between trials of the same case")
	cmd.Flags().StringVar(&agentCmd, "agent", "wrp", "Agent command to spawn")
	cmd.Flags().StringArrayVar(&agentArgs, "agent-arg", nil, "Extra argument passed to the agent before --conf (can be repeated)")
	cmd.Flags().StringVar(&confDir, "conf-dir", "conf", "Directory holding per-provider agent configuration")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Run test cases concurrently")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of concurrent workers (default: 4, requires --parallel)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-iteration progress")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output JSON file for results")
	cmd.Flags().StringVar(&junitPath, "junit", "", "Write a JUnit XML report to this path")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Write an HTML report to this path")

	_ = cmd.MarkFlagRequired("provider")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	testPath := args[0]

	if !slices.Contains(knownProviders, provider) {
		return fmt.Errorf("unknown provider %q (supported: %s)", provider, strings.Join(knownProviders, ", "))
	}
	if iterations < 1 {
		return fmt.Errorf("--iterations must be at least 1, got %d", iterations)
	}
	if waitSecs < 0 {
		return fmt.Errorf("--wait must not be negative, got %v", waitSecs)
	}

	cases, err := models.LoadTestFile(testPath)
	if err != nil {
		return fmt.Errorf("failed to load tests: %w", err)
	}

	engine := agent.NewSubprocessEngine(agent.Options{
		Command:  agentCmd,
		Args:     agentArgs,
		ConfDir:  confDir,
		Provider: provider,
	})

	runner := harness.New(harness.Config{
		Iterations: iterations,
		Wait:       time.Duration(waitSecs * float64(time.Second)),
		Parallel:   parallel,
		Workers:    workers,
	}, engine)

	if verbose {
		runner.OnProgress(verboseProgressListener)
	} else {
		runner.OnProgress(simpleProgressListener)
	}

	// Ctrl-C cancels the run; in-flight agent processes are killed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Running tests: %s\n", testPath)
	fmt.Printf("Provider: %s\n", provider)
	fmt.Printf("Agent: %s (conf: %s)\n", agentCmd, engine.ConfigPath())
	fmt.Printf("Iterations per case: %d\n", iterations)
	if parallel {
		w := workers
		if w <= 0 {
			w = 4
		}
		fmt.Printf("Parallel: %d workers\n", w)
	}
	fmt.Println()

	outcome := runner.RunAll(ctx, cases)
	outcome.Provider = provider
	outcome.TestFile = filepath.Base(testPath)

	printSummary(outcome)

	if outputPath != "" {
		if err := saveOutcome(outcome, outputPath); err != nil {
			return fmt.Errorf("failed to save output: %w", err)
		}
		fmt.Printf("Results saved to: %s\n", outputPath)
	}
	if junitPath != "" {
		if err := reporting.WriteJUnitXML(outcome, junitPath); err != nil {
			return fmt.Errorf("failed to write JUnit report: %w", err)
		}
		fmt.Printf("JUnit report saved to: %s\n", junitPath)
	}
	if htmlPath != "" {
		if err := reporting.WriteHTMLReport(outcome, htmlPath); err != nil {
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
		fmt.Printf("HTML report saved to: %s\n", htmlPath)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}

	// Return test failure as error so main can map it to an exit code
	if _, failed := outcome.Counts(); failed > 0 {
		return &TestFailureError{
			Message: fmt.Sprintf("run completed with %d failed case(s)", failed),
		}
	}

	return nil
}

func saveOutcome(outcome *models.RunOutcome, path string) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
