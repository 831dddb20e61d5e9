package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/agentprobe/agentprobe/internal/harness"
	"github.com/agentprobe/agentprobe/internal/models"
	"github.com/agentprobe/agentprobe/internal/statistics"
)

// icons returns the pass/fail markers, plain ASCII when stdout is not a
// terminal so CI logs stay clean.
func icons() (pass, fail string) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "✓", "✗"
	}
	return "PASS", "FAIL"
}

// truncate shortens s to maxWidth display cells, appending "..." if truncated.
func truncate(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

func verboseProgressListener(event harness.ProgressEvent) {
	switch event.EventType {
	case harness.EventRunStart:
		fmt.Printf("Starting run with %d case(s)...\n\n", event.TotalCases)
	case harness.EventCaseStart:
		fmt.Printf("[%d/%d] Running case: %s\n", event.CaseNum, event.TotalCases, event.CaseName)
	case harness.EventIterationStart:
		fmt.Printf("  Iteration %d/%d...", event.Iteration, event.Iterations)
	case harness.EventIterationComplete:
		duration := time.Duration(event.DurationMs) * time.Millisecond
		fmt.Printf(" %s (%v)\n", event.Status, duration)
		if event.ErrorMsg != "" {
			fmt.Printf("    %s\n", truncate(event.ErrorMsg, 120))
		}
	case harness.EventCaseComplete:
		fmt.Printf("  Case %s: %s\n\n", event.CaseName, event.Status)
	case harness.EventRunComplete:
		duration := time.Duration(event.DurationMs) * time.Millisecond
		fmt.Printf("Run completed in %v\n\n", duration)
	}
}

func simpleProgressListener(event harness.ProgressEvent) {
	if event.EventType != harness.EventCaseComplete {
		return
	}
	pass, fail := icons()
	status := pass
	if event.Status != models.StatusPassed {
		status = fail
	}
	fmt.Printf("%s [%d/%d] %s\n", status, event.CaseNum, event.TotalCases, event.CaseName)
}

func printSummary(outcome *models.RunOutcome) {
	pass, fail := icons()

	fmt.Println()
	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Println(" TEST RESULTS")
	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Println()

	passed, failed := outcome.Counts()
	duration := time.Duration(outcome.DurationMs) * time.Millisecond

	fmt.Printf("Provider:       %s\n", outcome.Provider)
	fmt.Printf("Total Cases:    %d\n", len(outcome.Cases))
	fmt.Printf("Passed:         %d\n", passed)
	fmt.Printf("Failed:         %d\n", failed)
	fmt.Printf("Iterations:     %d per case\n", outcome.Iterations)
	fmt.Printf("Duration:       %v\n", duration)
	fmt.Println()

	// Per-case breakdown
	fmt.Println("-" + strings.Repeat("-", 50))
	fmt.Println(" PER-CASE BREAKDOWN")
	fmt.Println("-" + strings.Repeat("-", 50))
	for i := range outcome.Cases {
		cr := &outcome.Cases[i]
		icon := pass
		if !cr.Passed {
			icon = fail
		}
		fmt.Printf("  %s %s [%d/%d iterations]\n", icon, cr.Name, cr.SuccessfulRuns, cr.TotalRuns)
	}
	fmt.Println()

	// Show failed cases with per-iteration detail
	if failed > 0 {
		fmt.Println("Failed Cases:")
		for i := range outcome.Cases {
			cr := &outcome.Cases[i]
			if cr.Passed {
				continue
			}
			fmt.Printf("  - %s (%s)\n", cr.Name, cr.ErrorMsg)
			for _, it := range cr.Iterations {
				if it.Passed {
					continue
				}
				fmt.Printf("    • iteration %d: %s\n", it.Iteration, truncate(it.ErrorMsg, 160))
			}
		}
		fmt.Println()
	}

	// Show flaky cases
	var flaky []*models.CaseResult
	for i := range outcome.Cases {
		cr := &outcome.Cases[i]
		if statistics.Flaky(cr.SuccessfulRuns, cr.TotalRuns) {
			flaky = append(flaky, cr)
		}
	}
	if len(flaky) > 0 {
		fmt.Println("⚠ Flaky Cases (inconsistent pass/fail across trials):")
		for _, cr := range flaky {
			passes := make([]bool, len(cr.Iterations))
			for i, it := range cr.Iterations {
				passes[i] = it.Passed
			}
			ci := statistics.BootstrapCI(statistics.BinarySamples(passes), 0.95)
			fmt.Printf("  - %s  pass_rate=%.0f%%  CI95=[%.2f, %.2f]\n",
				cr.Name, statistics.PassRate(passes)*100, ci.Lower, ci.Upper)
		}
		fmt.Println()
	}
}
