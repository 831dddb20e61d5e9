// Package reporting renders run outcomes for CI and human consumption.
package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentprobe/agentprobe/internal/models"
	"github.com/agentprobe/agentprobe/internal/statistics"
)

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// FormatMarkdownSummary renders a run outcome as a markdown report, suitable
// for a PR comment or as input to the HTML report.
func FormatMarkdownSummary(outcome *models.RunOutcome) string {
	var b strings.Builder

	passed, failed := outcome.Counts()
	duration := time.Duration(outcome.DurationMs) * time.Millisecond

	b.WriteString("## Agent Conformance Results\n\n")

	status := "✅ Passed"
	if failed > 0 {
		status = "❌ Failed"
	}
	b.WriteString(fmt.Sprintf("**Status:** %s | **Provider:** %s | **Duration:** %s\n\n",
		status, outcome.Provider, formatDuration(duration)))
	b.WriteString(fmt.Sprintf("- **Cases:** %d total, %d passed, %d failed\n",
		len(outcome.Cases), passed, failed))
	b.WriteString(fmt.Sprintf("- **Iterations per case:** %d\n\n", outcome.Iterations))

	b.WriteString("### Case Results\n\n")
	b.WriteString("| Case | Iterations | Status |\n")
	b.WriteString("|------|------------|--------|\n")
	for i := range outcome.Cases {
		cr := &outcome.Cases[i]
		icon := "✅"
		if !cr.Passed {
			icon = "❌"
		}
		b.WriteString(fmt.Sprintf("| %s | %d/%d | %s |\n",
			cr.Name, cr.SuccessfulRuns, cr.TotalRuns, icon))
	}
	b.WriteString("\n")

	// Flaky cases: inconsistent outcomes across repeated trials.
	var flaky []*models.CaseResult
	for i := range outcome.Cases {
		cr := &outcome.Cases[i]
		if statistics.Flaky(cr.SuccessfulRuns, cr.TotalRuns) {
			flaky = append(flaky, cr)
		}
	}
	if len(flaky) > 0 {
		b.WriteString("### ⚠️ Flaky Cases\n\n")
		b.WriteString("The following cases showed inconsistent results across iterations:\n\n")
		for _, cr := range flaky {
			ci := passRateInterval(cr)
			b.WriteString(fmt.Sprintf("- **%s**: %.0f%% pass rate, CI95=[%.2f, %.2f]\n",
				cr.Name,
				statistics.PassRate(iterationPasses(cr))*100,
				ci.Lower, ci.Upper))
		}
		b.WriteString("\n")
	}

	if failed > 0 {
		b.WriteString("### Failed Case Details\n\n")
		for i := range outcome.Cases {
			cr := &outcome.Cases[i]
			if cr.Passed {
				continue
			}
			b.WriteString(fmt.Sprintf("#### %s\n\n", cr.Name))
			for _, it := range cr.Iterations {
				if it.Passed {
					continue
				}
				b.WriteString(fmt.Sprintf("- Iteration %d: %s\n", it.Iteration, firstLine(it.ErrorMsg)))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func iterationPasses(cr *models.CaseResult) []bool {
	passes := make([]bool, len(cr.Iterations))
	for i, it := range cr.Iterations {
		passes[i] = it.Passed
	}
	return passes
}

func passRateInterval(cr *models.CaseResult) statistics.ConfidenceInterval {
	return statistics.BootstrapCI(statistics.BinarySamples(iterationPasses(cr)), 0.95)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
