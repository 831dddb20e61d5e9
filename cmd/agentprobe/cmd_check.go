package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentprobe/agentprobe/internal/models"
	"github.com/agentprobe/agentprobe/internal/validate"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <tests.yaml>...",
		Short: "Validate test files without running them",
		Long: `Check test files against the test definition schema and semantic
rules (unique names, non-empty prompts) without spawning an agent.`,
		Args: cobra.MinimumNArgs(1),
		RunE: checkCommandE,
	}
}

func checkCommandE(cmd *cobra.Command, args []string) error {
	failed := 0

	for _, path := range args {
		problems := checkFile(path)
		if len(problems) == 0 {
			fmt.Printf("✓ %s\n", path)
			continue
		}
		failed++
		fmt.Printf("✗ %s\n", path)
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", failed, len(args))
	}
	return nil
}

func checkFile(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{err.Error()}
	}

	if problems := validate.TestFileBytes(data); len(problems) > 0 {
		return problems
	}

	// Schema passed; apply the semantic checks the loader enforces.
	if _, err := models.LoadTestFile(path); err != nil {
		return []string{err.Error()}
	}
	return nil
}
