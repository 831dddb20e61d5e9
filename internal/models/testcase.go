package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTimeoutSec is applied when a test case does not declare a timeout.
const DefaultTimeoutSec = 30

// TestTurn is one prompt/response exchange within a test case.
// Turns are constructed at load time and never mutated afterwards.
type TestTurn struct {
	Prompt string `yaml:"prompt"`

	// ExpectedValues is a key -> expected value mapping. Every key must be
	// present in the extracted payload with a structurally equal value.
	ExpectedValues map[string]any `yaml:"expected_json,omitempty"`

	// Schema is an inline JSON Schema document the extracted payload must
	// validate against. Empty means no schema check.
	Schema map[string]any `yaml:"json_schema,omitempty"`
}

// TestCase is one scripted scenario against the agent.
type TestCase struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Connector is the provider/capability reference block. It is passed
	// through to the agent invocation verbatim; the harness does not
	// interpret it beyond handing it to the engine.
	Connector map[string]any `yaml:"mcps,omitempty"`

	TimeoutSec int        `yaml:"timeout,omitempty"`
	Turns      []TestTurn `yaml:"turns"`
}

// TestFile is the top-level test definition document.
type TestFile struct {
	Tests []TestCase `yaml:"tests"`
}

// LoadTestFile reads and validates a YAML test definition.
// Any problem here is fatal for the run: no agent process is spawned
// against a definition that failed to load.
func LoadTestFile(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading test file %s: %w", path, err)
	}

	var file TestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing test file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Tests))
	for i := range file.Tests {
		tc := &file.Tests[i]
		if err := tc.Validate(); err != nil {
			return nil, fmt.Errorf("test file %s: %w", path, err)
		}
		if seen[tc.Name] {
			return nil, fmt.Errorf("test file %s: duplicate test name %q", path, tc.Name)
		}
		seen[tc.Name] = true
	}

	return file.Tests, nil
}

// Validate checks case-level rules and applies defaults.
func (tc *TestCase) Validate() error {
	if tc.Name == "" {
		return fmt.Errorf("test case is missing a name")
	}
	if len(tc.Turns) == 0 {
		return fmt.Errorf("test %q has no turns", tc.Name)
	}
	if tc.TimeoutSec == 0 {
		tc.TimeoutSec = DefaultTimeoutSec
	}
	if tc.TimeoutSec < 0 {
		return fmt.Errorf("test %q: timeout must be positive, got %d", tc.Name, tc.TimeoutSec)
	}
	for i, turn := range tc.Turns {
		if turn.Prompt == "" {
			return fmt.Errorf("test %q: turn %d has an empty prompt", tc.Name, i+1)
		}
	}
	return nil
}

// Prompts returns the turn prompts in submission order.
func (tc *TestCase) Prompts() []string {
	prompts := make([]string, len(tc.Turns))
	for i, turn := range tc.Turns {
		prompts[i] = turn.Prompt
	}
	return prompts
}
