package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/agentprobe/agentprobe/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one harness run.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one harness test case.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
}

// JUnitFailure carries the aggregated iteration failure detail.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts a RunOutcome to JUnit XML format.
func ConvertToJUnit(outcome *models.RunOutcome, timestamp time.Time) *JUnitTestSuites {
	_, failed := outcome.Counts()
	durationSec := float64(outcome.DurationMs) / 1000.0

	suite := JUnitTestSuite{
		Name:      outcome.TestFile,
		Tests:     len(outcome.Cases),
		Failures:  failed,
		Time:      durationSec,
		Timestamp: timestamp.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "provider", Value: outcome.Provider},
			{Name: "iterations_per_case", Value: fmt.Sprintf("%d", outcome.Iterations)},
		},
	}

	for i := range outcome.Cases {
		suite.TestCases = append(suite.TestCases, convertCase(outcome.Provider, &outcome.Cases[i]))
	}

	return &JUnitTestSuites{
		Tests:      len(outcome.Cases),
		Failures:   failed,
		Time:       durationSec,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func convertCase(provider string, cr *models.CaseResult) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      cr.Name,
		Classname: provider,
		Time:      float64(cr.DurationMs) / 1000.0,
	}

	if !cr.Passed {
		tc.Failure = &JUnitFailure{
			Message: fmt.Sprintf("%s: %s", cr.Name, cr.ErrorMsg),
			Type:    "RobustnessFailure",
			Body:    formatFailedIterations(cr),
		}
	}

	return tc
}

func formatFailedIterations(cr *models.CaseResult) string {
	var body string
	for _, it := range cr.Iterations {
		if it.Passed {
			continue
		}
		body += fmt.Sprintf("[FAIL] iteration %d: %s\n", it.Iteration, it.ErrorMsg)
	}
	return body
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(outcome *models.RunOutcome, path string) error {
	suites := ConvertToJUnit(outcome, time.Now())

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
