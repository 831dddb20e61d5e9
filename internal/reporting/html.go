package reporting

import (
	"bytes"
	"fmt"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/agentprobe/agentprobe/internal/models"
)

var htmlRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

const htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Agent Conformance Results</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 860px; margin: 2em auto; padding: 0 1em; color: #1f2328; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #d1d9e0; padding: 6px 13px; }
th { background: #f6f8fa; }
code { background: #f6f8fa; padding: 2px 4px; border-radius: 4px; }
</style>
</head>
<body>
%s</body>
</html>
`

// RenderHTML renders the run outcome as a standalone HTML document.
func RenderHTML(outcome *models.RunOutcome) ([]byte, error) {
	md := FormatMarkdownSummary(outcome)

	var body bytes.Buffer
	if err := htmlRenderer.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("rendering HTML report: %w", err)
	}

	return []byte(fmt.Sprintf(htmlShell, body.String())), nil
}

// WriteHTMLReport writes the HTML report to the specified file path.
func WriteHTMLReport(outcome *models.RunOutcome, path string) error {
	doc, err := RenderHTML(outcome)
	if err != nil {
		return err
	}
	return os.WriteFile(path, doc, 0644)
}
