package reporting

import (
	"encoding/json"
	"html/template"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/gridops/nc-check/runner"
	"github.com/gridops/nc-check/suite"
)

// JSONSink writes the raw combined report as a JSON document.
type JSONSink struct {
	baseDir string
}

// NewJSONSink creates a JSON sink rooted at baseDir.
func NewJSONSink(baseDir string) *JSONSink {
	return &JSONSink{baseDir: baseDir}
}

// Complete writes the combined report for one run.
func (s *JSONSink) Complete(report *runner.CombinedReport) error {
	outputDir := filepath.Join(s.baseDir, "checkrun-"+report.RunID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrapf(err, "creating output directory %s", outputDir)
	}
	content, err := json.MarshalIndent(report.AsMap(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling combined report")
	}
	reportFile := filepath.Join(outputDir, "report.json")
	if err := os.WriteFile(reportFile, content, 0644); err != nil {
		return errors.Wrapf(err, "writing report file %s", reportFile)
	}
	return nil
}

const htmlReportBody = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Check Results {{.RunID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
tr.pass td.status { color: #0a0; }
tr.warn td.status { color: #a80; }
tr.fail td.status { color: #a00; }
.summary { margin-bottom: 1em; }
</style>
</head>
<body>
<h1>Check Results</h1>
<div class="summary">
<p>Run {{.RunID}} on dataset {{.DatasetName}} ({{.DurationText}})</p>
<p>Status: <strong>{{.Status}}</strong>, {{.Stats.Passed}}/{{.Stats.Total}} passed ({{.PassRateText}})</p>
</div>
{{range .Groups}}
<h2>{{.Name}} ({{.Status}})</h2>
<table>
<tr><th>Check</th><th>Variable</th><th>Status</th><th>Detail</th></tr>
{{range .Checks}}
<tr class="{{statusClass .Status}}"><td>{{.Name}}</td><td>{{.Variable}}</td><td class="status">{{.Status}}</td><td>{{.Detail}}</td></tr>
{{end}}
</table>
{{end}}
</body>
</html>
`

// HTMLSink writes a self-contained HTML summary per run.
type HTMLSink struct {
	baseDir string
	tmpl    *template.Template
}

// NewHTMLSink creates an HTML sink rooted at baseDir.
func NewHTMLSink(baseDir string) (*HTMLSink, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"statusClass": func(status suite.Kind) string {
			switch status {
			case suite.KindPass:
				return "pass"
			case suite.KindFail:
				return "fail"
			default:
				return "warn"
			}
		},
	}).Parse(htmlReportBody)
	if err != nil {
		return nil, errors.Wrap(err, "parsing HTML report template")
	}
	return &HTMLSink{baseDir: baseDir, tmpl: tmpl}, nil
}

// Complete writes the HTML summary for one run.
func (s *HTMLSink) Complete(data *ReportData) error {
	outputDir := filepath.Join(s.baseDir, "checkrun-"+data.RunID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrapf(err, "creating output directory %s", outputDir)
	}
	summaryFile := filepath.Join(outputDir, "summary.html")
	f, err := os.Create(summaryFile)
	if err != nil {
		return errors.Wrapf(err, "creating summary file %s", summaryFile)
	}
	defer f.Close()
	if err := s.tmpl.Execute(f, data); err != nil {
		return errors.Wrap(err, "rendering HTML summary")
	}
	return nil
}
