package reporting

import (
	"fmt"
	"html/template"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/results"
	"github.com/Azure/aimbiztalk-sub006/internal/scenario"
)

const htmlTemplate = `{{define "stage"}}<li><span class="stage-type">{{.StageType}}</span> {{.Name}}{{if .ChannelKey}} <span class="channel">via {{.ChannelKey}}</span>{{end}}
{{- if .FollowingStages}}<ul>{{range .FollowingStages}}{{template "stage" .}}{{end}}</ul>{{end}}</li>{{end -}}
<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
.error { color: #b00020; } .warning { color: #b26a00; } .info { color: #555; }
.stage-type { font-weight: bold; } .channel { color: #777; }
</style>
</head>
<body>
{{range .Reports}}
<section class="run">
<h1>{{if .Title}}{{.Title}}{{else}}Analysis report{{end}}</h1>
<p>Run {{.RunID}}{{if .Input}} on <code>{{.Input}}</code>{{end}}: {{if .Failed}}<span class="error">failed</span>{{else}}passed{{end}}</p>
<table>
<tr><th>Total</th><th>Errors</th><th>Warnings</th><th>Info</th></tr>
<tr><td>{{.Summary.Total}}</td><td>{{.Summary.Errors}}</td><td>{{.Summary.Warnings}}</td><td>{{.Summary.Info}}</td></tr>
</table>
{{range .Applications}}
<h2>{{.Name}}</h2>
<p>{{if .Rated}}Score {{.Score}}{{else}}Not rated{{end}}</p>
{{if .Resources}}<h3>Target resources</h3><ul>{{range .Resources}}<li>{{.ResourceType}}: {{.Name}}{{if .TemplateKey}} ({{.TemplateKey}}){{end}}</li>{{end}}</ul>{{end}}
{{if .Scenarios}}<h3>Scenarios</h3>{{range .Scenarios}}<h4>{{.Name}}</h4>{{if .Root}}<ul>{{template "stage" .Root}}</ul>{{end}}{{end}}{{end}}
{{end}}
{{if .Diagnostics}}
<h2>Diagnostics</h2>
<table>
<tr><th>Severity</th><th>Code</th><th>Subject</th><th>Message</th></tr>
{{range .Diagnostics}}<tr class="{{.Severity}}"><td>{{.Severity}}</td><td>{{.Code}}</td><td>{{.Subject}}</td><td>{{.Text}}</td></tr>
{{end}}</table>
{{end}}
</section>
{{end}}
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

type htmlApplication struct {
	results.ApplicationSummary
	Scenarios []*scenario.Scenario
}

type htmlRun struct {
	*results.Report
	Applications []htmlApplication
}

type htmlPage struct {
	Title   string
	Reports []htmlRun
}

// HTMLReporter renders reports as a standalone HTML page with one nested
// list per scenario.
type HTMLReporter struct {
	writer  io.WriteCloser
	logger  *zap.Logger
	mu      sync.Mutex
	reports []*results.Report
}

// NewHTMLReporter creates a reporter that writes HTML output.
func NewHTMLReporter(writer io.WriteCloser, logger *zap.Logger) *HTMLReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTMLReporter{writer: writer, logger: logger.Named("html_reporter")}
}

// Write buffers a report until Close.
func (r *HTMLReporter) Write(report *results.Report) error {
	if report == nil {
		return fmt.Errorf("cannot write a nil report")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return nil
}

// Close renders the page and closes the writer.
func (r *HTMLReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	page := htmlPage{Title: "Migration analysis"}
	for _, rep := range r.reports {
		page.Reports = append(page.Reports, toHTMLRun(rep))
	}
	if len(r.reports) == 1 && r.reports[0].Title != "" {
		page.Title = r.reports[0].Title
	}

	execErr := reportTemplate.Execute(r.writer, page)
	closeErr := r.writer.Close()

	if execErr != nil {
		r.logger.Error("Failed to render HTML report", zap.Error(execErr))
		return fmt.Errorf("failed to render HTML output: %w", execErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	r.logger.Info("Successfully wrote HTML report", zap.Int("reports", len(r.reports)))
	return nil
}

// toHTMLRun groups scenarios under their application. Scenarios whose
// application has no summary get a synthetic unrated entry.
func toHTMLRun(rep *results.Report) htmlRun {
	run := htmlRun{Report: rep}
	index := make(map[string]int)
	for _, a := range rep.Applications {
		index[a.Name] = len(run.Applications)
		run.Applications = append(run.Applications, htmlApplication{ApplicationSummary: a})
	}
	for _, s := range rep.Scenarios {
		i, ok := index[s.Application]
		if !ok {
			i = len(run.Applications)
			index[s.Application] = i
			run.Applications = append(run.Applications, htmlApplication{
				ApplicationSummary: results.ApplicationSummary{Name: s.Application},
			})
		}
		run.Applications[i].Scenarios = append(run.Applications[i].Scenarios, s)
	}
	return run
}
