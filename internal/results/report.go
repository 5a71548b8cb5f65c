package results

import (
	"time"

	json "github.com/json-iterator/go"

	"github.com/Azure/aimbiztalk-sub006/internal/conversion"
	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/messaging"
	"github.com/Azure/aimbiztalk-sub006/internal/resourcegraph"
	"github.com/Azure/aimbiztalk-sub006/internal/results/providers"
	"github.com/Azure/aimbiztalk-sub006/internal/scenario"
)

// Summary counts the diagnostics of a run.
type Summary struct {
	Total    int            `json:"total"`
	Errors   int            `json:"errors"`
	Warnings int            `json:"warnings"`
	Info     int            `json:"info"`
	ByCode   map[string]int `json:"by_code,omitempty"`
}

// ApplicationSummary carries the rollups of one application.
type ApplicationSummary struct {
	Name      string                       `json:"name"`
	Score     int                          `json:"score"`
	Rated     bool                         `json:"rated"`
	Scenarios int                          `json:"scenarios"`
	Resources []messaging.TemplateResource `json:"resources,omitempty"`
}

// RunRecord is the persisted header of a run.
type RunRecord struct {
	RunID      string    `json:"run_id"`
	Title      string    `json:"title"`
	Input      string    `json:"input"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Failed     bool      `json:"failed"`
}

// Report is the output of one analyze run. Graph and scenario sections are
// empty for reports rebuilt from the store.
type Report struct {
	RunRecord
	Summary      Summary                       `json:"summary"`
	Rules        []providers.CodeEntry         `json:"rules,omitempty"`
	Diagnostics  []diagnostics.Diagnostic      `json:"diagnostics"`
	Applications []ApplicationSummary          `json:"applications,omitempty"`
	Scenarios    []*scenario.Scenario          `json:"scenarios,omitempty"`
	Resources    []*resourcegraph.ResourceNode `json:"resources,omitempty"`
	Plan         *conversion.Plan              `json:"plan,omitempty"`
}

// Failed reports whether the run produced any error-severity diagnostic.
func (r *Report) Failed() bool {
	return r.Summary.Errors > 0
}

// ToJSON serializes the report to an indented JSON byte slice.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Summarize counts diagnostics by severity and code.
func Summarize(diags []diagnostics.Diagnostic) Summary {
	s := Summary{Total: len(diags), ByCode: make(map[string]int)}
	for _, d := range diags {
		switch d.Severity {
		case diagnostics.SeverityError:
			s.Errors++
		case diagnostics.SeverityWarning:
			s.Warnings++
		case diagnostics.SeverityInfo:
			s.Info++
		}
		s.ByCode[string(d.Code)]++
	}
	return s
}
