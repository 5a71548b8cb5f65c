package reporting

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/reporting/sarif"
	"github.com/Azure/aimbiztalk-sub006/internal/results"
	"github.com/Azure/aimbiztalk-sub006/internal/results/providers"
)

// Constants for tool identification in the SARIF report.
const (
	ToolName     = "aim-analyze"
	ToolInfoURI  = "https://github.com/Azure/aimbiztalk"
	SARIFVersion = "2.1.0"
	SARIFSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

// ruleIDSanitizer replaces characters not allowed in SARIF rule IDs.
// Alphanumerics, underscore and dot survive; anything else collapses to a single hyphen.
var ruleIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_.]+`)

// RuleFingerprint identifies a rule definition by its content.
type RuleFingerprint string

func calculateFingerprint(entry providers.CodeEntry) RuleFingerprint {
	h := sha1.New()
	_ = json.NewEncoder(h).Encode(entry)
	return RuleFingerprint(hex.EncodeToString(h.Sum(nil)))
}

// SARIFReporter implements the Reporter interface for the SARIF 2.1.0 format.
// It is thread safe.
type SARIFReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	log    *sarif.Log
	// mu protects the log structure and the maps.
	mu                 sync.Mutex
	rulesByFingerprint map[RuleFingerprint]string
	ruleIDUsage        map[string]int
}

// NewSARIFReporter creates a new reporter that writes SARIF output.
func NewSARIFReporter(writer io.WriteCloser, toolVersion string, logger *zap.Logger) *SARIFReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := &sarif.Log{
		Version: SARIFVersion,
		Schema:  SARIFSchema,
		Runs: []*sarif.Run{
			{
				Tool: &sarif.Tool{
					Driver: &sarif.ToolComponent{
						Name:           ToolName,
						Version:        pString(toolVersion),
						InformationURI: pString(ToolInfoURI),
						// Empty, not nil, so the JSON carries [].
						Rules: []*sarif.ReportingDescriptor{},
					},
				},
				Results: []*sarif.Result{},
			},
		},
	}

	return &SARIFReporter{
		writer:             writer,
		logger:             logger.Named("sarif_reporter"),
		log:                log,
		rulesByFingerprint: make(map[RuleFingerprint]string),
		ruleIDUsage:        make(map[string]int),
	}
}

// Write converts the diagnostics of a report into SARIF results and records
// the run as an invocation.
func (r *SARIFReporter) Write(report *results.Report) error {
	if report == nil {
		return fmt.Errorf("cannot write a nil report")
	}
	startTime := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	entries := make(map[string]providers.CodeEntry, len(report.Rules))
	for _, e := range report.Rules {
		entries[e.Code] = e
	}

	for _, d := range report.Diagnostics {
		entry, ok := entries[string(d.Code)]
		if !ok {
			entry = providers.CodeEntry{Code: string(d.Code), Name: string(d.Code)}
		}
		ruleID := r.ensureRule(entry)

		run.Results = append(run.Results, &sarif.Result{
			RuleID:    ruleID,
			Message:   &sarif.Message{Text: pString(d.Text)},
			Level:     mapSeverityToSARIFLevel(d.Severity),
			Locations: r.createLocations(report.Input, d),
		})
	}

	inv := &sarif.Invocation{
		ExecutionSuccessful: !report.Failed(),
		Properties:          &sarif.PropertyBag{"runId": report.RunID, "title": report.Title},
	}
	if !report.StartedAt.IsZero() {
		inv.StartTimeUTC = pString(report.StartedAt.UTC().Format(time.RFC3339))
	}
	if !report.FinishedAt.IsZero() {
		inv.EndTimeUTC = pString(report.FinishedAt.UTC().Format(time.RFC3339))
	}
	run.Invocations = append(run.Invocations, inv)

	r.logger.Debug("Wrote diagnostics to SARIF buffer",
		zap.Int("diagnostics_count", len(report.Diagnostics)),
		zap.Duration("duration_ms", time.Since(startTime)),
	)
	return nil
}

// Close finalizes the SARIF log and writes it to the output writer.
func (r *SARIFReporter) Close() error {
	startTime := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	r.logger.Info("Finalizing SARIF report",
		zap.Int("total_results", len(run.Results)),
		zap.Int("total_rules", len(run.Tool.Driver.Rules)),
	)

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	encodeErr := encoder.Encode(r.log)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode SARIF log to JSON", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode SARIF output: %w", encodeErr)
	}
	if closeErr != nil {
		r.logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.logger.Info("Successfully wrote SARIF report",
		zap.Duration("duration_ms", time.Since(startTime)),
	)
	return nil
}

func (r *SARIFReporter) sanitizeRuleName(name string) string {
	if name == "" {
		return "UNNAMED-DIAGNOSTIC"
	}
	sanitizedName := strings.ToUpper(name)
	sanitizedName = ruleIDSanitizer.ReplaceAllString(sanitizedName, "-")
	sanitizedName = strings.Trim(sanitizedName, "-")
	if sanitizedName == "" {
		return "UNKNOWN-DIAGNOSTIC"
	}
	return sanitizedName
}

// ensureRule registers a rule for the entry once and returns its ID.
// Must be called while holding the mutex.
func (r *SARIFReporter) ensureRule(entry providers.CodeEntry) string {
	fingerprint := calculateFingerprint(entry)
	if ruleID, exists := r.rulesByFingerprint[fingerprint]; exists {
		return ruleID
	}

	baseRuleID := "AIM-" + r.sanitizeRuleName(entry.Code)
	usageCount := r.ruleIDUsage[baseRuleID]
	r.ruleIDUsage[baseRuleID] = usageCount + 1

	finalRuleID := baseRuleID
	if usageCount > 0 {
		finalRuleID = fmt.Sprintf("%s-%d", baseRuleID, usageCount)
		r.logger.Debug("Rule ID collision detected, generated new ID with suffix",
			zap.String("base_id", baseRuleID),
			zap.String("final_id", finalRuleID),
		)
	}

	r.logger.Debug("Registering new SARIF rule definition", zap.String("rule_id", finalRuleID))

	markdownHelp := fmt.Sprintf("**%s**\n\n%s", entry.Name, entry.Description)
	if entry.Help != "" {
		markdownHelp += "\n\n**Remediation:**\n" + entry.Help
	}

	driver := r.log.Runs[0].Tool.Driver
	driver.Rules = append(driver.Rules, &sarif.ReportingDescriptor{
		ID:               finalRuleID,
		Name:             pString(entry.Name),
		ShortDescription: &sarif.MultiformatMessageString{Text: pString(entry.Name)},
		FullDescription:  &sarif.MultiformatMessageString{Text: pString(entry.Description)},
		Help: &sarif.MultiformatMessageString{
			Text:     pString(entry.Help),
			Markdown: pString(markdownHelp),
		},
		Properties: &sarif.PropertyBag{
			"tags": []string{"migration", "biztalk"},
			"code": entry.Code,
		},
	})
	r.rulesByFingerprint[fingerprint] = finalRuleID
	return finalRuleID
}

// createLocations points at the analyzed input file and names the subject
// resource as a logical location.
func (r *SARIFReporter) createLocations(input string, d diagnostics.Diagnostic) []*sarif.Location {
	loc := &sarif.Location{}
	if input != "" {
		loc.PhysicalLocation = &sarif.PhysicalLocation{
			ArtifactLocation: &sarif.ArtifactLocation{URI: pString(input)},
		}
	}
	if d.Subject != "" {
		logical := &sarif.LogicalLocation{Name: pString(d.Subject)}
		if d.SubjectType != "" {
			logical.Kind = pString(d.SubjectType)
			logical.FullyQualifiedName = pString(d.SubjectType + "/" + d.Subject)
		}
		loc.LogicalLocations = []*sarif.LogicalLocation{logical}
		loc.Message = &sarif.Message{Text: pString(fmt.Sprintf("Reported on %s", d.Subject))}
	}
	if loc.PhysicalLocation == nil && loc.LogicalLocations == nil {
		return nil
	}
	return []*sarif.Location{loc}
}

func mapSeverityToSARIFLevel(severity diagnostics.Severity) sarif.Level {
	switch severity {
	case diagnostics.SeverityError:
		return sarif.LevelError
	case diagnostics.SeverityWarning:
		return sarif.LevelWarning
	default:
		return sarif.LevelNote
	}
}

// pString returns a pointer to the given string value. Helper for optional SARIF fields.
func pString(s string) *string {
	return &s
}
