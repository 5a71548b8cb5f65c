package reporting_test

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/reporting"
	"github.com/Azure/aimbiztalk-sub006/internal/reporting/sarif"
	"github.com/Azure/aimbiztalk-sub006/internal/results"
	"github.com/Azure/aimbiztalk-sub006/internal/results/providers"
)

func setupSARIFTest(t *testing.T) (*reporting.SARIFReporter, *MockWriteCloser) {
	mockWriter := newMockWriter()
	reporter := reporting.NewSARIFReporter(mockWriter, "v1.2.3-test", zaptest.NewLogger(t))
	return reporter, mockWriter
}

func decodeSARIF(t *testing.T, w *MockWriteCloser) sarif.Log {
	t.Helper()
	var log sarif.Log
	require.NoError(t, json.Unmarshal(w.Buffer.Bytes(), &log), "Output should be valid SARIF JSON")
	require.Len(t, log.Runs, 1)
	return log
}

func TestSARIFReporter_Initialization(t *testing.T) {
	reporter, writer := setupSARIFTest(t)

	require.NoError(t, reporter.Close())
	assert.True(t, writer.Closed)

	log := decodeSARIF(t, writer)
	assert.Equal(t, reporting.SARIFVersion, log.Version)
	run := log.Runs[0]
	require.NotNil(t, run.Tool)
	require.NotNil(t, run.Tool.Driver)
	assert.Equal(t, reporting.ToolName, run.Tool.Driver.Name)
	assert.Equal(t, "v1.2.3-test", *run.Tool.Driver.Version)
	require.NotNil(t, run.Results)
	assert.Empty(t, run.Results)
	assert.Empty(t, run.Tool.Driver.Rules)
}

func TestSARIFReporter_WriteAndClose(t *testing.T) {
	reporter, writer := setupSARIFTest(t)

	require.NoError(t, reporter.Write(sampleReport()))
	require.NoError(t, reporter.Close())

	run := decodeSARIF(t, writer).Runs[0]
	require.Len(t, run.Results, 2)
	require.Len(t, run.Tool.Driver.Rules, 2)

	dangling := run.Results[0]
	assert.Equal(t, "AIM-DANGLING-ROUTE", dangling.RuleID)
	assert.Equal(t, sarif.LevelError, dangling.Level)
	assert.Equal(t, `channel "C9" not found`, *dangling.Message.Text)
	require.Len(t, dangling.Locations, 1)
	loc := dangling.Locations[0]
	assert.Equal(t, "orders.yaml", *loc.PhysicalLocation.ArtifactLocation.URI)
	require.Len(t, loc.LogicalLocations, 1)
	assert.Equal(t, "C9", *loc.LogicalLocations[0].Name)
	assert.Equal(t, "Channel", *loc.LogicalLocations[0].Kind)
	assert.Equal(t, "Channel/C9", *loc.LogicalLocations[0].FullyQualifiedName)

	unresolved := run.Results[1]
	assert.Equal(t, "AIM-UNRESOLVED-REFERENCE", unresolved.RuleID)
	assert.Equal(t, sarif.LevelWarning, unresolved.Level)
	assert.Nil(t, unresolved.Locations[0].LogicalLocations[0].Kind)

	rule := run.Tool.Driver.Rules[0]
	assert.Equal(t, "Dangling route reference", *rule.Name)
	assert.Contains(t, *rule.Help.Markdown, "**Remediation:**")

	require.Len(t, run.Invocations, 1)
	assert.False(t, run.Invocations[0].ExecutionSuccessful)
	assert.Equal(t, "2026-03-01T10:00:00Z", *run.Invocations[0].StartTimeUTC)
}

func TestSARIFReporter_UnknownCodeFallsBackToCodeName(t *testing.T) {
	reporter, writer := setupSARIFTest(t)

	report := &results.Report{Diagnostics: []diagnostics.Diagnostic{
		{Severity: diagnostics.SeverityInfo, Code: "CUSTOM CHECK", Text: "informational"},
	}}
	require.NoError(t, reporter.Write(report))
	require.NoError(t, reporter.Close())

	run := decodeSARIF(t, writer).Runs[0]
	require.Len(t, run.Results, 1)
	assert.Equal(t, "AIM-CUSTOM-CHECK", run.Results[0].RuleID)
	assert.Equal(t, sarif.LevelNote, run.Results[0].Level)
	assert.Empty(t, run.Results[0].Locations, "no input and no subject means no location")
}

func TestSARIFReporter_RuleCollisionHandling(t *testing.T) {
	reporter, writer := setupSARIFTest(t)

	write := func(description string) {
		require.NoError(t, reporter.Write(&results.Report{
			Rules: []providers.CodeEntry{{Code: "DANGLING-ROUTE", Name: "Dangling", Description: description}},
			Diagnostics: []diagnostics.Diagnostic{
				{Severity: diagnostics.SeverityError, Code: diagnostics.CodeDanglingRoute, Text: description},
			},
		}))
	}
	write("first wording")
	write("second wording")
	write("first wording")
	require.NoError(t, reporter.Close())

	run := decodeSARIF(t, writer).Runs[0]
	require.Len(t, run.Results, 3)
	require.Len(t, run.Tool.Driver.Rules, 2)
	assert.Equal(t, "AIM-DANGLING-ROUTE", run.Results[0].RuleID)
	assert.Equal(t, "AIM-DANGLING-ROUTE-1", run.Results[1].RuleID)
	assert.Equal(t, run.Results[0].RuleID, run.Results[2].RuleID)
}

func TestSARIFReporter_RuleIDSanitization(t *testing.T) {
	reporter, writer := setupSARIFTest(t)

	tests := []struct {
		code       string
		expectedID string
	}{
		{"Simple", "AIM-SIMPLE"},
		{"model integrity!", "AIM-MODEL-INTEGRITY"},
		{"!Leading/Trailing!", "AIM-LEADING-TRAILING"},
		{"Mixed.Case_Test-1", "AIM-MIXED.CASE_TEST-1"},
		{"Type-A--Sub-Type-B", "AIM-TYPE-A-SUB-TYPE-B"},
		{"!@#", "AIM-UNKNOWN-DIAGNOSTIC"},
	}

	for _, tt := range tests {
		require.NoError(t, reporter.Write(&results.Report{Diagnostics: []diagnostics.Diagnostic{
			{Severity: diagnostics.SeverityWarning, Code: diagnostics.Code(tt.code), Text: tt.code},
		}}))
	}
	require.NoError(t, reporter.Close())

	run := decodeSARIF(t, writer).Runs[0]
	require.Len(t, run.Results, len(tests))
	for i, tt := range tests {
		assert.Equal(t, tt.expectedID, run.Results[i].RuleID, "code %q", tt.code)
	}
}

// Run with -race.
func TestSARIFReporter_Concurrency(t *testing.T) {
	reporter, writer := setupSARIFTest(t)

	const numGoroutines = 20
	const numUniqueCodes = 4

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			code := diagnostics.Code(fmt.Sprintf("CODE-%d", id%numUniqueCodes))
			err := reporter.Write(&results.Report{Diagnostics: []diagnostics.Diagnostic{
				{Severity: diagnostics.SeverityWarning, Code: code, Text: "x"},
			}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	require.NoError(t, reporter.Close())

	run := decodeSARIF(t, writer).Runs[0]
	assert.Len(t, run.Results, numGoroutines)
	assert.Len(t, run.Tool.Driver.Rules, numUniqueCodes)
	assert.Len(t, run.Invocations, numGoroutines)
}

func TestSARIFReporter_ErrorHandling(t *testing.T) {
	t.Run("nil report", func(t *testing.T) {
		reporter, _ := setupSARIFTest(t)
		assert.Error(t, reporter.Write(nil))
	})

	t.Run("close error", func(t *testing.T) {
		mockWriter := &MockWriteCloser{Buffer: newMockWriter().Buffer, FailClose: true}
		reporter := reporting.NewSARIFReporter(mockWriter, testToolVersion, nil)

		err := reporter.Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to close output writer")
	})

	t.Run("encode error", func(t *testing.T) {
		mockWriter := &MockWriteCloser{Buffer: newMockWriter().Buffer, FailWrite: true}
		reporter := reporting.NewSARIFReporter(mockWriter, testToolVersion, nil)
		require.NoError(t, reporter.Write(sampleReport()))

		err := reporter.Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to encode SARIF output")
		assert.True(t, mockWriter.Closed, "writer is closed even when encoding fails")
	})
}
