package results

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
)

// MockStore mocks the Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	args := m.Called(ctx, runID)
	if run, ok := args.Get(0).(*RunRecord); ok {
		return run, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) GetDiagnosticsByRunID(ctx context.Context, runID string) ([]diagnostics.Diagnostic, error) {
	args := m.Called(ctx, runID)
	if diags, ok := args.Get(0).([]diagnostics.Diagnostic); ok {
		return diags, args.Error(1)
	}
	return nil, args.Error(1)
}

func sampleDiagnostics() []diagnostics.Diagnostic {
	return []diagnostics.Diagnostic{
		{Severity: diagnostics.SeverityInfo, Code: diagnostics.CodeInformational, Subject: "orch"},
		{Severity: diagnostics.SeverityWarning, Code: diagnostics.CodeUnresolved, Subject: "b"},
		{Severity: diagnostics.SeverityError, Code: diagnostics.CodeDanglingRoute, Subject: "C2"},
		{Severity: diagnostics.SeverityWarning, Code: diagnostics.CodeAmbiguous, Subject: "z"},
		{Severity: diagnostics.SeverityWarning, Code: diagnostics.CodeUnresolved, Subject: "a"},
	}
}

func TestPrioritize(t *testing.T) {
	diags := sampleDiagnostics()

	Prioritize(diags)

	var got []string
	for _, d := range diags {
		got = append(got, d.Subject)
	}
	assert.Equal(t, []string{"C2", "z", "a", "b", "orch"}, got)
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleDiagnostics())

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 3, s.Warnings)
	assert.Equal(t, 1, s.Info)
	assert.Equal(t, 2, s.ByCode[string(diagnostics.CodeUnresolved)])
}

func TestPipeline_Finalize(t *testing.T) {
	p := NewPipeline(nil, zaptest.NewLogger(t))

	t.Run("errors fail the report", func(t *testing.T) {
		r := &Report{Diagnostics: sampleDiagnostics()}
		p.Finalize(r)

		assert.True(t, r.Failed())
		assert.True(t, r.RunRecord.Failed)
		require.Len(t, r.Rules, 4, "one rule per distinct code")
		assert.Equal(t, string(diagnostics.CodeDanglingRoute), r.Rules[0].Code)
	})

	t.Run("warnings never fail the report", func(t *testing.T) {
		r := &Report{Diagnostics: []diagnostics.Diagnostic{
			{Severity: diagnostics.SeverityWarning, Code: diagnostics.CodeUnresolved},
		}}
		p.Finalize(r)

		assert.False(t, r.Failed())
	})
}

func TestPipeline_ProcessRun(t *testing.T) {
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		store := new(MockStore)
		store.On("GetRun", ctx, "run-1").Return(&RunRecord{RunID: "run-1", Title: "Orders", StartedAt: started}, nil)
		store.On("GetDiagnosticsByRunID", ctx, "run-1").Return(sampleDiagnostics(), nil)

		report, err := NewPipeline(store, zaptest.NewLogger(t)).ProcessRun(ctx, "run-1")

		require.NoError(t, err)
		assert.Equal(t, "run-1", report.RunID)
		assert.Equal(t, started, report.StartedAt)
		assert.Equal(t, diagnostics.SeverityError, report.Diagnostics[0].Severity)
		assert.Equal(t, 5, report.Summary.Total)
		store.AssertExpectations(t)
	})

	t.Run("store failure", func(t *testing.T) {
		store := new(MockStore)
		boom := errors.New("connection reset")
		store.On("GetRun", ctx, "run-2").Return(nil, boom)

		_, err := NewPipeline(store, nil).ProcessRun(ctx, "run-2")

		assert.ErrorIs(t, err, boom)
	})

	t.Run("no store", func(t *testing.T) {
		_, err := NewPipeline(nil, nil).ProcessRun(ctx, "run-3")
		assert.Error(t, err)
	})
}

func TestReport_ToJSON(t *testing.T) {
	r := &Report{RunRecord: RunRecord{RunID: "run-1"}, Diagnostics: sampleDiagnostics()[:1]}

	data, err := r.ToJSON()

	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id": "run-1"`)
	assert.Contains(t, string(data), `"code": "INFORMATIONAL"`)
}
