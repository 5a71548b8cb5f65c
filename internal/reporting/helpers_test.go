package reporting_test

import (
	"bytes"
	"errors"
	"time"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/messaging"
	"github.com/Azure/aimbiztalk-sub006/internal/results"
	"github.com/Azure/aimbiztalk-sub006/internal/results/providers"
	"github.com/Azure/aimbiztalk-sub006/internal/scenario"
)

const testToolVersion = "v1.0.0-test"

// MockWriteCloser allows capturing output and simulating I/O errors.
type MockWriteCloser struct {
	Buffer    *bytes.Buffer
	FailWrite bool
	FailClose bool
	Closed    bool
}

func (m *MockWriteCloser) Write(p []byte) (n int, err error) {
	if m.FailWrite {
		return 0, errors.New("simulated write error")
	}
	return m.Buffer.Write(p)
}

func (m *MockWriteCloser) Close() error {
	m.Closed = true
	if m.FailClose {
		return errors.New("simulated close error")
	}
	return nil
}

func newMockWriter() *MockWriteCloser {
	return &MockWriteCloser{Buffer: new(bytes.Buffer)}
}

func sampleReport() *results.Report {
	store := providers.NewDefaultStore()
	unresolved, _ := store.GetCode(string(diagnostics.CodeUnresolved))
	dangling, _ := store.GetCode(string(diagnostics.CodeDanglingRoute))

	root := &scenario.Stage{
		Name: "Receive orders", StageType: "Endpoint", NodeKey: "E1",
		FollowingStages: []*scenario.Stage{{
			Name: "Order router", StageType: "Intermediary", NodeKey: "I1", ChannelKey: "C1",
			FollowingStages: []*scenario.Stage{{
				Name: "Send invoices", StageType: "Endpoint", NodeKey: "E2", ChannelKey: "C2",
			}},
		}},
	}

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &results.Report{
		RunRecord: results.RunRecord{
			RunID:      "run-1",
			Title:      "Orders <migration>",
			Input:      "orders.yaml",
			StartedAt:  started,
			FinishedAt: started.Add(time.Second),
		},
		Summary: results.Summary{Total: 2, Errors: 1, Warnings: 1},
		Rules:   []providers.CodeEntry{*dangling, *unresolved},
		Diagnostics: []diagnostics.Diagnostic{
			{Severity: diagnostics.SeverityError, Code: diagnostics.CodeDanglingRoute, Subject: "C9", SubjectType: "Channel", Text: `channel "C9" not found`},
			{Severity: diagnostics.SeverityWarning, Code: diagnostics.CodeUnresolved, Subject: "Orders", Text: "unable to resolve application \"Shared\""},
		},
		Applications: []results.ApplicationSummary{{
			Name: "Orders", Score: 65, Rated: true, Scenarios: 1,
			Resources: []messaging.TemplateResource{{ResourceType: "Microsoft.Logic/workflows", TemplateKey: "workflow", Name: "orders-router"}},
		}},
		Scenarios: []*scenario.Scenario{{Name: "OrderIntake", Application: "Orders", Root: root}},
	}
}
