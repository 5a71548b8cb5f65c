package reporting

import (
	"fmt"
	"io"
	"sync"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/results"
)

// JSONReporter writes reports as indented JSON. A single report is written
// as an object, several as an array.
type JSONReporter struct {
	writer  io.WriteCloser
	logger  *zap.Logger
	mu      sync.Mutex
	reports []*results.Report
}

// NewJSONReporter creates a reporter that writes JSON output.
func NewJSONReporter(writer io.WriteCloser, logger *zap.Logger) *JSONReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONReporter{writer: writer, logger: logger.Named("json_reporter")}
}

// Write buffers a report until Close.
func (r *JSONReporter) Write(report *results.Report) error {
	if report == nil {
		return fmt.Errorf("cannot write a nil report")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return nil
}

// Close encodes the buffered reports and closes the writer.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var payload interface{} = r.reports
	if len(r.reports) == 1 {
		payload = r.reports[0]
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	encodeErr := encoder.Encode(payload)
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode JSON report", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode JSON output: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	r.logger.Info("Successfully wrote JSON report", zap.Int("reports", len(r.reports)))
	return nil
}
