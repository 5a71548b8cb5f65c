package reporting

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Azure/aimbiztalk-sub006/internal/observability"
	"github.com/Azure/aimbiztalk-sub006/internal/results"
)

// Reporter defines the interface for writing analysis reports to an output.
type Reporter interface {
	// Write adds a report to the output buffer.
	Write(report *results.Report) error
	// Close finalizes the output and closes any underlying resources (e.g., file handles).
	Close() error
}

// Supported output formats.
const (
	FormatSARIF = "sarif"
	FormatJSON  = "json"
	FormatHTML  = "html"
)

var extensions = map[string]string{
	FormatSARIF: ".sarif",
	FormatJSON:  ".json",
	FormatHTML:  ".html",
}

// IsSupported reports whether a format has a reporter.
func IsSupported(format string) bool {
	_, ok := extensions[format]
	return ok
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path.
// An empty path or "stdout" writes to standard output. A nil logger falls
// back to the global one.
func New(format, outputPath, toolVersion string, logger *zap.Logger) (Reporter, error) {
	if logger == nil {
		logger = observability.GetLogger()
	}

	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if isStdOut {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	switch format {
	case FormatSARIF:
		return NewSARIFReporter(writer, toolVersion, logger), nil
	case FormatJSON:
		return NewJSONReporter(writer, logger), nil
	case FormatHTML:
		return NewHTMLReporter(writer, logger), nil
	default:
		if !isStdOut {
			writer.Close()
		}
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteAll renders the report once per format into outputDir and returns
// the written paths in format order. The formats are written concurrently;
// the report must not be mutated until WriteAll returns.
func WriteAll(ctx context.Context, report *results.Report, outputDir string, formats []string, toolVersion string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = observability.GetLogger()
	}
	for _, f := range formats {
		if !IsSupported(f) {
			return nil, fmt.Errorf("unsupported output format: %s", f)
		}
	}

	dir, err := homedir.Expand(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand output directory %s: %w", outputDir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	paths := make([]string, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		path := filepath.Join(dir, "aim-report"+extensions[format])
		paths[i] = path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := New(format, path, toolVersion, logger)
			if err != nil {
				return err
			}
			if err := r.Write(report); err != nil {
				r.Close()
				return fmt.Errorf("failed to write %s report: %w", format, err)
			}
			if err := r.Close(); err != nil {
				return fmt.Errorf("failed to finalize %s report: %w", format, err)
			}
			logger.Info("Report written", zap.String("format", format), zap.String("path", path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
