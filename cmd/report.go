package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/config"
	"github.com/Azure/aimbiztalk-sub006/internal/observability"
	"github.com/Azure/aimbiztalk-sub006/internal/reporting"
	"github.com/Azure/aimbiztalk-sub006/internal/results"
	"github.com/Azure/aimbiztalk-sub006/internal/store"
)

// runStore is what the commands need from persistence: the read side used
// to rebuild reports and the write side used by analyze --persist.
type runStore interface {
	results.Store
	EnsureSchema(ctx context.Context) error
	PersistRun(ctx context.Context, report *results.Report) error
}

// storeProvider creates a run store. Tests inject a mock in place of a live
// database connection.
type storeProvider interface {
	// Create returns the store, a cleanup function releasing its resources,
	// and an error if the store could not be created.
	Create(ctx context.Context, cfg config.Interface) (runStore, func(), error)
}

type defaultStoreProvider struct{}

// NewStoreProvider returns the PostgreSQL-backed store provider.
func NewStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

// Create connects to PostgreSQL using the configured URL, waiting for the
// database to come up.
func (p *defaultStoreProvider) Create(ctx context.Context, cfg config.Interface) (runStore, func(), error) {
	logger := observability.GetLogger()
	if cfg.Database().URL == "" {
		return nil, nil, errors.New("database URL is not configured (AIM_DATABASE_URL)")
	}

	storeService, closePool, err := store.Connect(ctx, cfg.Database().URL, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		closePool()
		logger.Debug("Database connection pool closed.")
	}
	return storeService, cleanup, nil
}

func newReportCmd(provider storeProvider) *cobra.Command {
	var runID string
	var outputPath string
	var format string

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Rebuild the report of a persisted analyze run",
		Long: `Loads the diagnostics of a persisted run from the database, prioritizes
and enriches them, and writes the report. Graph and scenario sections are
not persisted, so the rebuilt report carries diagnostics only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runReport(ctx, observability.GetLogger(), cfg, runID, outputPath, format, cmd.OutOrStdout(), provider)
		},
	}

	reportCmd.Flags().StringVar(&runID, "run-id", "", "The ID of the run to report on (required)")
	_ = reportCmd.MarkFlagRequired("run-id")
	reportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path. If unset, the JSON report is printed to stdout.")
	reportCmd.Flags().StringVarP(&format, "format", "f", reporting.FormatSARIF, "Format of the output file (sarif, json, html). Ignored when printing to stdout.")

	return reportCmd
}

func runReport(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	runID, outputPath, format string,
	stdout io.Writer,
	provider storeProvider,
) error {
	logger.Info("Starting report generation", zap.String("run_id", runID))

	runs, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	report, err := results.NewPipeline(runs, logger).ProcessRun(ctx, runID)
	if err != nil {
		logger.Error("Failed to process results", zap.Error(err), zap.String("run_id", runID))
		return fmt.Errorf("failed to process run results: %w", err)
	}

	if outputPath == "" {
		data, err := report.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to serialize report to JSON: %w", err)
		}
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}
	return writeReportFile(logger, report, outputPath, format)
}

func writeReportFile(logger *zap.Logger, report *results.Report, outputPath, format string) error {
	reporter, err := reporting.New(format, outputPath, Version, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}
	if err := reporter.Write(report); err != nil {
		_ = reporter.Close()
		return fmt.Errorf("failed to write report file: %w", err)
	}
	if err := reporter.Close(); err != nil {
		return fmt.Errorf("failed to finish report file: %w", err)
	}

	logger.Info("Report successfully written to file", zap.String("path", outputPath))
	return nil
}
