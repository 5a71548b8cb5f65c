package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/config"
	"github.com/Azure/aimbiztalk-sub006/internal/conversion"
	"github.com/Azure/aimbiztalk-sub006/internal/dependency"
	"github.com/Azure/aimbiztalk-sub006/internal/manifest"
	"github.com/Azure/aimbiztalk-sub006/internal/observability"
	"github.com/Azure/aimbiztalk-sub006/internal/orchestrator"
	"github.com/Azure/aimbiztalk-sub006/internal/reporting"
	"github.com/Azure/aimbiztalk-sub006/internal/results"
	"github.com/Azure/aimbiztalk-sub006/internal/scenario"
)

func newAnalyzeCmd(provider storeProvider) *cobra.Command {
	var (
		input     string
		outputDir string
		formats   []string
		title     string
		persist   bool
	)

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a migration manifest and write the reports",
		Long: `Loads a manifest of parsed legacy applications and their target messaging
model, resolves dependencies between the parsed artifacts, decodes the
scenarios of every target application and plans the target resources.
Reports are written to the output directory in every configured format.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			// Flags override config file and environment values.
			flags := cmd.Flags()
			if flags.Changed("output-dir") {
				cfg.SetReportOutputDir(outputDir)
			}
			if flags.Changed("format") {
				cfg.SetReportFormats(formats)
			}
			if flags.Changed("title") {
				cfg.SetReportTitle(title)
			}
			if flags.Changed("persist") {
				cfg.SetDatabasePersist(persist)
			}
			if err := cfg.Report().Validate(); err != nil {
				return fmt.Errorf("invalid report options: %w", err)
			}
			if err := cfg.Database().Validate(); err != nil {
				return fmt.Errorf("invalid database options: %w", err)
			}

			return runAnalyze(ctx, observability.GetLogger(), cfg, input, cmd.OutOrStdout(), provider)
		},
	}

	analyzeCmd.Flags().StringVarP(&input, "input", "i", "", "Manifest file to analyze, .yaml or .xml (required)")
	_ = analyzeCmd.MarkFlagRequired("input")
	analyzeCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory the reports are written to. (Overrides config/env)")
	analyzeCmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "Report formats: sarif, json, html. (Overrides config/env)")
	analyzeCmd.Flags().StringVar(&title, "title", "", "Report title. (Overrides the manifest title)")
	analyzeCmd.Flags().BoolVar(&persist, "persist", false, "Persist the run to the database. (Overrides config/env)")

	return analyzeCmd
}

// newOrchestrator wires the analysis components from configuration.
func newOrchestrator(cfg config.Interface, logger *zap.Logger) (*orchestrator.Orchestrator, error) {
	opts := dependency.DefaultOptions()
	if a := cfg.Analysis(); a.SystemApplication != "" {
		opts.SystemApplication = a.SystemApplication
	}
	if prefixes := cfg.Analysis().SystemTypePrefixes; len(prefixes) > 0 {
		opts.SystemTypePrefixes = prefixes
	}

	walker := scenario.NewWalker(logger)
	return orchestrator.New(
		cfg,
		logger,
		dependency.NewEngine(logger, opts),
		scenario.NewDecoder(logger),
		conversion.NewPlanner(walker, logger),
	)
}

func runAnalyze(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	input string,
	stdout io.Writer,
	provider storeProvider,
) error {
	loaded, err := manifest.Load(input)
	if err != nil {
		return err
	}

	orch, err := newOrchestrator(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize analysis: %w", err)
	}

	report, runErr := orch.Run(ctx, loaded)
	if report == nil {
		return fmt.Errorf("analysis failed: %w", runErr)
	}

	// A canceled run still leaves a partial report worth writing.
	outCtx := ctx
	if runErr != nil {
		outCtx = context.WithoutCancel(ctx)
	}

	paths, err := reporting.WriteAll(outCtx, report, cfg.Report().OutputDir, cfg.Report().Formats, Version, logger)
	if err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}

	if cfg.Database().Persist {
		if err := persistRun(outCtx, cfg, report, provider); err != nil {
			return err
		}
		logger.Info("Run persisted", zap.String("run_id", report.RunID))
	}

	printSummary(stdout, report, paths)

	if runErr != nil {
		return fmt.Errorf("analysis aborted: %w", runErr)
	}
	if report.Failed() && cfg.Analysis().FailOnError {
		return ErrAnalysisFailed
	}
	return nil
}

func persistRun(ctx context.Context, cfg config.Interface, report *results.Report, provider storeProvider) error {
	runs, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}
	if err := runs.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare database schema: %w", err)
	}
	if err := runs.PersistRun(ctx, report); err != nil {
		return fmt.Errorf("failed to persist run %s: %w", report.RunID, err)
	}
	return nil
}

func printSummary(w io.Writer, report *results.Report, paths []string) {
	fmt.Fprintf(w, "\nAnalysis complete. Run ID: %s\n", report.RunID)
	fmt.Fprintf(w, "Diagnostics: %d error(s), %d warning(s), %d info\n",
		report.Summary.Errors, report.Summary.Warnings, report.Summary.Info)
	for _, a := range report.Applications {
		if a.Rated {
			fmt.Fprintf(w, "  %s: score %d, %d scenario(s)\n", a.Name, a.Score, a.Scenarios)
		} else {
			fmt.Fprintf(w, "  %s: not rated, %d scenario(s)\n", a.Name, a.Scenarios)
		}
	}
	for _, p := range paths {
		fmt.Fprintf(w, "Report written: %s\n", p)
	}
}
