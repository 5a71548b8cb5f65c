package results

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/results/providers"
)

// Store is the read side of run persistence.
type Store interface {
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
	GetDiagnosticsByRunID(ctx context.Context, runID string) ([]diagnostics.Diagnostic, error)
}

// Pipeline turns raw diagnostics into a finished report.
type Pipeline struct {
	store    Store
	enricher *Enricher
	logger   *zap.Logger
}

// NewPipeline creates a results pipeline. store may be nil when reports are
// only finalized, never rebuilt.
func NewPipeline(store Store, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:    store,
		enricher: NewEnricher(providers.NewDefaultStore(), logger),
		logger:   logger.Named("results_pipeline"),
	}
}

// Finalize prioritizes the diagnostics of a report, attaches rule
// descriptions and recomputes the summary and failure flag.
func (p *Pipeline) Finalize(r *Report) {
	Prioritize(r.Diagnostics)
	r.Rules = p.enricher.Rules(r.Diagnostics)
	r.Summary = Summarize(r.Diagnostics)
	r.RunRecord.Failed = r.Failed()
}

// ProcessRun rebuilds the report of a persisted run.
func (p *Pipeline) ProcessRun(ctx context.Context, runID string) (*Report, error) {
	if p.store == nil {
		return nil, errors.New("results pipeline has no store configured")
	}
	p.logger.Info("Starting results processing", zap.String("run_id", runID))

	run, err := p.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	diags, err := p.store.GetDiagnosticsByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load diagnostics for run %s: %w", runID, err)
	}
	p.logger.Info("Retrieved diagnostics", zap.Int("count", len(diags)))

	report := &Report{RunRecord: *run, Diagnostics: diags}
	p.Finalize(report)

	p.logger.Info("Results processing complete")
	return report, nil
}
