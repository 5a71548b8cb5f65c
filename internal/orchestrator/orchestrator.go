// Package orchestrator runs the analyze stage end to end: dependency rules,
// scenario decoding, rollups and the conversion plan.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/config"
	"github.com/Azure/aimbiztalk-sub006/internal/conversion"
	"github.com/Azure/aimbiztalk-sub006/internal/dependency"
	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/manifest"
	"github.com/Azure/aimbiztalk-sub006/internal/messaging"
	"github.com/Azure/aimbiztalk-sub006/internal/resourcegraph"
	"github.com/Azure/aimbiztalk-sub006/internal/results"
	"github.com/Azure/aimbiztalk-sub006/internal/scenario"
)

// DependencyAnalyzer links the resource graph.
type DependencyAnalyzer interface {
	Run(ctx context.Context, g *dependency.Graph, diags *diagnostics.Collector) error
}

// ScenarioDecoder builds the scenarios of one application.
type ScenarioDecoder interface {
	Decode(app *messaging.Application, diags *diagnostics.Collector) []*scenario.Scenario
}

// RoutePlanner produces the render plan of a bus.
type RoutePlanner interface {
	Plan(bus *messaging.Bus, diags *diagnostics.Collector) *conversion.Plan
}

// Orchestrator manages the lifecycle of one analyze run.
// It is injected with fully configured components.
type Orchestrator struct {
	cfg      config.Interface
	logger   *zap.Logger
	engine   DependencyAnalyzer
	decoder  ScenarioDecoder
	planner  RoutePlanner
	pipeline *results.Pipeline
}

// New creates an Orchestrator. Every dependency is required.
func New(
	cfg config.Interface,
	logger *zap.Logger,
	engine DependencyAnalyzer,
	decoder ScenarioDecoder,
	planner RoutePlanner,
) (*Orchestrator, error) {
	if cfg == nil ||
		logger == nil ||
		engine == nil ||
		decoder == nil ||
		planner == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	return &Orchestrator{
		cfg:      cfg,
		logger:   logger.Named("orchestrator"),
		engine:   engine,
		decoder:  decoder,
		planner:  planner,
		pipeline: results.NewPipeline(nil, logger),
	}, nil
}

// Run analyzes a loaded manifest. Domain problems become diagnostics on the
// report. On cancellation Run returns the partial report, finalized and
// carrying an ANALYSIS-CANCELED error, together with the context error.
func (o *Orchestrator) Run(ctx context.Context, in *manifest.Loaded) (*results.Report, error) {
	if in == nil {
		return nil, errors.New("orchestrator requires a loaded manifest")
	}
	report := &results.Report{
		RunRecord: results.RunRecord{
			RunID:     uuid.NewString(),
			Title:     in.Title,
			Input:     in.Source,
			StartedAt: time.Now(),
		},
		Resources: in.Roots,
	}
	if t := o.cfg.Report().Title; t != "" {
		report.Title = t
	}
	log := o.logger.With(zap.String("run_id", report.RunID))
	log.Info("Starting analysis", zap.String("input", in.Source))

	diags := diagnostics.NewCollector()

	// 1. Dependency rules.
	g, err := dependency.NewGraph(in.Catalog, in.Roots)
	if err != nil {
		return nil, err
	}
	if err := o.engine.Run(ctx, g, diags); err != nil {
		if ctx.Err() != nil {
			return o.cancel(report, diags, err)
		}
		return nil, fmt.Errorf("dependency analysis failed: %w", err)
	}

	// 2. Graph invariant check.
	if o.cfg.Analysis().VerifySymmetry {
		o.verifySymmetry(g, diags)
	}

	// 3. Scenarios and rollups per application.
	if in.Bus != nil {
		for _, app := range in.Bus.Applications {
			if err := ctx.Err(); err != nil {
				return o.cancel(report, diags, fmt.Errorf("scenario analysis canceled before application %q: %w", app.Name, err))
			}
			scenarios := o.decoder.Decode(app, diags)
			score, rated := scenario.ApplicationRating(app)
			report.Scenarios = append(report.Scenarios, scenarios...)
			report.Applications = append(report.Applications, results.ApplicationSummary{
				Name:      app.Name,
				Score:     score,
				Rated:     rated,
				Scenarios: len(scenarios),
				Resources: scenario.ApplicationResources(app),
			})
			log.Debug("Application analyzed",
				zap.String("application", app.Name),
				zap.Int("scenarios", len(scenarios)),
				zap.Int("score", score),
				zap.Bool("rated", rated))
		}
	}

	// 4. Conversion plan.
	report.Plan = o.planner.Plan(in.Bus, diags)

	o.finish(report, diags)
	log.Info("Analysis complete",
		zap.Int("diagnostics", report.Summary.Total),
		zap.Int("errors", report.Summary.Errors),
		zap.Bool("failed", report.Failed()),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

func (o *Orchestrator) verifySymmetry(g *dependency.Graph, diags *diagnostics.Collector) {
	for _, v := range resourcegraph.VerifySymmetry(g.Resources()) {
		d := diagnostics.Errorf(diagnostics.CodeSymmetry, "relationship %s", v)
		d.Subject = v.From.Key
		d.SubjectType = string(v.From.Type)
		diags.Add(d)
	}
}

func (o *Orchestrator) cancel(report *results.Report, diags *diagnostics.Collector, err error) (*results.Report, error) {
	d := diagnostics.Errorf(diagnostics.CodeAnalysisCanceled, "analysis canceled: %v", err)
	diags.Add(d)
	o.finish(report, diags)
	o.logger.Warn("Analysis canceled", zap.String("run_id", report.RunID), zap.Error(err))
	return report, err
}

func (o *Orchestrator) finish(report *results.Report, diags *diagnostics.Collector) {
	report.Diagnostics = diags.All()
	report.FinishedAt = time.Now()
	o.pipeline.Finalize(report)
}
