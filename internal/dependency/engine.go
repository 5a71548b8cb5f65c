// Package dependency cross-references parsed artifacts and materializes the
// relationship graph over resource nodes. Rules run in a fixed order because
// later rules read edges and children produced by earlier ones.
package dependency

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/model"
	"github.com/Azure/aimbiztalk-sub006/internal/resourcegraph"
)

// DefaultSystemApplication is the platform's built-in application, which
// every deployed application implicitly references.
const DefaultSystemApplication = "BizTalk.System"

// DefaultSystemTypePrefixes identify runtime types that never resolve to a
// schema in the parsed model.
var DefaultSystemTypePrefixes = []string{"System.", "Microsoft.XLANGs.", "Microsoft.BizTalk."}

// Options tunes rule behavior.
type Options struct {
	SystemApplication  string
	SystemTypePrefixes []string
}

// DefaultOptions returns the built-in rule settings.
func DefaultOptions() Options {
	return Options{
		SystemApplication:  DefaultSystemApplication,
		SystemTypePrefixes: append([]string(nil), DefaultSystemTypePrefixes...),
	}
}

// Graph is the input of a dependency run: the resource trees plus the
// catalog their Source handles point into.
type Graph struct {
	Catalog *model.Catalog
	Roots   []*resourcegraph.ResourceNode
}

// NewGraph validates and wraps the run input.
func NewGraph(cat *model.Catalog, roots []*resourcegraph.ResourceNode) (*Graph, error) {
	if cat == nil {
		return nil, errors.New("cannot build dependency graph with a nil catalog")
	}
	return &Graph{Catalog: cat, Roots: roots}, nil
}

// Resources returns the current flattened node list. Rules call it once per
// invocation so they observe children added by earlier rules.
func (g *Graph) Resources() []*resourcegraph.ResourceNode {
	return resourcegraph.FindAllResources(g.Roots...)
}

// Stats counts what a rule did.
type Stats struct {
	Linked        int
	Unresolved    int
	Ambiguous     int
	Integrity     int
	Informational int
}

// Rule is one cross-referencing pass.
type Rule interface {
	Name() string
	Apply(g *Graph, diags *diagnostics.Collector) Stats
}

// DefaultRules returns the six rules in their load-bearing order.
func DefaultRules(opts Options) []Rule {
	return []Rule{
		&SchemaPropertyRule{},
		&TransformRule{},
		&OrchestrationRule{SystemTypePrefixes: opts.SystemTypePrefixes},
		&ApplicationRule{SystemApplication: opts.SystemApplication},
		&DistributionListRule{},
		&ContainmentRule{},
	}
}

// Engine runs rules sequentially against one graph.
type Engine struct {
	rules  []Rule
	logger *zap.Logger
}

// NewEngine creates an engine with the default rule set.
func NewEngine(logger *zap.Logger, opts Options) *Engine {
	e, _ := NewEngineWithRules(logger, DefaultRules(opts)...)
	return e
}

// NewEngineWithRules creates an engine running the given rules in order.
func NewEngineWithRules(logger *zap.Logger, rules ...Rule) (*Engine, error) {
	if len(rules) == 0 {
		return nil, errors.New("dependency engine requires at least one rule")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{rules: rules, logger: logger.Named("dependency")}, nil
}

// RuleNames lists the rules in execution order.
func (e *Engine) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Run applies every rule. Cancellation is observed between rules only; a
// rule that has started always completes. The returned error is non-nil only
// for cancellation or a precondition violation. Domain problems are reported
// as diagnostics.
func (e *Engine) Run(ctx context.Context, g *Graph, diags *diagnostics.Collector) error {
	if g == nil || diags == nil {
		return errors.New("dependency engine requires a graph and a diagnostics collector")
	}

	for i, rule := range e.rules {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("dependency analysis canceled before rule %q: %w", rule.Name(), err)
		}
		stats := rule.Apply(g, diags)
		e.logger.Debug("Dependency rule applied",
			zap.Int("order", i+1),
			zap.String("rule", rule.Name()),
			zap.Int("linked", stats.Linked),
			zap.Int("unresolved", stats.Unresolved),
			zap.Int("ambiguous", stats.Ambiguous),
			zap.Int("integrity_failures", stats.Integrity),
		)
	}
	return nil
}
