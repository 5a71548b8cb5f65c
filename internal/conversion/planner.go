// Package conversion decides which target templates to render for each
// route node. Rendering itself happens downstream of the plan.
package conversion

import (
	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/messaging"
	"github.com/Azure/aimbiztalk-sub006/internal/scenario"
)

// RouteKind names the walker variant used for a scenario.
type RouteKind string

const (
	ReceiveRoute        RouteKind = "receive"
	ProcessManagerRoute RouteKind = "process-manager"
	SendRoute           RouteKind = "send"
	// ApplicationScope marks resources declared by the application itself.
	ApplicationScope RouteKind = "application"
)

// RenderItem is one template to render.
type RenderItem struct {
	Application  string    `json:"application"`
	Scenario     string    `json:"scenario,omitempty"`
	Route        RouteKind `json:"route"`
	NodeKey      string    `json:"nodeKey,omitempty"`
	ResourceType string    `json:"resourceType"`
	TemplateKey  string    `json:"templateKey"`
	Name         string    `json:"name,omitempty"`
}

// Plan is the ordered render list of a run.
type Plan struct {
	Items []RenderItem `json:"items"`
}

// ForApplication returns the items belonging to one application.
func (p *Plan) ForApplication(name string) []RenderItem {
	var out []RenderItem
	for _, it := range p.Items {
		if it.Application == name {
			out = append(out, it)
		}
	}
	return out
}

// Planner turns walked routes into render items.
type Planner struct {
	walker *scenario.Walker
	logger *zap.Logger
}

// NewPlanner creates a planner over the given walker.
func NewPlanner(walker *scenario.Walker, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if walker == nil {
		walker = scenario.NewWalker(logger)
	}
	return &Planner{walker: walker, logger: logger.Named("planner")}
}

// Plan walks one route per activator of every application and collects the
// template resources of each node on it, in route order. A node contributes
// a template at most once per application.
func (p *Planner) Plan(bus *messaging.Bus, diags *diagnostics.Collector) *Plan {
	plan := &Plan{}
	if bus == nil {
		return plan
	}
	for _, app := range bus.Applications {
		before := len(plan.Items)
		p.planApplication(plan, app, diags)
		p.logger.Debug("Application planned",
			zap.String("application", app.Name),
			zap.Int("items", len(plan.Items)-before))
	}
	return plan
}

type seenKey struct{ node, template string }

// plannedStep is a route step tagged with the walker variant that reached it.
type plannedStep struct {
	kind RouteKind
	step scenario.Step
}

func (p *Planner) planApplication(plan *Plan, app *messaging.Application, diags *diagnostics.Collector) {
	topo := scenario.TopologyOf(app)
	seen := make(map[seenKey]bool)

	for _, act := range scenario.Activators(app) {
		name := scenario.ScenarioName(act)
		for _, ps := range p.steps(act, topo, diags) {
			base := ps.step.Node.Base()
			for _, r := range base.Resources {
				k := seenKey{base.Key, r.TemplateKey}
				if seen[k] {
					continue
				}
				seen[k] = true
				plan.Items = append(plan.Items, RenderItem{
					Application:  app.Name,
					Scenario:     name,
					Route:        ps.kind,
					NodeKey:      base.Key,
					ResourceType: r.ResourceType,
					TemplateKey:  r.TemplateKey,
					Name:         r.Name,
				})
			}
		}
	}

	for _, r := range app.Resources {
		plan.Items = append(plan.Items, RenderItem{
			Application:  app.Name,
			Route:        ApplicationScope,
			ResourceType: r.ResourceType,
			TemplateKey:  r.TemplateKey,
			Name:         r.Name,
		})
	}
}

// steps returns the nodes of the scenario started by act. Receive routes
// stop short of endpoints, so the send side of every intermediary they reach
// is walked as well and the endpoints found there are planned right after
// that intermediary. Intermediaries that activate scenarios of their own are
// left to those scenarios.
func (p *Planner) steps(act messaging.Node, topo *scenario.Topology, diags *diagnostics.Collector) []plannedStep {
	kind, route := p.walk(act, topo, diags)
	out := make([]plannedStep, 0, len(route))
	if kind != ReceiveRoute {
		for _, s := range route {
			out = append(out, plannedStep{kind: kind, step: s})
		}
		return out
	}

	endpoints := make(map[string]bool)
	for _, s := range route {
		out = append(out, plannedStep{kind: kind, step: s})
		im, ok := s.Node.(*messaging.Intermediary)
		if !ok || im.Activator || im.Type == messaging.ProcessManager {
			continue
		}
		for _, tail := range p.walker.SendRoute(im, topo, diags) {
			ep, ok := tail.Node.(*messaging.Endpoint)
			if !ok || ep == act || endpoints[ep.Key] {
				continue
			}
			endpoints[ep.Key] = true
			out = append(out, plannedStep{kind: SendRoute, step: tail})
		}
	}
	return out
}

func (p *Planner) walk(act messaging.Node, topo *scenario.Topology, diags *diagnostics.Collector) (RouteKind, scenario.Route) {
	switch n := act.(type) {
	case *messaging.Endpoint:
		return ReceiveRoute, p.walker.ReceiveRoute(n, topo, diags)
	case *messaging.Intermediary:
		if n.Type == messaging.ProcessManager {
			return ProcessManagerRoute, p.walker.ProcessManagerRoute(n, topo, diags)
		}
		return SendRoute, p.walker.SendRoute(n, topo, diags)
	default:
		panic("conversion: unexpected activator variant")
	}
}
