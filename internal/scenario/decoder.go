package scenario

import (
	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/messaging"
)

// Stage is one node of a scenario tree.
type Stage struct {
	Name      string         `json:"name"`
	StageType string         `json:"stageType"`
	Node      messaging.Node `json:"-"`
	NodeKey   string         `json:"nodeKey"`
	// Channel is the channel the stage was reached through, nil for the root.
	Channel         *messaging.Channel `json:"-"`
	ChannelKey      string             `json:"channelKey,omitempty"`
	FollowingStages []*Stage           `json:"followingStages,omitempty"`
}

// Scenario is one end-to-end message flow rooted at an activator. Its stage
// tree is private to the scenario even when nodes appear in other scenarios.
type Scenario struct {
	Name        string         `json:"name"`
	Application string         `json:"application"`
	Activator   messaging.Node `json:"-"`
	Root        *Stage         `json:"root"`
}

// Stages flattens the tree depth-first, parents before children.
func (s *Scenario) Stages() []*Stage {
	var out []*Stage
	var visit func(st *Stage)
	visit = func(st *Stage) {
		out = append(out, st)
		for _, f := range st.FollowingStages {
			visit(f)
		}
	}
	if s.Root != nil {
		visit(s.Root)
	}
	return out
}

// Decoder discovers scenario activators in an application and builds one
// stage tree per activator.
type Decoder struct {
	logger *zap.Logger
}

// NewDecoder creates a decoder. A nil logger is replaced with a no-op one.
func NewDecoder(logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{logger: logger.Named("decoder")}
}

// Activators returns the scenario entry points of an application: endpoints
// that activate or answer requests and carry a scenario name, followed by
// activating intermediaries. Both groups keep declaration order.
func Activators(app *messaging.Application) []messaging.Node {
	var out []messaging.Node
	for _, e := range app.Endpoints {
		if (e.Activator || e.Pattern == messaging.RequestReply) && e.Properties.ScenarioName != "" {
			out = append(out, e)
		}
	}
	for _, i := range app.Intermediaries {
		if i.Activator {
			out = append(out, i)
		}
	}
	return out
}

// ScenarioName returns the scenario name an activator declares. Activating
// intermediaries without one fall back to their key.
func ScenarioName(n messaging.Node) string {
	if name := n.Base().Properties.ScenarioName; name != "" {
		return name
	}
	return n.Base().Key
}

// Decode builds the scenarios of one application. Dangling references are
// recorded on the collector and do not stop the build.
func (d *Decoder) Decode(app *messaging.Application, diags *diagnostics.Collector) []*Scenario {
	topo := TopologyOf(app)
	var scenarios []*Scenario
	for _, act := range Activators(app) {
		b := &treeBuilder{logger: d.logger, topo: topo, diags: diags, visited: make(map[string]bool)}
		b.visited[nodeVisitKey(act)] = true
		root := newStage(act, nil)
		b.expand(root)

		s := &Scenario{Name: ScenarioName(act), Application: app.Name, Activator: act, Root: root}
		d.logger.Debug("Scenario decoded",
			zap.String("application", app.Name),
			zap.String("scenario", s.Name),
			zap.Int("stages", len(s.Stages())))
		scenarios = append(scenarios, s)
	}
	return scenarios
}

// treeBuilder holds the visited set of a single scenario. The set is shared
// by every branch of the tree, which bounds the build on cyclic topologies.
type treeBuilder struct {
	logger  *zap.Logger
	topo    *Topology
	diags   *diagnostics.Collector
	visited map[string]bool
}

func (b *treeBuilder) expand(stage *Stage) {
	for _, key := range outputsOf(stage.Node) {
		ck := "channel:" + key
		if b.visited[ck] {
			continue
		}
		b.visited[ck] = true

		ch, ok := b.topo.Channel(key)
		if !ok {
			b.diags.AddOnce(channelNotFound(stage.Node, key))
			continue
		}
		if !ch.Properties.RouteTraceable {
			b.logger.Debug("Skipping channel not on a traceable route", zap.String("channel", ch.Key))
			continue
		}

		var next messaging.Node
		if i, ok := b.topo.Subscriber(ch.Key); ok {
			next = i
		} else if e, ok := b.topo.EndpointOn(ch.Key); ok {
			next = e
		} else {
			b.diags.AddOnce(nothingAttached(ch))
			continue
		}

		nk := nodeVisitKey(next)
		if b.visited[nk] {
			continue
		}
		b.visited[nk] = true

		child := newStage(next, ch)
		stage.FollowingStages = append(stage.FollowingStages, child)
		b.expand(child)
	}
}

func outputsOf(n messaging.Node) []string {
	switch v := n.(type) {
	case *messaging.Intermediary:
		return v.OutputChannelKeys
	case *messaging.Endpoint:
		if v.OutputChannelKey == "" {
			return nil
		}
		return []string{v.OutputChannelKey}
	case *messaging.Channel:
		return nil
	default:
		panic("scenario: unknown messaging node variant")
	}
}

func nodeVisitKey(n messaging.Node) string {
	return string(n.Kind()) + ":" + n.Base().Key
}

func newStage(n messaging.Node, via *messaging.Channel) *Stage {
	st := &Stage{
		Name:      n.Base().DisplayName(),
		StageType: stageType(n),
		Node:      n,
		NodeKey:   n.Base().Key,
		Channel:   via,
	}
	if step := n.Base().Properties.ScenarioStepName; step != "" {
		st.Name = step
	}
	if via != nil {
		st.ChannelKey = via.Key
	}
	return st
}

func stageType(n messaging.Node) string {
	switch v := n.(type) {
	case *messaging.Intermediary:
		return string(v.Type)
	case *messaging.Endpoint:
		return string(v.Type)
	case *messaging.Channel:
		return string(v.Type)
	default:
		panic("scenario: unknown messaging node variant")
	}
}
