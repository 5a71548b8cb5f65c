package scenario

import (
	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/messaging"
)

// Step is one node on a route together with the channel it was reached
// through. Channel is nil for the entry node.
type Step struct {
	Node    messaging.Node
	Channel *messaging.Channel
}

// Route is the ordered list of steps reachable from an entry node.
type Route []Step

// Keys returns the node keys of the route, mostly for logging and tests.
func (r Route) Keys() []string {
	keys := make([]string, len(r))
	for i, s := range r {
		keys[i] = s.Node.Base().Key
	}
	return keys
}

// Walker follows output channels forward from an entry node. Lookup
// failures are recorded on the collector and the walk continues with the
// remaining branches.
type Walker struct {
	logger *zap.Logger
}

// NewWalker creates a walker. A nil logger is replaced with a no-op one.
func NewWalker(logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{logger: logger.Named("walker")}
}

// ProcessManagerRoute walks from a process manager intermediary. Routes of
// this kind never end in an endpoint.
func (w *Walker) ProcessManagerRoute(entry *messaging.Intermediary, topo *Topology, diags *diagnostics.Collector) Route {
	wk := w.start(entry, topo, diags, false)
	wk.follow(entry, entry.OutputChannelKeys)
	return wk.route
}

// ReceiveRoute walks from a receiving endpoint through its single output
// channel. Routes of this kind never end in an endpoint.
func (w *Walker) ReceiveRoute(entry *messaging.Endpoint, topo *Topology, diags *diagnostics.Collector) Route {
	wk := w.start(entry, topo, diags, false)
	if entry.OutputChannelKey != "" {
		wk.follow(entry, []string{entry.OutputChannelKey})
	}
	return wk.route
}

// SendRoute walks from an intermediary and terminates branches at the
// endpoints it reaches.
func (w *Walker) SendRoute(entry *messaging.Intermediary, topo *Topology, diags *diagnostics.Collector) Route {
	wk := w.start(entry, topo, diags, true)
	wk.follow(entry, entry.OutputChannelKeys)
	return wk.route
}

type walk struct {
	logger    *zap.Logger
	topo      *Topology
	diags     *diagnostics.Collector
	endpoints bool
	route     Route
	// visited guards against intermediaries that feed back into themselves.
	visited map[string]bool
}

func (w *Walker) start(entry messaging.Node, topo *Topology, diags *diagnostics.Collector, endpoints bool) *walk {
	return &walk{
		logger:    w.logger,
		topo:      topo,
		diags:     diags,
		endpoints: endpoints,
		route:     Route{{Node: entry}},
		visited:   map[string]bool{entry.Base().Key: true},
	}
}

func (wk *walk) follow(from messaging.Node, outputs []string) {
	for _, key := range outputs {
		ch, ok := wk.topo.Channel(key)
		if !ok {
			wk.diags.AddOnce(channelNotFound(from, key))
			continue
		}
		if !ch.Properties.RouteTraceable {
			wk.logger.Debug("Skipping channel not on a traceable route",
				zap.String("channel", ch.Key), zap.String("from", from.Base().Key))
			continue
		}

		if next, ok := wk.topo.Subscriber(ch.Key); ok {
			if wk.visited[next.Key] {
				wk.logger.Debug("Intermediary already on route",
					zap.String("intermediary", next.Key), zap.String("channel", ch.Key))
				continue
			}
			wk.visited[next.Key] = true
			wk.route = append(wk.route, Step{Node: next, Channel: ch})
			wk.follow(next, next.OutputChannelKeys)
			continue
		}

		ep, ok := wk.topo.EndpointOn(ch.Key)
		switch {
		case !ok:
			wk.diags.AddOnce(nothingAttached(ch))
		case wk.endpoints:
			wk.route = append(wk.route, Step{Node: ep, Channel: ch})
		default:
			// Endpoints belong to send routes; this branch ends here.
			wk.logger.Debug("Route reaches an endpoint",
				zap.String("endpoint", ep.Key), zap.String("channel", ch.Key))
		}
	}
}

func channelNotFound(from messaging.Node, key string) diagnostics.Diagnostic {
	d := diagnostics.Errorf(diagnostics.CodeDanglingRoute,
		"channel %q referenced by %s %q not found in target model", key, from.Kind(), from.Base().Key)
	d.Subject = from.Base().Key
	d.SubjectType = string(from.Kind())
	return d
}

func nothingAttached(ch *messaging.Channel) diagnostics.Diagnostic {
	d := diagnostics.Errorf(diagnostics.CodeDanglingRoute,
		"no messaging object attached to channel %q", ch.Key)
	d.Subject = ch.Key
	d.SubjectType = string(messaging.KindChannel)
	return d
}
