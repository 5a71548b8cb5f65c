package dependency

import (
	"strings"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/resourcegraph"
)

// OrchestrationRule links orchestrations to the message types they declare
// and the transforms they call. Message types owned by the runtime are
// reported as informational instead of unresolved.
type OrchestrationRule struct {
	SystemTypePrefixes []string
}

func (OrchestrationRule) Name() string { return "orchestration-schema-transform" }

func (o OrchestrationRule) Apply(g *Graph, diags *diagnostics.Collector) Stats {
	r := newResolver(diags)
	all := g.Resources()
	messageTypes := resourcegraph.FilterByType(all, resourcegraph.TypeMessageType)
	transforms := resourcegraph.FilterByType(all, resourcegraph.TypeTransform)

	for _, on := range resourcegraph.FilterByType(all, resourcegraph.TypeOrchestration) {
		orch, ok := g.Catalog.Orchestration(on.Source)
		if !ok {
			r.missingSource(on)
			continue
		}
		for _, mt := range orch.MessageTypes {
			if o.isSystemType(mt) {
				r.info(on, diagnostics.Infof(diagnostics.CodeInformational,
					"message type %q is provided by the runtime and is not resolved", mt))
				continue
			}
			if n, ok := pick(r, on, "message type", mt, byKey(messageTypes, mt)); ok {
				r.link(on, n, resourcegraph.ReferencesTo)
			}
		}
		for _, call := range orch.TransformCalls {
			if n, ok := pick(r, on, "transform", call, byKey(transforms, call)); ok {
				r.link(on, n, resourcegraph.ReferencesTo)
			}
		}
	}
	return r.stats
}

func (o OrchestrationRule) isSystemType(name string) bool {
	for _, p := range o.SystemTypePrefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
