package dependency

import (
	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/resourcegraph"
)

// TransformRule links transforms to their source and target schemas, and
// ports to the transforms they apply.
type TransformRule struct{}

func (TransformRule) Name() string { return "transform-schema-port" }

func (TransformRule) Apply(g *Graph, diags *diagnostics.Collector) Stats {
	r := newResolver(diags)
	all := g.Resources()
	schemas := resourcegraph.FilterByType(all, resourcegraph.TypeSchema)
	transforms := resourcegraph.FilterByType(all, resourcegraph.TypeTransform)

	for _, tn := range transforms {
		t, ok := g.Catalog.Transform(tn.Source)
		if !ok {
			r.missingSource(tn)
			continue
		}
		for _, name := range t.SourceSchemas {
			if s, ok := pick(r, tn, "source schema", name, byKey(schemas, name)); ok {
				r.link(s, tn, resourcegraph.ReferencesTo)
			}
		}
		for _, name := range t.TargetSchemas {
			if s, ok := pick(r, tn, "target schema", name, byKey(schemas, name)); ok {
				r.link(tn, s, resourcegraph.ReferencesTo)
			}
		}
	}

	for _, pn := range resourcegraph.FilterByType(all, resourcegraph.TypeReceivePort) {
		p, ok := g.Catalog.ReceivePort(pn.Source)
		if !ok {
			r.missingSource(pn)
			continue
		}
		linkPortTransforms(r, pn, transforms, p.InboundTransforms, p.OutboundTransforms)
	}
	for _, pn := range resourcegraph.FilterByType(all, resourcegraph.TypeSendPort) {
		p, ok := g.Catalog.SendPort(pn.Source)
		if !ok {
			r.missingSource(pn)
			continue
		}
		linkPortTransforms(r, pn, transforms, p.OutboundTransforms, p.InboundTransforms)
	}
	return r.stats
}

func linkPortTransforms(r *resolver, port *resourcegraph.ResourceNode, transforms []*resourcegraph.ResourceNode, lists ...[]string) {
	for _, names := range lists {
		for _, name := range names {
			if t, ok := pick(r, port, "transform", name, byKey(transforms, name)); ok {
				r.link(port, t, resourcegraph.ReferencesTo)
			}
		}
	}
}
