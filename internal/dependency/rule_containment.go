package dependency

import (
	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/resourcegraph"
)

// ContainmentRule mirrors the child tree as Parent/Child edges. It runs last
// so it sees every child the earlier rules may have attached.
type ContainmentRule struct{}

func (ContainmentRule) Name() string { return "parent-child" }

func (ContainmentRule) Apply(g *Graph, diags *diagnostics.Collector) Stats {
	r := newResolver(diags)
	for _, n := range g.Resources() {
		for _, c := range n.Children {
			r.link(c, n, resourcegraph.Parent)
		}
	}
	return r.stats
}
