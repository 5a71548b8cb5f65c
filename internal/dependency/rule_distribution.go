package dependency

import (
	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/resourcegraph"
)

// DistributionListRule links send port groups to their member send ports.
type DistributionListRule struct{}

func (DistributionListRule) Name() string { return "distribution-list-send-port" }

func (DistributionListRule) Apply(g *Graph, diags *diagnostics.Collector) Stats {
	r := newResolver(diags)
	all := g.Resources()
	sendPorts := resourcegraph.FilterByType(all, resourcegraph.TypeSendPort)

	for _, dn := range resourcegraph.FilterByType(all, resourcegraph.TypeDistributionList) {
		dl, ok := g.Catalog.DistributionList(dn.Source)
		if !ok {
			r.missingSource(dn)
			continue
		}
		for _, member := range dl.SendPorts {
			if sp, ok := pick(r, dn, "send port", member, byKey(sendPorts, member)); ok {
				r.link(dn, sp, resourcegraph.CallsTo)
			}
		}
	}
	return r.stats
}
