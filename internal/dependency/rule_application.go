package dependency

import (
	"strings"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/resourcegraph"
)

// ApplicationRule links applications to the applications they reference by
// display name. References to the system application are skipped, both the
// one named in the options and any application the catalog flags as system.
type ApplicationRule struct {
	SystemApplication string
}

func (ApplicationRule) Name() string { return "application-application" }

func (a ApplicationRule) Apply(g *Graph, diags *diagnostics.Collector) Stats {
	r := newResolver(diags)
	apps := resourcegraph.FilterByType(g.Resources(), resourcegraph.TypeApplication)

	for _, an := range apps {
		app, ok := g.Catalog.Application(an.Source)
		if !ok {
			r.missingSource(an)
			continue
		}
		for _, ref := range app.References {
			if a.SystemApplication != "" && strings.EqualFold(ref, a.SystemApplication) {
				continue
			}
			var matches []*resourcegraph.ResourceNode
			system := false
			for _, other := range apps {
				if other == an || other.Name != ref {
					continue
				}
				if target, ok := g.Catalog.Application(other.Source); ok && target.IsSystem {
					system = true
					continue
				}
				matches = append(matches, other)
			}
			if system && len(matches) == 0 {
				continue
			}
			if target, ok := pick(r, an, "referenced application", ref, matches); ok {
				r.link(an, target, resourcegraph.CallsTo)
			}
		}
	}
	return r.stats
}
