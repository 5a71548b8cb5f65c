package dependency

import (
	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/resourcegraph"
)

// resolver applies the resolution policy shared by every rule:
// zero matches warn, one match links, several matches warn without linking.
type resolver struct {
	diags *diagnostics.Collector
	stats Stats
}

func newResolver(diags *diagnostics.Collector) *resolver {
	return &resolver{diags: diags}
}

// pick returns the single candidate, or records why there is none.
func pick[T any](r *resolver, referrer *resourcegraph.ResourceNode, what, name string, candidates []T) (T, bool) {
	var zero T
	switch len(candidates) {
	case 0:
		r.stats.Unresolved++
		r.record(referrer, diagnostics.Warnf(diagnostics.CodeUnresolved,
			"unable to resolve %s %q", what, name))
		return zero, false
	case 1:
		return candidates[0], true
	default:
		r.stats.Ambiguous++
		r.record(referrer, diagnostics.Warnf(diagnostics.CodeAmbiguous,
			"%s %q is ambiguous: %d candidates match", what, name, len(candidates)))
		return zero, false
	}
}

// link adds the edge pair and counts it when anything was new.
func (r *resolver) link(a, b *resourcegraph.ResourceNode, kind resourcegraph.RelationshipKind) {
	if resourcegraph.Link(a, b, kind) > 0 {
		r.stats.Linked++
	}
}

// missingSource records a model-integrity failure for a node whose Source
// handle does not resolve.
func (r *resolver) missingSource(n *resourcegraph.ResourceNode) {
	r.stats.Integrity++
	r.record(n, diagnostics.Errorf(diagnostics.CodeModelIntegrity,
		"resource %s %q has no backing entity in the parsed model (handle %s/%d)",
		n.Type, n.Key, n.Source.Kind, n.Source.Index))
}

func (r *resolver) info(n *resourcegraph.ResourceNode, d diagnostics.Diagnostic) {
	r.stats.Informational++
	r.record(n, d)
}

func (r *resolver) record(n *resourcegraph.ResourceNode, d diagnostics.Diagnostic) {
	r.diags.Add(n.AddDiagnostic(d))
}

// byKey returns the nodes whose Key equals key.
func byKey(nodes []*resourcegraph.ResourceNode, key string) []*resourcegraph.ResourceNode {
	var out []*resourcegraph.ResourceNode
	for _, n := range nodes {
		if n.Key == key {
			out = append(out, n)
		}
	}
	return out
}
