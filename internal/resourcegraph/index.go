package resourcegraph

import "fmt"

// Index maps node identifiers to nodes.
type Index map[string]*ResourceNode

// NewIndex indexes the given nodes by ID.
func NewIndex(nodes []*ResourceNode) Index {
	idx := make(Index, len(nodes))
	for _, n := range nodes {
		idx[n.ID] = n
	}
	return idx
}

// Violation is an edge without its complement.
type Violation struct {
	From *ResourceNode
	Edge Relationship
	// To is nil when the edge targets an unknown node.
	To *ResourceNode
}

func (v Violation) String() string {
	if v.To == nil {
		return fmt.Sprintf("%s -[%s]-> unknown node %s", v.From.Key, v.Edge.Kind, v.Edge.TargetID)
	}
	return fmt.Sprintf("%s -[%s]-> %s has no %s edge back", v.From.Key, v.Edge.Kind, v.To.Key, Complement(v.Edge.Kind))
}

// VerifySymmetry returns every edge whose complement is missing on the
// target, and every edge pointing outside the given node set.
func VerifySymmetry(nodes []*ResourceNode) []Violation {
	idx := NewIndex(nodes)
	var out []Violation
	for _, n := range nodes {
		for _, e := range n.Relationships {
			target, ok := idx[e.TargetID]
			if !ok {
				out = append(out, Violation{From: n, Edge: e})
				continue
			}
			if !HasRelationship(target, Relationship{TargetID: n.ID, Kind: Complement(e.Kind)}) {
				out = append(out, Violation{From: n, Edge: e, To: target})
			}
		}
	}
	return out
}
