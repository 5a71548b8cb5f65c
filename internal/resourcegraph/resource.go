// Package resourcegraph is the node and edge model shared by the dependency
// rules. Resources form a containment tree through Children and a symmetric
// cross-reference graph through Relationships.
package resourcegraph

import (
	"github.com/google/uuid"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/model"
)

// ResourceType is the closed set of analyzable artifact kinds.
type ResourceType string

const (
	TypeApplication         ResourceType = "ApplicationDefinition"
	TypeSchema              ResourceType = "DocumentSchema"
	TypePropertySchema      ResourceType = "PropertySchema"
	TypePropertySchemaField ResourceType = "PropertySchemaProperty"
	TypeMessageType         ResourceType = "MessageType"
	TypeTransform           ResourceType = "Map"
	TypeOrchestration       ResourceType = "ServiceDeclaration"
	TypeReceivePort         ResourceType = "ReceivePort"
	TypeSendPort            ResourceType = "SendPort"
	TypeDistributionList    ResourceType = "DistributionList"
)

// RelationshipKind is the type of a directed edge.
type RelationshipKind string

const (
	ReferencesTo RelationshipKind = "ReferencesTo"
	ReferencedBy RelationshipKind = "ReferencedBy"
	Parent       RelationshipKind = "Parent"
	Child        RelationshipKind = "Child"
	CallsTo      RelationshipKind = "CallsTo"
	CalledBy     RelationshipKind = "CalledBy"
)

// Complement returns the kind that must exist in the opposite direction.
func Complement(k RelationshipKind) RelationshipKind {
	switch k {
	case ReferencesTo:
		return ReferencedBy
	case ReferencedBy:
		return ReferencesTo
	case Parent:
		return Child
	case Child:
		return Parent
	case CallsTo:
		return CalledBy
	case CalledBy:
		return CallsTo
	default:
		return k
	}
}

// Relationship is a directed edge from the owning node to TargetID.
type Relationship struct {
	TargetID string           `json:"target_id"`
	Kind     RelationshipKind `json:"kind"`
}

// ResourceNode is one analyzed artifact.
type ResourceNode struct {
	ID   string       `json:"id"`
	Type ResourceType `json:"type"`
	// Key is unique within the owning container.
	Key  string `json:"key"`
	Name string `json:"name"`
	// Source is a weak handle to the parsed entity; the node never owns it.
	Source        model.Ref                `json:"-"`
	Children      []*ResourceNode          `json:"children,omitempty"`
	Relationships []Relationship           `json:"relationships,omitempty"`
	Diagnostics   []diagnostics.Diagnostic `json:"diagnostics,omitempty"`
}

// NewResource creates a node with a fresh identifier.
func NewResource(t ResourceType, key, name string, source model.Ref) *ResourceNode {
	return &ResourceNode{
		ID:     uuid.NewString(),
		Type:   t,
		Key:    key,
		Name:   name,
		Source: source,
	}
}

// AddChild appends a contained resource.
func (n *ResourceNode) AddChild(child *ResourceNode) {
	n.Children = append(n.Children, child)
}

// AddDiagnostic appends a message and stamps it with this node as subject.
// The stamped copy is returned so callers can forward it to a collector.
func (n *ResourceNode) AddDiagnostic(d diagnostics.Diagnostic) diagnostics.Diagnostic {
	d.Subject = n.Key
	d.SubjectType = string(n.Type)
	n.Diagnostics = append(n.Diagnostics, d)
	return d
}

// AddRelationship appends an edge. It does not deduplicate.
func AddRelationship(n *ResourceNode, e Relationship) {
	n.Relationships = append(n.Relationships, e)
}

// HasRelationship reports whether n already carries e.
func HasRelationship(n *ResourceNode, e Relationship) bool {
	for _, r := range n.Relationships {
		if r == e {
			return true
		}
	}
	return false
}

// Link records a kind edge from a to b together with its complement from b
// to a. Halves that already exist are not added again. It returns the number
// of edges added.
func Link(a, b *ResourceNode, kind RelationshipKind) int {
	added := 0
	forward := Relationship{TargetID: b.ID, Kind: kind}
	if !HasRelationship(a, forward) {
		AddRelationship(a, forward)
		added++
	}
	backward := Relationship{TargetID: a.ID, Kind: Complement(kind)}
	if !HasRelationship(b, backward) {
		AddRelationship(b, backward)
		added++
	}
	return added
}

// FindAllResources flattens the containment trees depth-first, parents
// before children, in declaration order.
func FindAllResources(roots ...*ResourceNode) []*ResourceNode {
	var out []*ResourceNode
	var walk func(n *ResourceNode)
	walk = func(n *ResourceNode) {
		if n == nil {
			return
		}
		out = append(out, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

// FilterByType keeps the nodes of the given types, preserving order.
func FilterByType(nodes []*ResourceNode, types ...ResourceType) []*ResourceNode {
	var out []*ResourceNode
	for _, n := range nodes {
		for _, t := range types {
			if n.Type == t {
				out = append(out, n)
				break
			}
		}
	}
	return out
}
