package resourcegraph

import (
	"strings"

	"github.com/Azure/aimbiztalk-sub006/internal/model"
)

// Container is one application's set of parsed artifacts, expressed as
// indexes into the catalog.
type Container struct {
	Application       int
	Schemas           []int
	Transforms        []int
	Orchestrations    []int
	ReceivePorts      []int
	SendPorts         []int
	DistributionLists []int
}

// Build creates the resource tree for each container: an application
// definition owning its schemas (with message types or property fields),
// transforms, orchestrations, ports and distribution lists. Entities missing
// from the catalog are skipped.
func Build(cat *model.Catalog, containers []Container) []*ResourceNode {
	var roots []*ResourceNode
	for _, c := range containers {
		appRef := model.Ref{Kind: model.EntityApplication, Index: c.Application}
		app, ok := cat.Application(appRef)
		if !ok {
			continue
		}
		root := NewResource(TypeApplication, app.Name, app.Name, appRef)

		for _, i := range c.Schemas {
			ref := model.Ref{Kind: model.EntitySchema, Index: i}
			s, ok := cat.Schema(ref)
			if !ok {
				continue
			}
			root.AddChild(schemaResource(s, ref))
		}
		for _, i := range c.Transforms {
			ref := model.Ref{Kind: model.EntityTransform, Index: i}
			if t, ok := cat.Transform(ref); ok {
				root.AddChild(NewResource(TypeTransform, t.FullName, shortName(t.FullName), ref))
			}
		}
		for _, i := range c.Orchestrations {
			ref := model.Ref{Kind: model.EntityOrchestration, Index: i}
			if o, ok := cat.Orchestration(ref); ok {
				root.AddChild(NewResource(TypeOrchestration, o.FullName, shortName(o.FullName), ref))
			}
		}
		for _, i := range c.ReceivePorts {
			ref := model.Ref{Kind: model.EntityReceivePort, Index: i}
			if p, ok := cat.ReceivePort(ref); ok {
				root.AddChild(NewResource(TypeReceivePort, p.Name, p.Name, ref))
			}
		}
		for _, i := range c.SendPorts {
			ref := model.Ref{Kind: model.EntitySendPort, Index: i}
			if p, ok := cat.SendPort(ref); ok {
				root.AddChild(NewResource(TypeSendPort, p.Name, p.Name, ref))
			}
		}
		for _, i := range c.DistributionLists {
			ref := model.Ref{Kind: model.EntityDistributionList, Index: i}
			if d, ok := cat.DistributionList(ref); ok {
				root.AddChild(NewResource(TypeDistributionList, d.Name, d.Name, ref))
			}
		}
		roots = append(roots, root)
	}
	return roots
}

func schemaResource(s *model.Schema, ref model.Ref) *ResourceNode {
	if s.Kind == model.SchemaProperty {
		n := NewResource(TypePropertySchema, s.FullName, shortName(s.FullName), ref)
		for _, f := range s.Fields {
			n.AddChild(NewResource(TypePropertySchemaField, s.FieldKey(f), f, ref))
		}
		return n
	}
	n := NewResource(TypeSchema, s.FullName, shortName(s.FullName), ref)
	for _, root := range s.MessageTypes {
		n.AddChild(NewResource(TypeMessageType, s.MessageTypeKey(root), root, ref))
	}
	return n
}

// shortName returns the last dotted segment of a .NET style full name.
func shortName(fullName string) string {
	return fullName[strings.LastIndexByte(fullName, '.')+1:]
}
