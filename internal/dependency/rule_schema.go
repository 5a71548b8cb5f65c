package dependency

import (
	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/resourcegraph"
)

// SchemaPropertyRule links document schemas to the property schemas and
// fields their promoted properties refer to.
type SchemaPropertyRule struct{}

func (SchemaPropertyRule) Name() string { return "schema-property-schema" }

type propertyField struct {
	schema *resourcegraph.ResourceNode
	field  *resourcegraph.ResourceNode
}

func (SchemaPropertyRule) Apply(g *Graph, diags *diagnostics.Collector) Stats {
	r := newResolver(diags)
	all := g.Resources()

	var fields []propertyField
	for _, ps := range resourcegraph.FilterByType(all, resourcegraph.TypePropertySchema) {
		for _, c := range ps.Children {
			if c.Type == resourcegraph.TypePropertySchemaField {
				fields = append(fields, propertyField{schema: ps, field: c})
			}
		}
	}

	for _, doc := range resourcegraph.FilterByType(all, resourcegraph.TypeSchema) {
		schema, ok := g.Catalog.Schema(doc.Source)
		if !ok {
			r.missingSource(doc)
			continue
		}
		for _, prop := range schema.PromotedProperties {
			var matches []propertyField
			for _, f := range fields {
				if f.field.Key == prop {
					matches = append(matches, f)
				}
			}
			m, ok := pick(r, doc, "promoted property", prop, matches)
			if !ok {
				continue
			}
			r.link(doc, m.schema, resourcegraph.ReferencesTo)
			r.link(doc, m.field, resourcegraph.ReferencesTo)
		}
	}
	return r.stats
}
