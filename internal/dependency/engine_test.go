package dependency

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/model"
	"github.com/Azure/aimbiztalk-sub006/internal/resourcegraph"
)

const mapName = "Contoso.Maps.OrderToInvoice"

// orderFixture builds a small but complete application set that exercises
// every rule at least once.
func orderFixture(t *testing.T) *Graph {
	t.Helper()
	cat := model.NewCatalog()
	orders := cat.AddApplication(&model.Application{
		Name:       "Orders",
		References: []string{"BizTalk.System", "Shared", "Billing"},
	})
	shared := cat.AddApplication(&model.Application{Name: "Shared"})
	order := cat.AddSchema(&model.Schema{
		FullName:           "Contoso.Order",
		TargetNamespace:    "http://contoso/order",
		Kind:               model.SchemaDocument,
		MessageTypes:       []string{"Order"},
		PromotedProperties: []string{"Contoso.Props.OrderId", "Contoso.Props.Region"},
	})
	props := cat.AddSchema(&model.Schema{
		FullName: "Contoso.Props",
		Kind:     model.SchemaProperty,
		Fields:   []string{"OrderId"},
	})
	invoice := cat.AddSchema(&model.Schema{
		FullName:        "Contoso.Invoice",
		TargetNamespace: "http://contoso/invoice",
		Kind:            model.SchemaDocument,
		MessageTypes:    []string{"Invoice"},
	})
	tr := cat.AddTransform(&model.Transform{
		FullName:      mapName,
		SourceSchemas: []string{"Contoso.Order"},
		TargetSchemas: []string{"Contoso.Invoice"},
	})
	orch := cat.AddOrchestration(&model.Orchestration{
		FullName:       "Contoso.ProcessOrder",
		MessageTypes:   []string{"http://contoso/order#Order", "System.Xml.XmlDocument"},
		TransformCalls: []string{mapName},
	})
	rcv := cat.AddReceivePort(&model.ReceivePort{Name: "RcvOrders", InboundTransforms: []string{mapName}})
	snd := cat.AddSendPort(&model.SendPort{Name: "SndInvoices", OutboundTransforms: []string{mapName}})
	archive := cat.AddSendPort(&model.SendPort{Name: "SndArchive"})
	dl := cat.AddDistributionList(&model.DistributionList{
		Name:      "AllInvoices",
		SendPorts: []string{"SndInvoices", "SndArchive", "SndNowhere"},
	})

	roots := resourcegraph.Build(cat, []resourcegraph.Container{
		{
			Application:       orders.Index,
			Schemas:           []int{order.Index, props.Index, invoice.Index},
			Transforms:        []int{tr.Index},
			Orchestrations:    []int{orch.Index},
			ReceivePorts:      []int{rcv.Index},
			SendPorts:         []int{snd.Index, archive.Index},
			DistributionLists: []int{dl.Index},
		},
		{Application: shared.Index},
	})
	g, err := NewGraph(cat, roots)
	require.NoError(t, err)
	return g
}

func find(t *testing.T, g *Graph, typ resourcegraph.ResourceType, key string) *resourcegraph.ResourceNode {
	t.Helper()
	for _, n := range g.Resources() {
		if n.Type == typ && n.Key == key {
			return n
		}
	}
	t.Fatalf("no %s node with key %q", typ, key)
	return nil
}

func linked(a, b *resourcegraph.ResourceNode, kind resourcegraph.RelationshipKind) bool {
	return resourcegraph.HasRelationship(a, resourcegraph.Relationship{TargetID: b.ID, Kind: kind}) &&
		resourcegraph.HasRelationship(b, resourcegraph.Relationship{TargetID: a.ID, Kind: resourcegraph.Complement(kind)})
}

func TestEngine_Run(t *testing.T) {
	g := orderFixture(t)
	diags := diagnostics.NewCollector()
	engine := NewEngine(zap.NewNop(), DefaultOptions())

	require.NoError(t, engine.Run(context.Background(), g, diags))

	order := find(t, g, resourcegraph.TypeSchema, "Contoso.Order")
	invoice := find(t, g, resourcegraph.TypeSchema, "Contoso.Invoice")
	props := find(t, g, resourcegraph.TypePropertySchema, "Contoso.Props")
	field := find(t, g, resourcegraph.TypePropertySchemaField, "Contoso.Props.OrderId")
	tr := find(t, g, resourcegraph.TypeTransform, mapName)
	orch := find(t, g, resourcegraph.TypeOrchestration, "Contoso.ProcessOrder")
	msgType := find(t, g, resourcegraph.TypeMessageType, "http://contoso/order#Order")
	rcv := find(t, g, resourcegraph.TypeReceivePort, "RcvOrders")
	snd := find(t, g, resourcegraph.TypeSendPort, "SndInvoices")
	archive := find(t, g, resourcegraph.TypeSendPort, "SndArchive")
	dl := find(t, g, resourcegraph.TypeDistributionList, "AllInvoices")
	ordersApp := find(t, g, resourcegraph.TypeApplication, "Orders")
	sharedApp := find(t, g, resourcegraph.TypeApplication, "Shared")

	t.Run("schema to property schema", func(t *testing.T) {
		assert.True(t, linked(order, props, resourcegraph.ReferencesTo))
		assert.True(t, linked(order, field, resourcegraph.ReferencesTo))
	})

	t.Run("transform orientation follows role", func(t *testing.T) {
		assert.True(t, linked(order, tr, resourcegraph.ReferencesTo), "source schema references the map")
		assert.True(t, linked(tr, invoice, resourcegraph.ReferencesTo), "map references its target schema")
		assert.True(t, linked(rcv, tr, resourcegraph.ReferencesTo))
		assert.True(t, linked(snd, tr, resourcegraph.ReferencesTo))
	})

	t.Run("orchestration", func(t *testing.T) {
		assert.True(t, linked(orch, msgType, resourcegraph.ReferencesTo))
		assert.True(t, linked(orch, tr, resourcegraph.ReferencesTo))
		require.Len(t, orch.Diagnostics, 1)
		assert.Equal(t, diagnostics.SeverityInfo, orch.Diagnostics[0].Severity)
		assert.Contains(t, orch.Diagnostics[0].Text, "System.Xml.XmlDocument")
	})

	t.Run("applications", func(t *testing.T) {
		assert.True(t, linked(ordersApp, sharedApp, resourcegraph.CallsTo))
		require.Len(t, ordersApp.Diagnostics, 1, "system application is skipped, Billing is unresolved")
		assert.Equal(t, diagnostics.CodeUnresolved, ordersApp.Diagnostics[0].Code)
		assert.Contains(t, ordersApp.Diagnostics[0].Text, "Billing")
	})

	t.Run("distribution list", func(t *testing.T) {
		assert.True(t, linked(dl, snd, resourcegraph.CallsTo))
		assert.True(t, linked(dl, archive, resourcegraph.CallsTo))
		require.Len(t, dl.Diagnostics, 1)
		assert.Contains(t, dl.Diagnostics[0].Text, "SndNowhere")
	})

	t.Run("containment", func(t *testing.T) {
		for _, n := range g.Resources() {
			for _, c := range n.Children {
				assert.True(t, linked(c, n, resourcegraph.Parent), "%s should point to parent %s", c.Key, n.Key)
			}
		}
	})

	t.Run("symmetry and outcome", func(t *testing.T) {
		assert.Empty(t, resourcegraph.VerifySymmetry(g.Resources()))
		assert.False(t, diags.Failed())
		assert.Equal(t, 3, diags.Count(diagnostics.SeverityWarning))
		assert.Equal(t, 1, diags.Count(diagnostics.SeverityInfo))
	})
}

func TestRule_AmbiguityNeverResolved(t *testing.T) {
	cat := model.NewCatalog()
	caller := cat.AddApplication(&model.Application{Name: "Caller", References: []string{"Common"}})
	first := cat.AddApplication(&model.Application{Name: "Common"})
	second := cat.AddApplication(&model.Application{Name: "Common"})
	roots := resourcegraph.Build(cat, []resourcegraph.Container{
		{Application: caller.Index}, {Application: first.Index}, {Application: second.Index},
	})
	g, err := NewGraph(cat, roots)
	require.NoError(t, err)
	diags := diagnostics.NewCollector()

	stats := ApplicationRule{SystemApplication: DefaultSystemApplication}.Apply(g, diags)

	assert.Equal(t, 1, stats.Ambiguous)
	assert.Zero(t, stats.Linked)
	require.Len(t, roots[0].Diagnostics, 1)
	assert.Equal(t, diagnostics.CodeAmbiguous, roots[0].Diagnostics[0].Code)
	assert.Contains(t, roots[0].Diagnostics[0].Text, "2 candidates")
	for _, n := range roots {
		assert.Empty(t, n.Relationships)
	}
}

func TestApplicationRule_SkipsFlaggedSystemApplication(t *testing.T) {
	cat := model.NewCatalog()
	caller := cat.AddApplication(&model.Application{Name: "Caller", References: []string{"Platform", "Shared"}})
	platform := cat.AddApplication(&model.Application{Name: "Platform", IsSystem: true})
	shared := cat.AddApplication(&model.Application{Name: "Shared"})
	roots := resourcegraph.Build(cat, []resourcegraph.Container{
		{Application: caller.Index}, {Application: platform.Index}, {Application: shared.Index},
	})
	g, err := NewGraph(cat, roots)
	require.NoError(t, err)
	diags := diagnostics.NewCollector()

	stats := ApplicationRule{SystemApplication: DefaultSystemApplication}.Apply(g, diags)

	assert.Equal(t, 1, stats.Linked)
	assert.Zero(t, stats.Unresolved)
	assert.Empty(t, diags.All())
	assert.Empty(t, roots[1].Relationships, "system application is never linked")
	require.Len(t, roots[0].Relationships, 1)
	assert.Equal(t, roots[2].ID, roots[0].Relationships[0].TargetID)
}

func TestRule_MissingSourceIsIntegrityError(t *testing.T) {
	cat := model.NewCatalog()
	stale := resourcegraph.NewResource(resourcegraph.TypeSchema, "Ghost", "Ghost",
		model.Ref{Kind: model.EntitySchema, Index: 99})
	other := cat.AddSchema(&model.Schema{FullName: "Real", Kind: model.SchemaDocument, PromotedProperties: []string{"Nope"}})
	backed := resourcegraph.NewResource(resourcegraph.TypeSchema, "Real", "Real", other)
	g, err := NewGraph(cat, []*resourcegraph.ResourceNode{stale, backed})
	require.NoError(t, err)
	diags := diagnostics.NewCollector()

	stats := SchemaPropertyRule{}.Apply(g, diags)

	assert.Equal(t, 1, stats.Integrity)
	assert.Equal(t, 1, stats.Unresolved, "processing continues with the next node")
	require.Len(t, stale.Diagnostics, 1)
	assert.Equal(t, diagnostics.SeverityError, stale.Diagnostics[0].Severity)
	require.Len(t, diags.Errors(), 1)
	assert.Equal(t, "Ghost", diags.Errors()[0].Subject)
	assert.True(t, diags.Failed())
}

func TestContainmentRule_IsIdempotent(t *testing.T) {
	g := orderFixture(t)
	diags := diagnostics.NewCollector()
	rule := ContainmentRule{}

	first := rule.Apply(g, diags)
	count := 0
	for _, n := range g.Resources() {
		count += len(n.Relationships)
	}
	second := rule.Apply(g, diags)
	recount := 0
	for _, n := range g.Resources() {
		recount += len(n.Relationships)
	}

	assert.Positive(t, first.Linked)
	assert.Zero(t, second.Linked)
	assert.Equal(t, count, recount)
}

type funcRule struct {
	name string
	fn   func()
}

func (r funcRule) Name() string { return r.name }

func (r funcRule) Apply(*Graph, *diagnostics.Collector) Stats {
	r.fn()
	return Stats{}
}

func TestEngine_Cancellation(t *testing.T) {
	t.Run("checked before the first rule", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		g := orderFixture(t)

		err := NewEngine(nil, DefaultOptions()).Run(ctx, g, diagnostics.NewCollector())

		assert.ErrorIs(t, err, context.Canceled)
		for _, n := range g.Resources() {
			assert.Empty(t, n.Relationships)
		}
	})

	t.Run("checked between rules", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var ran []string
		engine, err := NewEngineWithRules(nil,
			funcRule{name: "one", fn: func() { ran = append(ran, "one"); cancel() }},
			funcRule{name: "two", fn: func() { ran = append(ran, "two") }},
		)
		require.NoError(t, err)

		err = engine.Run(ctx, orderFixture(t), diagnostics.NewCollector())

		require.Error(t, err)
		assert.Contains(t, err.Error(), `"two"`)
		assert.Equal(t, []string{"one"}, ran)
	})
}

func TestEngine_Preconditions(t *testing.T) {
	_, err := NewGraph(nil, nil)
	assert.Error(t, err)

	_, err = NewEngineWithRules(zap.NewNop())
	assert.Error(t, err)

	engine := NewEngine(zap.NewNop(), DefaultOptions())
	assert.Error(t, engine.Run(context.Background(), nil, diagnostics.NewCollector()))
	assert.Equal(t, []string{
		"schema-property-schema",
		"transform-schema-port",
		"orchestration-schema-transform",
		"application-application",
		"distribution-list-send-port",
		"parent-child",
	}, engine.RuleNames())
}
