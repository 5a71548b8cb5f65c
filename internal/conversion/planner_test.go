package conversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/aimbiztalk-sub006/internal/diagnostics"
	"github.com/Azure/aimbiztalk-sub006/internal/messaging"
)

func traceable(key string) *messaging.Channel {
	return &messaging.Channel{Common: messaging.Common{Key: key, Properties: messaging.Properties{RouteTraceable: true}}}
}

func res(key string) []messaging.TemplateResource {
	return []messaging.TemplateResource{{ResourceType: "logicapp", TemplateKey: key}}
}

func TestPlanner_Plan(t *testing.T) {
	rcv := &messaging.Endpoint{
		Common:           messaging.Common{Key: "rcv", Properties: messaging.Properties{ScenarioName: "Intake"}, Resources: res("rcv-adapter")},
		OutputChannelKey: "in",
		Activator:        true,
	}
	router := &messaging.Intermediary{
		Common:            messaging.Common{Key: "router", Resources: res("router")},
		InputChannelKeys:  []string{"in"},
		OutputChannelKeys: []string{"out"},
	}
	pm := &messaging.Intermediary{
		Common:            messaging.Common{Key: "pm", Resources: res("workflow")},
		Type:              messaging.ProcessManager,
		Activator:         true,
		OutputChannelKeys: []string{"in"},
	}
	sub := &messaging.Intermediary{
		Common:            messaging.Common{Key: "sub", Resources: res("subscriber")},
		Type:              messaging.MessageFilter,
		Activator:         true,
		OutputChannelKeys: []string{"out"},
	}
	snd := &messaging.Endpoint{Common: messaging.Common{Key: "snd", Resources: res("snd-adapter")}, InputChannelKey: "out"}
	bus := &messaging.Bus{Applications: []*messaging.Application{{
		Name:           "Orders",
		Channels:       []*messaging.Channel{traceable("in"), traceable("out")},
		Intermediaries: []*messaging.Intermediary{router, pm, sub},
		Endpoints:      []*messaging.Endpoint{rcv, snd},
		Resources:      res("app-rg"),
	}}}
	diags := diagnostics.NewCollector()

	plan := NewPlanner(nil, nil).Plan(bus, diags)

	var got []string
	for _, it := range plan.Items {
		got = append(got, string(it.Route)+":"+it.TemplateKey)
	}
	assert.Equal(t, []string{
		"receive:rcv-adapter",
		"receive:router",
		"send:snd-adapter",
		"process-manager:workflow",
		"send:subscriber",
		"application:app-rg",
	}, got, "router and snd are reached by several routes but planned once")
	assert.Empty(t, diags.All())
	require.Len(t, plan.ForApplication("Orders"), 6)
	assert.Empty(t, plan.ForApplication("Billing"))
}

func TestPlanner_NilBus(t *testing.T) {
	plan := NewPlanner(nil, nil).Plan(nil, diagnostics.NewCollector())
	assert.Empty(t, plan.Items)
}

func TestPlanner_EndpointScenarioPlansTerminalEndpoint(t *testing.T) {
	e1 := &messaging.Endpoint{
		Common:           messaging.Common{Key: "E1", Properties: messaging.Properties{ScenarioName: "Intake"}, Resources: res("rcv")},
		OutputChannelKey: "C1",
		Activator:        true,
	}
	i1 := &messaging.Intermediary{
		Common:            messaging.Common{Key: "I1", Resources: res("router")},
		InputChannelKeys:  []string{"C1"},
		OutputChannelKeys: []string{"C2", "C3"},
	}
	e2 := &messaging.Endpoint{Common: messaging.Common{Key: "E2", Resources: res("snd")}, InputChannelKey: "C2"}
	bus := &messaging.Bus{Applications: []*messaging.Application{{
		Name:           "Orders",
		Channels:       []*messaging.Channel{traceable("C1"), traceable("C2")},
		Intermediaries: []*messaging.Intermediary{i1},
		Endpoints:      []*messaging.Endpoint{e1, e2},
	}}}
	diags := diagnostics.NewCollector()

	plan := NewPlanner(nil, nil).Plan(bus, diags)

	var got []string
	for _, it := range plan.Items {
		got = append(got, it.NodeKey+":"+it.TemplateKey)
		assert.Equal(t, "Intake", it.Scenario)
	}
	assert.Equal(t, []string{"E1:rcv", "I1:router", "E2:snd"}, got)
	assert.Equal(t, SendRoute, plan.Items[2].Route)

	// The receive and send walks both pass the missing C3.
	require.Len(t, diags.Errors(), 1)
	assert.Contains(t, diags.Errors()[0].Text, `"C3"`)
}
