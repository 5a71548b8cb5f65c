// Package messaging models the target integration topology: channels carry
// messages between intermediaries and endpoints. Node is a closed sum type;
// only the three variants declared here implement it.
package messaging

// Kind tags a Node variant.
type Kind string

const (
	KindChannel      Kind = "Channel"
	KindIntermediary Kind = "Intermediary"
	KindEndpoint     Kind = "Endpoint"
)

// ChannelType is the messaging pattern a channel implements.
type ChannelType string

const (
	PointToPoint     ChannelType = "PointToPoint"
	PublishSubscribe ChannelType = "PublishSubscribe"
	Topic            ChannelType = "Topic"
	DeadLetter       ChannelType = "DeadLetter"
)

// IntermediaryType is the integration pattern an intermediary implements.
type IntermediaryType string

const (
	MessageRouter      IntermediaryType = "MessageRouter"
	ContentBasedRouter IntermediaryType = "ContentBasedRouter"
	MessageProcessor   IntermediaryType = "MessageProcessor"
	ProcessManager     IntermediaryType = "ProcessManager"
	MessageTranslator  IntermediaryType = "MessageTranslator"
	MessageEnricher    IntermediaryType = "MessageEnricher"
	MessageFilter      IntermediaryType = "MessageFilter"
)

// EndpointType is the kind of connection an endpoint makes.
type EndpointType string

const (
	Adapter EndpointType = "Adapter"
	Gateway EndpointType = "Gateway"
)

// ExchangePattern is the message exchange pattern of an endpoint.
type ExchangePattern string

const (
	OneWay       ExchangePattern = "OneWay"
	RequestReply ExchangePattern = "RequestReply"
)

// MaxRating is the top of the 0..5 conversion rating scale.
const MaxRating = 5

// Properties are the recognized configuration keys of a messaging object.
type Properties struct {
	// RouteTraceable marks a channel as part of a reconstructable flow.
	RouteTraceable   bool   `json:"routeTraceable,omitempty" yaml:"route_traceable"`
	ScenarioName     string `json:"scenarioName,omitempty" yaml:"scenario_name"`
	ScenarioStepName string `json:"scenarioStepName,omitempty" yaml:"scenario_step_name"`
	Description      string `json:"description,omitempty" yaml:"description"`
}

// TemplateResource is a target resource to render for an object, selected
// by the conversion rule layer.
type TemplateResource struct {
	ResourceType string `json:"resourceType"`
	TemplateKey  string `json:"templateKey"`
	Name         string `json:"name,omitempty"`
}

// Common holds the fields shared by every messaging object.
type Common struct {
	Key        string             `json:"key"`
	Name       string             `json:"name"`
	Properties Properties         `json:"properties"`
	Rating     int                `json:"rating"`
	Rated      bool               `json:"rated"`
	Resources  []TemplateResource `json:"resources,omitempty"`
}

// Base exposes the shared fields of any variant.
func (c *Common) Base() *Common { return c }

// Rate records a conversion rating, clamped to 0..MaxRating.
func (c *Common) Rate(r int) {
	switch {
	case r < 0:
		r = 0
	case r > MaxRating:
		r = MaxRating
	}
	c.Rating = r
	c.Rated = true
}

// DisplayName returns the name, or the key when the object is unnamed.
func (c *Common) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Key
}

// Node is a Channel, Intermediary or Endpoint.
type Node interface {
	Kind() Kind
	Base() *Common
	messagingNode()
}

// Channel is addressed by key from the output references of other nodes.
type Channel struct {
	Common
	Type ChannelType `json:"type"`
}

func (*Channel) Kind() Kind { return KindChannel }
func (*Channel) messagingNode() {}

// Intermediary consumes from any of its input channels and may fan out to
// several output channels.
type Intermediary struct {
	Common
	Type              IntermediaryType `json:"type"`
	InputChannelKeys  []string         `json:"inputChannelKeys,omitempty"`
	OutputChannelKeys []string         `json:"outputChannelKeys,omitempty"`
	Activator         bool             `json:"activator"`
}

func (*Intermediary) Kind() Kind { return KindIntermediary }
func (*Intermediary) messagingNode() {}

// SubscribesTo reports whether the intermediary reads from the channel.
func (i *Intermediary) SubscribesTo(channelKey string) bool {
	for _, k := range i.InputChannelKeys {
		if k == channelKey {
			return true
		}
	}
	return false
}

// Endpoint connects the topology to an external system.
type Endpoint struct {
	Common
	Type             EndpointType    `json:"type"`
	InputChannelKey  string          `json:"inputChannelKey,omitempty"`
	OutputChannelKey string          `json:"outputChannelKey,omitempty"`
	Activator        bool            `json:"activator"`
	Pattern          ExchangePattern `json:"exchangePattern"`
}

func (*Endpoint) Kind() Kind { return KindEndpoint }
func (*Endpoint) messagingNode() {}

// Message is a rated message definition. It is not a route node.
type Message struct {
	Common
	MessageType string `json:"messageType"`
}

// Application is one migrated application in the target model.
type Application struct {
	Key            string             `json:"key"`
	Name           string             `json:"name"`
	Channels       []*Channel         `json:"channels,omitempty"`
	Intermediaries []*Intermediary    `json:"intermediaries,omitempty"`
	Endpoints      []*Endpoint        `json:"endpoints,omitempty"`
	Messages       []*Message         `json:"messages,omitempty"`
	Resources      []TemplateResource `json:"resources,omitempty"`
}

// Nodes returns every route node in declaration order: channels, then
// intermediaries, then endpoints.
func (a *Application) Nodes() []Node {
	nodes := make([]Node, 0, len(a.Channels)+len(a.Intermediaries)+len(a.Endpoints))
	for _, c := range a.Channels {
		nodes = append(nodes, c)
	}
	for _, i := range a.Intermediaries {
		nodes = append(nodes, i)
	}
	for _, e := range a.Endpoints {
		nodes = append(nodes, e)
	}
	return nodes
}

// Bus is the target messaging model of a whole migration.
type Bus struct {
	Key          string         `json:"key"`
	Name         string         `json:"name"`
	Applications []*Application `json:"applications"`
}
