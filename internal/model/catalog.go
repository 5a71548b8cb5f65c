// Package model is the parse-stage entity table. The analyze stage never
// owns these entities: resource nodes refer to them through a Ref handle and
// look them up on demand.
package model

// EntityKind identifies which table of the catalog a Ref points into.
type EntityKind int

const (
	EntityNone EntityKind = iota
	EntityApplication
	EntitySchema
	EntityTransform
	EntityOrchestration
	EntityReceivePort
	EntitySendPort
	EntityDistributionList
)

func (k EntityKind) String() string {
	switch k {
	case EntityApplication:
		return "application"
	case EntitySchema:
		return "schema"
	case EntityTransform:
		return "transform"
	case EntityOrchestration:
		return "orchestration"
	case EntityReceivePort:
		return "receive-port"
	case EntitySendPort:
		return "send-port"
	case EntityDistributionList:
		return "distribution-list"
	default:
		return "none"
	}
}

// Ref is a weak handle into a Catalog table. The zero value refers to
// nothing.
type Ref struct {
	Kind  EntityKind `json:"kind"`
	Index int        `json:"index"`
}

// IsZero reports whether the ref points nowhere.
func (r Ref) IsZero() bool {
	return r.Kind == EntityNone
}

// SchemaKind distinguishes document schemas from property schemas.
type SchemaKind string

const (
	SchemaDocument SchemaKind = "document"
	SchemaProperty SchemaKind = "property"
)

// Application is a deployed legacy application definition.
type Application struct {
	Name     string
	IsSystem bool
	// References are display names of other applications this one depends on.
	References []string
}

// Schema is a document or property schema.
type Schema struct {
	FullName        string
	TargetNamespace string
	Kind            SchemaKind
	// MessageTypes are the root element names of a document schema.
	MessageTypes []string
	// PromotedProperties are fully-qualified property names promoted by a
	// document schema.
	PromotedProperties []string
	// Fields are the property names declared by a property schema.
	Fields []string
}

// MessageTypeKey returns the fully-qualified message type of a root, in the
// "namespace#root" form.
func (s *Schema) MessageTypeKey(root string) string {
	if s.TargetNamespace == "" {
		return root
	}
	return s.TargetNamespace + "#" + root
}

// FieldKey returns the fully-qualified name of a property schema field.
func (s *Schema) FieldKey(field string) string {
	return s.FullName + "." + field
}

// Transform is a map between schemas.
type Transform struct {
	FullName      string
	SourceSchemas []string
	TargetSchemas []string
}

// Orchestration is a compiled service declaration.
type Orchestration struct {
	FullName string
	// MessageTypes are the fully-qualified message types declared by the
	// orchestration's message variables.
	MessageTypes []string
	// TransformCalls are the class names of maps invoked by transform shapes.
	TransformCalls []string
}

// ReceivePort declares the maps applied to inbound and, for two-way ports,
// outbound messages.
type ReceivePort struct {
	Name               string
	InboundTransforms  []string
	OutboundTransforms []string
}

// SendPort declares the maps applied to outbound and, for solicit-response
// ports, inbound messages.
type SendPort struct {
	Name               string
	OutboundTransforms []string
	InboundTransforms  []string
}

// DistributionList is a send port group.
type DistributionList struct {
	Name      string
	SendPorts []string
}

// Catalog owns every parsed entity of a run.
type Catalog struct {
	Applications      []*Application
	Schemas           []*Schema
	Transforms        []*Transform
	Orchestrations    []*Orchestration
	ReceivePorts      []*ReceivePort
	SendPorts         []*SendPort
	DistributionLists []*DistributionList
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// AddApplication stores an application and returns its handle.
func (c *Catalog) AddApplication(a *Application) Ref {
	c.Applications = append(c.Applications, a)
	return Ref{Kind: EntityApplication, Index: len(c.Applications) - 1}
}

// AddSchema stores a schema and returns its handle.
func (c *Catalog) AddSchema(s *Schema) Ref {
	c.Schemas = append(c.Schemas, s)
	return Ref{Kind: EntitySchema, Index: len(c.Schemas) - 1}
}

// AddTransform stores a transform and returns its handle.
func (c *Catalog) AddTransform(t *Transform) Ref {
	c.Transforms = append(c.Transforms, t)
	return Ref{Kind: EntityTransform, Index: len(c.Transforms) - 1}
}

// AddOrchestration stores an orchestration and returns its handle.
func (c *Catalog) AddOrchestration(o *Orchestration) Ref {
	c.Orchestrations = append(c.Orchestrations, o)
	return Ref{Kind: EntityOrchestration, Index: len(c.Orchestrations) - 1}
}

// AddReceivePort stores a receive port and returns its handle.
func (c *Catalog) AddReceivePort(p *ReceivePort) Ref {
	c.ReceivePorts = append(c.ReceivePorts, p)
	return Ref{Kind: EntityReceivePort, Index: len(c.ReceivePorts) - 1}
}

// AddSendPort stores a send port and returns its handle.
func (c *Catalog) AddSendPort(p *SendPort) Ref {
	c.SendPorts = append(c.SendPorts, p)
	return Ref{Kind: EntitySendPort, Index: len(c.SendPorts) - 1}
}

// AddDistributionList stores a distribution list and returns its handle.
func (c *Catalog) AddDistributionList(d *DistributionList) Ref {
	c.DistributionLists = append(c.DistributionLists, d)
	return Ref{Kind: EntityDistributionList, Index: len(c.DistributionLists) - 1}
}

// Application resolves a handle. ok is false for a nil catalog, a ref of the
// wrong kind, an out-of-range index or a nil slot.
func (c *Catalog) Application(r Ref) (*Application, bool) {
	if c == nil || r.Kind != EntityApplication {
		return nil, false
	}
	return lookup(c.Applications, r.Index)
}

// Schema resolves a schema handle.
func (c *Catalog) Schema(r Ref) (*Schema, bool) {
	if c == nil || r.Kind != EntitySchema {
		return nil, false
	}
	return lookup(c.Schemas, r.Index)
}

// Transform resolves a transform handle.
func (c *Catalog) Transform(r Ref) (*Transform, bool) {
	if c == nil || r.Kind != EntityTransform {
		return nil, false
	}
	return lookup(c.Transforms, r.Index)
}

// Orchestration resolves an orchestration handle.
func (c *Catalog) Orchestration(r Ref) (*Orchestration, bool) {
	if c == nil || r.Kind != EntityOrchestration {
		return nil, false
	}
	return lookup(c.Orchestrations, r.Index)
}

// ReceivePort resolves a receive port handle.
func (c *Catalog) ReceivePort(r Ref) (*ReceivePort, bool) {
	if c == nil || r.Kind != EntityReceivePort {
		return nil, false
	}
	return lookup(c.ReceivePorts, r.Index)
}

// SendPort resolves a send port handle.
func (c *Catalog) SendPort(r Ref) (*SendPort, bool) {
	if c == nil || r.Kind != EntitySendPort {
		return nil, false
	}
	return lookup(c.SendPorts, r.Index)
}

// DistributionList resolves a distribution list handle.
func (c *Catalog) DistributionList(r Ref) (*DistributionList, bool) {
	if c == nil || r.Kind != EntityDistributionList {
		return nil, false
	}
	return lookup(c.DistributionLists, r.Index)
}

func lookup[T any](items []*T, i int) (*T, bool) {
	if i < 0 || i >= len(items) || items[i] == nil {
		return nil, false
	}
	return items[i], true
}
