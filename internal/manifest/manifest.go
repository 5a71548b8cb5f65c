// Package manifest loads the parsed-entity catalog and the target messaging
// model that an analyze run works on.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/Azure/aimbiztalk-sub006/internal/messaging"
	"github.com/Azure/aimbiztalk-sub006/internal/model"
	"github.com/Azure/aimbiztalk-sub006/internal/resourcegraph"
)

// ErrUnsupportedFormat is returned for a manifest whose extension has no decoder.
var ErrUnsupportedFormat = errors.New("unsupported manifest format")

// Manifest is the decoded form shared by the XML and YAML encodings.
type Manifest struct {
	Title        string        `yaml:"title"`
	Applications []Application `yaml:"applications"`
	Target       Target        `yaml:"target"`
}

// Application lists the parsed artifacts of one legacy application.
type Application struct {
	Name              string             `yaml:"name"`
	System            bool               `yaml:"system"`
	References        []string           `yaml:"references"`
	Schemas           []Schema           `yaml:"schemas"`
	Transforms        []Transform        `yaml:"transforms"`
	Orchestrations    []Orchestration    `yaml:"orchestrations"`
	ReceivePorts      []Port             `yaml:"receive_ports"`
	SendPorts         []Port             `yaml:"send_ports"`
	DistributionLists []DistributionList `yaml:"distribution_lists"`
}

// Schema is a document or property schema of an application.
type Schema struct {
	FullName           string   `yaml:"full_name"`
	Namespace          string   `yaml:"namespace"`
	Kind               string   `yaml:"kind"`
	MessageTypes       []string `yaml:"message_types"`
	PromotedProperties []string `yaml:"promoted_properties"`
	Fields             []string `yaml:"fields"`
}

// Transform maps messages between source and target schemas.
type Transform struct {
	FullName      string   `yaml:"full_name"`
	SourceSchemas []string `yaml:"source_schemas"`
	TargetSchemas []string `yaml:"target_schemas"`
}

// Orchestration is a workflow with the message types it handles and the transforms it calls.
type Orchestration struct {
	FullName       string   `yaml:"full_name"`
	MessageTypes   []string `yaml:"message_types"`
	TransformCalls []string `yaml:"transform_calls"`
}

// Port is shared by receive and send ports.
type Port struct {
	Name               string   `yaml:"name"`
	InboundTransforms  []string `yaml:"inbound_transforms"`
	OutboundTransforms []string `yaml:"outbound_transforms"`
}

// DistributionList is a named group of send ports.
type DistributionList struct {
	Name      string   `yaml:"name"`
	SendPorts []string `yaml:"send_ports"`
}

// Target is the messaging model produced by the earlier conversion stages.
type Target struct {
	Key          string              `yaml:"key"`
	Name         string              `yaml:"name"`
	Applications []TargetApplication `yaml:"applications"`
}

// TargetApplication is the messaging model of one migrated application.
type TargetApplication struct {
	Key            string         `yaml:"key"`
	Name           string         `yaml:"name"`
	Resources      []Resource     `yaml:"resources"`
	Channels       []Channel      `yaml:"channels"`
	Intermediaries []Intermediary `yaml:"intermediaries"`
	Endpoints      []Endpoint     `yaml:"endpoints"`
	Messages       []Message      `yaml:"messages"`
}

// Resource is a template resource attached to an object or application.
type Resource struct {
	Type     string `yaml:"type"`
	Template string `yaml:"template"`
	Name     string `yaml:"name"`
}

// Object carries the fields every messaging object has.
type Object struct {
	Key        string               `yaml:"key"`
	Name       string               `yaml:"name"`
	Properties messaging.Properties `yaml:"properties"`
	// Rating is nil when the object has not been rated.
	Rating    *int       `yaml:"rating"`
	Resources []Resource `yaml:"resources"`
}

// Channel is a target channel.
type Channel struct {
	Object `yaml:",inline"`
	Type   string `yaml:"type"`
}

// Intermediary is a target intermediary.
type Intermediary struct {
	Object    `yaml:",inline"`
	Type      string   `yaml:"type"`
	Inputs    []string `yaml:"inputs"`
	Outputs   []string `yaml:"outputs"`
	Activator bool     `yaml:"activator"`
}

// Endpoint is a target endpoint.
type Endpoint struct {
	Object    `yaml:",inline"`
	Type      string `yaml:"type"`
	Input     string `yaml:"input"`
	Output    string `yaml:"output"`
	Activator bool   `yaml:"activator"`
	Pattern   string `yaml:"pattern"`
}

// Message is a rated message definition of the target model.
type Message struct {
	Object      `yaml:",inline"`
	MessageType string `yaml:"message_type"`
}

// Loaded is a manifest converted into the analyze-stage inputs.
type Loaded struct {
	Title   string
	Source  string
	Catalog *model.Catalog
	Roots   []*resourcegraph.ResourceNode
	Bus     *messaging.Bus
}

// Load reads a manifest file, choosing the decoder by extension, and
// converts it.
func Load(path string) (*Loaded, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand manifest path %s: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m *Manifest
	switch ext := strings.ToLower(filepath.Ext(expanded)); ext {
	case ".xml":
		m, err = DecodeXML(data)
	case ".yaml", ".yml":
		m, err = DecodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", expanded, err)
	}

	loaded, err := Convert(m)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", expanded, err)
	}
	loaded.Source = expanded
	return loaded, nil
}

// Convert fills a catalog from the parsed applications, builds their
// resource trees and maps the target section onto a messaging bus.
func Convert(m *Manifest) (*Loaded, error) {
	if m == nil {
		return nil, errors.New("manifest is nil")
	}
	cat := model.NewCatalog()
	containers := make([]resourcegraph.Container, 0, len(m.Applications))

	for i, a := range m.Applications {
		if a.Name == "" {
			return nil, fmt.Errorf("application %d has no name", i)
		}
		c := resourcegraph.Container{
			Application: cat.AddApplication(&model.Application{
				Name:       a.Name,
				IsSystem:   a.System,
				References: a.References,
			}).Index,
		}
		for _, s := range a.Schemas {
			kind, err := schemaKind(s.Kind)
			if err != nil {
				return nil, fmt.Errorf("schema %q: %w", s.FullName, err)
			}
			c.Schemas = append(c.Schemas, cat.AddSchema(&model.Schema{
				FullName:           s.FullName,
				TargetNamespace:    s.Namespace,
				Kind:               kind,
				MessageTypes:       s.MessageTypes,
				PromotedProperties: s.PromotedProperties,
				Fields:             s.Fields,
			}).Index)
		}
		for _, t := range a.Transforms {
			c.Transforms = append(c.Transforms, cat.AddTransform(&model.Transform{
				FullName:      t.FullName,
				SourceSchemas: t.SourceSchemas,
				TargetSchemas: t.TargetSchemas,
			}).Index)
		}
		for _, o := range a.Orchestrations {
			c.Orchestrations = append(c.Orchestrations, cat.AddOrchestration(&model.Orchestration{
				FullName:       o.FullName,
				MessageTypes:   o.MessageTypes,
				TransformCalls: o.TransformCalls,
			}).Index)
		}
		for _, p := range a.ReceivePorts {
			c.ReceivePorts = append(c.ReceivePorts, cat.AddReceivePort(&model.ReceivePort{
				Name:               p.Name,
				InboundTransforms:  p.InboundTransforms,
				OutboundTransforms: p.OutboundTransforms,
			}).Index)
		}
		for _, p := range a.SendPorts {
			c.SendPorts = append(c.SendPorts, cat.AddSendPort(&model.SendPort{
				Name:               p.Name,
				OutboundTransforms: p.OutboundTransforms,
				InboundTransforms:  p.InboundTransforms,
			}).Index)
		}
		for _, d := range a.DistributionLists {
			c.DistributionLists = append(c.DistributionLists, cat.AddDistributionList(&model.DistributionList{
				Name:      d.Name,
				SendPorts: d.SendPorts,
			}).Index)
		}
		containers = append(containers, c)
	}

	bus, err := convertTarget(m.Target)
	if err != nil {
		return nil, err
	}

	return &Loaded{
		Title:   m.Title,
		Catalog: cat,
		Roots:   resourcegraph.Build(cat, containers),
		Bus:     bus,
	}, nil
}

func schemaKind(s string) (model.SchemaKind, error) {
	switch strings.ToLower(s) {
	case "", string(model.SchemaDocument):
		return model.SchemaDocument, nil
	case string(model.SchemaProperty):
		return model.SchemaProperty, nil
	default:
		return "", fmt.Errorf("unknown schema kind %q", s)
	}
}

func convertTarget(t Target) (*messaging.Bus, error) {
	bus := &messaging.Bus{Key: t.Key, Name: t.Name}
	for i, ta := range t.Applications {
		if ta.Key == "" {
			return nil, fmt.Errorf("target application %d has no key", i)
		}
		app := &messaging.Application{Key: ta.Key, Name: ta.Name, Resources: resources(ta.Resources)}
		seen := make(map[string]bool)
		claim := func(key string) error {
			if key == "" {
				return fmt.Errorf("target application %q has a messaging object without a key", ta.Key)
			}
			if seen[key] {
				return fmt.Errorf("target application %q declares key %q twice", ta.Key, key)
			}
			seen[key] = true
			return nil
		}

		for _, c := range ta.Channels {
			if err := claim(c.Key); err != nil {
				return nil, err
			}
			app.Channels = append(app.Channels, &messaging.Channel{Common: common(c.Object), Type: messaging.ChannelType(c.Type)})
		}
		for _, im := range ta.Intermediaries {
			if err := claim(im.Key); err != nil {
				return nil, err
			}
			app.Intermediaries = append(app.Intermediaries, &messaging.Intermediary{
				Common:            common(im.Object),
				Type:              messaging.IntermediaryType(im.Type),
				InputChannelKeys:  im.Inputs,
				OutputChannelKeys: im.Outputs,
				Activator:         im.Activator,
			})
		}
		for _, e := range ta.Endpoints {
			if err := claim(e.Key); err != nil {
				return nil, err
			}
			pattern := messaging.ExchangePattern(e.Pattern)
			if pattern == "" {
				pattern = messaging.OneWay
			}
			app.Endpoints = append(app.Endpoints, &messaging.Endpoint{
				Common:           common(e.Object),
				Type:             messaging.EndpointType(e.Type),
				InputChannelKey:  e.Input,
				OutputChannelKey: e.Output,
				Activator:        e.Activator,
				Pattern:          pattern,
			})
		}
		for _, msg := range ta.Messages {
			app.Messages = append(app.Messages, &messaging.Message{Common: common(msg.Object), MessageType: msg.MessageType})
		}
		bus.Applications = append(bus.Applications, app)
	}
	return bus, nil
}

func common(o Object) messaging.Common {
	c := messaging.Common{
		Key:        o.Key,
		Name:       o.Name,
		Properties: o.Properties,
		Resources:  resources(o.Resources),
	}
	if o.Rating != nil {
		c.Rate(*o.Rating)
	}
	return c
}

func resources(in []Resource) []messaging.TemplateResource {
	if len(in) == 0 {
		return nil
	}
	out := make([]messaging.TemplateResource, len(in))
	for i, r := range in {
		out[i] = messaging.TemplateResource{ResourceType: r.Type, TemplateKey: r.Template, Name: r.Name}
	}
	return out
}
