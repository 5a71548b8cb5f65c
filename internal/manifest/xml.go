package manifest

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/Azure/aimbiztalk-sub006/internal/messaging"
)

// DecodeXML decodes an XML manifest rooted at a <manifest> element.
// Collections are repeated child elements; scalar fields are attributes.
func DecodeXML(data []byte) (*Manifest, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("manifest is empty")
	}
	if root.Tag != "manifest" {
		return nil, fmt.Errorf("unexpected root element <%s>, want <manifest>", root.Tag)
	}

	d := &xmlDecoder{}
	m := &Manifest{Title: root.SelectAttrValue("title", "")}
	for _, el := range root.SelectElements("application") {
		m.Applications = append(m.Applications, d.application(el))
	}
	if t := root.SelectElement("target"); t != nil {
		m.Target = d.target(t)
	}
	if d.err != nil {
		return nil, d.err
	}
	return m, nil
}

// xmlDecoder keeps the first attribute conversion error.
type xmlDecoder struct {
	err error
}

func (d *xmlDecoder) boolAttr(el *etree.Element, attr string) bool {
	v := el.SelectAttrValue(attr, "")
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil && d.err == nil {
		d.err = fmt.Errorf("%s: attribute %q: %w", el.GetPath(), attr, err)
	}
	return b
}

func (d *xmlDecoder) rating(el *etree.Element) *int {
	v := el.SelectAttrValue("rating", "")
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		if d.err == nil {
			d.err = fmt.Errorf("%s: attribute \"rating\": %w", el.GetPath(), err)
		}
		return nil
	}
	return &n
}

func texts(el *etree.Element, tag string) []string {
	var out []string
	for _, c := range el.SelectElements(tag) {
		out = append(out, c.Text())
	}
	return out
}

func (d *xmlDecoder) application(el *etree.Element) Application {
	a := Application{
		Name:       el.SelectAttrValue("name", ""),
		System:     d.boolAttr(el, "system"),
		References: texts(el, "reference"),
	}
	for _, s := range el.SelectElements("schema") {
		a.Schemas = append(a.Schemas, Schema{
			FullName:           s.SelectAttrValue("fullName", ""),
			Namespace:          s.SelectAttrValue("namespace", ""),
			Kind:               s.SelectAttrValue("kind", ""),
			MessageTypes:       texts(s, "messageType"),
			PromotedProperties: texts(s, "promotedProperty"),
			Fields:             texts(s, "field"),
		})
	}
	for _, t := range el.SelectElements("transform") {
		a.Transforms = append(a.Transforms, Transform{
			FullName:      t.SelectAttrValue("fullName", ""),
			SourceSchemas: texts(t, "source"),
			TargetSchemas: texts(t, "target"),
		})
	}
	for _, o := range el.SelectElements("orchestration") {
		a.Orchestrations = append(a.Orchestrations, Orchestration{
			FullName:       o.SelectAttrValue("fullName", ""),
			MessageTypes:   texts(o, "messageType"),
			TransformCalls: texts(o, "transformCall"),
		})
	}
	for _, p := range el.SelectElements("receivePort") {
		a.ReceivePorts = append(a.ReceivePorts, port(p))
	}
	for _, p := range el.SelectElements("sendPort") {
		a.SendPorts = append(a.SendPorts, port(p))
	}
	for _, dl := range el.SelectElements("distributionList") {
		a.DistributionLists = append(a.DistributionLists, DistributionList{
			Name:      dl.SelectAttrValue("name", ""),
			SendPorts: texts(dl, "sendPort"),
		})
	}
	return a
}

func port(el *etree.Element) Port {
	return Port{
		Name:               el.SelectAttrValue("name", ""),
		InboundTransforms:  texts(el, "inbound"),
		OutboundTransforms: texts(el, "outbound"),
	}
}

func (d *xmlDecoder) target(el *etree.Element) Target {
	t := Target{Key: el.SelectAttrValue("key", ""), Name: el.SelectAttrValue("name", "")}
	for _, a := range el.SelectElements("application") {
		ta := TargetApplication{
			Key:       a.SelectAttrValue("key", ""),
			Name:      a.SelectAttrValue("name", ""),
			Resources: xmlResources(a),
		}
		for _, c := range a.SelectElements("channel") {
			ta.Channels = append(ta.Channels, Channel{Object: d.object(c), Type: c.SelectAttrValue("type", "")})
		}
		for _, i := range a.SelectElements("intermediary") {
			ta.Intermediaries = append(ta.Intermediaries, Intermediary{
				Object:    d.object(i),
				Type:      i.SelectAttrValue("type", ""),
				Inputs:    texts(i, "input"),
				Outputs:   texts(i, "output"),
				Activator: d.boolAttr(i, "activator"),
			})
		}
		for _, e := range a.SelectElements("endpoint") {
			ta.Endpoints = append(ta.Endpoints, Endpoint{
				Object:    d.object(e),
				Type:      e.SelectAttrValue("type", ""),
				Input:     e.SelectAttrValue("input", ""),
				Output:    e.SelectAttrValue("output", ""),
				Activator: d.boolAttr(e, "activator"),
				Pattern:   e.SelectAttrValue("pattern", ""),
			})
		}
		for _, msg := range a.SelectElements("message") {
			ta.Messages = append(ta.Messages, Message{Object: d.object(msg), MessageType: msg.SelectAttrValue("messageType", "")})
		}
		t.Applications = append(t.Applications, ta)
	}
	return t
}

func (d *xmlDecoder) object(el *etree.Element) Object {
	o := Object{
		Key:       el.SelectAttrValue("key", ""),
		Name:      el.SelectAttrValue("name", ""),
		Rating:    d.rating(el),
		Resources: xmlResources(el),
	}
	if p := el.SelectElement("properties"); p != nil {
		o.Properties = messaging.Properties{
			RouteTraceable:   d.boolAttr(p, "routeTraceable"),
			ScenarioName:     p.SelectAttrValue("scenarioName", ""),
			ScenarioStepName: p.SelectAttrValue("scenarioStepName", ""),
			Description:      p.SelectAttrValue("description", ""),
		}
	}
	return o
}

func xmlResources(el *etree.Element) []Resource {
	var out []Resource
	for _, r := range el.SelectElements("resource") {
		out = append(out, Resource{
			Type:     r.SelectAttrValue("type", ""),
			Template: r.SelectAttrValue("template", ""),
			Name:     r.SelectAttrValue("name", ""),
		})
	}
	return out
}
