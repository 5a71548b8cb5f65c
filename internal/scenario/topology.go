// Package scenario reconstructs end-to-end message flows from the target
// messaging model. The Walker produces flat routes for conversion planning;
// the Decoder produces one stage tree per scenario for reporting.
package scenario

import "github.com/Azure/aimbiztalk-sub006/internal/messaging"

// Topology indexes one application's route nodes for key lookups.
type Topology struct {
	channels       map[string]*messaging.Channel
	intermediaries []*messaging.Intermediary
	endpoints      []*messaging.Endpoint
}

// NewTopology indexes the given node sets. When two channels share a key
// the first declared one wins.
func NewTopology(channels []*messaging.Channel, intermediaries []*messaging.Intermediary, endpoints []*messaging.Endpoint) *Topology {
	t := &Topology{
		channels:       make(map[string]*messaging.Channel, len(channels)),
		intermediaries: intermediaries,
		endpoints:      endpoints,
	}
	for _, c := range channels {
		if _, exists := t.channels[c.Key]; !exists {
			t.channels[c.Key] = c
		}
	}
	return t
}

// TopologyOf indexes an application.
func TopologyOf(app *messaging.Application) *Topology {
	return NewTopology(app.Channels, app.Intermediaries, app.Endpoints)
}

// Channel looks up a channel by key.
func (t *Topology) Channel(key string) (*messaging.Channel, bool) {
	c, ok := t.channels[key]
	return c, ok
}

// Subscriber returns the first intermediary, in declaration order, whose
// input channels include the key.
func (t *Topology) Subscriber(channelKey string) (*messaging.Intermediary, bool) {
	for _, i := range t.intermediaries {
		if i.SubscribesTo(channelKey) {
			return i, true
		}
	}
	return nil, false
}

// EndpointOn returns the first endpoint whose input channel is the key.
func (t *Topology) EndpointOn(channelKey string) (*messaging.Endpoint, bool) {
	for _, e := range t.endpoints {
		if e.InputChannelKey != "" && e.InputChannelKey == channelKey {
			return e, true
		}
	}
	return nil, false
}
