package events

import "stakeledger/core/types"

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. journals, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// ToTypes converts an event into its generic attribute representation. Events
// without an attribute view are reported with their type only.
func ToTypes(evt Event) *types.Event {
	if evt == nil {
		return nil
	}
	if provider, ok := evt.(interface{ Event() *types.Event }); ok {
		if payload := provider.Event(); payload != nil {
			return payload
		}
	}
	return &types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
}

// Raw wraps an already converted event so it can travel through an Emitter.
type Raw types.Event

// EventType satisfies the Event interface.
func (r Raw) EventType() string { return r.Type }

// Event returns a copy of the wrapped payload.
func (r Raw) Event() *types.Event {
	attrs := make(map[string]string, len(r.Attributes))
	for k, v := range r.Attributes {
		attrs[k] = v
	}
	return &types.Event{Type: r.Type, Attributes: attrs}
}
