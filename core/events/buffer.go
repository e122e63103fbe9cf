package events

// Buffer collects events in emission order until they are flushed. The state
// processor routes engine events through a buffer so failed transactions never
// leak notifications.
type Buffer struct {
	pending []Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if evt == nil {
		return
	}
	b.pending = append(b.pending, evt)
}

// Pending returns the buffered events.
func (b *Buffer) Pending() []Event {
	out := make([]Event, len(b.pending))
	copy(out, b.pending)
	return out
}

// Reset drops every buffered event.
func (b *Buffer) Reset() {
	b.pending = b.pending[:0]
}

// Flush forwards the buffered events to dst and empties the buffer.
func (b *Buffer) Flush(dst Emitter) {
	if dst != nil {
		for _, evt := range b.pending {
			dst.Emit(evt)
		}
	}
	b.Reset()
}
