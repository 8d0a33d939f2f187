package modelstream

// EventType identifies the kind of a canonical stream event.
type EventType string

func (e EventType) String() string {
	return string(e)
}

const (
	EventTypePartStart EventType = "part_start"
	EventTypePartDelta EventType = "part_delta"
	EventTypePartEnd   EventType = "part_end"
)

// Event is one canonical streaming event. Every vendor wire format is
// reduced to a sequence of these. Index addresses the content part the
// event applies to; it is zero-based and stable for the lifetime of one
// response.
type Event struct {
	Type  EventType `json:"type"`
	Index int       `json:"index"`

	// Part is set for part_start events and carries the part's kind and
	// any seed content (possibly empty).
	Part Part `json:"part,omitempty"`

	// Delta is set for part_delta events. Its shape matches the kind of
	// the part at Index.
	Delta Delta `json:"delta,omitempty"`
}

// NewPartStart returns a part_start event for a new part at the given index.
func NewPartStart(index int, part Part) *Event {
	return &Event{Type: EventTypePartStart, Index: index, Part: part}
}

// NewPartDelta returns a part_delta event carrying incremental content for
// the part at the given index.
func NewPartDelta(index int, delta Delta) *Event {
	return &Event{Type: EventTypePartDelta, Index: index, Delta: delta}
}

// NewPartEnd returns a part_end event marking the part at the given index
// complete. No further deltas for that index are valid.
func NewPartEnd(index int) *Event {
	return &Event{Type: EventTypePartEnd, Index: index}
}
