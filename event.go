package hub

import (
	"sync/atomic"
	"time"
)

// Event represents one occurrence dispatched on a signal.
// Events are built by the caller with NewEvent immediately before Publish;
// the Hub does not keep them after the dispatch that received them.
type Event struct {
	// Timestamp records when the event was created.
	Timestamp time.Time

	signal     Signal
	cancelable bool

	// fields contains the event's data keyed by Key.Name().
	fields map[string]Field

	dispatching atomic.Bool
	passive     atomic.Bool
	canceled    atomic.Bool
}

// EventOption configures an Event at construction time.
type EventOption func(*Event)

// Cancelable marks the event as cancelable, allowing listeners to call
// PreventDefault.
func Cancelable() EventOption {
	return func(e *Event) {
		e.cancelable = true
	}
}

// WithFields attaches typed fields to the event.
// A later field with the same key name replaces an earlier one.
func WithFields(fields ...Field) EventOption {
	return func(e *Event) {
		for _, field := range fields {
			if field == nil || field.Key() == nil {
				continue
			}
			e.fields[field.Key().Name()] = field
		}
	}
}

// NewEvent creates an Event for the given signal.
func NewEvent(signal Signal, opts ...EventOption) *Event {
	e := &Event{
		Timestamp: time.Now(),
		signal:    signal,
		fields:    make(map[string]Field),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Type returns the signal the event is dispatched on.
func (e *Event) Type() Signal { return e.signal }

// Cancelable reports whether PreventDefault can have an effect.
func (e *Event) Cancelable() bool { return e.cancelable }

// Get retrieves a field by key, returning nil if not found.
func (e *Event) Get(key Key) Field {
	return e.fields[key.Name()]
}

// Fields returns all fields as a slice.
// Returns a copy; modifications don't affect the event.
func (e *Event) Fields() []Field {
	result := make([]Field, 0, len(e.fields))
	for _, field := range e.fields {
		result = append(result, field)
	}
	return result
}

// PreventDefault requests cancellation of the event.
// The request is ignored outside of a dispatch of this event, when the event
// is not cancelable, or when the listener currently running is passive.
func (e *Event) PreventDefault() {
	if !e.cancelable || !e.dispatching.Load() || e.passive.Load() {
		return
	}
	e.canceled.Store(true)
}

// DefaultPrevented reports whether a cancellation request took effect.
func (e *Event) DefaultPrevented() bool { return e.canceled.Load() }

// Dispatching reports whether the event is currently being published.
func (e *Event) Dispatching() bool { return e.dispatching.Load() }

// detach returns a copy of the event that is never dispatching, handed to
// async listener bodies so their cancellation requests are no-ops.
func (e *Event) detach() *Event {
	d := &Event{
		Timestamp:  e.Timestamp,
		signal:     e.signal,
		cancelable: e.cancelable,
		fields:     make(map[string]Field, len(e.fields)),
	}
	for k, f := range e.fields {
		d.fields[k] = f
	}
	d.canceled.Store(e.canceled.Load())
	return d
}
