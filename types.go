// Package hub provides a synchronous, typed event-dispatch primitive for Go.
//
// A Hub keeps an ordered list of listeners per signal. Subscribe registers
// interest, Unsubscribe removes it, and Publish invokes every listener that was
// registered when dispatch began and reports whether the event was canceled.
//
// Listener identity is the (signal, handler, capture) triple: subscribing the
// same triple twice is a no-op. Capturing listeners run before non-capturing
// ones; within each group listeners run in registration order.
//
// Quick example:
//
//	h := hub.New()
//	sig := hub.Signal("order.created")
//	orderID := hub.NewStringKey("order_id")
//
//	h.Subscribe(sig, hub.HandlerFunc(func(ctx context.Context, e *hub.Event) error {
//	    id, _ := orderID.From(e)
//	    if id == "" {
//	        e.PreventDefault()
//	    }
//	    return nil
//	}), hub.ListenerOptions{Once: true})
//
//	ok, err := h.Publish(ctx, hub.NewEvent(sig, hub.Cancelable(), hub.WithFields(orderID.Field("ORDER-123"))))
package hub

// Signal represents an event type identifier used for routing events to listeners.
type Signal string

// Variant is the Go type name of a field's value, e.g. "string" or "shop.Order".
type Variant string

const (
	VariantString Variant = "string"
	VariantInt    Variant = "int"
	VariantBool   Variant = "bool"
)

// Key represents a typed semantic identifier for a field.
// Each Key implementation is bound to a specific Variant.
type Key interface {
	// Name returns the semantic identifier for this key.
	Name() string

	// Variant returns the type constraint for this key.
	Variant() Variant
}

// Field represents a typed value with semantic meaning in an Event.
// Use type assertions or GenericKey.From to access typed values.
type Field interface {
	// Variant returns the discriminator for this field's concrete type.
	Variant() Variant

	// Key returns the semantic identifier for this field.
	Key() Key

	// Value returns the underlying value as any.
	Value() any
}

// GenericField is a generic implementation of Field for typed values.
type GenericField[T any] struct {
	key     Key
	value   T
	variant Variant
}

// Variant returns the discriminator for this field's type.
func (f GenericField[T]) Variant() Variant { return f.variant }

// Key returns the semantic identifier for this field.
func (f GenericField[T]) Key() Key { return f.key }

// Value returns the underlying value as any.
func (f GenericField[T]) Value() any { return f.value }

// Get returns the typed value.
func (f GenericField[T]) Get() T { return f.value }

// Stats provides a point-in-time view of a Hub's registry.
type Stats struct {
	// ListenerCounts maps each signal to the number of registered listeners.
	ListenerCounts map[Signal]int

	// Observers is the number of active observers.
	Observers int

	// PendingAsync is the number of async listener bodies still running.
	PendingAsync int
}
