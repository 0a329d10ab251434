package hub

import (
	"context"
	"reflect"
	"slices"
)

// payloadKeyName is the field name under which a Topic carries its payload.
const payloadKeyName = "payload"

// TypedHandler is the handler-object shape of a Topic listener.
type TypedHandler[T any] interface {
	HandlePayload(ctx context.Context, e *Event, payload T) error
}

// TypedFunc is the plain-function shape of a Topic listener.
type TypedFunc[T any] func(ctx context.Context, e *Event, payload T) error

// HandlePayload calls f(ctx, e, payload).
func (f TypedFunc[T]) HandlePayload(ctx context.Context, e *Event, payload T) error {
	return f(ctx, e, payload)
}

// Topic binds a Signal to a payload type. It narrows the Hub's untyped API at
// compile time only: nothing stops a caller from publishing a raw Event on
// the same signal with a different payload, in which case typed listeners
// receive the zero value of T.
type Topic[T any] struct {
	hub    *Hub
	signal Signal
	key    GenericKey[T]
}

// NewTopic returns a Topic for signal on h.
func NewTopic[T any](h *Hub, signal Signal) *Topic[T] {
	return &Topic[T]{
		hub:    h,
		signal: signal,
		key:    NewKey[T](payloadKeyName),
	}
}

// Signal returns the topic's signal.
func (t *Topic[T]) Signal() Signal { return t.signal }

// Key returns the key the payload is stored under.
func (t *Topic[T]) Key() GenericKey[T] { return t.key }

// Subscribe registers a typed listener. Identity follows the typed handler,
// so subscribing the same TypedFunc twice is a no-op.
func (t *Topic[T]) Subscribe(handler TypedHandler[T], opts ...SubscribeOption) (*Listener, error) {
	adapter, err := t.adapt(handler)
	if adapter == nil || err != nil {
		return nil, err
	}
	return t.hub.Subscribe(t.signal, adapter, opts...)
}

// Unsubscribe removes a typed listener.
func (t *Topic[T]) Unsubscribe(handler TypedHandler[T], opts ...SubscribeOption) {
	adapter, err := t.adapt(handler)
	if adapter == nil || err != nil {
		return
	}
	t.hub.Unsubscribe(t.signal, adapter, opts...)
}

// Publish builds an event carrying payload and dispatches it.
func (t *Topic[T]) Publish(ctx context.Context, payload T, opts ...EventOption) (bool, error) {
	opts = slices.Concat(opts, []EventOption{WithFields(t.key.Field(payload))})
	return t.hub.Publish(ctx, NewEvent(t.signal, opts...))
}

// Payload extracts the topic's payload from e.
func (t *Topic[T]) Payload(e *Event) (T, bool) {
	return t.key.From(e)
}

func (t *Topic[T]) adapt(handler TypedHandler[T]) (*typedAdapter[T], error) {
	if handler == nil || isNilValue(handler) {
		return nil, nil
	}
	var id typedIdentity
	if fn, ok := handler.(TypedFunc[T]); ok {
		id.fn = funcKey(fn)
	} else {
		if !reflect.ValueOf(handler).Comparable() {
			return nil, ErrIncomparableHandler
		}
		id.handler = handler
	}
	return &typedAdapter[T]{handler: handler, key: t.key, id: id}, nil
}

// typedIdentity distinguishes typed handlers from plain ones in the registry.
type typedIdentity struct {
	fn      funcIdentity
	handler any
}

// typedAdapter presents a TypedHandler as a Handler.
type typedAdapter[T any] struct {
	handler TypedHandler[T]
	key     GenericKey[T]
	id      typedIdentity
}

func (a *typedAdapter[T]) identity() any { return a.id }

func (a *typedAdapter[T]) HandleEvent(ctx context.Context, e *Event) error {
	payload, _ := a.key.From(e)
	return a.handler.HandlePayload(ctx, e, payload)
}
