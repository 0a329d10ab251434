package hub

import (
	"context"
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"
)

// Handler is the handler-object shape of a listener callback.
// The context is the one passed to Publish. Returning an error does not stop
// the remaining listeners; errors are collected and returned by Publish.
// Handlers must not modify the event's fields.
type Handler interface {
	HandleEvent(ctx context.Context, e *Event) error
}

// HandlerFunc is the plain-function shape of a listener callback.
// Two HandlerFunc values are the same listener when they are the same closure.
type HandlerFunc func(ctx context.Context, e *Event) error

// HandleEvent calls f(ctx, e).
func (f HandlerFunc) HandleEvent(ctx context.Context, e *Event) error {
	return f(ctx, e)
}

// identifier is implemented by handler adapters whose identity is not the
// adapter value itself.
type identifier interface {
	identity() any
}

// funcIdentity is the identity of a function value: the closure it refers to.
type funcIdentity struct {
	ptr unsafe.Pointer
}

// funcKey returns a comparable value identifying the closure behind fn.
// Top-level functions and non-capturing literals share one closure; each
// evaluation of a capturing literal or method value yields a new one.
func funcKey[F any](fn F) funcIdentity {
	return funcIdentity{ptr: *(*unsafe.Pointer)(unsafe.Pointer(&fn))}
}

// handlerKey returns the identity of h, or false when h cannot be compared.
// Comparability is checked on the value, so a struct whose interface field
// holds a func, slice or map is rejected rather than panicking on ==.
func handlerKey(h Handler) (any, bool) {
	switch v := h.(type) {
	case HandlerFunc:
		return funcKey(v), true
	case identifier:
		return v.identity(), true
	}
	if !reflect.ValueOf(h).Comparable() {
		return nil, false
	}
	return h, true
}

// isNilHandler reports whether h carries no callable value.
func isNilHandler(h Handler) bool {
	return h == nil || isNilValue(h)
}

// isNilValue reports whether v is nil or a typed nil.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Interface, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// SubscribeOption configures a subscription. It is implemented by
// ListenerOptions (the full configuration) and Capture (capture alone).
type SubscribeOption interface {
	apply(*ListenerOptions)
}

// ListenerOptions is the full set of per-listener options.
type ListenerOptions struct {
	// Capture places the listener in the capturing group, which runs before
	// non-capturing listeners. Capture is part of listener identity.
	Capture bool

	// Passive makes PreventDefault a no-op while this listener runs.
	Passive bool

	// Once removes the listener right before its first invocation.
	Once bool

	// Async runs the listener body on a hub-tracked goroutine. Publish does
	// not wait for it and its errors go to the hub's ErrorHandler.
	Async bool
}

func (o ListenerOptions) apply(dst *ListenerOptions) { *dst = o }

// Capture is the boolean shorthand for ListenerOptions{Capture: bool(c)}.
type Capture bool

func (c Capture) apply(dst *ListenerOptions) { dst.Capture = bool(c) }

func resolveOptions(opts []SubscribeOption) ListenerOptions {
	var o ListenerOptions
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&o)
		}
	}
	return o
}

// Listener represents an active subscription to a signal.
// Call Close to unregister it.
type Listener struct {
	id      uuid.UUID
	signal  Signal
	handler Handler
	key     any
	opts    ListenerOptions
	hub     *Hub

	// fired is set when a once listener has been claimed by a dispatch.
	fired atomic.Bool
}

// ID returns the listener's unique identifier.
func (l *Listener) ID() uuid.UUID { return l.id }

// Signal returns the signal the listener is registered on.
func (l *Listener) Signal() Signal { return l.signal }

// Options returns the options the listener was registered with.
func (l *Listener) Options() ListenerOptions { return l.opts }

// Close removes this listener from the registry, preventing future callbacks.
// Safe to call more than once and on a nil Listener.
func (l *Listener) Close() {
	if l == nil || l.hub == nil {
		return
	}
	l.hub.remove(l)
}

// matches reports whether l has the identity triple (signal, key, capture).
// A once listener already claimed by a dispatch never matches.
func (l *Listener) matches(signal Signal, key any, capture bool) bool {
	return l.signal == signal && l.opts.Capture == capture && !l.fired.Load() && l.key == key
}
