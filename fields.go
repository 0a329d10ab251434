package hub

import "reflect"

// GenericKey names a typed field on an Event. Its Variant is the Go type
// name of T, so two keys with the same name but different payload types
// never read each other's values.
type GenericKey[T any] struct {
	name    string
	variant Variant
}

// NewKey returns the key for values of type T stored under name.
//
//	type Order struct { ID string; Total float64 }
//	orderKey := hub.NewKey[Order]("order")
//	e := hub.NewEvent(sig, hub.WithFields(orderKey.Field(Order{ID: "123"})))
func NewKey[T any](name string) GenericKey[T] {
	return GenericKey[T]{name: name, variant: variantOf[T]()}
}

func variantOf[T any]() Variant {
	return Variant(reflect.TypeFor[T]().String())
}

func (k GenericKey[T]) Name() string { return k.name }

func (k GenericKey[T]) Variant() Variant { return k.variant }

// Field binds value to this key.
func (k GenericKey[T]) Field(value T) Field {
	return GenericField[T]{key: k, value: value, variant: k.variant}
}

// From returns the value stored under this key. It reports false when e is
// nil, the field is absent, or it holds a value of another type.
func (k GenericKey[T]) From(e *Event) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	gf, ok := e.Get(k).(GenericField[T])
	if !ok {
		return zero, false
	}
	return gf.Get(), true
}

// Has reports whether e carries a value of type T under this key.
func (k GenericKey[T]) Has(e *Event) bool {
	_, ok := k.From(e)
	return ok
}

// StringKey is the key type for string fields.
type StringKey = GenericKey[string]

// NewStringKey is shorthand for NewKey[string].
func NewStringKey(name string) StringKey { return NewKey[string](name) }

// IntKey is the key type for int fields.
type IntKey = GenericKey[int]

// NewIntKey is shorthand for NewKey[int].
func NewIntKey(name string) IntKey { return NewKey[int](name) }

// BoolKey is the key type for bool fields.
type BoolKey = GenericKey[bool]

// NewBoolKey is shorthand for NewKey[bool].
func NewBoolKey(name string) BoolKey { return NewKey[bool](name) }
