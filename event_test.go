package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	before := time.Now()
	e := NewEvent("test.new")

	assert.Equal(t, Signal("test.new"), e.Type())
	assert.False(t, e.Cancelable())
	assert.False(t, e.DefaultPrevented())
	assert.False(t, e.Dispatching())
	assert.False(t, e.Timestamp.Before(before))
	assert.Empty(t, e.Fields())
}

func TestEventFields(t *testing.T) {
	strKey := NewStringKey("name")
	intKey := NewIntKey("count")

	e := NewEvent("test.fields", WithFields(strKey.Field("first"), intKey.Field(42), strKey.Field("second"), nil))

	fields := e.Fields()
	assert.Len(t, fields, 2)

	name, ok := e.Get(strKey).(GenericField[string])
	require.True(t, ok)
	assert.Equal(t, "second", name.Get())
	assert.Nil(t, e.Get(NewStringKey("missing")))
}

func TestEventFieldsCopy(t *testing.T) {
	key := NewStringKey("k")
	e := NewEvent("test.copy", WithFields(key.Field("v")))

	fields := e.Fields()
	fields[0] = NewStringKey("other").Field("x")

	v, ok := key.From(e)
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestPreventDefaultOutsideDispatch(t *testing.T) {
	e := NewEvent("test.cancel", Cancelable())
	e.PreventDefault()
	assert.False(t, e.DefaultPrevented())
}

func TestPreventDefaultRules(t *testing.T) {
	tests := []struct {
		name       string
		cancelable bool
		passive    bool
		want       bool
	}{
		{"cancelable", true, false, true},
		{"not cancelable", false, false, false},
		{"passive listener", true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []EventOption
			if tt.cancelable {
				opts = append(opts, Cancelable())
			}
			e := NewEvent("test.rules", opts...)
			e.dispatching.Store(true)
			e.passive.Store(tt.passive)

			e.PreventDefault()
			assert.Equal(t, tt.want, e.DefaultPrevented())
		})
	}
}

func TestDetach(t *testing.T) {
	key := NewStringKey("k")
	e := NewEvent("test.detach", Cancelable(), WithFields(key.Field("v")))
	e.dispatching.Store(true)

	d := e.detach()
	assert.False(t, d.Dispatching())
	assert.Equal(t, e.Type(), d.Type())
	assert.True(t, d.Cancelable())

	d.PreventDefault()
	assert.False(t, d.DefaultPrevented())
	assert.False(t, e.DefaultPrevented())

	v, ok := key.From(d)
	require.True(t, ok)
	assert.Equal(t, "v", v)
}
