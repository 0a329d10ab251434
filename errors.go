package hub

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySignal is returned when subscribing with an empty signal name.
	ErrEmptySignal = errors.New("hub: empty signal")

	// ErrIncomparableHandler is returned when a handler's dynamic type cannot
	// be compared, so its identity cannot be tracked.
	ErrIncomparableHandler = errors.New("hub: handler is not comparable")

	// ErrNilEvent is returned by Publish when given a nil event.
	ErrNilEvent = errors.New("hub: nil event")

	// ErrEventInFlight is returned when publishing an event that is still
	// being dispatched.
	ErrEventInFlight = errors.New("hub: event is already being dispatched")

	// ErrClosed is returned by Subscribe and Publish after Shutdown.
	ErrClosed = errors.New("hub: closed")
)

// ListenerError wraps an error returned by a listener during dispatch.
type ListenerError struct {
	Signal     Signal
	ListenerID string
	Err        error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("hub: listener %s on %q: %v", e.ListenerID, e.Signal, e.Err)
}

func (e *ListenerError) Unwrap() error { return e.Err }

// PanicError is the error recorded when a listener panics.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
