package hub

import (
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observer is a passive listener attached to every signal, or to a whitelist
// of signals. Observers run after a signal's own listeners, in the order they
// were registered, and can never cancel an event.
// Call Close to unregister.
type Observer struct {
	listener *Listener
	signals  map[Signal]struct{} // nil = all signals
	hub      *Hub
	active   bool // guarded by hub.mu
}

// Observe registers handler for all signals on the default instance.
func Observe(handler Handler, signals ...Signal) *Observer {
	return defaultInstance().Observe(handler, signals...)
}

// Observe registers handler for every signal, including signals that have no
// listeners yet. If signals are provided, only those are observed.
// A nil handler, or a hub that has been shut down, returns a nil Observer.
func (h *Hub) Observe(handler Handler, signals ...Signal) *Observer {
	if isNilHandler(handler) {
		return nil
	}

	o := &Observer{
		listener: &Listener{
			id:      uuid.New(),
			handler: handler,
			opts:    ListenerOptions{Passive: true},
		},
		hub:    h,
		active: true,
	}
	if len(signals) > 0 {
		o.signals = make(map[Signal]struct{}, len(signals))
		for _, sig := range signals {
			o.signals[sig] = struct{}{}
		}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.observers = append(h.observers, o)
	h.mu.Unlock()

	h.log.Debug("observer registered",
		zap.Stringer("observer", o.listener.id),
		zap.Int("signals", len(signals)))

	return o
}

// wants reports whether the observer receives events on signal.
// Must be called while holding hub.mu.
func (o *Observer) wants(signal Signal) bool {
	if !o.active {
		return false
	}
	if o.signals == nil {
		return true
	}
	_, ok := o.signals[signal]
	return ok
}

// Close unregisters the observer. Safe to call more than once and on nil.
func (o *Observer) Close() {
	if o == nil {
		return
	}
	h := o.hub

	h.mu.Lock()
	defer h.mu.Unlock()

	if !o.active {
		return
	}
	o.active = false
	if i := slices.Index(h.observers, o); i >= 0 {
		h.observers = slices.Delete(h.observers, i, i+1)
	}
}
