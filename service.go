package hub

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	defaultHub  *Hub
	defaultOnce sync.Once
)

// Hub is a synchronous event-dispatch registry keyed by signal.
// All methods are safe for concurrent use.
type Hub struct {
	registry     map[Signal][]*Listener
	observers    []*Observer
	closed       bool
	mu           sync.RWMutex
	wg           sync.WaitGroup
	pending      atomic.Int64
	shutdownOnce sync.Once

	log          *zap.Logger
	registerer   prometheus.Registerer
	metrics      *metrics
	errorHandler ErrorHandler
	syncMode     bool
}

// New creates a new Hub with optional configuration.
// Without options the Hub logs nothing, records no metrics and runs async
// listeners on their own goroutines.
func New(opts ...Option) *Hub {
	h := &Hub{
		registry: make(map[Signal][]*Listener),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.registerer != nil {
		h.metrics = newMetrics(h.registerer, h.log)
	}
	return h
}

// defaultInstance returns the default Hub, creating it if necessary.
func defaultInstance() *Hub {
	defaultOnce.Do(func() {
		defaultOptMu.Lock()
		opts := defaultOptions
		defaultOptMu.Unlock()
		defaultHub = New(opts...)
	})
	return defaultHub
}

// Subscribe registers handler for signal on the default instance.
func Subscribe(signal Signal, handler Handler, opts ...SubscribeOption) (*Listener, error) {
	return defaultInstance().Subscribe(signal, handler, opts...)
}

// Unsubscribe removes a listener from the default instance.
func Unsubscribe(signal Signal, handler Handler, opts ...SubscribeOption) {
	defaultInstance().Unsubscribe(signal, handler, opts...)
}

// Publish dispatches e on the default instance.
func Publish(ctx context.Context, e *Event) (bool, error) {
	return defaultInstance().Publish(ctx, e)
}

// Subscribe registers handler for signal and returns its Listener.
//
// If a listener with the same (signal, handler, capture) identity is already
// registered, that listener is returned unchanged; options are not merged.
// A nil handler is a no-op and returns a nil Listener. An empty signal
// returns ErrEmptySignal, and a hub that has been shut down returns ErrClosed.
func (h *Hub) Subscribe(signal Signal, handler Handler, opts ...SubscribeOption) (*Listener, error) {
	if signal == "" {
		return nil, ErrEmptySignal
	}
	if isNilHandler(handler) {
		return nil, nil
	}
	key, ok := handlerKey(handler)
	if !ok {
		return nil, ErrIncomparableHandler
	}
	o := resolveOptions(opts)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	for _, l := range h.registry[signal] {
		if l.matches(signal, key, o.Capture) {
			return l, nil
		}
	}

	listener := &Listener{
		id:      uuid.New(),
		signal:  signal,
		handler: handler,
		key:     key,
		opts:    o,
		hub:     h,
	}
	h.registry[signal] = append(h.registry[signal], listener)
	h.metrics.setListeners(signal, len(h.registry[signal]))

	h.log.Debug("listener subscribed",
		zap.String("signal", string(signal)),
		zap.Stringer("listener", listener.id),
		zap.Bool("capture", o.Capture),
		zap.Bool("passive", o.Passive),
		zap.Bool("once", o.Once),
		zap.Bool("async", o.Async))

	return listener, nil
}

// Unsubscribe removes the listener identified by (signal, handler, capture).
// Only the Capture option takes part in matching. Unknown listeners are ignored.
func (h *Hub) Unsubscribe(signal Signal, handler Handler, opts ...SubscribeOption) {
	if signal == "" || isNilHandler(handler) {
		return
	}
	key, ok := handlerKey(handler)
	if !ok {
		return
	}
	capture := resolveOptions(opts).Capture

	h.mu.Lock()
	defer h.mu.Unlock()

	i := slices.IndexFunc(h.registry[signal], func(l *Listener) bool {
		return l.matches(signal, key, capture)
	})
	if i >= 0 {
		h.removeAt(signal, i)
	}
}

// remove unregisters a specific listener, reporting whether it was present.
func (h *Hub) remove(listener *Listener) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := slices.Index(h.registry[listener.signal], listener)
	if i < 0 {
		return false
	}
	h.removeAt(listener.signal, i)
	return true
}

// removeAt deletes the i-th listener of signal, keeping registration order.
// Must be called while holding h.mu write lock.
func (h *Hub) removeAt(signal Signal, i int) {
	listener := h.registry[signal][i]
	listeners := slices.Delete(h.registry[signal], i, i+1)
	if len(listeners) == 0 {
		delete(h.registry, signal)
	} else {
		h.registry[signal] = listeners
	}
	h.metrics.setListeners(signal, len(listeners))

	h.log.Debug("listener removed",
		zap.String("signal", string(signal)),
		zap.Stringer("listener", listener.id))
}

// Stats returns a point-in-time view of the registry.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := Stats{
		ListenerCounts: make(map[Signal]int, len(h.registry)),
		Observers:      len(h.observers),
		PendingAsync:   int(h.pending.Load()),
	}
	for signal, listeners := range h.registry {
		stats.ListenerCounts[signal] = len(listeners)
	}
	return stats
}

// Shutdown waits for running async listeners and releases the registry.
// Subscribe and Publish return ErrClosed afterwards and Observe returns nil. Safe to call multiple times.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()

		h.wg.Wait()

		h.mu.Lock()
		for _, o := range h.observers {
			o.active = false
		}
		for signal := range h.registry {
			h.metrics.setListeners(signal, 0)
		}
		h.registry = make(map[Signal][]*Listener)
		h.observers = nil
		h.mu.Unlock()

		h.log.Debug("hub shut down")
	})
	h.wg.Wait()
}

// Shutdown shuts down the default instance.
func Shutdown() {
	defaultInstance().Shutdown()
}
