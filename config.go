package hub

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	defaultOptions []Option
	defaultOptMu   sync.Mutex
)

// Option configures a Hub instance.
type Option func(*Hub)

// ErrorHandler receives errors from async listener bodies, which cannot be
// returned by Publish. Panics arrive as *PanicError wrapped in *ListenerError.
type ErrorHandler func(signal Signal, err error)

// Configure sets options for the default Hub instance.
// Must be called before any package-level function (Subscribe, Publish, ...).
// Subsequent calls have no effect once the default instance is created.
func Configure(opts ...Option) {
	defaultOptMu.Lock()
	defaultOptions = opts
	defaultOptMu.Unlock()
}

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

// WithMetrics registers dispatch metrics on reg.
// Collectors already registered by another Hub on the same registerer are shared.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(h *Hub) {
		h.registerer = reg
	}
}

// WithErrorHandler sets a callback for errors and panics of async listeners.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(h *Hub) {
		h.errorHandler = handler
	}
}

// WithSyncMode runs async listener bodies inline, in dispatch order.
// Errors still go to the ErrorHandler rather than Publish's result.
// Intended for tests.
func WithSyncMode() Option {
	return func(h *Hub) {
		h.syncMode = true
	}
}
