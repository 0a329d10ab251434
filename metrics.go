package hub

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const metricsNamespace = "hub"

// metrics holds dispatch collectors. A nil *metrics records nothing.
type metrics struct {
	published   *prometheus.CounterVec
	canceled    *prometheus.CounterVec
	invocations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	listeners   *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer, log *zap.Logger) *metrics {
	m := &metrics{
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Help:      "Number of events published",
				Name:      "events_published_total",
				Namespace: metricsNamespace,
			},
			[]string{"signal"},
		),
		canceled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Help:      "Number of published events whose default was prevented",
				Name:      "events_canceled_total",
				Namespace: metricsNamespace,
			},
			[]string{"signal"},
		),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Help:      "Number of listener invocations",
				Name:      "listener_invocations_total",
				Namespace: metricsNamespace,
			},
			[]string{"signal"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Help:      "Number of listener invocations that returned an error or panicked",
				Name:      "listener_failures_total",
				Namespace: metricsNamespace,
			},
			[]string{"signal"},
		),
		listeners: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Help:      "Number of registered listeners",
				Name:      "listeners",
				Namespace: metricsNamespace,
			},
			[]string{"signal"},
		),
	}
	m.published = register(reg, m.published, log)
	m.canceled = register(reg, m.canceled, log)
	m.invocations = register(reg, m.invocations, log)
	m.failures = register(reg, m.failures, log)
	m.listeners = register(reg, m.listeners, log)
	return m
}

// register registers c on reg, returning the existing collector if an
// identical one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, log *zap.Logger) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	log.Warn("failed to register metric", zap.Error(err))
	return c
}

func (m *metrics) observePublish(signal Signal, canceled bool) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(string(signal)).Inc()
	if canceled {
		m.canceled.WithLabelValues(string(signal)).Inc()
	}
}

func (m *metrics) observeInvocation(signal Signal, err error) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(string(signal)).Inc()
	if err != nil {
		m.failures.WithLabelValues(string(signal)).Inc()
	}
}

func (m *metrics) setListeners(signal Signal, n int) {
	if m == nil {
		return
	}
	m.listeners.WithLabelValues(string(signal)).Set(float64(n))
}
