package hub

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := New(WithLogger(zap.New(core)))
	defer h.Shutdown()

	_, err := h.Subscribe("log.sig", HandlerFunc(func(_ context.Context, _ *Event) error {
		return errors.New("nope")
	}))
	require.NoError(t, err)

	_, err = h.Publish(context.Background(), NewEvent("log.sig"))
	require.Error(t, err)

	assert.Equal(t, 1, logs.FilterMessage("listener subscribed").Len())
	failed := logs.FilterMessage("listener failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)
	assert.Equal(t, "log.sig", failed[0].ContextMap()["signal"])
}

func TestWithLoggerNil(t *testing.T) {
	h := New(WithLogger(nil))
	defer h.Shutdown()
	assert.NotNil(t, h.log)
}

func TestWithLoggerTest(t *testing.T) {
	h := New(WithLogger(zaptest.NewLogger(t)), WithSyncMode())
	defer h.Shutdown()

	calls := 0
	_, err := h.Subscribe("log.once", preventer(&calls), ListenerOptions{Once: true, Async: true})
	require.NoError(t, err)

	_, err = h.Publish(context.Background(), NewEvent("log.once"))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(WithMetrics(reg))
	defer h.Shutdown()

	calls := 0
	_, err := h.Subscribe("metric.sig", preventer(&calls))
	require.NoError(t, err)
	_, err = h.Subscribe("metric.sig", HandlerFunc(func(_ context.Context, _ *Event) error {
		return errors.New("fail")
	}))
	require.NoError(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(h.metrics.listeners.WithLabelValues("metric.sig")))

	_, _ = h.Publish(context.Background(), NewEvent("metric.sig", Cancelable()))
	_, _ = h.Publish(context.Background(), NewEvent("metric.sig"))

	assert.Equal(t, float64(2), testutil.ToFloat64(h.metrics.published.WithLabelValues("metric.sig")))
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.canceled.WithLabelValues("metric.sig")))
	assert.Equal(t, float64(4), testutil.ToFloat64(h.metrics.invocations.WithLabelValues("metric.sig")))
	assert.Equal(t, float64(2), testutil.ToFloat64(h.metrics.failures.WithLabelValues("metric.sig")))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Positive(t, count)
}

func TestWithMetricsSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	h1 := New(WithMetrics(reg))
	defer h1.Shutdown()
	h2 := New(WithMetrics(reg))
	defer h2.Shutdown()

	assert.Same(t, h1.metrics.published, h2.metrics.published)

	_, err := h1.Publish(context.Background(), NewEvent("shared"))
	require.NoError(t, err)
	_, err = h2.Publish(context.Background(), NewEvent("shared"))
	require.NoError(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(h1.metrics.published.WithLabelValues("shared")))
}

func TestWithMetricsNil(t *testing.T) {
	h := New(WithMetrics(nil))
	defer h.Shutdown()

	assert.Nil(t, h.metrics)
	_, err := h.Publish(context.Background(), NewEvent("no.metrics"))
	assert.NoError(t, err)
}

func TestWithSyncMode(t *testing.T) {
	var handled []error
	h := New(WithSyncMode(), WithErrorHandler(func(_ Signal, err error) {
		handled = append(handled, err)
	}))
	defer h.Shutdown()

	var log []string
	_, err := h.Subscribe("sync.mode", HandlerFunc(func(_ context.Context, _ *Event) error {
		log = append(log, "async")
		return assert.AnError
	}), ListenerOptions{Async: true})
	require.NoError(t, err)
	_, err = h.Subscribe("sync.mode", record(&log, "sync"))
	require.NoError(t, err)

	_, err = h.Publish(context.Background(), NewEvent("sync.mode"))
	require.NoError(t, err)

	assert.Equal(t, []string{"async", "sync"}, log)
	require.Len(t, handled, 1)
	assert.ErrorIs(t, handled[0], assert.AnError)
}

func TestConfigure(t *testing.T) {
	defer Configure()

	Configure(WithSyncMode())

	defaultOptMu.Lock()
	n := len(defaultOptions)
	defaultOptMu.Unlock()
	assert.Equal(t, 1, n)
}

func TestShutdownZeroesListenerGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(WithMetrics(reg))

	var log []string
	_, err := h.Subscribe("gauge.sig", record(&log, "a"))
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.listeners.WithLabelValues("gauge.sig")))

	h.Shutdown()
	assert.Zero(t, testutil.ToFloat64(h.metrics.listeners.WithLabelValues("gauge.sig")))
}
