package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepherg/blizzard-plugin-sdk/errors"
)

func TestNewMetricsRegistryExposesCoreMetrics(t *testing.T) {
	r := NewMetricsRegistry()
	require.NotNil(t, r.CoreMetrics())
	require.NotNil(t, r.PrometheusRegistry())

	r.CoreMetrics().PluginsLoaded.Set(3)
	r.CoreMetrics().RegistrationFailures.WithLabelValues("duplicate_element").Inc()

	families, err := r.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["blizzard_host_plugins_loaded"])
	assert.True(t, names["blizzard_host_registration_failures_total"])
	assert.True(t, names["blizzard_host_announces_published_total"])
}

func TestRegisterCounterDetectsDuplicates(t *testing.T) {
	r := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter_total",
		Help: "test",
	})
	require.NoError(t, r.RegisterCounter("host", "test_counter", counter))

	other := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "other_counter_total",
		Help: "test",
	})
	err := r.RegisterCounter("host", "test_counter", other)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegisterDetectsPrometheusConflict(t *testing.T) {
	r := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "conflict_total",
		Help: "test",
	})
	require.NoError(t, r.RegisterCounter("a", "first", counter))

	// Same collector name under a different bookkeeping key still
	// collides inside prometheus.
	dup := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "conflict_total",
		Help: "test",
	})
	err := r.RegisterCounter("b", "second", dup)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestUnregister(t *testing.T) {
	r := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_gauge",
		Help: "test",
	})
	require.NoError(t, r.RegisterGauge("host", "test_gauge", gauge))

	assert.True(t, r.Unregister("host", "test_gauge"))
	assert.False(t, r.Unregister("host", "test_gauge"))

	// Freed name can be reused.
	assert.NoError(t, r.RegisterGauge("host", "test_gauge", gauge))
}
