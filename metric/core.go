package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the core registration-protocol metrics exposed by a host.
type Metrics struct {
	// PluginsLoaded tracks currently loaded plugins.
	PluginsLoaded prometheus.Gauge
	// ElementsRegistered tracks addressable elements across loaded plugins.
	ElementsRegistered prometheus.Gauge
	// RegistrationFailures counts failed plugin loads by failure reason.
	RegistrationFailures *prometheus.CounterVec
	// AnnouncesPublished counts descriptor announcements on the bus.
	AnnouncesPublished prometheus.Counter
	// AnnounceLatency observes time to serialize, validate, and publish
	// one descriptor announcement.
	AnnounceLatency prometheus.Histogram
}

// NewMetrics creates the core metrics set. Collectors are created here and
// registered by MetricsRegistry.
func NewMetrics() *Metrics {
	return &Metrics{
		PluginsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blizzard",
			Subsystem: "host",
			Name:      "plugins_loaded",
			Help:      "Number of plugins currently loaded",
		}),
		ElementsRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blizzard",
			Subsystem: "host",
			Name:      "elements_registered",
			Help:      "Number of addressable elements across loaded plugins",
		}),
		RegistrationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blizzard",
			Subsystem: "host",
			Name:      "registration_failures_total",
			Help:      "Failed plugin registrations by reason",
		}, []string{"reason"}),
		AnnouncesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blizzard",
			Subsystem: "host",
			Name:      "announces_published_total",
			Help:      "Descriptor announcements published to the bus",
		}),
		AnnounceLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "blizzard",
			Subsystem: "host",
			Name:      "announce_duration_seconds",
			Help:      "Time to serialize, validate and publish one descriptor announcement",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
