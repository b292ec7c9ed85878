// Package metric provides Prometheus metrics registration for the Blizzard
// plugin host. MetricsRegistry wraps a dedicated prometheus.Registry with
// per-component namespacing and duplicate detection; Metrics carries the
// core registration-protocol metrics every host exposes.
package metric
