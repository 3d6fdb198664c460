// Package metrics exposes navigation and session counters to Prometheus.
package metrics

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seuros/funnelscope/internal/navigator"
)

// Metrics owns a private registry so several servers can run in one process.
type Metrics struct {
	registry       *prometheus.Registry
	transitions    *prometheus.CounterVec
	renders        *prometheus.CounterVec
	activeSessions prometheus.Gauge
	snapshotLoads  *prometheus.CounterVec
}

// New registers the funnelscope collectors plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "funnelscope",
			Name:      "view_transitions_total",
			Help:      "Navigator view transitions by source and target view.",
		}, []string{"from", "to"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "funnelscope",
			Name:      "frame_renders_total",
			Help:      "Rendered frames, split by memo hit.",
		}, []string{"cached"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "funnelscope",
			Name:      "active_sessions",
			Help:      "Navigator sessions currently held in memory.",
		}),
		snapshotLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "funnelscope",
			Name:      "snapshot_loads_total",
			Help:      "Snapshot loads by source and outcome.",
		}, []string{"source", "outcome"}),
	}

	m.registry.MustRegister(
		m.transitions,
		m.renders,
		m.activeSessions,
		m.snapshotLoads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Hooks feeds navigator events into the counters.
func (m *Metrics) Hooks() navigator.Hooks {
	return navigator.Hooks{
		OnTransition: func(from, to navigator.Kind) {
			m.transitions.WithLabelValues(string(from), string(to)).Inc()
		},
		OnRender: func(cached bool) {
			m.renders.WithLabelValues(strconv.FormatBool(cached)).Inc()
		},
	}
}

// SetActiveSessions records the live session count.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// SnapshotLoaded records a snapshot load attempt.
func (m *Metrics) SnapshotLoaded(source string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.snapshotLoads.WithLabelValues(source, outcome).Inc()
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
