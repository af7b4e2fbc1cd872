// Package telemetry provides the Prometheus metrics exposed on the shared
// listener's /metrics endpoint.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's metric instruments, backed by a private registry
// so tests can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	// SessionsCreated counts sessions created, labeled by transport kind.
	SessionsCreated *prometheus.CounterVec
	// SessionsClosed counts sessions torn down, labeled by transport kind.
	SessionsClosed *prometheus.CounterVec
	// AuthRejections counts rejected requests, labeled by internal reason.
	AuthRejections *prometheus.CounterVec
}

// NewMetrics creates and registers the server's metric instruments.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: reg,
		SessionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_confluent_sessions_created_total",
			Help: "Number of transport sessions created.",
		}, []string{"transport"}),
		SessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_confluent_sessions_closed_total",
			Help: "Number of transport sessions torn down.",
		}, []string{"transport"}),
		AuthRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_confluent_auth_rejections_total",
			Help: "Number of requests rejected by the auth gate.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.SessionsCreated, m.SessionsClosed, m.AuthRejections)
	return m
}

// Handler returns the HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRejection is the auth gate hook.
func (m *Metrics) RecordRejection(reason string) {
	m.AuthRejections.WithLabelValues(reason).Inc()
}
