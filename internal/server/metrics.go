package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the server's Prometheus collectors on a private
// registry so tests can run side by side without collisions.
type Metrics struct {
	registry *prometheus.Registry

	ConnectedSessions prometheus.Gauge
	DeliveredMessages *prometheus.CounterVec
	DroppedMessages   *prometheus.CounterVec
}

// NewMetrics builds and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ConnectedSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "campfire_connected_sessions",
			Help: "Number of websocket sessions currently active.",
		}),
		DeliveredMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campfire_messages_delivered_total",
			Help: "Messages delivered to subscriber queues, by kind.",
		}, []string{"kind"}),
		DroppedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campfire_messages_dropped_total",
			Help: "Messages dropped because a subscriber was closed or its queue was full, by kind.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.ConnectedSessions, m.DeliveredMessages, m.DroppedMessages)
	return m
}

// Handler exposes the collectors over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
