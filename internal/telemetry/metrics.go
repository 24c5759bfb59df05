package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromMetrics implements connection.Metrics using Prometheus.
type PromMetrics struct {
	connections  prometheus.Counter
	disconnects  prometheus.Counter
	reconnects   prometheus.Counter
	messages     prometheus.Counter
	decodeErrors prometheus.Counter
	connStatus   prometheus.Gauge
}

// NewMetrics creates and registers the client metrics.
// If registry is nil, it uses the global default registry.
func NewMetrics(registry prometheus.Registerer, constLabels map[string]string) *PromMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "playersocket",
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}

	m := &PromMetrics{
		connections:  counter("connections_total", "Total number of WebSocket connections opened."),
		disconnects:  counter("disconnects_total", "Total number of WebSocket close events."),
		reconnects:   counter("reconnects_scheduled_total", "Total number of reconnect attempts scheduled."),
		messages:     counter("messages_received_total", "Total number of inbound messages decoded and dispatched."),
		decodeErrors: counter("decode_errors_total", "Total number of inbound messages dropped as invalid JSON."),
		connStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "playersocket",
			Name:        "connection_status",
			Help:        "Current status of the connection (1 = connected, 0 = disconnected).",
			ConstLabels: constLabels,
		}),
	}

	registry.MustRegister(
		m.connections,
		m.disconnects,
		m.reconnects,
		m.messages,
		m.decodeErrors,
		m.connStatus,
	)

	return m
}

func (m *PromMetrics) IncConnections() {
	m.connections.Inc()
}

func (m *PromMetrics) IncDisconnects() {
	m.disconnects.Inc()
}

func (m *PromMetrics) IncReconnects() {
	m.reconnects.Inc()
}

func (m *PromMetrics) IncMessages() {
	m.messages.Inc()
}

func (m *PromMetrics) IncDecodeErrors() {
	m.decodeErrors.Inc()
}

func (m *PromMetrics) SetConnectionStatus(status float64) {
	m.connStatus.Set(status)
}
