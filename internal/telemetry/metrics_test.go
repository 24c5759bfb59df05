package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/playersocket/internal/connection"
)

var _ connection.Metrics = (*PromMetrics)(nil)

func TestNewMetrics_WithLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	labels := map[string]string{
		"player_id": "p1",
		"version":   "1.0.0",
	}

	m := NewMetrics(registry, labels)
	m.IncConnections()

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() != "playersocket_connections_total" {
			continue
		}
		found = true
		for _, metric := range mf.GetMetric() {
			labelMap := make(map[string]string)
			for _, l := range metric.GetLabel() {
				labelMap[l.GetName()] = l.GetValue()
			}
			assert.Equal(t, labels, labelMap)
			assert.Equal(t, float64(1), metric.GetCounter().GetValue())
		}
	}

	assert.True(t, found, "metric playersocket_connections_total not found")
}

func TestMetrics_Values(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry, nil)

	m.IncConnections()
	m.IncDisconnects()
	m.IncDisconnects()
	m.IncReconnects()
	m.IncMessages()
	m.IncMessages()
	m.IncMessages()
	m.IncDecodeErrors()
	m.SetConnectionStatus(1)

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range metricFamilies {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				values[mf.GetName()] = c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				values[mf.GetName()] = g.GetValue()
			}
		}
	}

	assert.Equal(t, map[string]float64{
		"playersocket_connections_total":          1,
		"playersocket_disconnects_total":          2,
		"playersocket_reconnects_scheduled_total": 1,
		"playersocket_messages_received_total":    3,
		"playersocket_decode_errors_total":        1,
		"playersocket_connection_status":          1,
	}, values)
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry, nil)

	assert.Panics(t, func() { NewMetrics(registry, nil) })
}
