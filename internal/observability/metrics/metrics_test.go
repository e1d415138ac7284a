package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestEngineMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)
	m.ObserveInbound("handled")
	m.ObserveBooking("trial", "created")
	m.ObserveReminder("sent")
	m.ObserveNotify("whatsapp_primary", "ok")
}

func TestEngineMetricsNilSafe(t *testing.T) {
	var m *EngineMetrics
	m.ObserveInbound("handled")
	m.ObserveBooking("class", "duplicate")
	m.ObserveReminder("failed")
	m.ObserveNotify("email", "error")
}
