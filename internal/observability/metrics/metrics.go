package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters for the booking and messaging flows.
type EngineMetrics struct {
	messagesTotal  *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	remindersTotal *prometheus.CounterVec
	notifyTotal    *prometheus.CounterVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "academy",
			Subsystem: "engine",
			Name:      "inbound_messages_total",
			Help:      "Total inbound WhatsApp messages",
		}, []string{"status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "academy",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Total booking attempts",
		}, []string{"kind", "status"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "academy",
			Subsystem: "reminders",
			Name:      "reminders_total",
			Help:      "Total reminder deliveries",
		}, []string{"status"}),
		notifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "academy",
			Subsystem: "notify",
			Name:      "attempts_total",
			Help:      "Total notification attempts per channel",
		}, []string{"channel", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.bookingsTotal, m.remindersTotal, m.notifyTotal)
	return m
}

func (m *EngineMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(status).Inc()
}

func (m *EngineMetrics) ObserveBooking(kind, status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(kind, status).Inc()
}

func (m *EngineMetrics) ObserveReminder(status string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(status).Inc()
}

func (m *EngineMetrics) ObserveNotify(channel, status string) {
	if m == nil {
		return
	}
	m.notifyTotal.WithLabelValues(channel, status).Inc()
}
