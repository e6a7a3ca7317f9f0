package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotificationMetrics records outbox dispatch outcomes.
type NotificationMetrics struct {
	dispatched *prometheus.CounterVec
	failed     *prometheus.CounterVec
}

// NewNotificationMetrics registers the dispatch metrics on the provided registerer.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_dispatched_total",
		Help: "Notifications fanned out from outbox events.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Outbox events whose dispatch failed.",
	}, []string{"event_type"})
	reg.MustRegister(dispatched, failed)
	return &NotificationMetrics{
		dispatched: dispatched,
		failed:     failed,
	}
}

// IncDispatched increments the dispatched counter for the event type.
func (m *NotificationMetrics) IncDispatched(eventType string) {
	if m == nil || m.dispatched == nil {
		return
	}
	m.dispatched.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailed increments the failure counter for the event type.
func (m *NotificationMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}
