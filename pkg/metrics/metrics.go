package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Payment reconciliation metrics
	WebhookEventsProcessed *prometheus.CounterVec
	WebhookEventsRejected  prometheus.Counter
	GatewayRequestLatency  *prometheus.HistogramVec
	GatewayRequestsFailed  *prometheus.CounterVec

	// Appointment lifecycle metrics
	AppointmentTransitions *prometheus.CounterVec

	// Notification metrics
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		WebhookEventsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_processed_total",
			Help:      "Total number of gateway webhook/callback events processed",
		}, []string{"gateway", "event_type"}),
		WebhookEventsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_rejected_total",
			Help:      "Total number of webhook deliveries rejected before processing",
		}),
		GatewayRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Duration of outbound payment-gateway requests",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"gateway", "operation"}),
		GatewayRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_failed_total",
			Help:      "Total number of failed outbound payment-gateway requests",
		}, []string{"gateway", "operation"}),
		AppointmentTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_transitions_total",
			Help:      "Total number of appointment status transitions",
		}, []string{"to_status", "actor"}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications dispatched",
		}, []string{"event"}),
		NotificationsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Total number of notification dispatch failures",
		}, []string{"event"}),
	}
}
