package notification

import (
	"context"
	"strings"
	"time"

	"github.com/medicare-hq/medicare-api/internal/email"
	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/pkg/logger"
	"github.com/medicare-hq/medicare-api/pkg/messaging"
	"github.com/medicare-hq/medicare-api/pkg/metrics"
)

// sendTimeout bounds how long a single email attempt may take. Slow SMTP
// must never hold up the transition that triggered the notification.
const sendTimeout = 10 * time.Second

type Service interface {
	// Dispatch sends a notification asynchronously. Failures are logged and
	// counted, never returned.
	Dispatch(n *model.Notification)
}

type service struct {
	emailSvc email.Service
	broker   messaging.Broker
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewService(emailSvc email.Service, broker messaging.Broker, m *metrics.Metrics, l *logger.Logger) Service {
	return &service{
		emailSvc: emailSvc,
		broker:   broker,
		metrics:  m,
		logger:   l,
	}
}

func (s *service) Dispatch(n *model.Notification) {
	go s.process(n)
}

func (s *service) process(n *model.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if s.broker != nil {
		if err := s.broker.Publish(ctx, channelFor(n.Event), messaging.Message{
			Type:    n.Event,
			Payload: n,
		}); err != nil {
			s.logger.Warn("failed to publish notification event", "event", n.Event)
		}
	}

	if n.Recipient == "" {
		return
	}

	if err := s.emailSvc.SendCustom(ctx, n.Recipient, n.Subject, n.Content); err != nil {
		if s.metrics != nil {
			s.metrics.NotificationsFailed.WithLabelValues(n.Event).Inc()
		}
		s.logger.Error(err, "failed to send notification email", "event", n.Event, "recipient", n.Recipient)
		return
	}

	if s.metrics != nil {
		s.metrics.NotificationsSent.WithLabelValues(n.Event).Inc()
	}
}

// channelFor routes payment-flow events onto the payment channel; everything
// else is an appointment lifecycle event.
func channelFor(event string) string {
	if strings.HasPrefix(event, "payment_") {
		return messaging.ChannelPaymentEvents
	}
	return messaging.ChannelAppointmentEvents
}
