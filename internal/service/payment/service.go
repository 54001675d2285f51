package payment

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/medicare-hq/medicare-api/internal/email"
	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
	"github.com/medicare-hq/medicare-api/internal/service/notification"
	apperrors "github.com/medicare-hq/medicare-api/pkg/errors"
	"github.com/medicare-hq/medicare-api/pkg/gateway/card"
	"github.com/medicare-hq/medicare-api/pkg/logger"
	"github.com/medicare-hq/medicare-api/pkg/metrics"
)

// CardGateway is the slice of the card client this service needs.
type CardGateway interface {
	CreateCheckoutSession(ctx context.Context, appointmentID int64, amount float64) (*card.CheckoutSession, error)
	WebhookSecret() string
}

type Service struct {
	payments     repository.PaymentRepository
	appointments repository.AppointmentRepository
	accounts     repository.AccountRepository
	gateway      CardGateway
	notifSvc     notification.Service
	metrics      *metrics.Metrics
	logger       *logger.Logger
}

func NewService(
	payments repository.PaymentRepository,
	appointments repository.AppointmentRepository,
	accounts repository.AccountRepository,
	gateway CardGateway,
	notifSvc notification.Service,
	m *metrics.Metrics,
	l *logger.Logger,
) *Service {
	return &Service{
		payments:     payments,
		appointments: appointments,
		accounts:     accounts,
		gateway:      gateway,
		notifSvc:     notifSvc,
		metrics:      m,
		logger:       l,
	}
}

// CreateCheckout opens a hosted checkout session for an appointment the
// caller owns. Nothing is persisted here; the webhook records the outcome.
func (s *Service) CreateCheckout(ctx context.Context, caller *model.TokenClaims, req *model.CreateCheckoutRequest) (*card.CheckoutSession, error) {
	apt, err := s.getAppointment(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if apt.UserID != caller.AccountID && caller.Role != model.RoleAdmin {
		return nil, apperrors.NewForbidden("appointment does not belong to you")
	}
	if apt.Paid {
		return nil, apperrors.NewConflict("appointment is already paid")
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, req.AppointmentID, req.Amount)
	if err != nil {
		return nil, apperrors.NewUpstream("card gateway", err)
	}
	return session, nil
}

// Confirm records a client-reported payment result. It is advisory: the row
// is upserted by transaction id, but the appointment's paid flag and status
// only ever move on a verified webhook.
func (s *Service) Confirm(ctx context.Context, caller *model.TokenClaims, req *model.ConfirmPaymentRequest) (*model.Payment, error) {
	apt, err := s.getAppointment(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if apt.UserID != caller.AccountID && caller.Role != model.RoleAdmin {
		return nil, apperrors.NewForbidden("appointment does not belong to you")
	}

	appointmentID := req.AppointmentID
	p := &model.Payment{
		AppointmentID: &appointmentID,
		Amount:        req.Amount,
		Status:        normalizeStatus(req.PaymentStatus),
		TransactionID: req.TransactionID,
	}
	if p.Status == model.PaymentStatusCompleted {
		now := time.Now().UTC()
		p.PaymentDate = &now
	}

	if err := s.payments.Upsert(ctx, p); err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return p, nil
}

// HandleCardWebhook verifies and processes a card gateway delivery. A
// signature failure is returned as an error so the handler can refuse the
// delivery; anything after the signature check is logged and swallowed so
// the gateway does not retry forever on our internal failures.
func (s *Service) HandleCardWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := card.ConstructEvent(payload, signature, s.gateway.WebhookSecret())
	if err != nil {
		s.metrics.WebhookEventsRejected.Inc()
		return apperrors.NewBadRequest("invalid webhook signature")
	}

	s.metrics.WebhookEventsProcessed.WithLabelValues("card", event.Type).Inc()

	switch event.Type {
	case card.EventCheckoutCompleted:
		s.handleCheckoutCompleted(ctx, event)
	case card.EventPaymentIntentOK:
		s.handleIntentResult(ctx, event, model.PaymentStatusCompleted)
	case card.EventPaymentIntentFailed:
		s.handleIntentResult(ctx, event, model.PaymentStatusFailed)
	default:
		s.logger.Debug("ignoring webhook event", "event_type", event.Type)
	}
	return nil
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *card.Event) {
	session, err := event.Session()
	if err != nil {
		s.logger.Error(err, "failed to decode checkout session")
		return
	}

	appointmentID, err := strconv.ParseInt(session.Metadata["appointment_id"], 10, 64)
	if err != nil {
		s.logger.Warn("checkout session missing appointment reference", "session_id", session.ID)
		return
	}

	transactionID := session.PaymentIntent
	if transactionID == "" {
		transactionID = session.ID
	}

	status := model.PaymentStatusPending
	var paymentDate *time.Time
	if session.PaymentStatus == "paid" {
		status = model.PaymentStatusCompleted
		now := time.Now().UTC()
		paymentDate = &now
	}

	p := &model.Payment{
		AppointmentID: &appointmentID,
		Amount:        float64(session.AmountTotal) / 100,
		Status:        status,
		TransactionID: transactionID,
		PaymentDate:   paymentDate,
	}
	if err := s.payments.Upsert(ctx, p); err != nil {
		s.logger.Error(err, "failed to record card payment", "transaction_id", transactionID)
		return
	}

	if status == model.PaymentStatusCompleted {
		s.markPaid(ctx, appointmentID, p)
	}
}

func (s *Service) handleIntentResult(ctx context.Context, event *card.Event, status model.PaymentStatus) {
	intent, err := event.Intent()
	if err != nil {
		s.logger.Error(err, "failed to decode payment intent")
		return
	}

	p, err := s.payments.GetByTransactionID(ctx, intent.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Intent events can arrive before the session event that creates
			// the row. Record what we know; the session event fills the rest.
			p = &model.Payment{TransactionID: intent.ID, Status: status}
			if status == model.PaymentStatusCompleted {
				now := time.Now().UTC()
				p.PaymentDate = &now
			}
			if err := s.payments.Upsert(ctx, p); err != nil {
				s.logger.Error(err, "failed to record intent result", "transaction_id", intent.ID)
			}
			return
		}
		s.logger.Error(err, "failed to look up payment", "transaction_id", intent.ID)
		return
	}

	p.Status = status
	if status == model.PaymentStatusCompleted && p.PaymentDate == nil {
		now := time.Now().UTC()
		p.PaymentDate = &now
	}
	if err := s.payments.Update(ctx, p); err != nil {
		s.logger.Error(err, "failed to update payment", "transaction_id", intent.ID)
		return
	}

	if status == model.PaymentStatusCompleted && p.AppointmentID != nil {
		s.markPaid(ctx, *p.AppointmentID, p)
	}
}

// markPaid flips the appointment's paid flag and promotes a Pending
// appointment to Confirmed. Terminal appointments are left alone: the money
// is recorded, the lifecycle is not reopened.
func (s *Service) markPaid(ctx context.Context, appointmentID int64, p *model.Payment) {
	apt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		s.logger.Warn("payment references unknown appointment", "appointment_id", appointmentID, "transaction_id", p.TransactionID)
		return
	}
	if apt.Status.Terminal() {
		s.logger.Warn("payment landed on closed appointment, skipping state change",
			"appointment_id", appointmentID, "status", string(apt.Status), "transaction_id", p.TransactionID)
		return
	}

	if err := s.appointments.SetPaid(ctx, appointmentID, true); err != nil {
		s.logger.Error(err, "failed to mark appointment paid", "appointment_id", appointmentID)
		return
	}
	apt.Paid = true
	if apt.Status == model.AppointmentStatusPending {
		apt.Status = model.AppointmentStatusConfirmed
		if err := s.appointments.Update(ctx, apt); err != nil {
			s.logger.Error(err, "failed to confirm appointment", "appointment_id", appointmentID)
		} else if s.metrics != nil {
			s.metrics.AppointmentTransitions.WithLabelValues(string(model.AppointmentStatusConfirmed), "system").Inc()
		}
	}

	account, err := s.accounts.Get(ctx, apt.UserID)
	if err != nil {
		return
	}
	subject, content := email.PaymentConfirmedBody(account.FirstName, apt, p.Amount, p.TransactionID)
	s.notifSvc.Dispatch(&model.Notification{
		Recipient: account.Email,
		Subject:   subject,
		Content:   content,
		Event:     "payment_confirmed",
	})
}

// History returns the caller's own payments.
func (s *Service) History(ctx context.Context, patientID model.AccountID) ([]*model.Payment, error) {
	payments, err := s.payments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return payments, nil
}

// GetByAppointment returns the payment for an appointment, visible to the
// owning patient and admins.
func (s *Service) GetByAppointment(ctx context.Context, caller *model.TokenClaims, appointmentID int64) (*model.Payment, error) {
	apt, err := s.getAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if apt.UserID != caller.AccountID && caller.Role != model.RoleAdmin {
		return nil, apperrors.NewForbidden("appointment does not belong to you")
	}

	p, err := s.payments.GetByAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("payment")
		}
		return nil, apperrors.NewInternal(err)
	}
	return p, nil
}

// Update is the admin correction path for a payment record.
func (s *Service) Update(ctx context.Context, paymentID int64, req *model.UpdatePaymentRequest) (*model.Payment, error) {
	p, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("payment")
		}
		return nil, apperrors.NewInternal(err)
	}

	if req.Amount != nil {
		p.Amount = *req.Amount
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, paymentID int64) error {
	if err := s.payments.Delete(ctx, paymentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("payment")
		}
		return apperrors.NewInternal(err)
	}
	return nil
}

// Revenue totals completed payments for the admin dashboard.
func (s *Service) Revenue(ctx context.Context) (float64, error) {
	total, err := s.payments.SumCompleted(ctx)
	if err != nil {
		return 0, apperrors.NewInternal(err)
	}
	return total, nil
}

func (s *Service) getAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("appointment")
		}
		return nil, apperrors.NewInternal(err)
	}
	return apt, nil
}

// normalizeStatus maps gateway vocabulary onto ours.
func normalizeStatus(raw string) model.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid", "succeeded", "success", "completed", "complete":
		return model.PaymentStatusCompleted
	case "failed", "cancelled", "canceled":
		return model.PaymentStatusFailed
	default:
		return model.PaymentStatusPending
	}
}
