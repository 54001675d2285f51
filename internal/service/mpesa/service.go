package mpesa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medicare-hq/medicare-api/internal/email"
	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
	"github.com/medicare-hq/medicare-api/internal/service/notification"
	apperrors "github.com/medicare-hq/medicare-api/pkg/errors"
	"github.com/medicare-hq/medicare-api/pkg/gateway/mpesa"
	"github.com/medicare-hq/medicare-api/pkg/logger"
	"github.com/medicare-hq/medicare-api/pkg/metrics"
)

// PushGateway is the slice of the mobile-money client this service needs.
type PushGateway interface {
	InitiateSTKPush(ctx context.Context, phone string, amount float64, accountRef string) (*mpesa.STKPushResponse, error)
}

type Service struct {
	payments     repository.PaymentRepository
	appointments repository.AppointmentRepository
	accounts     repository.AccountRepository
	gateway      PushGateway
	notifSvc     notification.Service
	metrics      *metrics.Metrics
	logger       *logger.Logger
}

func NewService(
	payments repository.PaymentRepository,
	appointments repository.AppointmentRepository,
	accounts repository.AccountRepository,
	gateway PushGateway,
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

// Initiate sends a push-payment prompt to the caller's phone for one of
// their appointments. The account reference carries the appointment id so
// the asynchronous callback can find it again.
func (s *Service) Initiate(ctx context.Context, caller *model.TokenClaims, req *model.InitiateMobilePaymentRequest) (*mpesa.STKPushResponse, error) {
	apt, err := s.appointments.Get(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("appointment")
		}
		return nil, apperrors.NewInternal(err)
	}
	if apt.UserID != caller.AccountID && caller.Role != model.RoleAdmin {
		return nil, apperrors.NewForbidden("appointment does not belong to you")
	}
	if apt.Paid {
		return nil, apperrors.NewConflict("appointment is already paid")
	}

	ref := fmt.Sprintf("%s%d", mpesa.AccountReferencePrefix, req.AppointmentID)
	ack, err := s.gateway.InitiateSTKPush(ctx, req.Phone, req.Amount, ref)
	if err != nil {
		return nil, apperrors.NewUpstream("mpesa gateway", err)
	}
	return ack, nil
}

// HandleCallback processes the gateway's asynchronous result. The gateway
// has no signature; failures here are logged and swallowed so it always
// receives an acknowledgement and does not retry indefinitely.
func (s *Service) HandleCallback(ctx context.Context, envelope *mpesa.CallbackEnvelope) {
	cb := &envelope.Body.StkCallback
	s.metrics.WebhookEventsProcessed.WithLabelValues("mpesa", "stk_callback").Inc()

	if cb.ResultCode != mpesa.ResultCodeSuccess {
		s.logger.Info("push payment declined",
			"checkout_request_id", cb.CheckoutRequestID, "result_code", cb.ResultCode, "result_desc", cb.ResultDesc)
		s.recordDecline(ctx, cb)
		return
	}

	receipt := cb.MetaString(mpesa.MetaReceiptNumber)
	if receipt == "" {
		s.logger.Warn("push callback missing receipt number", "checkout_request_id", cb.CheckoutRequestID)
		return
	}
	amount, _ := cb.MetaFloat(mpesa.MetaAmount)

	p := &model.Payment{
		Amount:        amount,
		Status:        model.PaymentStatusCompleted,
		TransactionID: receipt,
	}
	now := time.Now().UTC()
	p.PaymentDate = &now

	appointmentID, ok := mpesa.AppointmentIDFromReference(cb.AccountReference)
	if ok {
		p.AppointmentID = &appointmentID
	} else {
		s.logger.Warn("push callback has no resolvable appointment reference",
			"account_reference", cb.AccountReference, "receipt", receipt)
	}

	// Keyed on the receipt number: a redelivered callback updates the same
	// row instead of creating a second one.
	if err := s.payments.Upsert(ctx, p); err != nil {
		s.logger.Error(err, "failed to record mobile payment", "receipt", receipt)
		return
	}

	if ok {
		s.markPaid(ctx, appointmentID, p)
	}
}

// recordDecline keeps a failed attempt in the ledger when the gateway sent a
// receipt along. Most declines carry no metadata at all; those are log-only.
func (s *Service) recordDecline(ctx context.Context, cb *mpesa.StkCallback) {
	receipt := cb.MetaString(mpesa.MetaReceiptNumber)
	if receipt == "" {
		return
	}
	amount, _ := cb.MetaFloat(mpesa.MetaAmount)

	p := &model.Payment{
		Amount:        amount,
		Status:        model.PaymentStatusFailed,
		TransactionID: receipt,
	}
	if appointmentID, ok := mpesa.AppointmentIDFromReference(cb.AccountReference); ok {
		p.AppointmentID = &appointmentID
	}
	if err := s.payments.Upsert(ctx, p); err != nil {
		s.logger.Error(err, "failed to record declined mobile payment", "receipt", receipt)
	}
}

func (s *Service) markPaid(ctx context.Context, appointmentID int64, p *model.Payment) {
	apt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		s.logger.Warn("mobile payment references unknown appointment",
			"appointment_id", appointmentID, "receipt", p.TransactionID)
		return
	}
	if apt.Status.Terminal() {
		s.logger.Warn("mobile payment landed on closed appointment, skipping state change",
			"appointment_id", appointmentID, "status", string(apt.Status), "receipt", p.TransactionID)
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
	subject, content := email.PaymentReceivedBody(account.FirstName, p.Amount, appointmentID)
	s.notifSvc.Dispatch(&model.Notification{
		Recipient: account.Email,
		Subject:   subject,
		Content:   content,
		Event:     "payment_received",
	})
}
