package payment

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository/memory"
	"github.com/medicare-hq/medicare-api/pkg/errors"
	"github.com/medicare-hq/medicare-api/pkg/gateway/card"
	"github.com/medicare-hq/medicare-api/pkg/logger"
	"github.com/medicare-hq/medicare-api/pkg/metrics"
)

const webhookSecret = "whsec_test"

// Registered once; promauto panics on duplicate registration.
var testMetrics = metrics.NewMetrics("payment_test")

type notificationRecorder struct {
	mu   sync.Mutex
	sent []*model.Notification
}

func (r *notificationRecorder) Dispatch(n *model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

type fakeGateway struct {
	sessions int
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, appointmentID int64, amount float64) (*card.CheckoutSession, error) {
	g.sessions++
	return &card.CheckoutSession{ID: "cs_test_1", URL: "https://pay.example/cs_test_1", PaymentIntent: "pi_test_1"}, nil
}

func (g *fakeGateway) WebhookSecret() string { return webhookSecret }

type fixture struct {
	svc          *Service
	payments     *memory.PaymentRepository
	appointments *memory.AppointmentRepository
	accounts     *memory.AccountRepository
	gateway      *fakeGateway
	notifs       *notificationRecorder

	patient *model.Account
	apt     *model.Appointment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	payments := memory.NewPaymentRepository()
	appointments := memory.NewAppointmentRepository()
	accounts := memory.NewAccountRepository()
	gateway := &fakeGateway{}
	notifs := &notificationRecorder{}

	patient := &model.Account{FirstName: "Joy", LastName: "Wanjiru", Email: "joy@example.com", Role: model.RoleUser}
	require.NoError(t, accounts.Create(context.Background(), patient))

	apt := &model.Appointment{
		UserID:          patient.ID,
		DoctorID:        1,
		AppointmentDate: time.Now().AddDate(0, 0, 7),
		TimeSlot:        "10:00-10:30",
		TotalAmount:     5000,
		Status:          model.AppointmentStatusPending,
	}
	require.NoError(t, appointments.Create(context.Background(), apt))

	svc := NewService(payments, appointments, accounts, gateway, notifs, testMetrics, logger.NewLogger(nil))
	return &fixture{
		svc:          svc,
		payments:     payments,
		appointments: appointments,
		accounts:     accounts,
		gateway:      gateway,
		notifs:       notifs,
		patient:      patient,
		apt:          apt,
	}
}

func sessionEvent(t *testing.T, appointmentID int64, amountCents int64, paymentStatus string) []byte {
	t.Helper()
	obj, err := json.Marshal(map[string]interface{}{
		"id":             "cs_test_1",
		"amount_total":   amountCents,
		"currency":       "kes",
		"payment_intent": "pi_test_1",
		"payment_status": paymentStatus,
		"metadata":       map[string]string{"appointment_id": jsonInt(appointmentID)},
	})
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]interface{}{
		"id":   "evt_1",
		"type": card.EventCheckoutCompleted,
		"data": map[string]interface{}{"object": json.RawMessage(obj)},
	})
	require.NoError(t, err)
	return payload
}

func intentEvent(t *testing.T, eventType, intentID string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":   "evt_2",
		"type": eventType,
		"data": map[string]interface{}{
			"object": map[string]interface{}{"id": intentID, "status": "done"},
		},
	})
	require.NoError(t, err)
	return payload
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	payload := sessionEvent(t, f.apt.ID, 500000, "paid")

	err := f.svc.HandleCardWebhook(context.Background(), payload, "deadbeef")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Code)

	assert.Empty(t, f.payments.All())
	stored, _ := f.appointments.Get(context.Background(), f.apt.ID)
	assert.False(t, stored.Paid)
}

func TestWebhookSessionCompleted(t *testing.T) {
	f := newFixture(t)
	payload := sessionEvent(t, f.apt.ID, 500000, "paid")

	err := f.svc.HandleCardWebhook(context.Background(), payload, card.Sign(payload, webhookSecret))
	require.NoError(t, err)

	all := f.payments.All()
	require.Len(t, all, 1)
	assert.Equal(t, "pi_test_1", all[0].TransactionID)
	assert.Equal(t, model.PaymentStatusCompleted, all[0].Status)
	// Minor-unit amounts are converted on the way in.
	assert.Equal(t, 5000.0, all[0].Amount)

	stored, _ := f.appointments.Get(context.Background(), f.apt.ID)
	assert.True(t, stored.Paid)
	assert.Equal(t, model.AppointmentStatusConfirmed, stored.Status)
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	payload := sessionEvent(t, f.apt.ID, 500000, "paid")
	sig := card.Sign(payload, webhookSecret)

	require.NoError(t, f.svc.HandleCardWebhook(context.Background(), payload, sig))
	require.NoError(t, f.svc.HandleCardWebhook(context.Background(), payload, sig))
	require.NoError(t, f.svc.HandleCardWebhook(context.Background(), payload, sig))

	assert.Len(t, f.payments.All(), 1)
	stored, _ := f.appointments.Get(context.Background(), f.apt.ID)
	assert.True(t, stored.Paid)
	assert.Equal(t, model.AppointmentStatusConfirmed, stored.Status)
}

func TestWebhookLeavesTerminalAppointmentAlone(t *testing.T) {
	f := newFixture(t)
	f.apt.Status = model.AppointmentStatusCancelled
	require.NoError(t, f.appointments.Update(context.Background(), f.apt))

	payload := sessionEvent(t, f.apt.ID, 500000, "paid")
	err := f.svc.HandleCardWebhook(context.Background(), payload, card.Sign(payload, webhookSecret))
	require.NoError(t, err)

	// The money is recorded, the lifecycle is not reopened.
	require.Len(t, f.payments.All(), 1)
	stored, _ := f.appointments.Get(context.Background(), f.apt.ID)
	assert.False(t, stored.Paid)
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status)
}

func TestWebhookIntentFailed(t *testing.T) {
	f := newFixture(t)
	session := sessionEvent(t, f.apt.ID, 500000, "unpaid")
	require.NoError(t, f.svc.HandleCardWebhook(context.Background(), session, card.Sign(session, webhookSecret)))

	failed := intentEvent(t, card.EventPaymentIntentFailed, "pi_test_1")
	require.NoError(t, f.svc.HandleCardWebhook(context.Background(), failed, card.Sign(failed, webhookSecret)))

	p, err := f.payments.GetByTransactionID(context.Background(), "pi_test_1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, p.Status)

	stored, _ := f.appointments.Get(context.Background(), f.apt.ID)
	assert.False(t, stored.Paid)
}

func TestWebhookIntentSucceededCascades(t *testing.T) {
	f := newFixture(t)
	session := sessionEvent(t, f.apt.ID, 500000, "unpaid")
	require.NoError(t, f.svc.HandleCardWebhook(context.Background(), session, card.Sign(session, webhookSecret)))

	ok := intentEvent(t, card.EventPaymentIntentOK, "pi_test_1")
	require.NoError(t, f.svc.HandleCardWebhook(context.Background(), ok, card.Sign(ok, webhookSecret)))

	p, err := f.payments.GetByTransactionID(context.Background(), "pi_test_1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, p.Status)
	require.NotNil(t, p.PaymentDate)

	stored, _ := f.appointments.Get(context.Background(), f.apt.ID)
	assert.True(t, stored.Paid)
	assert.Equal(t, model.AppointmentStatusConfirmed, stored.Status)
}

func TestWebhookIgnoresUnknownEventType(t *testing.T) {
	f := newFixture(t)
	payload, err := json.Marshal(map[string]interface{}{
		"id":   "evt_3",
		"type": "customer.created",
		"data": map[string]interface{}{"object": map[string]interface{}{}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.HandleCardWebhook(context.Background(), payload, card.Sign(payload, webhookSecret)))
	assert.Empty(t, f.payments.All())
}

func TestCreateCheckoutOwnership(t *testing.T) {
	f := newFixture(t)

	stranger := &model.Account{FirstName: "Eve", LastName: "Njeri", Email: "eve@example.com", Role: model.RoleUser}
	require.NoError(t, f.accounts.Create(context.Background(), stranger))

	_, err := f.svc.CreateCheckout(context.Background(), &model.TokenClaims{AccountID: stranger.ID, Role: model.RoleUser}, &model.CreateCheckoutRequest{
		AppointmentID: f.apt.ID,
		Amount:        5000,
	})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)
	assert.Zero(t, f.gateway.sessions)
}

func TestCreateCheckoutAlreadyPaid(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.appointments.SetPaid(context.Background(), f.apt.ID, true))

	_, err := f.svc.CreateCheckout(context.Background(), &model.TokenClaims{AccountID: f.patient.ID, Role: model.RoleUser}, &model.CreateCheckoutRequest{
		AppointmentID: f.apt.ID,
		Amount:        5000,
	})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.Code)
}

func TestConfirmIsAdvisoryOnly(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.Confirm(context.Background(), &model.TokenClaims{AccountID: f.patient.ID, Role: model.RoleUser}, &model.ConfirmPaymentRequest{
		AppointmentID: f.apt.ID,
		Amount:        5000,
		TransactionID: "pi_client_reported",
		PaymentStatus: "succeeded",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, p.Status)

	// Client-reported confirmation never flips the appointment.
	stored, _ := f.appointments.Get(context.Background(), f.apt.ID)
	assert.False(t, stored.Paid)
	assert.Equal(t, model.AppointmentStatusPending, stored.Status)
}

func TestConfirmReplaySingleRow(t *testing.T) {
	f := newFixture(t)
	req := &model.ConfirmPaymentRequest{
		AppointmentID: f.apt.ID,
		Amount:        5000,
		TransactionID: "pi_client_reported",
		PaymentStatus: "paid",
	}
	caller := &model.TokenClaims{AccountID: f.patient.ID, Role: model.RoleUser}

	_, err := f.svc.Confirm(context.Background(), caller, req)
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), caller, req)
	require.NoError(t, err)

	assert.Len(t, f.payments.All(), 1)
}
