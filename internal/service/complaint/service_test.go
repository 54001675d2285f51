package complaint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository/memory"
	"github.com/medicare-hq/medicare-api/pkg/errors"
	"github.com/medicare-hq/medicare-api/pkg/logger"
)

func newFixture(t *testing.T) (*Service, *memory.AppointmentRepository, model.AccountID) {
	t.Helper()
	complaints := memory.NewComplaintRepository()
	appointments := memory.NewAppointmentRepository()
	svc := NewService(complaints, appointments, logger.NewLogger(nil))
	return svc, appointments, model.AccountID(1)
}

func TestSubmitDefaults(t *testing.T) {
	svc, _, userID := newFixture(t)

	c, err := svc.Submit(context.Background(), userID, &model.SubmitComplaintRequest{
		Subject:     "Long waiting time",
		Description: "Waited two hours past the slot.",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusOpen, c.Status)
	assert.Equal(t, "medium", c.Priority)
}

func TestSubmitWithForeignAppointment(t *testing.T) {
	svc, appointments, userID := newFixture(t)

	apt := &model.Appointment{UserID: 42, DoctorID: 1, AppointmentDate: time.Now(), Status: model.AppointmentStatusPending}
	require.NoError(t, appointments.Create(context.Background(), apt))

	_, err := svc.Submit(context.Background(), userID, &model.SubmitComplaintRequest{
		RelatedAppointmentID: &apt.ID,
		Subject:              "Billing",
		Description:          "Charged twice.",
	})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)
}

func TestGetVisibility(t *testing.T) {
	svc, _, userID := newFixture(t)

	c, err := svc.Submit(context.Background(), userID, &model.SubmitComplaintRequest{
		Subject:     "Billing",
		Description: "Charged twice.",
	})
	require.NoError(t, err)

	_, _, err = svc.Get(context.Background(), &model.TokenClaims{AccountID: userID, Role: model.RoleUser}, c.ID)
	require.NoError(t, err)

	_, _, err = svc.Get(context.Background(), &model.TokenClaims{AccountID: 99, Role: model.RoleAdmin}, c.ID)
	require.NoError(t, err)

	_, _, err = svc.Get(context.Background(), &model.TokenClaims{AccountID: 99, Role: model.RoleUser}, c.ID)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)
}

func TestMessageThread(t *testing.T) {
	svc, _, userID := newFixture(t)

	c, err := svc.Submit(context.Background(), userID, &model.SubmitComplaintRequest{
		Subject:     "Billing",
		Description: "Charged twice.",
	})
	require.NoError(t, err)

	_, err = svc.AddMessage(context.Background(), &model.TokenClaims{AccountID: userID, Role: model.RoleUser}, c.ID, "Any update?")
	require.NoError(t, err)
	_, err = svc.AddMessage(context.Background(), &model.TokenClaims{AccountID: 99, Role: model.RoleAdmin}, c.ID, "Refund issued.")
	require.NoError(t, err)

	_, messages, err := svc.Get(context.Background(), &model.TokenClaims{AccountID: userID, Role: model.RoleUser}, c.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, model.RoleUser, messages[0].SenderRole)
	assert.Equal(t, model.RoleAdmin, messages[1].SenderRole)
}

func TestUpdateStatusUnknownComplaint(t *testing.T) {
	svc, _, _ := newFixture(t)

	err := svc.UpdateStatus(context.Background(), 999, model.ComplaintStatusResolved)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}
