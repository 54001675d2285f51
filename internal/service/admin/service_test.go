package admin

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

func newFixture(t *testing.T) (*Service, *memory.AccountRepository, *memory.AppointmentRepository, *memory.PaymentRepository) {
	t.Helper()
	accounts := memory.NewAccountRepository()
	appointments := memory.NewAppointmentRepository()
	payments := memory.NewPaymentRepository()
	svc := NewService(accounts, appointments, payments, logger.NewLogger(nil))
	return svc, accounts, appointments, payments
}

func TestStats(t *testing.T) {
	svc, accounts, appointments, payments := newFixture(t)
	ctx := context.Background()

	require.NoError(t, accounts.Create(ctx, &model.Account{Email: "a@example.com", Role: model.RoleUser}))
	require.NoError(t, accounts.Create(ctx, &model.Account{Email: "b@example.com", Role: model.RoleDoctor}))

	for _, status := range []model.AppointmentStatus{
		model.AppointmentStatusPending,
		model.AppointmentStatusPending,
		model.AppointmentStatusCompleted,
	} {
		require.NoError(t, appointments.Create(ctx, &model.Appointment{UserID: 1, DoctorID: 1, AppointmentDate: time.Now(), Status: status}))
	}

	require.NoError(t, payments.Create(ctx, &model.Payment{Amount: 2000, Status: model.PaymentStatusCompleted, TransactionID: "t1"}))
	require.NoError(t, payments.Create(ctx, &model.Payment{Amount: 3000, Status: model.PaymentStatusCompleted, TransactionID: "t2"}))
	require.NoError(t, payments.Create(ctx, &model.Payment{Amount: 9999, Status: model.PaymentStatusFailed, TransactionID: "t3"}))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalAppointments)
	assert.Equal(t, int64(2), stats.AppointmentsByState[model.AppointmentStatusPending])
	assert.Equal(t, int64(1), stats.AppointmentsByState[model.AppointmentStatusCompleted])
	// Failed payments do not count toward revenue.
	assert.Equal(t, 5000.0, stats.TotalRevenue)
	assert.Equal(t, 2, stats.TotalUsers)
}

func TestUpdateUserRole(t *testing.T) {
	svc, accounts, _, _ := newFixture(t)
	ctx := context.Background()

	admin := &model.Account{Email: "admin@example.com", Role: model.RoleAdmin}
	require.NoError(t, accounts.Create(ctx, admin))
	user := &model.Account{Email: "user@example.com", Role: model.RoleUser}
	require.NoError(t, accounts.Create(ctx, user))

	caller := &model.TokenClaims{AccountID: admin.ID, Role: model.RoleAdmin}
	require.NoError(t, svc.UpdateUserRole(ctx, caller, user.ID, model.RoleDoctor))

	updated, err := accounts.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, updated.Role)
}

func TestUpdateOwnRoleRejected(t *testing.T) {
	svc, accounts, _, _ := newFixture(t)
	ctx := context.Background()

	admin := &model.Account{Email: "admin@example.com", Role: model.RoleAdmin}
	require.NoError(t, accounts.Create(ctx, admin))

	err := svc.UpdateUserRole(ctx, &model.TokenClaims{AccountID: admin.ID, Role: model.RoleAdmin}, admin.ID, model.RoleUser)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Code)
}

func TestUpdateRoleUnknownUser(t *testing.T) {
	svc, _, _, _ := newFixture(t)

	err := svc.UpdateUserRole(context.Background(), &model.TokenClaims{AccountID: 1, Role: model.RoleAdmin}, 999, model.RoleDoctor)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}
