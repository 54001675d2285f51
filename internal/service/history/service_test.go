package history

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

type fixture struct {
	svc           *Service
	accounts      *memory.AccountRepository
	appointments  *memory.AppointmentRepository
	prescriptions *memory.PrescriptionRepository

	patient *model.Account
	other   *model.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accounts := memory.NewAccountRepository()
	appointments := memory.NewAppointmentRepository()
	prescriptions := memory.NewPrescriptionRepository()

	patient := &model.Account{FirstName: "Joy", LastName: "Wanjiru", Email: "joy@example.com", Role: model.RoleUser}
	require.NoError(t, accounts.Create(context.Background(), patient))
	other := &model.Account{FirstName: "Omar", LastName: "Hassan", Email: "omar@example.com", Role: model.RoleUser}
	require.NoError(t, accounts.Create(context.Background(), other))

	svc := NewService(appointments, prescriptions, accounts, logger.NewLogger(nil))
	return &fixture{
		svc:           svc,
		accounts:      accounts,
		appointments:  appointments,
		prescriptions: prescriptions,
		patient:       patient,
		other:         other,
	}
}

func (f *fixture) seed(t *testing.T, patientID model.AccountID) *model.Appointment {
	t.Helper()
	apt := &model.Appointment{
		UserID:          patientID,
		DoctorID:        1,
		AppointmentDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Status:          model.AppointmentStatusCompleted,
	}
	require.NoError(t, f.appointments.Create(context.Background(), apt))
	require.NoError(t, f.prescriptions.Create(context.Background(), &model.Prescription{
		AppointmentID: apt.ID,
		DoctorID:      1,
		PatientID:     patientID,
		Medicines:     model.Medicines{{Name: "Amoxicillin", Dosage: "500mg"}},
	}))
	return apt
}

func TestSelfAggregatesOwnRecordsOnly(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.patient.ID)
	f.seed(t, f.other.ID)

	record, err := f.svc.Self(context.Background(), f.patient.ID)
	require.NoError(t, err)
	require.Len(t, record.Appointments, 1)
	require.Len(t, record.Prescriptions, 1)
	assert.Equal(t, f.patient.ID, record.Appointments[0].UserID)
	assert.Equal(t, f.patient.ID, record.Prescriptions[0].PatientID)
}

func TestSelfWithNoHistory(t *testing.T) {
	f := newFixture(t)

	record, err := f.svc.Self(context.Background(), f.patient.ID)
	require.NoError(t, err)
	assert.Empty(t, record.Appointments)
	assert.Empty(t, record.Prescriptions)
}

func TestForUserIncludesIdentity(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.patient.ID)

	record, err := f.svc.ForUser(context.Background(), f.patient.ID)
	require.NoError(t, err)
	require.NotNil(t, record.User)
	assert.Equal(t, "joy@example.com", record.User.Email)
	assert.Len(t, record.Appointments, 1)
	assert.Len(t, record.Prescriptions, 1)
}

func TestForUserUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ForUser(context.Background(), 999)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}
