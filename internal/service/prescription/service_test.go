package prescription

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
	svc          *Service
	accounts     *memory.AccountRepository
	doctors      *memory.DoctorRepository
	appointments *memory.AppointmentRepository

	patient       *model.Account
	doctorAccount *model.Account
	doctor        *model.DoctorProfile
	apt           *model.Appointment
}

func newFixture(t *testing.T, status model.AppointmentStatus) *fixture {
	t.Helper()
	prescriptions := memory.NewPrescriptionRepository()
	appointments := memory.NewAppointmentRepository()
	doctors := memory.NewDoctorRepository()
	accounts := memory.NewAccountRepository()

	patient := &model.Account{FirstName: "Joy", LastName: "Wanjiru", Email: "joy@example.com", Role: model.RoleUser}
	require.NoError(t, accounts.Create(context.Background(), patient))
	doctorAccount := &model.Account{FirstName: "Asha", LastName: "Odhiambo", Email: "asha@example.com", Role: model.RoleDoctor}
	require.NoError(t, accounts.Create(context.Background(), doctorAccount))

	doctor := doctors.Add(&model.DoctorProfile{AccountID: &doctorAccount.ID, FirstName: "Asha", LastName: "Odhiambo"})

	apt := &model.Appointment{
		UserID:          patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: time.Now(),
		TimeSlot:        "10:00-10:30",
		Status:          status,
	}
	require.NoError(t, appointments.Create(context.Background(), apt))

	svc := NewService(prescriptions, appointments, doctors, logger.NewLogger(nil))
	return &fixture{
		svc:           svc,
		accounts:      accounts,
		doctors:       doctors,
		appointments:  appointments,
		patient:       patient,
		doctorAccount: doctorAccount,
		doctor:        doctor,
		apt:           apt,
	}
}

func createRequest(appointmentID int64) *model.CreatePrescriptionRequest {
	return &model.CreatePrescriptionRequest{
		AppointmentID: appointmentID,
		Medicines: []model.Medicine{
			{Name: "Cetirizine", Dosage: "10mg", Instructions: "once daily"},
		},
		Notes: "review in two weeks",
	}
}

func TestCreatePrescription(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)

	p, err := f.svc.Create(context.Background(), f.doctorAccount.ID, createRequest(f.apt.ID))
	require.NoError(t, err)
	assert.Equal(t, f.apt.ID, p.AppointmentID)
	assert.Equal(t, f.doctor.ID, p.DoctorID)
	assert.Equal(t, f.patient.ID, p.PatientID)
	assert.Len(t, p.Medicines, 1)
}

func TestCreateRequiresCompletedAppointment(t *testing.T) {
	for _, status := range []model.AppointmentStatus{
		model.AppointmentStatusPending,
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	} {
		f := newFixture(t, status)
		_, err := f.svc.Create(context.Background(), f.doctorAccount.ID, createRequest(f.apt.ID))
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok, "status %s", status)
		assert.Equal(t, 400, appErr.Code, "status %s", status)
	}
}

func TestCreateUnknownAppointment(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)

	_, err := f.svc.Create(context.Background(), f.doctorAccount.ID, createRequest(999))
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}

// Ownership is checked before the status gate: a foreign doctor probing a
// non-completed appointment learns nothing about its state.
func TestCreateOwnershipBeforeStatus(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusPending)

	otherAccount := &model.Account{FirstName: "Neil", LastName: "Kiprop", Email: "neil@example.com", Role: model.RoleDoctor}
	require.NoError(t, f.accounts.Create(context.Background(), otherAccount))
	f.doctors.Add(&model.DoctorProfile{AccountID: &otherAccount.ID, FirstName: "Neil", LastName: "Kiprop"})

	_, err := f.svc.Create(context.Background(), otherAccount.ID, createRequest(f.apt.ID))
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)
}

func TestCreateDuplicateConflicts(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)

	_, err := f.svc.Create(context.Background(), f.doctorAccount.ID, createRequest(f.apt.ID))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.doctorAccount.ID, createRequest(f.apt.ID))
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.Code)
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)
	p, err := f.svc.Create(context.Background(), f.doctorAccount.ID, createRequest(f.apt.ID))
	require.NoError(t, err)

	// Patient, prescribing doctor and admin can read it.
	for _, caller := range []*model.TokenClaims{
		{AccountID: f.patient.ID, Role: model.RoleUser},
		{AccountID: f.doctorAccount.ID, Role: model.RoleDoctor},
		{AccountID: 999, Role: model.RoleAdmin},
	} {
		got, err := f.svc.Get(context.Background(), caller, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	}

	// A different patient cannot.
	other := &model.Account{FirstName: "Omar", LastName: "Hassan", Email: "omar@example.com", Role: model.RoleUser}
	require.NoError(t, f.accounts.Create(context.Background(), other))
	_, err = f.svc.Get(context.Background(), &model.TokenClaims{AccountID: other.ID, Role: model.RoleUser}, p.ID)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)
}
