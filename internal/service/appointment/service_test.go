package appointment

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository/memory"
	"github.com/medicare-hq/medicare-api/pkg/errors"
	"github.com/medicare-hq/medicare-api/pkg/logger"
)

type notificationRecorder struct {
	mu   sync.Mutex
	sent []*model.Notification
}

func (r *notificationRecorder) Dispatch(n *model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *notificationRecorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Event)
	}
	return out
}

type fixture struct {
	svc      *Service
	accounts *memory.AccountRepository
	doctors  *memory.DoctorRepository
	repo     *memory.AppointmentRepository
	notifs   *notificationRecorder

	patient       *model.Account
	doctorAccount *model.Account
	doctor        *model.DoctorProfile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accounts := memory.NewAccountRepository()
	doctors := memory.NewDoctorRepository()
	repo := memory.NewAppointmentRepository()
	notifs := &notificationRecorder{}

	patient := &model.Account{FirstName: "Joy", LastName: "Wanjiru", Email: "joy@example.com", Role: model.RoleUser}
	require.NoError(t, accounts.Create(context.Background(), patient))

	doctorAccount := &model.Account{FirstName: "Asha", LastName: "Odhiambo", Email: "asha@example.com", Role: model.RoleDoctor}
	require.NoError(t, accounts.Create(context.Background(), doctorAccount))

	fee := 3000.0
	doctor := doctors.Add(&model.DoctorProfile{
		AccountID:      &doctorAccount.ID,
		FirstName:      "Asha",
		LastName:       "Odhiambo",
		Specialization: "Dermatology",
		Fee:            &fee,
	})

	svc := NewService(repo, doctors, accounts, notifs, nil, logger.NewLogger(nil), 2000)
	return &fixture{
		svc:           svc,
		accounts:      accounts,
		doctors:       doctors,
		repo:          repo,
		notifs:        notifs,
		patient:       patient,
		doctorAccount: doctorAccount,
		doctor:        doctor,
	}
}

func (f *fixture) book(t *testing.T) *model.Appointment {
	t.Helper()
	apt, err := f.svc.Book(context.Background(), f.patient.ID, &model.BookAppointmentRequest{
		DoctorID:        f.doctor.ID,
		AppointmentDate: "2026-09-10",
		TimeSlot:        "10:00-10:30",
	})
	require.NoError(t, err)
	return apt
}

func TestBookCapturesDoctorFee(t *testing.T) {
	f := newFixture(t)

	apt := f.book(t)
	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
	assert.Equal(t, 3000.0, apt.TotalAmount)
	assert.False(t, apt.Paid)
	assert.Contains(t, f.notifs.events(), "appointment_booked")
}

func TestBookFallsBackToDefaultFee(t *testing.T) {
	f := newFixture(t)
	noFee := f.doctors.Add(&model.DoctorProfile{FirstName: "Ben", LastName: "Mutiso"})

	apt, err := f.svc.Book(context.Background(), f.patient.ID, &model.BookAppointmentRequest{
		DoctorID:        noFee.ID,
		AppointmentDate: "2026-09-11",
		TimeSlot:        "11:00-11:30",
	})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, apt.TotalAmount)
}

func TestBookUnknownDoctor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), f.patient.ID, &model.BookAppointmentRequest{
		DoctorID:        999,
		AppointmentDate: "2026-09-10",
		TimeSlot:        "10:00-10:30",
	})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}

func TestBookFeeDoesNotTrackLaterChanges(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	// Raising the doctor's fee afterwards must not affect the booked amount.
	newFee := 5000.0
	f.doctor.Fee = &newFee

	stored, err := f.repo.Get(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, stored.TotalAmount)
}

func TestDoctorCompletesAppointment(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	diagnosis := "eczema"
	updated, err := f.svc.UpdateStatusAsDoctor(context.Background(), f.doctorAccount.ID, apt.ID, &model.UpdateStatusRequest{
		Status:    model.AppointmentStatusCompleted,
		Diagnosis: &diagnosis,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, updated.Status)
	require.NotNil(t, updated.Diagnosis)
	assert.Equal(t, "eczema", *updated.Diagnosis)
}

func TestDoctorCannotTouchAnotherDoctorsAppointment(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	otherAccount := &model.Account{FirstName: "Neil", LastName: "Kiprop", Email: "neil@example.com", Role: model.RoleDoctor}
	require.NoError(t, f.accounts.Create(context.Background(), otherAccount))
	f.doctors.Add(&model.DoctorProfile{AccountID: &otherAccount.ID, FirstName: "Neil", LastName: "Kiprop"})

	_, err := f.svc.UpdateStatusAsDoctor(context.Background(), otherAccount.ID, apt.ID, &model.UpdateStatusRequest{
		Status: model.AppointmentStatusCompleted,
	})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)
}

func TestDoctorCannotReopenTerminalAppointment(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	_, err := f.svc.UpdateStatusAsDoctor(context.Background(), f.doctorAccount.ID, apt.ID, &model.UpdateStatusRequest{
		Status: model.AppointmentStatusCancelled,
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatusAsDoctor(context.Background(), f.doctorAccount.ID, apt.ID, &model.UpdateStatusRequest{
		Status: model.AppointmentStatusCompleted,
	})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Code)
}

func TestPatientCancel(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	cancelled, err := f.svc.CancelAsPatient(context.Background(), f.patient.ID, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
}

func TestPatientCancelAlreadyCancelled(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	_, err := f.svc.CancelAsPatient(context.Background(), f.patient.ID, apt.ID)
	require.NoError(t, err)
	before := len(f.notifs.events())

	_, err = f.svc.CancelAsPatient(context.Background(), f.patient.ID, apt.ID)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Code)
	assert.Contains(t, appErr.Message, "already cancelled")
	// No duplicate cancellation notifications.
	assert.Len(t, f.notifs.events(), before)
}

func TestPatientCancelSomeoneElsesAppointment(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	other := &model.Account{FirstName: "Omar", LastName: "Hassan", Email: "omar@example.com", Role: model.RoleUser}
	require.NoError(t, f.accounts.Create(context.Background(), other))

	_, err := f.svc.CancelAsPatient(context.Background(), other.ID, apt.ID)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)
}

func TestAdminOverrideReachesAnyStatus(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	_, err := f.svc.CancelAsPatient(context.Background(), f.patient.ID, apt.ID)
	require.NoError(t, err)

	// The override path can pull a cancelled appointment back to Pending.
	reopened, err := f.svc.OverrideStatus(context.Background(), apt.ID, model.AppointmentStatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, reopened.Status)
}

func TestDeleteAuthz(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	stranger := &model.Account{FirstName: "Eve", LastName: "Njeri", Email: "eve@example.com", Role: model.RoleUser}
	require.NoError(t, f.accounts.Create(context.Background(), stranger))

	err := f.svc.Delete(context.Background(), &model.TokenClaims{AccountID: stranger.ID, Role: model.RoleUser}, apt.ID)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)

	err = f.svc.Delete(context.Background(), &model.TokenClaims{AccountID: f.patient.ID, Role: model.RoleUser}, apt.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), apt.ID)
	appErr, ok = errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t)

	// Owner patient, treating doctor and admin can all read it.
	_, err := f.svc.GetForCaller(context.Background(), &model.TokenClaims{AccountID: f.patient.ID, Role: model.RoleUser}, apt.ID)
	require.NoError(t, err)
	_, err = f.svc.GetForCaller(context.Background(), &model.TokenClaims{AccountID: f.doctorAccount.ID, Role: model.RoleDoctor}, apt.ID)
	require.NoError(t, err)
	_, err = f.svc.GetForCaller(context.Background(), &model.TokenClaims{AccountID: 999, Role: model.RoleAdmin}, apt.ID)
	require.NoError(t, err)

	// A foreign patient is refused.
	stranger := &model.Account{FirstName: "Omar", LastName: "Hassan", Email: "omar2@example.com", Role: model.RoleUser}
	require.NoError(t, f.accounts.Create(context.Background(), stranger))
	_, err = f.svc.GetForCaller(context.Background(), &model.TokenClaims{AccountID: stranger.ID, Role: model.RoleUser}, apt.ID)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)

	// So is a doctor who is not treating this appointment.
	otherAccount := &model.Account{FirstName: "Neil", LastName: "Kiprop", Email: "neil2@example.com", Role: model.RoleDoctor}
	require.NoError(t, f.accounts.Create(context.Background(), otherAccount))
	f.doctors.Add(&model.DoctorProfile{AccountID: &otherAccount.ID, FirstName: "Neil", LastName: "Kiprop"})
	_, err = f.svc.GetForCaller(context.Background(), &model.TokenClaims{AccountID: otherAccount.ID, Role: model.RoleDoctor}, apt.ID)
	appErr, ok = errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)
}

func TestListForDoctorRequiresProfile(t *testing.T) {
	f := newFixture(t)

	orphan := &model.Account{FirstName: "Sam", LastName: "Otieno", Email: "sam@example.com", Role: model.RoleDoctor}
	require.NoError(t, f.accounts.Create(context.Background(), orphan))

	_, err := f.svc.ListForDoctor(context.Background(), orphan.ID)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}
