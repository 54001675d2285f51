package history

import (
	"context"
	"errors"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
	apperrors "github.com/medicare-hq/medicare-api/pkg/errors"
	"github.com/medicare-hq/medicare-api/pkg/logger"
)

// Record is a patient's aggregated medical history: every appointment they
// have booked and every prescription issued to them.
type Record struct {
	Appointments  []*model.Appointment  `json:"appointments"`
	Prescriptions []*model.Prescription `json:"prescriptions"`
}

// UserRecord is the admin/doctor view of another patient's history, with the
// patient's identity attached.
type UserRecord struct {
	User          *model.Account        `json:"user"`
	Appointments  []*model.Appointment  `json:"appointments"`
	Prescriptions []*model.Prescription `json:"prescriptions"`
}

type Service struct {
	appointments  repository.AppointmentRepository
	prescriptions repository.PrescriptionRepository
	accounts      repository.AccountRepository
	logger        *logger.Logger
}

func NewService(
	appointments repository.AppointmentRepository,
	prescriptions repository.PrescriptionRepository,
	accounts repository.AccountRepository,
	l *logger.Logger,
) *Service {
	return &Service{
		appointments:  appointments,
		prescriptions: prescriptions,
		accounts:      accounts,
		logger:        l,
	}
}

// Self returns the caller's own history. Doctors get the history of their
// patient side, not their practice: appointments they booked as a patient.
func (s *Service) Self(ctx context.Context, callerID model.AccountID) (*Record, error) {
	appointments, prescriptions, err := s.collect(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return &Record{Appointments: appointments, Prescriptions: prescriptions}, nil
}

// ForUser returns another patient's history for doctor and admin callers.
// An unknown user is a 404, not an empty record.
func (s *Service) ForUser(ctx context.Context, userID model.AccountID) (*UserRecord, error) {
	account, err := s.accounts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.NewInternal(err)
	}

	appointments, prescriptions, err := s.collect(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserRecord{
		User:          account,
		Appointments:  appointments,
		Prescriptions: prescriptions,
	}, nil
}

func (s *Service) collect(ctx context.Context, userID model.AccountID) ([]*model.Appointment, []*model.Prescription, error) {
	appointments, err := s.appointments.ListByPatient(ctx, userID)
	if err != nil {
		return nil, nil, apperrors.NewInternal(err)
	}
	prescriptions, err := s.prescriptions.ListByPatient(ctx, userID)
	if err != nil {
		return nil, nil, apperrors.NewInternal(err)
	}
	return appointments, prescriptions, nil
}
