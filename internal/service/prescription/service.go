package prescription

import (
	"context"
	"errors"
	"time"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
	"github.com/medicare-hq/medicare-api/pkg/authz"
	apperrors "github.com/medicare-hq/medicare-api/pkg/errors"
	"github.com/medicare-hq/medicare-api/pkg/logger"
)

type Service struct {
	prescriptions repository.PrescriptionRepository
	appointments  repository.AppointmentRepository
	doctors       repository.DoctorRepository
	logger        *logger.Logger
}

func NewService(
	prescriptions repository.PrescriptionRepository,
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	l *logger.Logger,
) *Service {
	return &Service{
		prescriptions: prescriptions,
		appointments:  appointments,
		doctors:       doctors,
		logger:        l,
	}
}

// Create issues a prescription against a completed appointment. The checks
// run in a fixed order: the appointment must exist, belong to the calling
// doctor, and be Completed, and only then does uniqueness apply.
func (s *Service) Create(ctx context.Context, doctorAccountID model.AccountID, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	doctor, err := s.doctors.GetByAccountID(ctx, doctorAccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("doctor profile")
		}
		return nil, apperrors.NewInternal(err)
	}

	apt, err := s.appointments.Get(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("appointment")
		}
		return nil, apperrors.NewInternal(err)
	}
	if apt.DoctorID != doctor.ID {
		return nil, apperrors.NewForbidden("appointment does not belong to you")
	}
	if apt.Status != model.AppointmentStatusCompleted {
		return nil, apperrors.NewBadRequest("prescriptions can only be created for completed appointments")
	}

	p := &model.Prescription{
		AppointmentID: req.AppointmentID,
		DoctorID:      doctor.ID,
		PatientID:     apt.UserID,
		Medicines:     model.Medicines(req.Medicines),
		Notes:         req.Notes,
		IssuedAt:      time.Now().UTC(),
	}

	if err := s.prescriptions.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("a prescription already exists for this appointment")
		}
		return nil, apperrors.NewInternal(err)
	}
	return p, nil
}

// Get returns a single prescription, visible to its patient, the prescribing
// doctor, and admins.
func (s *Service) Get(ctx context.Context, caller *model.TokenClaims, id int64) (*model.Prescription, error) {
	p, err := s.prescriptions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("prescription")
		}
		return nil, apperrors.NewInternal(err)
	}

	if authz.OwnerOrRole(caller.AccountID, caller.Role, p.PatientID, model.RoleAdmin) {
		return p, nil
	}
	if caller.Role == model.RoleDoctor {
		doctor, err := s.doctors.GetByAccountID(ctx, caller.AccountID)
		if err == nil && doctor.ID == p.DoctorID {
			return p, nil
		}
	}
	return nil, apperrors.NewForbidden("prescription does not belong to you")
}

func (s *Service) ListForPatient(ctx context.Context, patientID model.AccountID) ([]*model.Prescription, error) {
	list, err := s.prescriptions.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return list, nil
}

func (s *Service) ListForDoctor(ctx context.Context, doctorAccountID model.AccountID) ([]*model.Prescription, error) {
	doctor, err := s.doctors.GetByAccountID(ctx, doctorAccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("doctor profile")
		}
		return nil, apperrors.NewInternal(err)
	}
	list, err := s.prescriptions.ListByDoctor(ctx, doctor.ID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return list, nil
}
