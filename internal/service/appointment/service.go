package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medicare-hq/medicare-api/internal/email"
	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
	"github.com/medicare-hq/medicare-api/internal/service/notification"
	apperrors "github.com/medicare-hq/medicare-api/pkg/errors"
	"github.com/medicare-hq/medicare-api/pkg/logger"
	"github.com/medicare-hq/medicare-api/pkg/metrics"
)

// DefaultConsultationFee applies when a doctor profile has no configured fee.
const DefaultConsultationFee = 2000

type Service struct {
	repo        repository.AppointmentRepository
	doctorRepo  repository.DoctorRepository
	accountRepo repository.AccountRepository
	notifSvc    notification.Service
	metrics     *metrics.Metrics
	logger      *logger.Logger
	defaultFee  float64
}

func NewService(
	repo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	accountRepo repository.AccountRepository,
	notifSvc notification.Service,
	m *metrics.Metrics,
	l *logger.Logger,
	defaultFee float64,
) *Service {
	if defaultFee <= 0 {
		defaultFee = DefaultConsultationFee
	}
	return &Service{
		repo:        repo,
		doctorRepo:  doctorRepo,
		accountRepo: accountRepo,
		notifSvc:    notifSvc,
		metrics:     m,
		logger:      l,
		defaultFee:  defaultFee,
	}
}

// Book creates a Pending appointment for the calling patient. The fee is
// captured into total_amount at booking time and never recomputed.
func (s *Service) Book(ctx context.Context, patientID model.AccountID, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	doctor, err := s.doctorRepo.Get(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("doctor")
		}
		return nil, apperrors.NewInternal(err)
	}

	date, err := time.Parse("2006-01-02", req.AppointmentDate)
	if err != nil {
		return nil, apperrors.NewBadRequest("appointment_date must be formatted YYYY-MM-DD")
	}

	fee := s.defaultFee
	if doctor.Fee != nil && *doctor.Fee > 0 {
		fee = *doctor.Fee
	}

	apt := &model.Appointment{
		UserID:          patientID,
		DoctorID:        doctor.ID,
		AppointmentDate: date,
		TimeSlot:        strings.TrimSpace(req.TimeSlot),
		TotalAmount:     fee,
		Status:          model.AppointmentStatusPending,
		Paid:            false,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, apperrors.NewInternal(err)
	}

	s.countTransition(model.AppointmentStatusPending, "patient")
	s.notifyPatient(ctx, apt, "appointment_booked", func(name string) (string, string) {
		return email.BookingConfirmationBody(name, apt)
	})

	return apt, nil
}

// ListForPatient returns the caller's own appointments.
func (s *Service) ListForPatient(ctx context.Context, patientID model.AccountID) ([]*model.Appointment, error) {
	appointments, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return appointments, nil
}

// ListForDoctor resolves the caller's Account to a Doctor Profile first; a
// doctor-role caller without a profile is an error, not an empty list.
func (s *Service) ListForDoctor(ctx context.Context, doctorAccountID model.AccountID) ([]*model.Appointment, error) {
	doctor, err := s.resolveDoctor(ctx, doctorAccountID)
	if err != nil {
		return nil, err
	}
	appointments, err := s.repo.ListByDoctor(ctx, doctor.ID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return appointments, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*model.Appointment, error) {
	appointments, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return appointments, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.DoctorProfile, error) {
	doctors, err := s.doctorRepo.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return doctors, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("appointment")
		}
		return nil, apperrors.NewInternal(err)
	}
	return apt, nil
}

// GetForCaller returns one appointment, visible to the owning patient, the
// treating doctor, and admins. Doctor callers are resolved through their
// Doctor Profile, the same way the listings are.
func (s *Service) GetForCaller(ctx context.Context, caller *model.TokenClaims, id int64) (*model.Appointment, error) {
	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case model.RoleAdmin:
		return apt, nil
	case model.RoleDoctor:
		doctor, err := s.resolveDoctor(ctx, caller.AccountID)
		if err != nil {
			return nil, err
		}
		if apt.DoctorID != doctor.ID {
			return nil, apperrors.NewForbidden("appointment does not belong to you")
		}
		return apt, nil
	default:
		if apt.UserID != caller.AccountID {
			return nil, apperrors.NewForbidden("appointment does not belong to you")
		}
		return apt, nil
	}
}

// UpdateStatusAsDoctor applies a doctor-path transition. The caller must own
// the appointment through their Doctor Profile. Clinical fields are persisted
// only when completing.
func (s *Service) UpdateStatusAsDoctor(ctx context.Context, doctorAccountID model.AccountID, appointmentID int64, req *model.UpdateStatusRequest) (*model.Appointment, error) {
	doctor, err := s.resolveDoctor(ctx, doctorAccountID)
	if err != nil {
		return nil, err
	}

	apt, err := s.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if apt.DoctorID != doctor.ID {
		return nil, apperrors.NewForbidden("appointment does not belong to you")
	}
	if apt.Status.Terminal() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("appointment is already %s", apt.Status))
	}

	apt.Status = req.Status
	if req.Status == model.AppointmentStatusCompleted {
		if req.Diagnosis != nil {
			apt.Diagnosis = req.Diagnosis
		}
		if req.Treatment != nil {
			apt.Treatment = req.Treatment
		}
		if req.Notes != nil {
			apt.Notes = req.Notes
		}
	}

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, apperrors.NewInternal(err)
	}

	s.countTransition(apt.Status, "doctor")
	s.notifyPatient(ctx, apt, "appointment_status_changed", func(name string) (string, string) {
		return email.StatusChangeBody(name, apt)
	})

	return apt, nil
}

// CancelAsPatient cancels the caller's own appointment. Cancelling an
// already-cancelled appointment is a conflict; no state changes and no
// duplicate notification goes out.
func (s *Service) CancelAsPatient(ctx context.Context, patientID model.AccountID, appointmentID int64) (*model.Appointment, error) {
	apt, err := s.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if apt.UserID != patientID {
		return nil, apperrors.NewForbidden("appointment does not belong to you")
	}
	if apt.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.NewBadRequest("appointment already cancelled")
	}
	if apt.Status == model.AppointmentStatusCompleted {
		return nil, apperrors.NewBadRequest("cannot cancel a completed appointment")
	}

	apt.Status = model.AppointmentStatusCancelled
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, apperrors.NewInternal(err)
	}

	s.countTransition(model.AppointmentStatusCancelled, "patient")
	s.notifyPatient(ctx, apt, "appointment_cancelled", func(name string) (string, string) {
		return email.CancellationBody(name, apt)
	})
	s.notifyDoctor(ctx, apt, "appointment_cancelled")

	return apt, nil
}

// OverrideStatus is the admin path: any status, including back to Pending.
func (s *Service) OverrideStatus(ctx context.Context, appointmentID int64, status model.AppointmentStatus) (*model.Appointment, error) {
	apt, err := s.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	apt.Status = status
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, apperrors.NewInternal(err)
	}

	s.countTransition(status, "admin")
	s.notifyPatient(ctx, apt, "appointment_status_changed", func(name string) (string, string) {
		return email.StatusChangeBody(name, apt)
	})
	s.notifyDoctor(ctx, apt, "appointment_status_changed")

	return apt, nil
}

func (s *Service) UpdateAmount(ctx context.Context, appointmentID int64, amount float64) (*model.Appointment, error) {
	apt, err := s.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	apt.TotalAmount = amount
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return apt, nil
}

// Delete removes an appointment. Allowed for admins, the owning patient, and
// the owning doctor.
func (s *Service) Delete(ctx context.Context, caller *model.TokenClaims, appointmentID int64) error {
	apt, err := s.Get(ctx, appointmentID)
	if err != nil {
		return err
	}

	allowed := caller.Role == model.RoleAdmin || apt.UserID == caller.AccountID
	if !allowed && caller.Role == model.RoleDoctor {
		doctor, err := s.resolveDoctor(ctx, caller.AccountID)
		if err == nil && doctor.ID == apt.DoctorID {
			allowed = true
		}
	}
	if !allowed {
		return apperrors.NewForbidden("you do not have permission to delete this appointment")
	}

	if err := s.repo.Delete(ctx, appointmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("appointment")
		}
		return apperrors.NewInternal(err)
	}
	return nil
}

// Stats aggregates appointment counts by status for the admin dashboard.
func (s *Service) Stats(ctx context.Context) (map[model.AppointmentStatus]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return counts, nil
}

func (s *Service) resolveDoctor(ctx context.Context, accountID model.AccountID) (*model.DoctorProfile, error) {
	doctor, err := s.doctorRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("doctor profile")
		}
		return nil, apperrors.NewInternal(err)
	}
	return doctor, nil
}

func (s *Service) countTransition(status model.AppointmentStatus, actor string) {
	if s.metrics != nil {
		s.metrics.AppointmentTransitions.WithLabelValues(string(status), actor).Inc()
	}
}

func (s *Service) notifyPatient(ctx context.Context, apt *model.Appointment, event string, body func(string) (string, string)) {
	account, err := s.accountRepo.Get(ctx, apt.UserID)
	if err != nil {
		s.logger.Warn("skipping patient notification, account lookup failed", "appointment_id", apt.ID)
		return
	}
	subject, content := body(account.FirstName)
	s.notifSvc.Dispatch(&model.Notification{
		Recipient: account.Email,
		Subject:   subject,
		Content:   content,
		Event:     event,
	})
}

// notifyDoctor is best-effort: a profile without a linked account simply
// gets no email.
func (s *Service) notifyDoctor(ctx context.Context, apt *model.Appointment, event string) {
	doctor, err := s.doctorRepo.Get(ctx, apt.DoctorID)
	if err != nil || doctor.AccountID == nil {
		return
	}
	account, err := s.accountRepo.Get(ctx, *doctor.AccountID)
	if err != nil {
		return
	}
	subject, content := email.StatusChangeBody(account.FirstName, apt)
	s.notifSvc.Dispatch(&model.Notification{
		Recipient: account.Email,
		Subject:   subject,
		Content:   content,
		Event:     event,
	})
}
