package complaint

import (
	"context"
	"errors"
	"strings"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
	"github.com/medicare-hq/medicare-api/pkg/authz"
	apperrors "github.com/medicare-hq/medicare-api/pkg/errors"
	"github.com/medicare-hq/medicare-api/pkg/logger"
)

type Service struct {
	complaints   repository.ComplaintRepository
	appointments repository.AppointmentRepository
	logger       *logger.Logger
}

func NewService(complaints repository.ComplaintRepository, appointments repository.AppointmentRepository, l *logger.Logger) *Service {
	return &Service{complaints: complaints, appointments: appointments, logger: l}
}

// Submit opens a complaint for the calling patient. A referenced appointment
// must exist and belong to the caller.
func (s *Service) Submit(ctx context.Context, callerID model.AccountID, req *model.SubmitComplaintRequest) (*model.Complaint, error) {
	if req.RelatedAppointmentID != nil {
		apt, err := s.appointments.Get(ctx, *req.RelatedAppointmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewNotFound("appointment")
			}
			return nil, apperrors.NewInternal(err)
		}
		if apt.UserID != callerID {
			return nil, apperrors.NewForbidden("appointment does not belong to you")
		}
	}

	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}

	c := &model.Complaint{
		UserID:               callerID,
		RelatedAppointmentID: req.RelatedAppointmentID,
		Subject:              strings.TrimSpace(req.Subject),
		Description:          req.Description,
		Category:             req.Category,
		Priority:             priority,
		Status:               model.ComplaintStatusOpen,
	}
	if err := s.complaints.Create(ctx, c); err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return c, nil
}

func (s *Service) ListForUser(ctx context.Context, userID model.AccountID) ([]*model.Complaint, error) {
	list, err := s.complaints.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return list, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*model.Complaint, error) {
	list, err := s.complaints.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return list, nil
}

// Get returns a complaint with its message thread, visible to the
// complainant and admins.
func (s *Service) Get(ctx context.Context, caller *model.TokenClaims, id int64) (*model.Complaint, []*model.ComplaintMessage, error) {
	c, err := s.complaints.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NewNotFound("complaint")
		}
		return nil, nil, apperrors.NewInternal(err)
	}
	if !authz.OwnerOrRole(caller.AccountID, caller.Role, c.UserID, model.RoleAdmin) {
		return nil, nil, apperrors.NewForbidden("complaint does not belong to you")
	}

	messages, err := s.complaints.ListMessages(ctx, id)
	if err != nil {
		return nil, nil, apperrors.NewInternal(err)
	}
	return c, messages, nil
}

// UpdateStatus is admin-only; closed complaints stay in the record.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status model.ComplaintStatus) error {
	if err := s.complaints.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("complaint")
		}
		return apperrors.NewInternal(err)
	}
	return nil
}

// AddMessage appends to the complaint thread. The complainant and admins can
// both write; the sender's role is stamped on the message.
func (s *Service) AddMessage(ctx context.Context, caller *model.TokenClaims, complaintID int64, text string) (*model.ComplaintMessage, error) {
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("complaint")
		}
		return nil, apperrors.NewInternal(err)
	}
	if !authz.OwnerOrRole(caller.AccountID, caller.Role, c.UserID, model.RoleAdmin) {
		return nil, apperrors.NewForbidden("complaint does not belong to you")
	}

	m := &model.ComplaintMessage{
		ComplaintID: complaintID,
		SenderID:    caller.AccountID,
		SenderRole:  caller.Role,
		Message:     strings.TrimSpace(text),
	}
	if err := s.complaints.AddMessage(ctx, m); err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return m, nil
}
