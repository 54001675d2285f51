package admin

import (
	"context"
	"errors"

	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
	apperrors "github.com/medicare-hq/medicare-api/pkg/errors"
	"github.com/medicare-hq/medicare-api/pkg/logger"
)

// Stats is the admin dashboard aggregate.
type Stats struct {
	TotalAppointments   int64                             `json:"total_appointments"`
	AppointmentsByState map[model.AppointmentStatus]int64 `json:"appointments_by_status"`
	TotalRevenue        float64                           `json:"total_revenue"`
	TotalUsers          int                               `json:"total_users"`
}

type Service struct {
	accounts     repository.AccountRepository
	appointments repository.AppointmentRepository
	payments     repository.PaymentRepository
	logger       *logger.Logger
}

func NewService(
	accounts repository.AccountRepository,
	appointments repository.AppointmentRepository,
	payments repository.PaymentRepository,
	l *logger.Logger,
) *Service {
	return &Service{accounts: accounts, appointments: appointments, payments: payments, logger: l}
}

// Stats aggregates appointment counts by status and revenue from completed
// payments.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.appointments.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	revenue, err := s.payments.SumCompleted(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return &Stats{
		TotalAppointments:   total,
		AppointmentsByState: counts,
		TotalRevenue:        revenue,
		TotalUsers:          len(accounts),
	}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*model.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return accounts, nil
}

// UpdateUserRole promotes or demotes an account. An admin cannot change
// their own role; locking yourself out is a support ticket nobody wants.
func (s *Service) UpdateUserRole(ctx context.Context, caller *model.TokenClaims, userID model.AccountID, role model.Role) error {
	if caller.AccountID == userID {
		return apperrors.NewBadRequest("you cannot change your own role")
	}
	if err := s.accounts.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user")
		}
		return apperrors.NewInternal(err)
	}
	return nil
}
