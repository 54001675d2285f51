package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/medicare-hq/medicare-api/internal/email"
	"github.com/medicare-hq/medicare-api/internal/model"
	"github.com/medicare-hq/medicare-api/internal/repository"
	"github.com/medicare-hq/medicare-api/internal/service/notification"
	"github.com/medicare-hq/medicare-api/pkg/auth"
	apperrors "github.com/medicare-hq/medicare-api/pkg/errors"
	"github.com/medicare-hq/medicare-api/pkg/logger"
)

type Service struct {
	accountRepo repository.AccountRepository
	jwtSvc      auth.JWTService
	notifSvc    notification.Service
	logger      *logger.Logger
}

func NewService(accountRepo repository.AccountRepository, jwtSvc auth.JWTService, notifSvc notification.Service, l *logger.Logger) *Service {
	return &Service{
		accountRepo: accountRepo,
		jwtSvc:      jwtSvc,
		notifSvc:    notifSvc,
		logger:      l,
	}
}

// Register creates a patient account. Every self-registered account gets the
// user role; doctor and admin roles are assigned by an admin afterwards.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.Account, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}

	account := &model.Account{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashed),
		ContactPhone: req.ContactPhone,
		Address:      req.Address,
		Role:         model.RoleUser,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("an account with this email already exists")
		}
		return nil, apperrors.NewInternal(err)
	}

	subject, content := email.WelcomeBody(account.FirstName)
	s.notifSvc.Dispatch(&model.Notification{
		Recipient: account.Email,
		Subject:   subject,
		Content:   content,
		Event:     "account_registered",
	})

	return account, nil
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password return the same error.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	account, err := s.accountRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, apperrors.NewInternal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.NewUnauthorized("invalid email or password")
	}

	token, err := s.jwtSvc.GenerateAccessToken(account)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}

	return &model.TokenResponse{Token: token, Account: account}, nil
}
