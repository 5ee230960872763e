package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/authhub/internal/app/system/inputval"
	"github.com/dalemusser/authhub/internal/app/system/normalize"
	"github.com/dalemusser/authhub/internal/app/system/password"
	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
	"go.uber.org/zap"
)

// RegisterInput is a local sign-up request.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email,max=254" label:"Email"`
	Password    string `json:"password" validate:"required,min=8,max=72" label:"Password"`
	FullName    string `json:"full_name" validate:"required,max=200" label:"Full name"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,phone" label:"Phone number"`
}

// Register creates an unverified local account. It does not log the user
// in; callers follow up with Login.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	u, err := s.register(ctx, in)
	s.metrics.Operation(opRegister, models.ProviderLocal.String(), err)
	if err != nil {
		s.audit.RegisterFailed(ctx, normalize.Email(in.Email), reason(err))
		return models.User{}, err
	}
	s.audit.Registered(ctx, u)
	return u, nil
}

func (s *Service) register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Email = normalize.Email(in.Email)
	in.FullName = normalize.Name(in.FullName)
	if res := inputval.Validate(in); res.HasErrors() {
		return models.User{}, res.Err()
	}

	hash, err := s.hasher.Hash(in.Password)
	switch {
	case errors.Is(err, password.ErrTooLong), errors.Is(err, password.ErrEmpty):
		return models.User{}, autherr.Invalid("password", err.Error())
	case err != nil:
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	var phone *string
	if in.PhoneNumber != "" {
		phone = normalize.OptionalString(normalize.Phone(in.PhoneNumber))
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, models.User{
		Email:          in.Email,
		FullName:       in.FullName,
		PhoneNumber:    phone,
		AuthProvider:   models.ProviderLocal,
		HashedPassword: &hash,
		IsActive:       true,
		IsVerified:     false,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		if errors.Is(err, autherr.ErrDuplicateAccount) {
			return models.User{}, err
		}
		return models.User{}, fmt.Errorf("create local user: %w", err)
	}

	s.log.Info("local account registered", zap.String("user_id", created.ID.Hex()))
	return created, nil
}

// Login authenticates a local account. An unknown email, a wrong password
// and a disabled account all fail with autherr.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, plain string) (models.TokenPair, error) {
	pair, err := s.login(ctx, normalize.Email(email), plain)
	s.metrics.Operation(opLogin, models.ProviderLocal.String(), err)
	return pair, err
}

func (s *Service) login(ctx context.Context, email, plain string) (models.TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email, models.ProviderLocal)
	if errors.Is(err, autherr.ErrNotFound) {
		s.hasher.Verify(plain, s.dummyHash)
		s.audit.LoginFailed(ctx, email, nil, "unknown email")
		return models.TokenPair{}, autherr.ErrInvalidCredentials
	}
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("lookup local user: %w", err)
	}

	id := u.ID
	if !s.hasher.Verify(plain, models.StringOrEmpty(u.HashedPassword)) {
		s.audit.LoginFailed(ctx, email, &id, "wrong password")
		return models.TokenPair{}, autherr.ErrInvalidCredentials
	}
	if !u.IsActive {
		s.audit.LoginFailed(ctx, email, &id, "account disabled")
		return models.TokenPair{}, autherr.ErrInvalidCredentials
	}

	if err := s.users.RecordLogin(ctx, u.ID, s.now().UTC()); err != nil {
		s.log.Warn("record last login failed",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
	}

	pair, err := s.issuePair(u.Subject())
	if err != nil {
		return models.TokenPair{}, err
	}
	s.audit.LoginSuccess(ctx, u)
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair with the same subject.
// The presented token stays valid until it expires.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	pair, err := s.refresh(ctx, refreshToken)
	s.metrics.Operation(opRefresh, "", err)
	return pair, err
}

func (s *Service) refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		s.audit.TokenRefreshFailed(ctx, reason(err))
		return models.TokenPair{}, err
	}

	u, err := s.subjectUser(ctx, claims.Subject)
	if err != nil {
		s.audit.TokenRefreshFailed(ctx, reason(err))
		return models.TokenPair{}, err
	}

	pair, err := s.issuePair(claims.Subject)
	if err != nil {
		return models.TokenPair{}, err
	}
	s.audit.TokenRefreshed(ctx, u.ID)
	return pair, nil
}
