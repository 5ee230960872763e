package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/authhub/internal/app/system/accounts"
	"github.com/dalemusser/authhub/internal/app/system/auditlog"
	"github.com/dalemusser/authhub/internal/app/system/identity"
	"github.com/dalemusser/authhub/internal/app/system/metrics"
	"github.com/dalemusser/authhub/internal/app/system/password"
	"github.com/dalemusser/authhub/internal/app/system/tokens"
	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Operation names used for metrics.
const (
	opRegister    = "register"
	opLogin       = "login"
	opRefresh     = "refresh"
	opSocialLogin = "social_login"
)

// Deps are the collaborators a Service is built from. Users, Hasher and
// Codec are required.
type Deps struct {
	Users     accounts.UserStore
	Hasher    *password.Hasher
	Codec     *tokens.Codec
	Verifiers identity.Registry

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	Audit   *auditlog.Logger
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Service implements register, login, refresh and social login.
type Service struct {
	users     accounts.UserStore
	hasher    *password.Hasher
	codec     *tokens.Codec
	verifiers identity.Registry
	resolver  *accounts.Resolver

	accessTTL  time.Duration
	refreshTTL time.Duration

	audit   *auditlog.Logger
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time

	// dummyHash is verified against when the email is unknown so both
	// credential failures cost one bcrypt comparison.
	dummyHash string
}

// New validates d and builds a Service.
func New(d Deps) (*Service, error) {
	switch {
	case d.Users == nil:
		return nil, errors.New("session: user store is required")
	case d.Hasher == nil:
		return nil, errors.New("session: password hasher is required")
	case d.Codec == nil:
		return nil, errors.New("session: token codec is required")
	case d.AccessTTL <= 0:
		return nil, errors.New("session: access token ttl must be positive")
	case d.RefreshTTL <= d.AccessTTL:
		return nil, errors.New("session: refresh token ttl must exceed access token ttl")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Verifiers == nil {
		d.Verifiers = identity.NewRegistry()
	}

	dummy, err := d.Hasher.Hash("authhub-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("session: prepare dummy hash: %w", err)
	}

	s := &Service{
		users:      d.Users,
		hasher:     d.Hasher,
		codec:      d.Codec,
		verifiers:  d.Verifiers,
		accessTTL:  d.AccessTTL,
		refreshTTL: d.RefreshTTL,
		audit:      d.Audit,
		metrics:    d.Metrics,
		log:        d.Logger,
		now:        time.Now,
		dummyHash:  dummy,
	}
	s.resolver = accounts.NewResolver(d.Users, d.Logger).OnCreate(s.audit.SocialAccountCreated)
	return s, nil
}

// WithClock returns a copy of s whose store timestamps come from now. Token
// expiry follows the codec's own clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	cp.resolver = s.resolver.WithClock(now)
	return &cp
}

// issuePair signs a fresh access and refresh token for subject.
func (s *Service) issuePair(subject string) (models.TokenPair, error) {
	access, err := s.codec.Issue(subject, s.accessTTL, false)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.Issue(subject, s.refreshTTL, true)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    models.TokenTypeBearer,
	}, nil
}

// subjectUser loads the user a verified token refers to. A subject that no
// longer names a user is an invalid token; a disabled user is reported as such.
func (s *Service) subjectUser(ctx context.Context, subject string) (models.User, error) {
	id, err := primitive.ObjectIDFromHex(subject)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: subject is not a user id", autherr.ErrInvalidToken)
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, autherr.ErrNotFound) {
		return models.User{}, fmt.Errorf("%w: user no longer exists", autherr.ErrInvalidToken)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load token subject: %w", err)
	}
	if !u.IsActive {
		return models.User{}, autherr.ErrAccountDisabled
	}
	return u, nil
}

// reason renders err for audit records without leaking wrapped detail.
func reason(err error) string {
	for _, sentinel := range []error{
		autherr.ErrValidation,
		autherr.ErrDuplicateAccount,
		autherr.ErrInvalidCredentials,
		autherr.ErrInvalidToken,
		autherr.ErrWrongTokenType,
		autherr.ErrProviderRejected,
		autherr.ErrProviderUnavailable,
		autherr.ErrUnsupportedProvider,
		autherr.ErrAccountDisabled,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}
