package session

import (
	"context"
	"time"

	"github.com/dalemusser/authhub/internal/app/system/identity"
	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
)

// GoogleAssertion carries either an authorization code or an ID token.
// The ID token wins when both are set.
type GoogleAssertion struct {
	Code    string `json:"code"`
	IDToken string `json:"id_token"`
}

// SocialLogin verifies a with the provider's verifier, resolves the
// canonical user and issues a token pair for it.
func (s *Service) SocialLogin(ctx context.Context, provider models.AuthProvider, a identity.Assertion) (models.TokenPair, error) {
	pair, err := s.socialLogin(ctx, provider, a)
	s.metrics.Operation(opSocialLogin, provider.String(), err)
	if err != nil {
		s.audit.SocialLoginFailed(ctx, provider, reason(err))
	}
	return pair, err
}

func (s *Service) socialLogin(ctx context.Context, provider models.AuthProvider, a identity.Assertion) (models.TokenPair, error) {
	v, err := s.verifiers.Get(provider)
	if err != nil {
		return models.TokenPair{}, err
	}

	start := time.Now()
	profile, err := v.Verify(ctx, a)
	s.metrics.ProviderVerify(provider.String(), time.Since(start), err)
	if err != nil {
		return models.TokenPair{}, err
	}

	u, err := s.resolver.Resolve(ctx, profile, provider)
	if err != nil {
		return models.TokenPair{}, err
	}
	if !u.IsActive {
		return models.TokenPair{}, autherr.ErrAccountDisabled
	}

	pair, err := s.issuePair(u.Subject())
	if err != nil {
		return models.TokenPair{}, err
	}
	s.audit.SocialLoginSuccess(ctx, u)
	return pair, nil
}

// LoginWithGoogle signs in with a Google ID token or authorization code.
func (s *Service) LoginWithGoogle(ctx context.Context, a GoogleAssertion) (models.TokenPair, error) {
	return s.SocialLogin(ctx, models.ProviderGoogle, identity.Assertion{IDToken: a.IDToken, Code: a.Code})
}

// LoginWithApple signs in with an Apple ID token. fallbackFullName names the
// account only when it is created and the token has no name. It never
// renames an existing account.
func (s *Service) LoginWithApple(ctx context.Context, idToken, fallbackFullName string) (models.TokenPair, error) {
	return s.SocialLogin(ctx, models.ProviderApple, identity.Assertion{IDToken: idToken, FullName: fallbackFullName})
}
