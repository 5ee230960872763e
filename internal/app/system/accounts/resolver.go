// Package accounts maps verified external identities onto canonical user
// records.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/authhub/internal/app/system/identity"
	"github.com/dalemusser/authhub/internal/app/system/normalize"
	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
	"go.uber.org/zap"
)

// Resolver finds or creates the user a (profile, provider) pair belongs to.
type Resolver struct {
	users    UserStore
	now      func() time.Time
	log      *zap.Logger
	onCreate func(context.Context, models.User)
}

// NewResolver builds a Resolver over users.
func NewResolver(users UserStore, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{users: users, now: time.Now, log: logger}
}

// WithClock returns a copy of r that reads time from now.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	cp := *r
	cp.now = now
	return &cp
}

// OnCreate returns a copy of r that calls fn after each first-sight account
// creation. fn is not called when a create race resolves to an existing user.
func (r *Resolver) OnCreate(fn func(context.Context, models.User)) *Resolver {
	cp := *r
	cp.onCreate = fn
	return &cp
}

// Resolve returns the canonical user for p under provider, creating it on
// first sight. An existing record keeps its name and picture unless p
// supplies non-empty replacements. p.FallbackName only names a new account.
//
// Two concurrent first logins race on the unique (email, auth_provider)
// index. The loser re-reads the winner's record and continues as a login.
func (r *Resolver) Resolve(ctx context.Context, p identity.Profile, provider models.AuthProvider) (models.User, error) {
	if !provider.IsSocial() {
		return models.User{}, fmt.Errorf("%w: %q", autherr.ErrUnsupportedProvider, provider)
	}

	email := normalize.Email(p.Email)
	if email == "" {
		return models.User{}, autherr.Invalid("email", "provider profile has no email")
	}
	refresh := models.SocialRefresh{
		FullName:       normalize.Name(p.FullName),
		ProfilePicture: p.Picture,
		ProviderUserID: p.ProviderUserID,
	}

	existing, err := r.users.GetByEmail(ctx, email, provider)
	switch {
	case err == nil:
		return r.relogin(ctx, existing, refresh)
	case !errors.Is(err, autherr.ErrNotFound):
		return models.User{}, fmt.Errorf("lookup %s user: %w", provider, err)
	}

	name := refresh.FullName
	if name == "" {
		name = normalize.Name(p.FallbackName)
	}
	now := r.now().UTC()
	u := models.User{
		Email:          email,
		FullName:       name,
		ProfilePicture: normalize.OptionalString(refresh.ProfilePicture),
		AuthProvider:   provider,
		ProviderUserID: normalize.OptionalString(refresh.ProviderUserID),
		IsActive:       true,
		IsVerified:     true,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastLogin:      &now,
	}

	created, err := r.users.Create(ctx, u)
	if err == nil {
		r.log.Info("social account created",
			zap.String("user_id", created.ID.Hex()),
			zap.String("provider", provider.String()))
		if r.onCreate != nil {
			r.onCreate(ctx, created)
		}
		return created, nil
	}
	if !errors.Is(err, autherr.ErrDuplicateAccount) {
		return models.User{}, fmt.Errorf("create %s user: %w", provider, err)
	}

	r.log.Debug("lost create race, re-reading existing account", zap.String("provider", provider.String()))
	existing, err = r.users.GetByEmail(ctx, email, provider)
	if err != nil {
		return models.User{}, fmt.Errorf("re-read %s user after duplicate: %w", provider, err)
	}
	return r.relogin(ctx, existing, refresh)
}

func (r *Resolver) relogin(ctx context.Context, u models.User, refresh models.SocialRefresh) (models.User, error) {
	updated, err := r.users.ApplySocialLogin(ctx, u.ID, refresh, r.now().UTC())
	if err != nil {
		return models.User{}, fmt.Errorf("apply social login: %w", err)
	}
	return updated, nil
}
