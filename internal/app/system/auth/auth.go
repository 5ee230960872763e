// Package auth authenticates API requests that carry a bearer access token.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/authhub/internal/app/system/respond"
	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
	"go.uber.org/zap"
)

// AccessVerifier turns an access token into the user it was issued for.
// *session.Service satisfies it.
type AccessVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (models.User, error)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user and whether one is present.
func CurrentUser(r *http.Request) (models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(models.User)
	return u, ok
}

// WithUser returns ctx carrying u.
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// WithTestUser injects u into r's context, bypassing token checks.
func WithTestUser(r *http.Request, u models.User) *http.Request {
	return r.WithContext(WithUser(r.Context(), u))
}

// BearerToken extracts the token from an "Authorization: Bearer <t>" header.
func BearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Middleware verifies bearer tokens.
type Middleware struct {
	verifier AccessVerifier
	log      *zap.Logger
}

// NewMiddleware builds a Middleware around v.
func NewMiddleware(v AccessVerifier, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{verifier: v, log: logger}
}

// RequireUser rejects requests without a valid access token with 401 and
// stores the user in the context otherwise.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			respond.Error(w, r, m.log, autherr.ErrInvalidToken)
			return
		}

		u, err := m.verifier.VerifyAccessToken(r.Context(), token)
		if err != nil {
			m.log.Debug("bearer token rejected",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			respond.Error(w, r, m.log, err)
			return
		}

		next.ServeHTTP(w, WithTestUser(r, u))
	})
}
