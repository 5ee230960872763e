// internal/app/features/authapi/handler.go
package authapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/authhub/internal/app/system/identity"
	"github.com/dalemusser/authhub/internal/app/system/respond"
	"github.com/dalemusser/authhub/internal/app/system/session"
	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
	"go.uber.org/zap"
)

// Sessions is the slice of session.Service these endpoints call.
type Sessions interface {
	Register(ctx context.Context, in session.RegisterInput) (models.User, error)
	Login(ctx context.Context, email, password string) (models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	SocialLogin(ctx context.Context, provider models.AuthProvider, a identity.Assertion) (models.TokenPair, error)
	LoginWithGoogle(ctx context.Context, a session.GoogleAssertion) (models.TokenPair, error)
	LoginWithApple(ctx context.Context, idToken, fallbackFullName string) (models.TokenPair, error)
}

// Handler serves the /auth endpoints.
type Handler struct {
	Sessions Sessions
	Log      *zap.Logger
}

// NewHandler constructs an auth API Handler.
func NewHandler(s Sessions, logger *zap.Logger) *Handler {
	return &Handler{Sessions: s, Log: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type appleRequest struct {
	IDToken  string `json:"id_token"`
	FullName string `json:"full_name"`
}

type socialRequest struct {
	Provider string `json:"provider"`
	IDToken  string `json:"id_token"`
	Code     string `json:"code"`
	FullName string `json:"full_name"`
}

// Register handles POST /auth/register.
//
// 201 with the new user; 409 when the email is already registered locally.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in session.RegisterInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	u, err := h.Sessions.Register(r.Context(), in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, http.StatusCreated, u, "User registered successfully")
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.writePair(w, r, "Login successful")(h.Sessions.Login(r.Context(), in.Email, in.Password))
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.writePair(w, r, "Token refreshed successfully")(h.Sessions.Refresh(r.Context(), in.RefreshToken))
}

// Google handles POST /auth/google with either {"id_token"} or {"code"}.
func (h *Handler) Google(w http.ResponseWriter, r *http.Request) {
	var in session.GoogleAssertion
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.writePair(w, r, "Google login successful")(h.Sessions.LoginWithGoogle(r.Context(), in))
}

// Apple handles POST /auth/apple. full_name is only used when the token
// lacks one.
func (h *Handler) Apple(w http.ResponseWriter, r *http.Request) {
	var in appleRequest
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.writePair(w, r, "Apple login successful")(h.Sessions.LoginWithApple(r.Context(), in.IDToken, in.FullName))
}

// Social handles POST /auth/social, selecting the verifier by provider tag.
func (h *Handler) Social(w http.ResponseWriter, r *http.Request) {
	var in socialRequest
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	provider, ok := models.ParseAuthProvider(in.Provider)
	if !ok {
		respond.Error(w, r, h.Log, fmt.Errorf("%w: %q", autherr.ErrUnsupportedProvider, in.Provider))
		return
	}
	h.writePair(w, r, "Login successful")(h.Sessions.SocialLogin(r.Context(), provider, identity.Assertion{
		IDToken:  in.IDToken,
		Code:     in.Code,
		FullName: in.FullName,
	}))
}

func (h *Handler) writePair(w http.ResponseWriter, r *http.Request, msg string) func(models.TokenPair, error) {
	return func(pair models.TokenPair, err error) {
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		respond.OK(w, http.StatusOK, pair, msg)
	}
}
