// internal/app/features/users/handler.go
package users

import (
	"context"
	"net/http"

	"github.com/dalemusser/authhub/internal/app/system/auth"
	"github.com/dalemusser/authhub/internal/app/system/respond"
	"github.com/dalemusser/authhub/internal/app/system/session"
	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Profiles is the slice of session.Service used here.
type Profiles interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p session.ProfileUpdate) (models.User, error)
}

// Handler serves the signed-in user's own record.
type Handler struct {
	Profiles Profiles
	Log      *zap.Logger
}

func NewHandler(p Profiles, logger *zap.Logger) *Handler {
	return &Handler{Profiles: p, Log: logger}
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	cur, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, autherr.ErrInvalidToken)
		return
	}
	u, err := h.Profiles.GetUser(r.Context(), cur.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, http.StatusOK, u, "User retrieved successfully")
}

// UpdateMe handles PUT /users/me with a partial profile.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	cur, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, autherr.ErrInvalidToken)
		return
	}
	var in session.ProfileUpdate
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	u, err := h.Profiles.UpdateProfile(r.Context(), cur.ID, in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, http.StatusOK, u, "Profile updated successfully")
}
