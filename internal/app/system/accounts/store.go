package accounts

import (
	"context"
	"time"

	"github.com/dalemusser/authhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the document-store contract the session core depends on.
// Implementations must enforce uniqueness of (email, auth_provider) at the
// storage layer and report violations as autherr.ErrDuplicateAccount.
// Lookups that match nothing return autherr.ErrNotFound.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByEmail(ctx context.Context, email string, provider models.AuthProvider) (models.User, error)

	// Create inserts u and returns it with its store-assigned ID.
	Create(ctx context.Context, u models.User) (models.User, error)

	// RecordLogin sets last_login and updated_at to at.
	RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error

	// ApplySocialLogin merges a re-login in one update: non-empty name and
	// picture overwrite, provider_user_id is set only when missing, and
	// last_login/updated_at move to at. It returns the updated record.
	ApplySocialLogin(ctx context.Context, id primitive.ObjectID, r models.SocialRefresh, at time.Time) (models.User, error)

	// UpdateProfile applies the non-nil fields of p and returns the result.
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.ProfilePatch, at time.Time) (models.User, error)
}
