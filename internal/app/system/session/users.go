package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/authhub/internal/app/system/inputval"
	"github.com/dalemusser/authhub/internal/app/system/normalize"
	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerifyAccessToken authenticates a bearer token and returns its user.
// Refresh tokens fail with autherr.ErrWrongTokenType.
func (s *Service) VerifyAccessToken(ctx context.Context, token string) (models.User, error) {
	claims, err := s.codec.VerifyAccess(token)
	if err != nil {
		return models.User{}, err
	}
	return s.subjectUser(ctx, claims.Subject)
}

// GetUser returns the user with id or autherr.ErrNotFound.
func (s *Service) GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil && !errors.Is(err, autherr.ErrNotFound) {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, err
}

// ProfileUpdate is a partial profile edit. Nil fields are left alone.
// Email is not editable here; it is half of the account's identity key.
type ProfileUpdate struct {
	FullName       *string `json:"full_name" validate:"omitempty,max=200" label:"Full name"`
	PhoneNumber    *string `json:"phone_number" validate:"omitempty,phone" label:"Phone number"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,httpurl,max=2048" label:"Profile picture"`
}

// UpdateProfile validates and applies p. An empty update is a validation
// error, and nothing is written when any field is invalid.
func (s *Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, p ProfileUpdate) (models.User, error) {
	patch, err := p.normalize()
	if err != nil {
		return models.User{}, err
	}

	u, err := s.users.UpdateProfile(ctx, id, patch, s.now().UTC())
	if err != nil {
		if errors.Is(err, autherr.ErrNotFound) {
			return models.User{}, err
		}
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}
	s.audit.ProfileUpdated(ctx, id, patch.Fields())
	return u, nil
}

func (p ProfileUpdate) normalize() (models.ProfilePatch, error) {
	if p.FullName != nil {
		n := normalize.Name(*p.FullName)
		p.FullName = &n
	}
	if p.ProfilePicture != nil {
		pic := normalize.OptionalString(*p.ProfilePicture)
		if pic == nil {
			return models.ProfilePatch{}, autherr.Invalid("profile_picture", "Profile picture must be an http or https URL.")
		}
		p.ProfilePicture = pic
	}
	if res := inputval.Validate(p); res.HasErrors() {
		return models.ProfilePatch{}, res.Err()
	}
	if p.FullName != nil && *p.FullName == "" {
		return models.ProfilePatch{}, autherr.Invalid("full_name", "Full name is required.")
	}
	if p.PhoneNumber != nil {
		ph := normalize.Phone(*p.PhoneNumber)
		p.PhoneNumber = &ph
	}

	patch := models.ProfilePatch{
		FullName:       p.FullName,
		PhoneNumber:    p.PhoneNumber,
		ProfilePicture: p.ProfilePicture,
	}
	if patch.IsEmpty() {
		return models.ProfilePatch{}, autherr.Invalid("profile", "No valid update data provided.")
	}
	return patch, nil
}
