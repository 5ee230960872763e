// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the canonical account record.
//
// NOTE:
//   - (email, auth_provider) is unique. The same email may exist once under
//     "local" and once under "google"; those are distinct accounts.
//   - Timestamps are always set server-side.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string             `bson:"email" json:"email"`
	FullName       string             `bson:"full_name" json:"full_name"`
	PhoneNumber    *string            `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	ProfilePicture *string            `bson:"profile_picture,omitempty" json:"profile_picture,omitempty"`

	AuthProvider   AuthProvider `bson:"auth_provider" json:"auth_provider"`
	HashedPassword *string      `bson:"hashed_password,omitempty" json:"-"`
	ProviderUserID *string      `bson:"provider_user_id,omitempty" json:"provider_user_id,omitempty"`

	IsActive   bool `bson:"is_active" json:"is_active"`
	IsVerified bool `bson:"is_verified" json:"is_verified"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	LastLogin *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
}

// Subject returns the token subject for this user (hex ObjectID).
func (u User) Subject() string {
	return u.ID.Hex()
}

// StringOrEmpty dereferences an optional string field.
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
