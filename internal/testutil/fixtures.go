package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/authhub/internal/app/system/password"
	"github.com/dalemusser/authhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures inserts users straight into the test database, bypassing the
// store so tests can set up states the API would never produce.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, u models.User) models.User {
	f.t.Helper()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("insert user %s: %v", u.Email, err)
	}
	return u
}

// CreateLocalUser inserts an active, unverified local account whose
// password is plain.
func (f *Fixtures) CreateLocalUser(ctx context.Context, fullName, email, plain string) models.User {
	f.t.Helper()
	h, err := password.New(password.MinCost)
	if err != nil {
		f.t.Fatalf("password.New: %v", err)
	}
	hash, err := h.Hash(plain)
	if err != nil {
		f.t.Fatalf("hash: %v", err)
	}
	return f.insert(ctx, models.User{
		Email:          email,
		FullName:       fullName,
		AuthProvider:   models.ProviderLocal,
		HashedPassword: &hash,
		IsActive:       true,
	})
}

// CreateSocialUser inserts an active, verified account for provider.
func (f *Fixtures) CreateSocialUser(ctx context.Context, fullName, email string, provider models.AuthProvider, subject string) models.User {
	f.t.Helper()
	return f.insert(ctx, models.User{
		Email:          email,
		FullName:       fullName,
		AuthProvider:   provider,
		ProviderUserID: &subject,
		IsActive:       true,
		IsVerified:     true,
	})
}

// CreateDisabledUser inserts an inactive local account.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.insert(ctx, models.User{
		Email:        email,
		FullName:     fullName,
		AuthProvider: models.ProviderLocal,
		IsActive:     false,
	})
}
