package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/authhub/internal/app/system/normalize"
	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the users collection.
const Collection = "users"

// Store persists users in MongoDB. Uniqueness of (email, auth_provider) is
// enforced by the uniq_users_email_provider index (see system/indexes).
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail loads the user for an (email, provider) pair.
func (s *Store) GetByEmail(ctx context.Context, email string, provider models.AuthProvider) (models.User, error) {
	return s.findOne(ctx, bson.M{
		"email":         normalize.Email(email),
		"auth_provider": provider,
	})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, autherr.ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// Create inserts u with a fresh ObjectID. A unique-index violation is
// reported as autherr.ErrDuplicateAccount.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, fmt.Errorf("%w: %s/%s", autherr.ErrDuplicateAccount, u.AuthProvider, u.Email)
		}
		return models.User{}, err
	}
	return u, nil
}

// RecordLogin stamps last_login and updated_at.
func (s *Store) RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_login": at, "updated_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return autherr.ErrNotFound
	}
	return nil
}

// ApplySocialLogin merges a social re-login in a single findAndModify.
// The update is a pipeline so provider_user_id can be filled only when
// absent; provider-supplied strings are wrapped in $literal so a value that
// starts with '$' is never read as a field path.
func (s *Store) ApplySocialLogin(ctx context.Context, id primitive.ObjectID, r models.SocialRefresh, at time.Time) (models.User, error) {
	set := bson.M{"last_login": at, "updated_at": at}
	if r.FullName != "" {
		set["full_name"] = bson.M{"$literal": r.FullName}
	}
	if r.ProfilePicture != "" {
		set["profile_picture"] = bson.M{"$literal": r.ProfilePicture}
	}
	if r.ProviderUserID != "" {
		set["provider_user_id"] = bson.M{"$ifNull": bson.A{"$provider_user_id", bson.M{"$literal": r.ProviderUserID}}}
	}

	update := mongo.Pipeline{{{Key: "$set", Value: set}}}
	return s.findOneAndUpdate(ctx, id, update)
}

// UpdateProfile applies the non-nil fields of p.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.ProfilePatch, at time.Time) (models.User, error) {
	set := bson.M{"updated_at": at}
	if p.FullName != nil {
		set["full_name"] = *p.FullName
	}
	if p.PhoneNumber != nil {
		set["phone_number"] = *p.PhoneNumber
	}
	if p.ProfilePicture != nil {
		set["profile_picture"] = *p.ProfilePicture
	}
	return s.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (s *Store) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update any) (models.User, error) {
	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, autherr.ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}
