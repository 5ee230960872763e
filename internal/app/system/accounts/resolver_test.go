package accounts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/authhub/internal/app/system/accounts"
	"github.com/dalemusser/authhub/internal/app/system/identity"
	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
	"github.com/dalemusser/authhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ accounts.UserStore = (*testutil.MemUsers)(nil)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestResolve_CreatesVerifiedSocialUser(t *testing.T) {
	users := testutil.NewMemUsers()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := accounts.NewResolver(users, nil).WithClock(fixedClock(now))

	u, err := r.Resolve(context.Background(), identity.Profile{
		ProviderUserID: "g1",
		Email:          "A@X.com",
		FullName:       "A",
		Picture:        "https://example.com/a.png",
	}, models.ProviderGoogle)
	require.NoError(t, err)

	assert.False(t, u.ID.IsZero())
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "A", u.FullName)
	assert.Equal(t, models.ProviderGoogle, u.AuthProvider)
	assert.True(t, u.IsActive)
	assert.True(t, u.IsVerified)
	assert.Nil(t, u.HashedPassword)
	assert.Equal(t, "g1", models.StringOrEmpty(u.ProviderUserID))
	assert.Equal(t, "https://example.com/a.png", models.StringOrEmpty(u.ProfilePicture))
	assert.Equal(t, now, u.CreatedAt)
	require.NotNil(t, u.LastLogin)
	assert.Equal(t, now, *u.LastLogin)
}

func TestResolve_ReloginKeepsNameWhenProviderOmitsIt(t *testing.T) {
	users := testutil.NewMemUsers()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := accounts.NewResolver(users, nil).WithClock(fixedClock(t0))
	ctx := context.Background()

	first, err := r.Resolve(ctx, identity.Profile{ProviderUserID: "g1", Email: "a@x.com", FullName: "A", Picture: "https://p/1"}, models.ProviderGoogle)
	require.NoError(t, err)

	t1 := t0.Add(time.Hour)
	second, err := r.WithClock(fixedClock(t1)).Resolve(ctx, identity.Profile{ProviderUserID: "g1", Email: "a@x.com"}, models.ProviderGoogle)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "A", second.FullName)
	assert.Equal(t, "https://p/1", models.StringOrEmpty(second.ProfilePicture))
	assert.Equal(t, t0, second.CreatedAt)
	assert.Equal(t, t1, second.UpdatedAt)
	require.NotNil(t, second.LastLogin)
	assert.Equal(t, t1, *second.LastLogin)
	assert.Equal(t, 1, users.Len())
}

func TestResolve_ReloginRefreshesNonEmptyFields(t *testing.T) {
	users := testutil.NewMemUsers()
	r := accounts.NewResolver(users, nil)
	ctx := context.Background()

	_, err := r.Resolve(ctx, identity.Profile{ProviderUserID: "g1", Email: "a@x.com", FullName: "A"}, models.ProviderGoogle)
	require.NoError(t, err)

	u, err := r.Resolve(ctx, identity.Profile{ProviderUserID: "g1", Email: "a@x.com", FullName: "Alice", Picture: "https://p/2"}, models.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.FullName)
	assert.Equal(t, "https://p/2", models.StringOrEmpty(u.ProfilePicture))
}

func TestResolve_SameEmailDifferentProvidersAreDistinct(t *testing.T) {
	users := testutil.NewMemUsers()
	r := accounts.NewResolver(users, nil)
	ctx := context.Background()

	g, err := r.Resolve(ctx, identity.Profile{ProviderUserID: "g1", Email: "a@x.com"}, models.ProviderGoogle)
	require.NoError(t, err)
	a, err := r.Resolve(ctx, identity.Profile{ProviderUserID: "apple-1", Email: "a@x.com"}, models.ProviderApple)
	require.NoError(t, err)

	assert.NotEqual(t, g.ID, a.ID)
	assert.Equal(t, 2, users.Len())
}

func TestResolve_CreateRaceFallsBackToExisting(t *testing.T) {
	users := testutil.NewMemUsers()
	var winner models.User
	users.BeforeCreate = func(u models.User) {
		winner = users.Put(models.User{
			Email:        u.Email,
			FullName:     "Winner",
			AuthProvider: u.AuthProvider,
			IsActive:     true,
			IsVerified:   true,
		})
	}
	r := accounts.NewResolver(users, nil)

	u, err := r.Resolve(context.Background(), identity.Profile{ProviderUserID: "g1", Email: "a@x.com"}, models.ProviderGoogle)
	require.NoError(t, err)

	assert.Equal(t, winner.ID, u.ID)
	assert.Equal(t, "Winner", u.FullName)
	assert.Equal(t, "g1", models.StringOrEmpty(u.ProviderUserID))
	assert.NotNil(t, u.LastLogin)
	assert.Equal(t, 1, users.Len())
}

func TestResolve_Rejects(t *testing.T) {
	r := accounts.NewResolver(testutil.NewMemUsers(), nil)
	ctx := context.Background()

	_, err := r.Resolve(ctx, identity.Profile{ProviderUserID: "x", Email: "a@x.com"}, models.ProviderLocal)
	assert.ErrorIs(t, err, autherr.ErrUnsupportedProvider)

	_, err = r.Resolve(ctx, identity.Profile{ProviderUserID: "x"}, models.ProviderGoogle)
	assert.ErrorIs(t, err, autherr.ErrValidation)
}

type failingStore struct {
	*testutil.MemUsers
	err error
}

func (f failingStore) GetByEmail(context.Context, string, models.AuthProvider) (models.User, error) {
	return models.User{}, f.err
}

func TestResolve_StoreErrorSurfaces(t *testing.T) {
	boom := errors.New("connection reset")
	r := accounts.NewResolver(failingStore{MemUsers: testutil.NewMemUsers(), err: boom}, nil)

	_, err := r.Resolve(context.Background(), identity.Profile{ProviderUserID: "g1", Email: "a@x.com"}, models.ProviderGoogle)
	assert.ErrorIs(t, err, boom)
}

func TestResolve_OnCreateFiresOnlyForNewAccounts(t *testing.T) {
	users := testutil.NewMemUsers()
	var created []models.User
	r := accounts.NewResolver(users, nil).OnCreate(func(_ context.Context, u models.User) {
		created = append(created, u)
	})
	ctx := context.Background()

	first, err := r.Resolve(ctx, identity.Profile{ProviderUserID: "g1", Email: "a@x.com"}, models.ProviderGoogle)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, identity.Profile{ProviderUserID: "g1", Email: "a@x.com"}, models.ProviderGoogle)
	require.NoError(t, err)

	require.Len(t, created, 1)
	assert.Equal(t, first.ID, created[0].ID)
}

func TestResolve_FallbackNameOnlyNamesNewAccounts(t *testing.T) {
	users := testutil.NewMemUsers()
	r := accounts.NewResolver(users, nil)
	ctx := context.Background()

	created, err := r.Resolve(ctx, identity.Profile{ProviderUserID: "a1", Email: "a@x.com", FallbackName: "Real Name"}, models.ProviderApple)
	require.NoError(t, err)
	assert.Equal(t, "Real Name", created.FullName)

	again, err := r.Resolve(ctx, identity.Profile{ProviderUserID: "a1", Email: "a@x.com", FallbackName: "Mallory"}, models.ProviderApple)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Real Name", again.FullName)

	renamed, err := r.Resolve(ctx, identity.Profile{ProviderUserID: "a1", Email: "a@x.com", FullName: "From Apple", FallbackName: "Mallory"}, models.ProviderApple)
	require.NoError(t, err)
	assert.Equal(t, "From Apple", renamed.FullName)
}

func TestResolve_ProviderNameBeatsFallbackOnCreate(t *testing.T) {
	r := accounts.NewResolver(testutil.NewMemUsers(), nil)
	u, err := r.Resolve(context.Background(), identity.Profile{ProviderUserID: "a2", Email: "b@x.com", FullName: "From Apple", FallbackName: "Typed"}, models.ProviderApple)
	require.NoError(t, err)
	assert.Equal(t, "From Apple", u.FullName)
}
