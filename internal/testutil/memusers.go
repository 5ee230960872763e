package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemUsers is an in-memory user store with the same contract as the Mongo
// store, including the unique (email, auth_provider) constraint.
type MemUsers struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]models.User
	byKey map[string]primitive.ObjectID

	// BeforeCreate, when set, runs before Create takes the lock. Tests use
	// it to slip in a competing insert.
	BeforeCreate func(u models.User)

	// RecordLoginErr, when set, is returned by RecordLogin.
	RecordLoginErr error
}

// NewMemUsers returns an empty store.
func NewMemUsers() *MemUsers {
	return &MemUsers{
		byID:  make(map[primitive.ObjectID]models.User),
		byKey: make(map[string]primitive.ObjectID),
	}
}

func memKey(email string, p models.AuthProvider) string {
	return strings.ToLower(email) + "\x00" + string(p)
}

func (m *MemUsers) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, autherr.ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *MemUsers) GetByEmail(_ context.Context, email string, p models.AuthProvider) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byKey[memKey(email, p)]
	if !ok {
		return models.User{}, autherr.ErrNotFound
	}
	return cloneUser(m.byID[id]), nil
}

func (m *MemUsers) Create(_ context.Context, u models.User) (models.User, error) {
	if m.BeforeCreate != nil {
		hook := m.BeforeCreate
		m.BeforeCreate = nil
		hook(u)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey(u.Email, u.AuthProvider)
	if _, taken := m.byKey[k]; taken {
		return models.User{}, autherr.ErrDuplicateAccount
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.byID[u.ID] = cloneUser(u)
	m.byKey[k] = u.ID
	return cloneUser(u), nil
}

func (m *MemUsers) RecordLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	if m.RecordLoginErr != nil {
		return m.RecordLoginErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return autherr.ErrNotFound
	}
	u.LastLogin = &at
	u.UpdatedAt = at
	m.byID[id] = u
	return nil
}

func (m *MemUsers) ApplySocialLogin(_ context.Context, id primitive.ObjectID, r models.SocialRefresh, at time.Time) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, autherr.ErrNotFound
	}
	if r.FullName != "" {
		u.FullName = r.FullName
	}
	if r.ProfilePicture != "" {
		pic := r.ProfilePicture
		u.ProfilePicture = &pic
	}
	if r.ProviderUserID != "" && models.StringOrEmpty(u.ProviderUserID) == "" {
		sub := r.ProviderUserID
		u.ProviderUserID = &sub
	}
	u.LastLogin = &at
	u.UpdatedAt = at
	m.byID[id] = u
	return cloneUser(u), nil
}

func (m *MemUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, p models.ProfilePatch, at time.Time) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, autherr.ErrNotFound
	}
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.PhoneNumber != nil {
		v := *p.PhoneNumber
		u.PhoneNumber = &v
	}
	if p.ProfilePicture != nil {
		v := *p.ProfilePicture
		u.ProfilePicture = &v
	}
	u.UpdatedAt = at
	m.byID[id] = u
	return cloneUser(u), nil
}

// Put stores u directly, bypassing uniqueness checks. For fixtures.
func (m *MemUsers) Put(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.byID[u.ID] = cloneUser(u)
	m.byKey[memKey(u.Email, u.AuthProvider)] = u.ID
	return cloneUser(u)
}

// Len returns the number of stored users.
func (m *MemUsers) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func cloneUser(u models.User) models.User {
	u.PhoneNumber = cloneStr(u.PhoneNumber)
	u.ProfilePicture = cloneStr(u.ProfilePicture)
	u.HashedPassword = cloneStr(u.HashedPassword)
	u.ProviderUserID = cloneStr(u.ProviderUserID)
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
