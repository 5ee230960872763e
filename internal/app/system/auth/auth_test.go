package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/authhub/internal/app/system/auth"
	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeVerifier struct {
	users map[string]models.User
	err   error
}

func (f fakeVerifier) VerifyAccessToken(_ context.Context, token string) (models.User, error) {
	if f.err != nil {
		return models.User{}, f.err
	}
	u, ok := f.users[token]
	if !ok {
		return models.User{}, autherr.ErrInvalidToken
	}
	return u, nil
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		wantOK bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer   abc ", "abc", true},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer ", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, ok := auth.BearerToken(req)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("BearerToken(%q) = (%q, %v), expected (%q, %v)", tt.header, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRequireUser(t *testing.T) {
	alice := models.User{ID: primitive.NewObjectID(), Email: "a@x.com", IsActive: true}
	v := fakeVerifier{users: map[string]models.User{"good": alice}}
	m := auth.NewMiddleware(v, nil)

	var seen models.User
	h := m.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.CurrentUser(r)
		if !ok {
			t.Error("expected user in context")
		}
		seen = u
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"unknown", "Bearer bad", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}

	if seen.ID != alice.ID {
		t.Errorf("expected handler to see %s, got %s", alice.ID.Hex(), seen.ID.Hex())
	}
}

func TestRequireUser_StoreFailureIs500(t *testing.T) {
	m := auth.NewMiddleware(fakeVerifier{err: errors.New("mongo down")}, nil)
	h := m.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest("GET", "/users/me", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestCurrentUser_Absent(t *testing.T) {
	if _, ok := auth.CurrentUser(httptest.NewRequest("GET", "/", nil)); ok {
		t.Error("expected no user")
	}
}
