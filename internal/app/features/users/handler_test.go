package users_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/authhub/internal/app/features/users"
	"github.com/dalemusser/authhub/internal/app/system/auth"
	"github.com/dalemusser/authhub/internal/app/system/password"
	"github.com/dalemusser/authhub/internal/app/system/session"
	"github.com/dalemusser/authhub/internal/app/system/tokens"
	"github.com/dalemusser/authhub/internal/domain/models"
	"github.com/dalemusser/authhub/internal/testutil"
	"go.uber.org/zap"
)

type fixture struct {
	router http.Handler
	svc    *session.Service
	users  *testutil.MemUsers
	token  string
	user   models.User
}

func setup(t *testing.T) fixture {
	t.Helper()
	codec, _ := tokens.New([]byte("0123456789abcdef0123456789abcdef"), "HS256")
	hasher, _ := password.New(password.MinCost)
	store := testutil.NewMemUsers()
	svc, err := session.New(session.Deps{
		Users: store, Hasher: hasher, Codec: codec,
		AccessTTL: time.Minute, RefreshTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := svc.Register(ctx, session.RegisterInput{Email: "a@x.com", Password: "password1", FullName: "Alice"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	pair, err := svc.Login(ctx, "a@x.com", "password1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	mw := auth.NewMiddleware(svc, zap.NewNop())
	return fixture{
		router: users.Routes(users.NewHandler(svc, zap.NewNop()), mw.RequireUser),
		svc:    svc,
		users:  store,
		token:  pair.AccessToken,
		user:   u,
	}
}

func (f fixture) do(method, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/me", strings.NewReader(body))
	if token != "" {
		req = testutil.WithBearer(req, token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestMe(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodGet, "", f.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data models.User `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.ID != f.user.ID || env.Data.Email != "a@x.com" {
		t.Errorf("unexpected user %+v", env.Data)
	}
	if env.Data.LastLogin == nil {
		t.Error("expected last_login to be set after login")
	}
}

func TestMe_RequiresToken(t *testing.T) {
	f := setup(t)
	if rec := f.do(http.MethodGet, "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPut, `{"full_name":"X"}`, "junk"); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestUpdateMe(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"rename", `{"full_name":"Alice Cooper"}`, http.StatusOK},
		{"phone", `{"phone_number":"(555) 123-4567"}`, http.StatusOK},
		{"empty", `{}`, http.StatusBadRequest},
		{"bad url", `{"profile_picture":"javascript:alert(1)"}`, http.StatusBadRequest},
		{"email not editable", `{"email":"b@x.com"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPut, tt.body, f.token)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}

	got, err := f.svc.GetUser(t.Context(), f.user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.FullName != "Alice Cooper" || models.StringOrEmpty(got.PhoneNumber) != "5551234567" {
		t.Errorf("unexpected stored profile: name=%q phone=%q", got.FullName, models.StringOrEmpty(got.PhoneNumber))
	}
	if got.Email != "a@x.com" {
		t.Errorf("email changed to %q", got.Email)
	}
}

func TestMe_DirectWithoutMiddleware(t *testing.T) {
	f := setup(t)
	h := users.NewHandler(f.svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Me(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/me"), f.user))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Me(rec, testutil.NewRequest(http.MethodGet, "/me"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a user in context, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Me(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/me"), testutil.TestUser()))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown user, got %d", rec.Code)
	}
}

func TestUpdateMe_Direct(t *testing.T) {
	f := setup(t)
	h := users.NewHandler(f.svc, zap.NewNop())

	req := testutil.NewJSONRequest(http.MethodPut, "/me", `{"profile_picture":"https://cdn.example.com/a.png"}`)
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, testutil.WithUser(req, f.user))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "https://cdn.example.com/a.png") {
		t.Errorf("expected picture in response, got %s", rec.Body.String())
	}
}
