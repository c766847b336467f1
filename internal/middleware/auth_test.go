package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planbook/internal/auth"
	"planbook/internal/entity"
	"planbook/internal/session"
)

type staticUsers struct {
	user *entity.User
}

func (s staticUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, nil
}

func (s staticUsers) GetByID(_ context.Context, id int) (*entity.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, nil
}

func (s staticUsers) UpdatePassword(context.Context, int, string) error { return nil }

func gateFixture(t *testing.T) (*Gate, *auth.Service, *session.Manager) {
	t.Helper()
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	users := staticUsers{user: &entity.User{
		ID:           1,
		FirstName:    "Dana",
		LastName:     "Reed",
		Email:        "dana@school.test",
		PasswordHash: hash,
		Role:         entity.RoleTeacher,
		Status:       entity.StatusActive,
	}}
	svc := auth.NewService(users)
	sm := session.NewManager([]byte("0123456789abcdef0123456789abcdef"), nil, false)
	return NewGate(svc, sm), svc, sm
}

func loginCookie(t *testing.T, svc *auth.Service, sm *session.Manager) *http.Cookie {
	t.Helper()
	st := auth.NewSessionState()
	_, err := svc.Login(context.Background(), st, "dana@school.test", "correct horse")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, sm.Save(rec, r, st))

	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthAnonymous(t *testing.T) {
	gate, _, _ := gateFixture(t)

	called := false
	rec := httptest.NewRecorder()
	gate.RequireAuth(okHandler(&called)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plans", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireAuthSignedIn(t *testing.T) {
	gate, svc, sm := gateFixture(t)
	cookie := loginCookie(t, svc, sm)

	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/plans", nil)
	r.AddCookie(cookie)
	gate.RequireAuth(okHandler(&called)).ServeHTTP(rec, r)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthExpiredSession(t *testing.T) {
	gate, svc, sm := gateFixture(t)
	cookie := loginCookie(t, svc, sm)

	svc.WithClock(func() time.Time { return time.Now().Add(31 * time.Minute) })

	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/plans", nil)
	r.AddCookie(cookie)
	gate.RequireAuth(okHandler(&called)).ServeHTTP(rec, r)

	assert.False(t, called)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireRoleMatch(t *testing.T) {
	gate, svc, sm := gateFixture(t)
	cookie := loginCookie(t, svc, sm)

	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/plans", nil)
	r.AddCookie(cookie)
	gate.RequireRole(entity.RoleTeacher)(okHandler(&called)).ServeHTTP(rec, r)

	assert.True(t, called)
}

func TestRequireRoleMismatch(t *testing.T) {
	gate, svc, sm := gateFixture(t)
	cookie := loginCookie(t, svc, sm)

	// A teacher hitting an admin-only gate is forbidden, not redirected
	// to login.
	called := false
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(cookie)
	gate.RequireRole(entity.RoleAdmin)(okHandler(&called)).ServeHTTP(rec, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/forbidden", rec.Header().Get("Location"))
}

func TestRequireRoleAnonymous(t *testing.T) {
	gate, _, _ := gateFixture(t)

	called := false
	rec := httptest.NewRecorder()
	gate.RequireRole(entity.RoleAdmin)(okHandler(&called)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.False(t, called)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}
