package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planbook/internal/auth"
	"planbook/internal/entity"
)

func testManager() *Manager {
	return NewManager([]byte("0123456789abcdef0123456789abcdef"), nil, false)
}

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", CookieName)
	return nil
}

func TestLoadWithoutCookie(t *testing.T) {
	m := testManager()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	st := m.Load(r)
	require.NotNil(t, st)
	assert.False(t, st.Authenticated)
	assert.Zero(t, st.UserID)
	assert.NotEmpty(t, st.SID)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := testManager()

	st := auth.NewSessionState()
	st.UserID = 7
	st.Email = "dana@school.test"
	st.Name = "Dana Reed"
	st.Role = entity.RoleTeacher
	st.Authenticated = true
	st.LoginTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	st.LastActivity = st.LoginTime.Add(5 * time.Minute)
	st.CSRFToken = "some-token"

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, m.Save(rec, r, st))

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookieFrom(t, rec))
	got := m.Load(r2)

	assert.Equal(t, st.SID, got.SID)
	assert.Equal(t, 7, got.UserID)
	assert.Equal(t, "dana@school.test", got.Email)
	assert.Equal(t, "Dana Reed", got.Name)
	assert.Equal(t, entity.RoleTeacher, got.Role)
	assert.True(t, got.Authenticated)
	assert.Equal(t, st.LoginTime.Unix(), got.LoginTime.Unix())
	assert.Equal(t, st.LastActivity.Unix(), got.LastActivity.Unix())
	assert.Equal(t, "some-token", got.CSRFToken)
}

func TestLoadTamperedCookie(t *testing.T) {
	m := testManager()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})

	st := m.Load(r)
	assert.False(t, st.Authenticated)
	assert.Zero(t, st.UserID)
}

func TestDestroyExpiresCookie(t *testing.T) {
	m := testManager()

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, m.Destroy(rec, r))

	expired := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName && c.MaxAge < 0 {
			expired = true
		}
	}
	assert.True(t, expired)
}

func TestSIDSurvivesRoundTripAndChangesOnRegenerate(t *testing.T) {
	m := testManager()

	st := auth.NewSessionState()
	before := st.SID

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, m.Save(rec, r, st))

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookieFrom(t, rec))
	got := m.Load(r2)
	require.Equal(t, before, got.SID)

	got.Regenerate()
	assert.NotEqual(t, before, got.SID)

	rec2 := httptest.NewRecorder()
	require.NoError(t, m.Save(rec2, r2, got))

	r3 := httptest.NewRequest(http.MethodGet, "/", nil)
	r3.AddCookie(cookieFrom(t, rec2))
	assert.Equal(t, got.SID, m.Load(r3).SID)
}
