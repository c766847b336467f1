package session

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"planbook/internal/auth"
	"planbook/internal/entity"
)

// CookieName is the name of the session cookie.
const CookieName = "planbook_session"

// cookieMaxAge bounds the cookie itself; the 30-minute auth window is
// enforced separately by the auth core.
const cookieMaxAge = 12 * 60 * 60

// Manager persists auth.SessionState in a signed (and optionally
// encrypted) cookie.
type Manager struct {
	store *sessions.CookieStore
}

// NewManager builds a manager from the configured keys. Missing keys
// fall back to random ones, which invalidates sessions on restart.
func NewManager(hashKey, blockKey []byte, secure bool) *Manager {
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
	}
	var store *sessions.CookieStore
	if len(blockKey) > 0 {
		store = sessions.NewCookieStore(hashKey, blockKey)
	} else {
		store = sessions.NewCookieStore(hashKey)
	}
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
	return &Manager{store: store}
}

// Load rebuilds the session state from the request cookie. A missing or
// tampered cookie yields a fresh anonymous session.
func (m *Manager) Load(r *http.Request) *auth.SessionState {
	st := auth.NewSessionState()
	sess, err := m.store.Get(r, CookieName)
	if err != nil {
		return st
	}

	if v, ok := sess.Values["sid"].(string); ok && v != "" {
		st.SID = v
	}
	if v, ok := sess.Values["user_id"].(int); ok {
		st.UserID = v
	}
	if v, ok := sess.Values["email"].(string); ok {
		st.Email = v
	}
	if v, ok := sess.Values["name"].(string); ok {
		st.Name = v
	}
	if v, ok := sess.Values["role"].(int); ok {
		st.Role = entity.Role(v)
	}
	if v, ok := sess.Values["authenticated"].(bool); ok {
		st.Authenticated = v
	}
	if v, ok := sess.Values["login_time"].(int64); ok && v > 0 {
		st.LoginTime = time.Unix(v, 0)
	}
	if v, ok := sess.Values["last_activity"].(int64); ok && v > 0 {
		st.LastActivity = time.Unix(v, 0)
	}
	if v, ok := sess.Values["csrf_token"].(string); ok {
		st.CSRFToken = v
	}
	return st
}

// Save writes the session state back to the response cookie.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, st *auth.SessionState) error {
	sess, _ := m.store.Get(r, CookieName)
	sess.Values["sid"] = st.SID
	sess.Values["user_id"] = st.UserID
	sess.Values["email"] = st.Email
	sess.Values["name"] = st.Name
	sess.Values["role"] = int(st.Role)
	sess.Values["authenticated"] = st.Authenticated
	sess.Values["login_time"] = unixOrZero(st.LoginTime)
	sess.Values["last_activity"] = unixOrZero(st.LastActivity)
	sess.Values["csrf_token"] = st.CSRFToken
	return sess.Save(r, w)
}

// Destroy drops the server-held state and expires the cookie on the
// client. Idempotent.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, CookieName)
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return err
	}
	// Explicit already-past expiry on the client as well.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})
	return nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
