package auth

import (
	"context"
	"log"
	"strings"
	"time"

	"planbook/internal/entity"
)

// SessionTimeout is measured from login time, not last activity: a
// continuously active user still has to log in again after 30 minutes.
const SessionTimeout = 30 * time.Minute

// CredentialStore is the persistence surface the auth core needs.
// Implementations must return (nil, nil) when no user matches.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id int) (*entity.User, error)
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
}

// Service orchestrates login, logout, session validity and role checks.
type Service struct {
	users CredentialStore
	now   func() time.Time
}

func NewService(users CredentialStore) *Service {
	return &Service{users: users, now: time.Now}
}

// WithClock substitutes the time source. Used by tests to simulate
// session expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login authenticates the email/password pair against the credential
// store and, on success, regenerates the session identifier and
// populates the session state. Unknown email, wrong password and
// inactive account all fail with the same generic error.
func (s *Service) Login(ctx context.Context, sess *SessionState, email, password string) (*entity.UserView, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if !ValidEmail(email) {
		return nil, ErrBadEmail
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		// A store failure degrades to the generic auth failure rather
		// than surfacing internals.
		log.Printf("auth: lookup failed for login: %v", err)
		return nil, ErrInvalidCredentials
	}
	if user == nil || !user.Active() {
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	// New identifier before any authenticated state lands in the
	// session: the pre-login id must never survive a login.
	sess.Regenerate()
	sess.UserID = user.ID
	sess.Email = user.Email
	sess.Name = user.FullName()
	sess.Role = user.Role
	sess.Authenticated = true
	sess.LoginTime = s.now()
	sess.LastActivity = sess.LoginTime

	view := user.View()
	return &view, nil
}

// Logout clears all session state. Safe to call on an anonymous session.
func (s *Service) Logout(sess *SessionState) {
	sess.Clear()
}

// Check reports whether the session is authenticated and inside the
// timeout window. Expiry is enforced lazily here: a timed-out session
// is fully logged out as a side effect. On success the last-activity
// stamp is refreshed, though it plays no part in the timeout.
func (s *Service) Check(sess *SessionState) bool {
	if sess == nil || !sess.Authenticated || sess.UserID == 0 {
		return false
	}
	now := s.now()
	if now.Sub(sess.LoginTime) > SessionTimeout {
		s.Logout(sess)
		return false
	}
	sess.LastActivity = now
	return true
}

// User returns the sanitized session view, or nil when Check fails.
func (s *Service) User(sess *SessionState) *entity.UserView {
	if !s.Check(sess) {
		return nil
	}
	view := sessionView(sess)
	return &view
}

// ID returns the session's user id without Check's side effects.
func (s *Service) ID(sess *SessionState) (int, bool) {
	if sess == nil || sess.UserID == 0 {
		return 0, false
	}
	return sess.UserID, true
}

// HasRole is an exact match: admin does not satisfy a teacher-only gate
// or vice versa.
func (s *Service) HasRole(sess *SessionState, role entity.Role) bool {
	if !s.Check(sess) {
		return false
	}
	return sess.Role == role
}

func sessionView(sess *SessionState) entity.UserView {
	first, last := splitName(sess.Name)
	return entity.UserView{
		ID:        sess.UserID,
		FirstName: first,
		LastName:  last,
		Email:     sess.Email,
		Role:      sess.Role,
	}
}

func splitName(full string) (string, string) {
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
