package auth

import (
	"time"

	"github.com/google/uuid"

	"planbook/internal/entity"
)

// SessionState is the per-browser session context, passed explicitly to
// every auth operation. The cookie layer loads and saves it; nothing in
// this package touches ambient globals.
type SessionState struct {
	// SID is the session identifier. It is re-minted at login so the
	// pre-login and post-login sessions never share an identifier.
	SID string

	UserID        int
	Email         string
	Name          string
	Role          entity.Role
	Authenticated bool
	LoginTime     time.Time
	LastActivity  time.Time
	CSRFToken     string
}

// NewSessionState returns an empty anonymous session with a fresh id.
func NewSessionState() *SessionState {
	return &SessionState{SID: uuid.NewString()}
}

// Regenerate replaces the session identifier, keeping all other state.
func (s *SessionState) Regenerate() {
	s.SID = uuid.NewString()
}

// Clear resets the session to anonymous. Every field is dropped,
// including the CSRF token; a new identifier is minted.
func (s *SessionState) Clear() {
	*s = SessionState{SID: uuid.NewString()}
}
