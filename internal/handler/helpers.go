package handler

import (
	"log"
	"net/http"

	"planbook/internal/auth"
	"planbook/internal/entity"
	"planbook/internal/session"
)

// homeFor maps a role to its landing page after login.
func homeFor(role entity.Role) string {
	switch role {
	case entity.RoleAdmin:
		return "/admin"
	case entity.RoleTeacher:
		return "/plans"
	}
	return "/"
}

// issueCSRF fetches (or mints) the session's CSRF token and persists
// the session so the rendered form and the stored token agree.
func issueCSRF(w http.ResponseWriter, r *http.Request, sm *session.Manager, st *auth.SessionState) string {
	token, err := auth.IssueToken(st)
	if err != nil {
		log.Printf("handler: issue csrf token: %v", err)
		return ""
	}
	if err := sm.Save(w, r, st); err != nil {
		log.Printf("handler: save session: %v", err)
	}
	return token
}

// Forbidden renders the 403 page for role-mismatched access.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("<!DOCTYPE html><html><head><title>Forbidden</title></head>" +
		"<body><h1>403 Forbidden</h1><p>You do not have access to this page.</p>" +
		`<p><a href="/">Back to start</a></p></body></html>`))
}
