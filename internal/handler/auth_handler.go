package handler

import (
	"net/http"

	"planbook/internal/activity"
	"planbook/internal/auth"
	"planbook/internal/session"
)

type LogoutHandler struct {
	auth     *auth.Service
	sessions *session.Manager
	recorder *activity.Recorder
}

func NewLogoutHandler(a *auth.Service, sm *session.Manager, rec *activity.Recorder) *LogoutHandler {
	return &LogoutHandler{auth: a, sessions: sm, recorder: rec}
}

// Logout clears the session and expires the cookie. Calling it while
// not signed in still succeeds.
func (h *LogoutHandler) Logout(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	if id, ok := h.auth.ID(st); ok {
		h.recorder.Record(r.Context(), id, activity.ActionLogout, "signed out", r)
	}

	h.auth.Logout(st)
	_ = h.sessions.Destroy(w, r)

	http.Redirect(w, r, "/login?message=You+have+been+signed+out", http.StatusSeeOther)
}
