package handler

import (
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"planbook/internal/activity"
	"planbook/internal/auth"
	"planbook/internal/session"
)

type LoginHandler struct {
	tmpl     *template.Template
	auth     *auth.Service
	sessions *session.Manager
	recorder *activity.Recorder
}

func NewLoginHandler(templatesDir string, a *auth.Service, sm *session.Manager, rec *activity.Recorder) *LoginHandler {
	tmpl := template.Must(template.ParseFiles(filepath.Join(templatesDir, "login.html")))
	return &LoginHandler{tmpl: tmpl, auth: a, sessions: sm, recorder: rec}
}

func (h *LoginHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	if h.auth.Check(st) {
		_ = h.sessions.Save(w, r, st)
		http.Redirect(w, r, homeFor(st.Role), http.StatusSeeOther)
		return
	}

	h.renderForm(w, r, st, r.URL.Query().Get("error"), r.URL.Query().Get("message"), "")
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	st := h.sessions.Load(r)
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if !auth.VerifyToken(st, r.FormValue("csrf_token")) {
		h.renderForm(w, r, st, auth.ErrInvalidToken.Error(), "", email)
		return
	}

	view, err := h.auth.Login(r.Context(), st, email, password)
	if err != nil {
		h.renderForm(w, r, st, err.Error(), "", email)
		return
	}

	if err := h.sessions.Save(w, r, st); err != nil {
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}

	h.recorder.Record(r.Context(), view.ID, activity.ActionLogin,
		fmt.Sprintf("%s signed in", view.Email), r)

	http.Redirect(w, r, homeFor(view.Role), http.StatusSeeOther)
}

func (h *LoginHandler) renderForm(w http.ResponseWriter, r *http.Request, st *auth.SessionState, errMsg, message, email string) {
	data := map[string]interface{}{
		"Title":     "Sign in",
		"Error":     errMsg,
		"Message":   message,
		"CSRFToken": issueCSRF(w, r, h.sessions, st),
		"Form": map[string]string{
			"email": email,
		},
	}
	_ = h.tmpl.Execute(w, data)
}
