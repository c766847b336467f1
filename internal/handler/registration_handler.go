package handler

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"planbook/internal/activity"
	"planbook/internal/auth"
	"planbook/internal/entity"
	"planbook/internal/repository"
	"planbook/internal/session"
)

type RegistrationHandler struct {
	tmpl     *template.Template
	users    *repository.UserRepository
	sessions *session.Manager
	recorder *activity.Recorder
}

func NewRegistrationHandler(templatesDir string, users *repository.UserRepository, sm *session.Manager, rec *activity.Recorder) *RegistrationHandler {
	tmpl := template.Must(template.ParseFiles(filepath.Join(templatesDir, "register.html")))
	return &RegistrationHandler{tmpl: tmpl, users: users, sessions: sm, recorder: rec}
}

func (h *RegistrationHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	h.renderForm(w, r, st, "", map[string]string{})
}

// Register creates a teacher account from the signup form.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	st := h.sessions.Load(r)
	form := map[string]string{
		"first_name": strings.TrimSpace(r.FormValue("first_name")),
		"last_name":  strings.TrimSpace(r.FormValue("last_name")),
		"email":      strings.TrimSpace(r.FormValue("email")),
	}

	if !auth.VerifyToken(st, r.FormValue("csrf_token")) {
		h.renderForm(w, r, st, auth.ErrInvalidToken.Error(), form)
		return
	}

	if form["first_name"] == "" || form["last_name"] == "" {
		h.renderForm(w, r, st, "first and last name are required", form)
		return
	}
	if !auth.ValidEmail(form["email"]) {
		h.renderForm(w, r, st, auth.ErrBadEmail.Error(), form)
		return
	}
	if err := auth.ValidatePassword(r.FormValue("password"), r.FormValue("password_confirm")); err != nil {
		h.renderForm(w, r, st, err.Error(), form)
		return
	}

	hash, err := auth.HashPassword(r.FormValue("password"))
	if err != nil {
		h.renderForm(w, r, st, "registration failed, try again", form)
		return
	}

	id, err := h.users.Create(r.Context(), &entity.User{
		FirstName:    form["first_name"],
		LastName:     form["last_name"],
		Email:        form["email"],
		PasswordHash: hash,
		Role:         entity.RoleTeacher,
		Status:       entity.StatusActive,
	})
	if err != nil {
		msg := "registration failed, try again"
		if errors.Is(err, repository.ErrDuplicateEmail) {
			msg = "that email is already registered"
		}
		h.renderForm(w, r, st, msg, form)
		return
	}

	h.recorder.Record(r.Context(), id, activity.ActionRegister,
		fmt.Sprintf("account created for %s", form["email"]), r)

	http.Redirect(w, r, "/login?message=Account+created,+please+sign+in", http.StatusSeeOther)
}

func (h *RegistrationHandler) renderForm(w http.ResponseWriter, r *http.Request, st *auth.SessionState, errMsg string, form map[string]string) {
	data := map[string]interface{}{
		"Title":     "Register",
		"Error":     errMsg,
		"CSRFToken": issueCSRF(w, r, h.sessions, st),
		"Form":      form,
	}
	_ = h.tmpl.Execute(w, data)
}
