package handler

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"planbook/internal/activity"
	"planbook/internal/auth"
	"planbook/internal/mailer"
	"planbook/internal/session"
)

type PasswordResetHandler struct {
	forgotTmpl *template.Template
	resetTmpl  *template.Template
	resets     *auth.PasswordResetService
	sessions   *session.Manager
	recorder   *activity.Recorder
	mail       mailer.Mailer
	baseURL    string
}

func NewPasswordResetHandler(templatesDir string, resets *auth.PasswordResetService, sm *session.Manager, rec *activity.Recorder, mail mailer.Mailer, baseURL string) *PasswordResetHandler {
	return &PasswordResetHandler{
		forgotTmpl: template.Must(template.ParseFiles(filepath.Join(templatesDir, "forgot_password.html"))),
		resetTmpl:  template.Must(template.ParseFiles(filepath.Join(templatesDir, "reset_password.html"))),
		resets:     resets,
		sessions:   sm,
		recorder:   rec,
		mail:       mail,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (h *PasswordResetHandler) ForgotPage(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	h.renderForgot(w, r, st, "", "")
}

// Forgot issues a reset token and mails the link. This flow reveals
// whether the email is registered; login deliberately does not.
func (h *PasswordResetHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	st := h.sessions.Load(r)
	if !auth.VerifyToken(st, r.FormValue("csrf_token")) {
		h.renderForgot(w, r, st, auth.ErrInvalidToken.Error(), "")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	if !auth.ValidEmail(email) {
		h.renderForgot(w, r, st, auth.ErrBadEmail.Error(), "")
		return
	}

	req, err := h.resets.GenerateToken(r.Context(), email)
	if err != nil {
		msg := "could not start password reset, try again"
		if ae, ok := err.(*auth.Error); ok {
			msg = ae.Message
		}
		h.renderForgot(w, r, st, msg, "")
		return
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", h.baseURL, req.Token)
	body := fmt.Sprintf("Hello %s,\n\nA password reset was requested for your account. "+
		"The link below is valid for 30 minutes:\n\n%s\n\nIf you did not request this, ignore this message.\n",
		req.User.FullName(), link)
	if err := h.mail.Send(req.User.Email, "Password reset", body); err != nil {
		log.Printf("handler: send reset mail: %v", err)
		h.renderForgot(w, r, st, "could not send the reset email, try again later", "")
		return
	}

	h.renderForgot(w, r, st, "", "A reset link has been sent to your email.")
}

func (h *PasswordResetHandler) ResetPage(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	token := r.URL.Query().Get("token")

	if _, err := h.resets.ValidateToken(r.Context(), token); err != nil {
		h.renderReset(w, r, st, token, auth.ErrResetTokenInvalid.Error())
		return
	}
	h.renderReset(w, r, st, token, "")
}

func (h *PasswordResetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	st := h.sessions.Load(r)
	token := r.FormValue("token")

	if !auth.VerifyToken(st, r.FormValue("csrf_token")) {
		h.renderReset(w, r, st, token, auth.ErrInvalidToken.Error())
		return
	}
	if err := auth.ValidatePassword(r.FormValue("password"), r.FormValue("password_confirm")); err != nil {
		h.renderReset(w, r, st, token, err.Error())
		return
	}

	view, err := h.resets.ValidateToken(r.Context(), token)
	if err != nil {
		h.renderReset(w, r, st, token, auth.ErrResetTokenInvalid.Error())
		return
	}
	if err := h.resets.ResetPassword(r.Context(), token, r.FormValue("password")); err != nil {
		msg := "could not reset the password, try again"
		if ae, ok := err.(*auth.Error); ok {
			msg = ae.Message
		}
		h.renderReset(w, r, st, token, msg)
		return
	}

	h.recorder.Record(r.Context(), view.ID, activity.ActionPasswordReset,
		fmt.Sprintf("password reset for %s", view.Email), r)

	http.Redirect(w, r, "/login?message=Password+updated,+please+sign+in", http.StatusSeeOther)
}

func (h *PasswordResetHandler) renderForgot(w http.ResponseWriter, r *http.Request, st *auth.SessionState, errMsg, message string) {
	data := map[string]interface{}{
		"Title":     "Forgot password",
		"Error":     errMsg,
		"Message":   message,
		"CSRFToken": issueCSRF(w, r, h.sessions, st),
	}
	_ = h.forgotTmpl.Execute(w, data)
}

func (h *PasswordResetHandler) renderReset(w http.ResponseWriter, r *http.Request, st *auth.SessionState, token, errMsg string) {
	data := map[string]interface{}{
		"Title":     "Reset password",
		"Error":     errMsg,
		"Token":     token,
		"CSRFToken": issueCSRF(w, r, h.sessions, st),
	}
	_ = h.resetTmpl.Execute(w, data)
}
