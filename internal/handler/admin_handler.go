package handler

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"planbook/internal/activity"
	"planbook/internal/auth"
	"planbook/internal/csvimport"
	"planbook/internal/entity"
	"planbook/internal/repository"
	"planbook/internal/session"
)

const activityPageSize = 100

type AdminHandler struct {
	dashTmpl     *template.Template
	usersTmpl    *template.Template
	userFormTmpl *template.Template
	importTmpl   *template.Template
	activityTmpl *template.Template
	plansTmpl    *template.Template
	users        *repository.UserRepository
	plans        *repository.LessonPlanRepository
	log          *repository.ActivityLogRepository
	sessions     *session.Manager
	recorder     *activity.Recorder
}

func NewAdminHandler(templatesDir string, users *repository.UserRepository, plans *repository.LessonPlanRepository, logRepo *repository.ActivityLogRepository, sm *session.Manager, rec *activity.Recorder) *AdminHandler {
	return &AdminHandler{
		dashTmpl:     template.Must(template.ParseFiles(filepath.Join(templatesDir, "admin_dashboard.html"))),
		usersTmpl:    template.Must(template.ParseFiles(filepath.Join(templatesDir, "admin_users.html"))),
		userFormTmpl: template.Must(template.ParseFiles(filepath.Join(templatesDir, "admin_user_form.html"))),
		importTmpl:   template.Must(template.ParseFiles(filepath.Join(templatesDir, "admin_import.html"))),
		activityTmpl: template.Must(template.ParseFiles(filepath.Join(templatesDir, "admin_activity.html"))),
		plansTmpl:    template.Must(template.ParseFiles(filepath.Join(templatesDir, "admin_plans.html"))),
		users:        users,
		plans:        plans,
		log:          logRepo,
		sessions:     sm,
		recorder:     rec,
	}
}

// Dashboard shows overall counts and the latest activity.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)

	userCount, err := h.users.Count(r.Context())
	if err != nil {
		http.Error(w, "could not load statistics", http.StatusInternalServerError)
		return
	}
	planCount, err := h.plans.Count(r.Context())
	if err != nil {
		http.Error(w, "could not load statistics", http.StatusInternalServerError)
		return
	}
	recent, err := h.log.ListRecent(r.Context(), 10)
	if err != nil {
		http.Error(w, "could not load activity", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title":     "Administration",
		"UserName":  st.Name,
		"UserCount": userCount,
		"PlanCount": planCount,
		"Recent":    recent,
	}
	_ = h.dashTmpl.Execute(w, data)
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	users, err := h.users.List(r.Context())
	if err != nil {
		http.Error(w, "could not load users", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title":     "Users",
		"Users":     users,
		"CSRFToken": issueCSRF(w, r, h.sessions, st),
		"Message":   r.URL.Query().Get("message"),
		"Error":     r.URL.Query().Get("error"),
	}
	_ = h.usersTmpl.Execute(w, data)
}

func (h *AdminHandler) UserForm(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	h.renderUserForm(w, r, st, "", map[string]string{})
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	st := h.sessions.Load(r)
	form := map[string]string{
		"first_name": strings.TrimSpace(r.FormValue("first_name")),
		"last_name":  strings.TrimSpace(r.FormValue("last_name")),
		"email":      strings.TrimSpace(r.FormValue("email")),
		"role":       r.FormValue("role"),
	}

	if !auth.VerifyToken(st, r.FormValue("csrf_token")) {
		h.renderUserForm(w, r, st, auth.ErrInvalidToken.Error(), form)
		return
	}
	if form["first_name"] == "" || form["last_name"] == "" {
		h.renderUserForm(w, r, st, "first and last name are required", form)
		return
	}
	if !auth.ValidEmail(form["email"]) {
		h.renderUserForm(w, r, st, auth.ErrBadEmail.Error(), form)
		return
	}
	role, err := entity.ParseRole(form["role"])
	if err != nil {
		h.renderUserForm(w, r, st, "unknown role", form)
		return
	}
	if err := auth.ValidatePassword(r.FormValue("password"), r.FormValue("password_confirm")); err != nil {
		h.renderUserForm(w, r, st, err.Error(), form)
		return
	}

	hash, err := auth.HashPassword(r.FormValue("password"))
	if err != nil {
		h.renderUserForm(w, r, st, "could not create the user", form)
		return
	}

	id, err := h.users.Create(r.Context(), &entity.User{
		FirstName:    form["first_name"],
		LastName:     form["last_name"],
		Email:        form["email"],
		PasswordHash: hash,
		Role:         role,
		Status:       entity.StatusActive,
	})
	if err != nil {
		msg := "could not create the user"
		if errors.Is(err, repository.ErrDuplicateEmail) {
			msg = "that email is already registered"
		}
		h.renderUserForm(w, r, st, msg, form)
		return
	}

	h.recorder.Record(r.Context(), st.UserID, activity.ActionUserCreate,
		fmt.Sprintf("created user %d (%s)", id, form["email"]), r)

	http.Redirect(w, r, "/admin/users?message=User+created", http.StatusSeeOther)
}

// SetStatus activates or deactivates an account. Deactivated users can
// no longer sign in; existing sessions die at the 30-minute mark.
func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	st := h.sessions.Load(r)
	if !auth.VerifyToken(st, r.FormValue("csrf_token")) {
		http.Error(w, auth.ErrInvalidToken.Error(), http.StatusForbidden)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "unknown user", http.StatusNotFound)
		return
	}

	status := entity.StatusActive
	if r.FormValue("status") == string(entity.StatusInactive) {
		status = entity.StatusInactive
	}
	if id == st.UserID && status == entity.StatusInactive {
		http.Redirect(w, r, "/admin/users?error=You+cannot+deactivate+your+own+account", http.StatusSeeOther)
		return
	}

	if err := h.users.SetStatus(r.Context(), id, status); err != nil {
		http.Error(w, "could not update the user", http.StatusInternalServerError)
		return
	}

	h.recorder.Record(r.Context(), st.UserID, activity.ActionUserStatus,
		fmt.Sprintf("set user %d to %s", id, status), r)

	http.Redirect(w, r, "/admin/users?message=User+updated", http.StatusSeeOther)
}

func (h *AdminHandler) ImportPage(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	h.renderImport(w, r, st, "", nil)
}

// Import bulk-creates users from an uploaded CSV. Bad rows are listed
// individually; good rows are committed.
func (h *AdminHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		http.Error(w, "bad upload", http.StatusBadRequest)
		return
	}

	st := h.sessions.Load(r)
	if !auth.VerifyToken(st, r.FormValue("csrf_token")) {
		h.renderImport(w, r, st, auth.ErrInvalidToken.Error(), nil)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.renderImport(w, r, st, "choose a CSV file to upload", nil)
		return
	}
	defer file.Close()

	summary, err := csvimport.ImportUsers(r.Context(), file, h.users)
	if err != nil {
		h.renderImport(w, r, st, err.Error(), nil)
		return
	}

	h.recorder.Record(r.Context(), st.UserID, activity.ActionUserImport,
		fmt.Sprintf("imported %d users, %d rows rejected", summary.Imported, len(summary.Errors)), r)

	h.renderImport(w, r, st, "", summary)
}

// Plans lists every teacher's lesson plans. Read-only: editing stays
// with the owner.
func (h *AdminHandler) Plans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListAll(r.Context())
	if err != nil {
		http.Error(w, "could not load lesson plans", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title": "All lesson plans",
		"Plans": plans,
	}
	_ = h.plansTmpl.Execute(w, data)
}

func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.log.ListRecent(r.Context(), activityPageSize)
	if err != nil {
		http.Error(w, "could not load activity", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title":   "Activity log",
		"Entries": entries,
	}
	_ = h.activityTmpl.Execute(w, data)
}

func (h *AdminHandler) renderUserForm(w http.ResponseWriter, r *http.Request, st *auth.SessionState, errMsg string, form map[string]string) {
	data := map[string]interface{}{
		"Title":     "New user",
		"Error":     errMsg,
		"Form":      form,
		"CSRFToken": issueCSRF(w, r, h.sessions, st),
	}
	_ = h.userFormTmpl.Execute(w, data)
}

func (h *AdminHandler) renderImport(w http.ResponseWriter, r *http.Request, st *auth.SessionState, errMsg string, summary *csvimport.Summary) {
	data := map[string]interface{}{
		"Title":     "Import users",
		"Error":     errMsg,
		"Summary":   summary,
		"CSRFToken": issueCSRF(w, r, h.sessions, st),
	}
	_ = h.importTmpl.Execute(w, data)
}
