package handler

import (
	"encoding/csv"
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
	"planbook/internal/entity"
	"planbook/internal/repository"
	"planbook/internal/session"
)

type PlanHandler struct {
	listTmpl *template.Template
	formTmpl *template.Template
	showTmpl *template.Template
	plans    *repository.LessonPlanRepository
	auth     *auth.Service
	sessions *session.Manager
	recorder *activity.Recorder
}

func NewPlanHandler(templatesDir string, plans *repository.LessonPlanRepository, a *auth.Service, sm *session.Manager, rec *activity.Recorder) *PlanHandler {
	return &PlanHandler{
		listTmpl: template.Must(template.ParseFiles(filepath.Join(templatesDir, "plan_list.html"))),
		formTmpl: template.Must(template.ParseFiles(filepath.Join(templatesDir, "plan_form.html"))),
		showTmpl: template.Must(template.ParseFiles(filepath.Join(templatesDir, "plan_show.html"))),
		plans:    plans,
		auth:     a,
		sessions: sm,
		recorder: rec,
	}
}

// List shows the signed-in teacher's plans.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	plans, err := h.plans.ListByOwner(r.Context(), st.UserID)
	if err != nil {
		http.Error(w, "could not load lesson plans", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title":     "My lesson plans",
		"UserName":  st.Name,
		"Plans":     plans,
		"CSRFToken": issueCSRF(w, r, h.sessions, st),
		"Message":   r.URL.Query().Get("message"),
	}
	_ = h.listTmpl.Execute(w, data)
}

func (h *PlanHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	h.renderForm(w, r, st, &entity.LessonPlan{}, "")
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	plan, errMsg := h.planFromForm(r, st)
	if errMsg != "" {
		h.renderForm(w, r, st, plan, errMsg)
		return
	}

	id, err := h.plans.Create(r.Context(), plan)
	if err != nil {
		h.renderForm(w, r, st, plan, "could not save the lesson plan")
		return
	}

	h.recorder.Record(r.Context(), st.UserID, activity.ActionPlanCreate,
		fmt.Sprintf("created lesson plan %q", plan.Title), r)

	http.Redirect(w, r, fmt.Sprintf("/plans/%d", id), http.StatusSeeOther)
}

// Show renders one plan. Missing and not-owned plans produce the same
// response.
func (h *PlanHandler) Show(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	plan, ok := h.load(w, r, st)
	if !ok {
		return
	}

	data := map[string]interface{}{
		"Title":     plan.Title,
		"Plan":      plan,
		"CSRFToken": issueCSRF(w, r, h.sessions, st),
	}
	_ = h.showTmpl.Execute(w, data)
}

func (h *PlanHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	plan, ok := h.load(w, r, st)
	if !ok {
		return
	}
	h.renderForm(w, r, st, plan, "")
}

func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.notFound(w)
		return
	}

	plan, errMsg := h.planFromForm(r, st)
	plan.ID = id
	if errMsg != "" {
		h.renderForm(w, r, st, plan, errMsg)
		return
	}

	if err := h.plans.Update(r.Context(), plan); err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			h.notFound(w)
			return
		}
		h.renderForm(w, r, st, plan, "could not save the lesson plan")
		return
	}

	h.recorder.Record(r.Context(), st.UserID, activity.ActionPlanUpdate,
		fmt.Sprintf("updated lesson plan %q", plan.Title), r)

	http.Redirect(w, r, fmt.Sprintf("/plans/%d", id), http.StatusSeeOther)
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
		h.notFound(w)
		return
	}

	if err := h.plans.Delete(r.Context(), id, st.UserID); err != nil {
		h.notFound(w)
		return
	}

	h.recorder.Record(r.Context(), st.UserID, activity.ActionPlanDelete,
		fmt.Sprintf("deleted lesson plan %d", id), r)

	http.Redirect(w, r, "/plans?message=Lesson+plan+deleted", http.StatusSeeOther)
}

// ExportCSV downloads the teacher's plans as a CSV file.
func (h *PlanHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	plans, err := h.plans.ListByOwner(r.Context(), st.UserID)
	if err != nil {
		http.Error(w, "could not load lesson plans", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="lesson_plans.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"title", "subject", "grade_level", "duration_minutes",
		"objectives", "materials", "body", "updated_at"})
	for _, p := range plans {
		_ = cw.Write([]string{
			p.Title, p.Subject, p.GradeLevel, strconv.Itoa(p.DurationMinutes),
			p.Objectives, p.Materials, p.Body, p.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	cw.Flush()

	h.recorder.Record(r.Context(), st.UserID, activity.ActionPlanExport,
		fmt.Sprintf("exported %d lesson plans", len(plans)), r)
}

func (h *PlanHandler) load(w http.ResponseWriter, r *http.Request, st *auth.SessionState) (*entity.LessonPlan, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.notFound(w)
		return nil, false
	}
	plan, err := h.plans.GetForOwner(r.Context(), id, st.UserID)
	if err != nil {
		h.notFound(w)
		return nil, false
	}
	return plan, true
}

// planFromForm parses and validates the shared create/edit form. The
// CSRF check happens here because both writes go through it.
func (h *PlanHandler) planFromForm(r *http.Request, st *auth.SessionState) (*entity.LessonPlan, string) {
	plan := &entity.LessonPlan{OwnerID: st.UserID}
	if err := r.ParseForm(); err != nil {
		return plan, "bad form submission"
	}

	plan.Title = strings.TrimSpace(r.FormValue("title"))
	plan.Subject = strings.TrimSpace(r.FormValue("subject"))
	plan.GradeLevel = strings.TrimSpace(r.FormValue("grade_level"))
	plan.Objectives = r.FormValue("objectives")
	plan.Materials = r.FormValue("materials")
	plan.Body = r.FormValue("body")

	if !auth.VerifyToken(st, r.FormValue("csrf_token")) {
		return plan, auth.ErrInvalidToken.Error()
	}
	if plan.Title == "" {
		return plan, "title is required"
	}
	if v := r.FormValue("duration_minutes"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes < 0 {
			return plan, "duration must be a number of minutes"
		}
		plan.DurationMinutes = minutes
	}
	return plan, ""
}

func (h *PlanHandler) notFound(w http.ResponseWriter) {
	http.Error(w, repository.ErrPlanNotFound.Error(), http.StatusNotFound)
}

func (h *PlanHandler) renderForm(w http.ResponseWriter, r *http.Request, st *auth.SessionState, plan *entity.LessonPlan, errMsg string) {
	title := "New lesson plan"
	if plan.ID != 0 {
		title = "Edit lesson plan"
	}
	data := map[string]interface{}{
		"Title":     title,
		"Error":     errMsg,
		"Plan":      plan,
		"CSRFToken": issueCSRF(w, r, h.sessions, st),
	}
	_ = h.formTmpl.Execute(w, data)
}
