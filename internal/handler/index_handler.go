package handler

import (
	"html/template"
	"net/http"
	"path/filepath"

	"planbook/internal/auth"
	"planbook/internal/session"
)

type IndexHandler struct {
	tmpl     *template.Template
	auth     *auth.Service
	sessions *session.Manager
}

func NewIndexHandler(templatesDir string, a *auth.Service, sm *session.Manager) *IndexHandler {
	tmpl := template.Must(template.ParseFiles(filepath.Join(templatesDir, "index.html")))
	return &IndexHandler{tmpl: tmpl, auth: a, sessions: sm}
}

// Index is the public landing page. Authenticated visitors go straight
// to their dashboard.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	if h.auth.Check(st) {
		_ = h.sessions.Save(w, r, st)
		http.Redirect(w, r, homeFor(st.Role), http.StatusSeeOther)
		return
	}

	data := map[string]interface{}{
		"Title": "Planbook",
	}
	_ = h.tmpl.Execute(w, data)
}
