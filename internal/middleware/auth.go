package middleware

import (
	"net/http"

	"planbook/internal/auth"
	"planbook/internal/entity"
	"planbook/internal/session"
)

// Gate wraps protected routes with the auth core's checks.
// Unauthenticated requests go to the login page, role mismatches to the
// forbidden page.
type Gate struct {
	auth     *auth.Service
	sessions *session.Manager
}

func NewGate(a *auth.Service, sm *session.Manager) *Gate {
	return &Gate{auth: a, sessions: sm}
}

func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := g.sessions.Load(r)
		ok := g.auth.Check(st)
		// Check mutates the state either way: lazy logout on timeout,
		// refreshed last-activity on success.
		if err := g.sessions.Save(w, r, st); err != nil {
			http.Error(w, "session error", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) RequireRole(role entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := g.sessions.Load(r)
			ok := g.auth.Check(st)
			if err := g.sessions.Save(w, r, st); err != nil {
				http.Error(w, "session error", http.StatusInternalServerError)
				return
			}
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !g.auth.HasRole(st, role) {
				http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
