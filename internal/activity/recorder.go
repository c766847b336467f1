package activity

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"

	"planbook/internal/entity"
)

// Action tags stored with each audit entry.
const (
	ActionLogin         = "login"
	ActionLogout        = "logout"
	ActionRegister      = "register"
	ActionPasswordReset = "password_reset"
	ActionPlanCreate    = "plan_create"
	ActionPlanUpdate    = "plan_update"
	ActionPlanDelete    = "plan_delete"
	ActionPlanExport    = "plan_export"
	ActionUserCreate    = "user_create"
	ActionUserStatus    = "user_status"
	ActionUserImport    = "user_import"
)

// Log is where audit entries land.
type Log interface {
	Append(ctx context.Context, e *entity.ActivityEntry) error
}

// Recorder appends audit entries for significant actions. Failures are
// logged and swallowed; auditing never blocks the request.
type Recorder struct {
	entries Log
}

func NewRecorder(entries Log) *Recorder {
	return &Recorder{entries: entries}
}

func (rec *Recorder) Record(ctx context.Context, userID int, action, description string, r *http.Request) {
	entry := &entity.ActivityEntry{
		UserID:      userID,
		Action:      action,
		Description: description,
	}
	if r != nil {
		entry.IPAddress = ClientIP(r)
	}
	if err := rec.entries.Append(ctx, entry); err != nil {
		log.Printf("activity: record %s: %v", action, err)
	}
}

// ClientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
