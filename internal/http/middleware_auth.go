package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
	"github.com/escolafut/escola-api/internal/observability/metrics"
	"github.com/escolafut/escola-api/internal/observability/statsd"
	"github.com/escolafut/escola-api/internal/service"
)

// SessionAuthenticator loads the live session behind a cookie value.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, sessionID string) (service.SessionState, error)
}

// Guards holds the per-role authentication middleware. Each guard reads only
// its own role's identity; an admin identity never satisfies the manager or
// guardian guard.
//
// Every rejection produces the same 401 body, whether the cookie was missing,
// the session expired, the store timed out or the admin was deactivated.
type Guards struct {
	Auth    SessionAuthenticator
	Cookies SessionCookies
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// RequireAdmin admits requests whose session holds an active admin identity.
// The active flag is the one cached at login.
func (g *Guards) RequireAdmin(next http.Handler) http.Handler {
	return g.Dispatch(domainauth.RoleAdmin)(next)
}

// RequireManager admits requests whose session holds a manager identity.
func (g *Guards) RequireManager(next http.Handler) http.Handler {
	return g.Dispatch(domainauth.RoleManager)(next)
}

// RequireGuardian admits requests whose session holds a guardian identity.
func (g *Guards) RequireGuardian(next http.Handler) http.Handler {
	return g.Dispatch(domainauth.RoleGuardian)(next)
}

// Guard returns the guard middleware for role.
func (g *Guards) Guard(role domainauth.Role) func(http.Handler) http.Handler {
	switch role {
	case domainauth.RoleAdmin:
		return g.RequireAdmin
	case domainauth.RoleManager:
		return g.RequireManager
	default:
		return g.RequireGuardian
	}
}

// load reads the cookie and loads the session. On failure it has already
// written the 401 response.
func (g *Guards) load(w http.ResponseWriter, r *http.Request, tag string) (service.SessionState, bool) {
	sessionID := g.Cookies.Read(r)
	if sessionID == "" {
		g.reject(w, r, tag, "no_session")
		return service.SessionState{}, false
	}
	st, err := g.Auth.Authenticate(r.Context(), sessionID)
	if err != nil {
		reason := "unknown_session"
		switch {
		case errors.Is(err, domainauth.ErrSessionBackendUnavailable):
			// Fail closed.
			reason = "backend_unavailable"
			g.logger().ErrorContext(r.Context(), "session lookup failed", "error", err)
		case errors.Is(err, domainauth.ErrSessionExpired):
			reason = "expired"
			g.Cookies.Clear(w, r)
		default:
			g.Cookies.Clear(w, r)
		}
		g.reject(w, r, tag, reason)
		return service.SessionState{}, false
	}
	if st.Renewed {
		g.Cookies.Set(w, r, st.Session)
	}
	return st, true
}

// admit returns the identity for role if it may pass the guard.
func admit(sess *domainauth.Session, role domainauth.Role) (domainauth.Principal, string) {
	p, ok := sess.Identity(role)
	if !ok {
		return nil, "absent"
	}
	if a, isAdmin := p.(*domainauth.AdminPrincipal); isAdmin && !a.Active {
		return nil, "inactive"
	}
	return p, ""
}

func (g *Guards) reject(w http.ResponseWriter, r *http.Request, tag, reason string) {
	metrics.GuardRejected(g.Metrics, tag, reason)
	g.logger().DebugContext(r.Context(), "guard rejected request",
		"roles", tag, "reason", reason, "path", r.URL.Path)
	WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required"})
}

func (g *Guards) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func roleTag(roles []domainauth.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, "|")
}
