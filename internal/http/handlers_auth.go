package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
	"github.com/escolafut/escola-api/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	SessionAuthenticator
	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	Logout(ctx context.Context, sessionID string, role domainauth.Role) error
	LogoutAll(ctx context.Context, sessionID string) error
	RefreshGuardian(ctx context.Context, sessionID string) (*domainauth.GuardianPrincipal, error)
}

// AuthHandlers provides HTTP handlers for the per-role login flows.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	Cookies      SessionCookies
	MaxBodyBytes int64
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Blank fields are left to the credential service, which rejects them after
// the same hash work as any other failure.
type loginRequest struct {
	Identifier string `json:"identifier" validate:"max=320"`
	Secret     string `json:"secret" validate:"max=1024"`
}

// Login returns the handler for POST /api/{role}/login. Any failure to verify
// the credentials yields the same 401 body.
func (h *AuthHandlers) Login(role domainauth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !DecodeJSON(w, r, &req, h.MaxBodyBytes) {
			return
		}
		if err := validateInput(req); err != nil {
			h.logger().WarnContext(r.Context(), "login rejected", "role", role, "reason", "oversized_input")
			writeServiceError(w, r, h.logger(), domainauth.ErrInvalidCredentials)
			return
		}

		res, err := h.Svc.Login(r.Context(), service.LoginInput{
			Role:       role,
			SessionID:  h.Cookies.Read(r),
			Identifier: req.Identifier,
			Secret:     req.Secret,
		})
		if err != nil {
			writeServiceError(w, r, h.logger(), err)
			return
		}

		h.Cookies.Set(w, r, res.Session)
		WriteJSON(w, http.StatusOK, map[string]any{
			"principal":  res.Principal.Summary(),
			"roles":      res.Session.Roles(),
			"expires_at": res.Session.ExpiresAt,
		})
	}
}

// Logout returns the handler for POST /api/{role}/logout. It clears only that
// role's identity and succeeds whether or not one was present.
func (h *AuthHandlers) Logout(role domainauth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID := h.Cookies.Read(r); sessionID != "" {
			if err := h.Svc.Logout(r.Context(), sessionID, role); err != nil {
				writeServiceError(w, r, h.logger(), err)
				return
			}
		}
		WriteJSON(w, http.StatusOK, map[string]any{"logged_out": role})
	}
}

// LogoutAll handles POST /api/logout and destroys the whole session.
func (h *AuthHandlers) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if sessionID := h.Cookies.Read(r); sessionID != "" {
		if err := h.Svc.LogoutAll(r.Context(), sessionID); err != nil {
			writeServiceError(w, r, h.logger(), err)
			return
		}
	}
	h.Cookies.Clear(w, r)
	WriteJSON(w, http.StatusOK, map[string]any{"logged_out": "all"})
}

// Me handles GET /api/{role}/me. It runs behind that role's guard.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required"})
		return
	}
	WriteJSON(w, http.StatusOK, p.Summary())
}

// RefreshGuardian handles POST /api/guardian/refresh, re-reading the
// guardian's linked students from the credential store.
func (h *AuthHandlers) RefreshGuardian(w http.ResponseWriter, r *http.Request) {
	g, err := h.Svc.RefreshGuardian(r.Context(), h.Cookies.Read(r))
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusOK, g.Summary())
}

type sessionStatus struct {
	Authenticated bool                                            `json:"authenticated"`
	Roles         []domainauth.Role                               `json:"roles"`
	EffectiveRole domainauth.Role                                 `json:"effective_role,omitempty"`
	Principals    map[domainauth.Role]domainauth.PrincipalSummary `json:"principals"`
}

// Status handles GET /api/session. It never returns 401: an absent or expired
// session is reported as unauthenticated.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	status := sessionStatus{
		Roles:      []domainauth.Role{},
		Principals: map[domainauth.Role]domainauth.PrincipalSummary{},
	}
	sessionID := h.Cookies.Read(r)
	if sessionID == "" {
		WriteJSON(w, http.StatusOK, status)
		return
	}

	st, err := h.Svc.Authenticate(r.Context(), sessionID)
	switch {
	case errors.Is(err, domainauth.ErrUnauthenticated):
		h.Cookies.Clear(w, r)
		WriteJSON(w, http.StatusOK, status)
		return
	case err != nil:
		writeServiceError(w, r, h.logger(), err)
		return
	}
	if st.Renewed {
		h.Cookies.Set(w, r, st.Session)
	}

	sess := st.Session
	for _, role := range sess.Roles() {
		p, _ := sess.Identity(role)
		status.Roles = append(status.Roles, role)
		status.Principals[role] = p.Summary()
	}
	if p, _ := EffectivePrincipal(&sess, domainauth.Precedence); p != nil {
		status.EffectiveRole = p.Role()
	}
	status.Authenticated = len(status.Roles) > 0
	WriteJSON(w, http.StatusOK, status)
}
