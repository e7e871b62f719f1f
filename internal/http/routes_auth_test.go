package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
)

func TestRouter_AdminSessionPassesOnlyAdminGuard(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.login(domainauth.RoleAdmin, "", "admin@escolafut.com", "admin-pass")

	w := env.do(http.MethodGet, "/api/admin/me", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "adm-1", decodeBody(t, w)["id"])

	anon := env.do(http.MethodGet, "/api/manager/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, anon.Code)

	for _, path := range []string{"/api/manager/me", "/api/guardian/me"} {
		t.Run(path, func(t *testing.T) {
			w := env.do(http.MethodGet, path, sid, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, anon.Body.String(), w.Body.String())
		})
	}
}

func TestRouter_LoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t, nil)
	cases := []struct {
		name       string
		role       domainauth.Role
		identifier string
		secret     string
	}{
		{"unknown account", domainauth.RoleAdmin, "nobody@escolafut.com", "whatever"},
		{"wrong secret", domainauth.RoleAdmin, "admin@escolafut.com", "nope"},
		{"inactive admin", domainauth.RoleAdmin, "retired@escolafut.com", "retired-pass"},
		{"admin credentials on manager login", domainauth.RoleManager, "admin@escolafut.com", "admin-pass"},
	}

	var first string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/"+string(tc.role)+"/login", "",
				map[string]string{"identifier": tc.identifier, "secret": tc.secret})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Nil(t, sessionCookie(w))
			assert.Equal(t, "invalid_credentials", decodeBody(t, w)["error"])
			if first == "" {
				first = w.Body.String()
			}
			assert.JSONEq(t, first, w.Body.String())
		})
	}
	assert.Zero(t, env.sessions.Len())
}

func TestRouter_RolesCoexistInOneSession(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.login(domainauth.RoleManager, "", "gestor@escolafut.com", "manager-pass")
	again := env.login(domainauth.RoleGuardian, sid, "mae@example.com", "guardian-pass")
	assert.Equal(t, sid, again, "a live session id is reused across logins")

	w := env.do(http.MethodGet, "/api/session", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["authenticated"])
	assert.ElementsMatch(t, []any{"manager", "guardian"}, body["roles"])
	assert.Equal(t, "manager", body["effective_role"])

	// Logging out one role leaves the other untouched.
	w = env.do(http.MethodPost, "/api/manager/logout", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/manager/me", sid, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/guardian/me", sid, nil).Code)

	// Repeated logouts succeed.
	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/manager/logout", sid, nil).Code)
}

func TestRouter_LoginIntoLiveSessionNeedsCSRFToken(t *testing.T) {
	env := newTestEnv(t, func(s *RouterServices) { s.CSRFEnabled = true })

	send := func(method, path string, cookies []*http.Cookie, token string, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		if token != "" {
			r.Header.Set(DefaultCSRFHeaderName, token)
		}
		for _, c := range cookies {
			r.AddCookie(c)
		}
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, r)
		return w
	}

	var csrf *http.Cookie
	for _, c := range send(http.MethodGet, "/healthz", nil, "", "").Result().Cookies() {
		if c.Name == DefaultCSRFCookieName {
			csrf = c
		}
	}
	require.NotNil(t, csrf)

	w := send(http.MethodPost, "/api/manager/login", []*http.Cookie{csrf}, csrf.Value,
		`{"identifier":"gestor@escolafut.com","secret":"manager-pass"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sess := sessionCookie(w)
	require.NotNil(t, sess)

	// A forged cross-site login cannot attach a second identity to the session.
	w = send(http.MethodPost, "/api/admin/login", []*http.Cookie{csrf, sess}, "",
		`{"identifier":"admin@escolafut.com","secret":"admin-pass"}`)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "csrf_failed", decodeBody(t, w)["error"])

	w = env.do(http.MethodGet, "/api/session", sess.Value, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"manager"}, decodeBody(t, w)["roles"])

	w = send(http.MethodPost, "/api/admin/login", []*http.Cookie{csrf, sess}, csrf.Value,
		`{"identifier":"admin@escolafut.com","secret":"admin-pass"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, sess.Value, sessionCookie(w).Value)
}

func TestRouter_LoginNeverAdoptsUnknownSessionID(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.login(domainauth.RoleAdmin, "attacker-chosen-id", "admin@escolafut.com", "admin-pass")
	assert.NotEqual(t, "attacker-chosen-id", sid)
	assert.Len(t, sid, 43)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/admin/me", "attacker-chosen-id", nil).Code)
}

func TestRouter_LogoutAllDestroysSession(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.login(domainauth.RoleAdmin, "", "admin@escolafut.com", "admin-pass")
	env.login(domainauth.RoleManager, sid, "gestor@escolafut.com", "manager-pass")

	w := env.do(http.MethodPost, "/api/logout", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	c := sessionCookie(w)
	require.NotNil(t, c)
	assert.Negative(t, c.MaxAge)

	for _, path := range []string{"/api/admin/me", "/api/manager/me"} {
		assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, path, sid, nil).Code, path)
	}
	assert.Zero(t, env.sessions.Len())
}

func TestRouter_SessionStatusUnauthenticated(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, sid := range []string{"", "unknown"} {
		w := env.do(http.MethodGet, "/api/session", sid, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["authenticated"])
		assert.Empty(t, body["roles"])
		assert.NotContains(t, body, "effective_role")
	}
}

func TestRouter_SessionBackendDown(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.login(domainauth.RoleAdmin, "", "admin@escolafut.com", "admin-pass")
	env.sessions.Err = errors.New("connection refused")

	t.Run("guards fail closed", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/admin/me", sid, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "authentication_required", decodeBody(t, w)["error"])
		samples := env.metrics.Find("auth.guard_rejected")
		require.NotEmpty(t, samples)
		assert.Equal(t, "backend_unavailable", samples[len(samples)-1].Tags["reason"])
	})

	t.Run("login reports unavailable", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/manager/login", sid,
			map[string]string{"identifier": "gestor@escolafut.com", "secret": "manager-pass"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "service_unavailable", decodeBody(t, w)["error"])
	})
}

func TestRouter_SlowSessionBackendTimesOut(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.login(domainauth.RoleAdmin, "", "admin@escolafut.com", "admin-pass")
	env.sessions.Delay = time.Second

	start := time.Now()
	w := env.do(http.MethodGet, "/api/admin/me", sid, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestRouter_GuardianRefreshRereadsLinks(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.login(domainauth.RoleGuardian, "", "mae@example.com", "guardian-pass")

	w := env.do(http.MethodGet, "/api/students", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["students"], 1)

	env.accounts.links["grd-1"] = []string{studentA1, studentA2}
	w = env.do(http.MethodPost, "/api/guardian/refresh", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []any{studentA1, studentA2}, decodeBody(t, w)["student_ids"])

	w = env.do(http.MethodGet, "/api/students", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["students"], 2)
}

func TestRouter_GuardianRefreshRequiresGuardian(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.login(domainauth.RoleAdmin, "", "admin@escolafut.com", "admin-pass")
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/guardian/refresh", sid, nil).Code)
}

func TestRouter_LoginInputErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("malformed json", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/admin/login", "", `{"identifier":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_json", decodeBody(t, w)["error"])
	})

	t.Run("unknown field", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/admin/login", "", `{"identifier":"a","secret":"b","role":"admin"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	wrong := env.do(http.MethodPost, "/api/admin/login", "",
		map[string]string{"identifier": "admin@escolafut.com", "secret": "nope"})
	require.Equal(t, http.StatusUnauthorized, wrong.Code)

	malformed := []struct {
		name string
		body map[string]string
	}{
		{"missing secret", map[string]string{"identifier": "admin@escolafut.com"}},
		{"blank secret", map[string]string{"identifier": "admin@escolafut.com", "secret": ""}},
		{"blank identifier", map[string]string{"identifier": "", "secret": "admin-pass"}},
		{"oversized identifier", map[string]string{"identifier": strings.Repeat("a", 400) + "@escolafut.com", "secret": "x"}},
		{"oversized secret", map[string]string{"identifier": "admin@escolafut.com", "secret": strings.Repeat("s", 2000)}},
	}
	for _, tc := range malformed {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/admin/login", "", tc.body)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Nil(t, sessionCookie(w))
			assert.JSONEq(t, wrong.Body.String(), w.Body.String())
			assert.NotContains(t, decodeBody(t, w), "field")
		})
	}
}

func TestRouter_InactiveAdminSessionRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	now := time.Now()
	_, err := env.sessions.Mutate(context.Background(), "planted-session-id",
		func(s *domainauth.Session, _ bool) error {
			s.CreatedAt, s.LastSeenAt, s.ExpiresAt = now, now, now.Add(time.Hour)
			s.Attach(&domainauth.AdminPrincipal{ID: "adm-2", Email: "retired@escolafut.com", Active: false})
			s.Attach(&domainauth.ManagerPrincipal{ID: "mgr-1", BranchID: branchA})
			return nil
		})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/admin/me", "planted-session-id", nil).Code)

	// The manager identity is still usable and becomes the effective one.
	w := env.do(http.MethodGet, "/api/students", "planted-session-id", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["students"], 2)
}

func TestRouter_Healthz(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, healthResponse, w.Body.String())

	w = env.do(http.MethodHead, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
