package httpx

import (
	"net/http"
	"strings"
	"time"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
)

// DefaultSessionCookieName is used when SessionCookies.Name is empty.
const DefaultSessionCookieName = "escola_session"

// SessionCookies writes and reads the session cookie. The cookie carries only
// the opaque session id.
type SessionCookies struct {
	Name   string
	Path   string
	Domain string
	// Secure forces the Secure attribute. HTTPS requests get it regardless.
	Secure bool
}

func (c SessionCookies) name() string {
	if c.Name == "" {
		return DefaultSessionCookieName
	}
	return c.Name
}

func (c SessionCookies) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// Read returns the session id presented by the request, or "".
func (c SessionCookies) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.name())
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Set writes the session cookie with an expiry matching the session.
func (c SessionCookies) Set(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	if maxAge <= 0 {
		c.Clear(w, r)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    s.ID,
		Path:     c.path(),
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure || isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// Clear expires the session cookie on the client. It mirrors the attributes
// used by Set so browsers match the cookie being deleted.
func (c SessionCookies) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     c.path(),
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure || isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

// isSecureRequest reports whether the request arrived over HTTPS, accounting
// for proxies. Handles comma-separated X-Forwarded-Proto values.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
