package httpx

import (
	"net/http"
	"slices"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
)

// Dispatch admits a request when the session holds an eligible identity for
// any of roles. When several coexist, the effective principal is chosen by
// domainauth.Precedence (admin > manager > guardian) and placed in the request
// context; handlers never pick a role themselves.
func (g *Guards) Dispatch(roles ...domainauth.Role) func(http.Handler) http.Handler {
	allowed := slices.Clone(roles)
	tag := roleTag(allowed)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, ok := g.load(w, r, tag)
			if !ok {
				return
			}
			p, reason := EffectivePrincipal(&st.Session, allowed)
			if p == nil {
				g.reject(w, r, tag, reason)
				return
			}
			ctx := setSessionInContext(r.Context(), &st.Session)
			ctx = SetPrincipalInContext(ctx, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EffectivePrincipal resolves the identity a request acts as, restricted to
// allowed roles. An inactive admin identity is not eligible. reason explains
// an empty result.
func EffectivePrincipal(sess *domainauth.Session, allowed []domainauth.Role) (domainauth.Principal, string) {
	reason := "absent"
	for _, role := range domainauth.Precedence {
		if !slices.Contains(allowed, role) {
			continue
		}
		p, why := admit(sess, role)
		if p != nil {
			return p, ""
		}
		if why != "absent" {
			reason = why
		}
	}
	return nil, reason
}
