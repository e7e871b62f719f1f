package httpx

import (
	"context"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
)

// principalKey and sessionKey are unexported context key types to avoid
// collisions across packages.
type (
	principalKey struct{}
	sessionKey   struct{}
)

// SetPrincipalInContext returns a child context carrying the principal a guard
// or the role router resolved for this request.
func SetPrincipalInContext(ctx context.Context, p domainauth.Principal) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the resolved principal and whether one is present.
func PrincipalFromContext(ctx context.Context) (domainauth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domainauth.Principal)
	return p, ok && p != nil
}

func setSessionInContext(ctx context.Context, s *domainauth.Session) context.Context {
	if s == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the loaded session, if a guard stored one.
func SessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*domainauth.Session)
	return s, ok && s != nil
}
