package auth

import (
	"errors"
	"fmt"
)

// Credential failures. All three wrap ErrInvalidCredentials so callers outside
// the credential service can only ever observe the generic error.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = fmt.Errorf("%w: account not found", ErrInvalidCredentials)
	ErrAccountInactive    = fmt.Errorf("%w: account inactive", ErrInvalidCredentials)
	ErrBadSecret          = fmt.Errorf("%w: secret mismatch", ErrInvalidCredentials)
)

// Session failures. An expired session is indistinguishable from a missing one
// for anything that only checks ErrUnauthenticated.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrSessionExpired  = fmt.Errorf("%w: session expired", ErrUnauthenticated)

	ErrSessionBackendUnavailable    = errors.New("session backend unavailable")
	ErrCredentialBackendUnavailable = errors.New("credential backend unavailable")
)

// Authorization failures.
var (
	// ErrCrossTenantAccess marks a request addressing another branch's or another
	// guardian's records. It signals a client bug or a hostile request.
	ErrCrossTenantAccess = errors.New("cross-tenant access")
	// ErrForbidden marks an operation the resolved role may never perform.
	ErrForbidden = errors.New("forbidden")
)

// CredentialFailureReason returns a short log-friendly tag for a credential error.
func CredentialFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, ErrAccountInactive):
		return "inactive"
	case errors.Is(err, ErrBadSecret):
		return "bad_secret"
	case errors.Is(err, ErrCredentialBackendUnavailable):
		return "backend_unavailable"
	default:
		return "unknown"
	}
}
