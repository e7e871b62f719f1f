package service

import (
	"context"
	"errors"
	"log/slog"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Credentials *CredentialService // Required
	Sessions    *SessionService    // Required
	Logger      *slog.Logger       // Optional: structured logger
}

// AuthService orchestrates login flows by coordinating credential
// verification and session persistence.
type AuthService struct {
	credentials *CredentialService
	sessions    *SessionService
	logger      *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Credentials == nil {
		return nil, errors.New("CredentialService is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("SessionService is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		credentials: opts.Credentials,
		sessions:    opts.Sessions,
		logger:      logger.With("component", "auth_service"),
	}, nil
}

// LoginInput groups parameters for Login.
type LoginInput struct {
	Role       domainauth.Role
	SessionID  string // id from the request cookie, possibly empty
	Identifier string
	Secret     string
}

// LoginResult contains the persisted session and the principal just attached.
type LoginResult struct {
	Session   domainauth.Session
	Principal domainauth.Principal
}

// Login verifies credentials for one role and records the identity in the
// session. Other roles' identities in the same session are left untouched.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if !in.Role.Valid() {
		return nil, domainauth.ErrInvalidCredentials
	}
	p, err := s.credentials.Verify(ctx, in.Role, in.Identifier, in.Secret)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Create(ctx, in.SessionID, p)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: sess, Principal: p}, nil
}

// Logout clears one role's identity. Repeated logouts succeed.
func (s *AuthService) Logout(ctx context.Context, sessionID string, role domainauth.Role) error {
	return s.sessions.Destroy(ctx, sessionID, role)
}

// LogoutAll evicts the whole session.
func (s *AuthService) LogoutAll(ctx context.Context, sessionID string) error {
	return s.sessions.DestroyAll(ctx, sessionID)
}

// Authenticate loads the live session behind sessionID.
func (s *AuthService) Authenticate(ctx context.Context, sessionID string) (SessionState, error) {
	return s.sessions.Load(ctx, sessionID)
}

// WhoAmI returns the identity held for role.
func (s *AuthService) WhoAmI(ctx context.Context, sessionID string, role domainauth.Role) (domainauth.Principal, error) {
	return s.sessions.Get(ctx, sessionID, role)
}

// RefreshGuardian re-reads the guardian's linked students and stores them in
// the session. The set is never taken from the client.
func (s *AuthService) RefreshGuardian(ctx context.Context, sessionID string) (*domainauth.GuardianPrincipal, error) {
	p, err := s.sessions.Get(ctx, sessionID, domainauth.RoleGuardian)
	if err != nil {
		return nil, err
	}
	students, err := s.credentials.LinkedStudents(ctx, p.PrincipalID())
	if err != nil {
		s.logger.ErrorContext(ctx, "refresh linked students failed", "guardian_id", p.PrincipalID(), "error", err)
		return nil, err
	}
	g, err := s.sessions.RefreshGuardian(ctx, sessionID, p.PrincipalID(), students)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "guardian links refreshed", "guardian_id", g.ID, "students", len(g.StudentIDs))
	return g, nil
}

// SessionTTL returns the configured session lifetime, used for cookie expiry.
func (s *AuthService) SessionTTL() int {
	return int(s.sessions.TTL().Seconds())
}
