package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
	"github.com/escolafut/escola-api/internal/observability/metrics"
	"github.com/escolafut/escola-api/internal/observability/statsd"
	"github.com/escolafut/escola-api/internal/ports"
)

// dummySecret is hashed once at construction. Unknown identifiers are verified
// against it so every failed login costs one hash comparison.
const dummySecret = "escola-dummy-secret-never-valid"

// CredentialServiceOptions groups dependencies for CredentialService.
type CredentialServiceOptions struct {
	Admins    ports.AdminRepository    // Required
	Managers  ports.ManagerRepository  // Required
	Guardians ports.GuardianRepository // Required
	Hasher    ports.PasswordHasher     // Required
	Logger    *slog.Logger             // Optional: structured logger
	Metrics   statsd.Sink              // Optional: metrics sink (StatsD-compatible)
}

// CredentialService verifies per-role credentials and builds principals.
type CredentialService struct {
	admins    ports.AdminRepository
	managers  ports.ManagerRepository
	guardians ports.GuardianRepository
	hasher    ports.PasswordHasher
	dummyHash string
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewCredentialService constructs a new CredentialService.
func NewCredentialService(opts CredentialServiceOptions) (*CredentialService, error) {
	if opts.Admins == nil || opts.Managers == nil || opts.Guardians == nil {
		return nil, errors.New("admin, manager and guardian repositories are required")
	}
	if opts.Hasher == nil {
		return nil, errors.New("PasswordHasher is required")
	}
	dummy, err := opts.Hasher.Hash(dummySecret)
	if err != nil {
		return nil, fmt.Errorf("hash dummy secret: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialService{
		admins:    opts.Admins,
		managers:  opts.Managers,
		guardians: opts.Guardians,
		hasher:    opts.Hasher,
		dummyHash: dummy,
		logger:    logger.With("component", "credential_service"),
		metrics:   opts.Metrics,
	}, nil
}

// account is the role-independent view of a looked-up record.
type account struct {
	hash      string
	active    bool
	principal func(ctx context.Context) (domainauth.Principal, error)
}

// Verify checks secret against the stored record of identifier within role.
//
// Failures wrap domainauth.ErrInvalidCredentials (not found, inactive, bad
// secret) or domainauth.ErrCredentialBackendUnavailable. The distinction is for
// logs only.
func (s *CredentialService) Verify(
	ctx context.Context,
	role domainauth.Role,
	identifier, secret string,
) (domainauth.Principal, error) {
	start := time.Now()
	email := normalizeIdentifier(identifier)

	p, err := s.verify(ctx, role, email, secret)
	elapsed := time.Since(start)
	if err != nil {
		reason := domainauth.CredentialFailureReason(err)
		result := metrics.ResultFailure
		if errors.Is(err, domainauth.ErrCredentialBackendUnavailable) {
			result = metrics.ResultError
			s.logger.ErrorContext(ctx, "credential lookup failed",
				"role", role, "identifier", email, "error", err)
		} else {
			s.logger.WarnContext(ctx, "login rejected",
				"role", role, "identifier", email, "reason", reason)
		}
		metrics.LoginAttempt(s.metrics, string(role), result, reason, elapsed)
		return nil, err
	}

	s.logger.InfoContext(ctx, "login verified", "role", role, "principal_id", p.PrincipalID())
	metrics.LoginAttempt(s.metrics, string(role), metrics.ResultSuccess, "", elapsed)
	return p, nil
}

func (s *CredentialService) verify(
	ctx context.Context,
	role domainauth.Role,
	email, secret string,
) (domainauth.Principal, error) {
	acct, err := s.lookup(ctx, role, email)
	if errors.Is(err, ports.ErrAccountNotFound) {
		s.burnHash(secret)
		return nil, domainauth.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(acct.hash, secret)
	if err != nil {
		// A stored hash we cannot parse is a data defect, not a client error.
		s.logger.ErrorContext(ctx, "stored password hash rejected", "role", role, "identifier", email, "error", err)
		return nil, domainauth.ErrBadSecret
	}
	if !ok {
		return nil, domainauth.ErrBadSecret
	}
	// Checked after the comparison so inactive accounts cost the same as any other failure.
	if !acct.active {
		return nil, domainauth.ErrAccountInactive
	}
	return acct.principal(ctx)
}

func (s *CredentialService) burnHash(secret string) {
	_, _ = s.hasher.Verify(s.dummyHash, secret)
}

func (s *CredentialService) lookup(ctx context.Context, role domainauth.Role, email string) (*account, error) {
	if email == "" {
		return nil, ports.ErrAccountNotFound
	}
	switch role {
	case domainauth.RoleAdmin:
		a, err := s.admins.FindAdminByEmail(ctx, email)
		if err != nil {
			return nil, backendErr(err)
		}
		return &account{
			hash:   a.PasswordHash,
			active: a.Active,
			principal: func(context.Context) (domainauth.Principal, error) {
				return &domainauth.AdminPrincipal{ID: a.ID, Name: a.Name, Email: a.Email, Tag: a.Role, Active: a.Active}, nil
			},
		}, nil
	case domainauth.RoleManager:
		m, err := s.managers.FindManagerByEmail(ctx, email)
		if err != nil {
			return nil, backendErr(err)
		}
		return &account{
			hash:   m.PasswordHash,
			active: true,
			principal: func(context.Context) (domainauth.Principal, error) {
				return &domainauth.ManagerPrincipal{ID: m.ID, Name: m.Name, Email: m.Email, BranchID: m.BranchID}, nil
			},
		}, nil
	case domainauth.RoleGuardian:
		g, err := s.guardians.FindGuardianByEmail(ctx, email)
		if err != nil {
			return nil, backendErr(err)
		}
		return &account{
			hash:   g.PasswordHash,
			active: true,
			principal: func(ctx context.Context) (domainauth.Principal, error) {
				students, err := s.LinkedStudents(ctx, g.ID)
				if err != nil {
					return nil, err
				}
				return &domainauth.GuardianPrincipal{ID: g.ID, Name: g.Name, Email: g.Email, StudentIDs: students}, nil
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domainauth.ErrInvalidCredentials, role)
	}
}

// LinkedStudents reads the current guardian to student links.
func (s *CredentialService) LinkedStudents(ctx context.Context, guardianID string) ([]string, error) {
	ids, err := s.guardians.LinkedStudentIDs(ctx, guardianID)
	if err != nil {
		return nil, fmt.Errorf("%w: linked students: %w", domainauth.ErrCredentialBackendUnavailable, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func backendErr(err error) error {
	if errors.Is(err, ports.ErrAccountNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", domainauth.ErrCredentialBackendUnavailable, err)
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
