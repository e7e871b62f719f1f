package ports

// Package ports defines the interfaces (hexagonal ports) the auth and scoping
// services depend on. Implementations live in internal/data and internal/adapters;
// orchestration lives in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/escolafut/escola-api/internal/domain/auth"
	"github.com/escolafut/escola-api/internal/domain/model"
)

// ErrAccountNotFound is returned by credential repositories when no account
// matches the identifier.
var ErrAccountNotFound = errors.New("account not found")

// ErrSessionNotFound is returned by session stores when the id is unknown or
// its record has expired.
var ErrSessionNotFound = errors.New("session not found")

// AdminRepository looks up administrators by normalized email.
type AdminRepository interface {
	FindAdminByEmail(ctx context.Context, email string) (*model.AdminAccount, error)
}

// ManagerRepository looks up unit managers by normalized email.
type ManagerRepository interface {
	FindManagerByEmail(ctx context.Context, email string) (*model.ManagerAccount, error)
}

// GuardianRepository looks up guardians and the students linked to them.
type GuardianRepository interface {
	FindGuardianByEmail(ctx context.Context, email string) (*model.GuardianAccount, error)
	LinkedStudentIDs(ctx context.Context, guardianID string) ([]string, error)
}

// PasswordHasher hashes new secrets and verifies presented ones.
// Verify must compare in constant time with respect to the secret.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(encoded, secret string) (bool, error)
}

// SessionMutation edits a session in place. exists is false when the id had no
// live record; the mutation then starts from a zero Session carrying only the id.
type SessionMutation func(sess *domainauth.Session, exists bool) error

// SessionStore persists sessions keyed by their opaque id.
//
// Mutate is atomic per id: concurrent mutations of the same session are
// serialized and none is lost. A session left without identities is deleted
// instead of saved.
type SessionStore interface {
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Mutate(ctx context.Context, id string, fn SessionMutation) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// ExpiredSessionSweeper is implemented by stores that need periodic reclamation.
type ExpiredSessionSweeper interface {
	DeleteExpired(ctx context.Context, batchSize int) (int64, error)
}
