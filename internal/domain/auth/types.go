package auth

// Package auth contains domain-level types for principals, sessions and the
// authentication error taxonomy. It is pure and free of framework/adapter concerns.

import (
	"fmt"
	"time"
)

// Role identifies one of the siloed login populations.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleGuardian Role = "guardian"
)

// Precedence is the order in which coexisting identities are considered when a
// route is reachable by more than one role. Earlier entries win.
//
// This is a product policy: a browser holding both an admin and a guardian
// identity acts as admin on shared routes.
var Precedence = []Role{RoleAdmin, RoleManager, RoleGuardian}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleGuardian:
		return true
	default:
		return false
	}
}

// ParseRole converts a path segment or config value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %q (valid options: admin, manager, guardian)", s)
	}
	return r, nil
}

// Session is the server-side record persisted for a browser.
// It holds at most one identity per role; each slot is read independently.
type Session struct {
	ID         string             `json:"id"`
	Admin      *AdminPrincipal    `json:"admin,omitempty"`
	Manager    *ManagerPrincipal  `json:"manager,omitempty"`
	Guardian   *GuardianPrincipal `json:"guardian,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	LastSeenAt time.Time          `json:"last_seen_at"`
	ExpiresAt  time.Time          `json:"expires_at"`
}

// Identity returns the principal stored for role, if any.
func (s *Session) Identity(role Role) (Principal, bool) {
	switch role {
	case RoleAdmin:
		if s.Admin != nil {
			return s.Admin, true
		}
	case RoleManager:
		if s.Manager != nil {
			return s.Manager, true
		}
	case RoleGuardian:
		if s.Guardian != nil {
			return s.Guardian, true
		}
	}
	return nil, false
}

// Attach stores p in the slot for its role, replacing any previous identity of that role.
func (s *Session) Attach(p Principal) {
	switch v := p.(type) {
	case *AdminPrincipal:
		s.Admin = v
	case *ManagerPrincipal:
		s.Manager = v
	case *GuardianPrincipal:
		s.Guardian = v
	}
}

// Detach clears the slot for role. Other slots are untouched.
func (s *Session) Detach(role Role) {
	switch role {
	case RoleAdmin:
		s.Admin = nil
	case RoleManager:
		s.Manager = nil
	case RoleGuardian:
		s.Guardian = nil
	}
}

// Roles lists the roles with an identity present, in precedence order.
func (s *Session) Roles() []Role {
	roles := make([]Role, 0, len(Precedence))
	for _, r := range Precedence {
		if _, ok := s.Identity(r); ok {
			roles = append(roles, r)
		}
	}
	return roles
}

// IsEmpty reports whether the session holds no identity at all.
func (s *Session) IsEmpty() bool { return s.Admin == nil && s.Manager == nil && s.Guardian == nil }

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }
