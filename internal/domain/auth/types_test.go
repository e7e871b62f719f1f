package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSession_AttachDetachIsolatesRoles(t *testing.T) {
	var s Session
	s.Attach(&AdminPrincipal{ID: "a1", Active: true})
	s.Attach(&GuardianPrincipal{ID: "g1", StudentIDs: []string{"s1"}})

	if _, ok := s.Identity(RoleAdmin); !ok {
		t.Fatalf("expected admin identity")
	}
	if _, ok := s.Identity(RoleManager); ok {
		t.Fatalf("did not expect manager identity")
	}

	s.Detach(RoleAdmin)
	if _, ok := s.Identity(RoleAdmin); ok {
		t.Fatalf("admin identity should be cleared")
	}
	if p, ok := s.Identity(RoleGuardian); !ok || p.PrincipalID() != "g1" {
		t.Fatalf("guardian identity should survive admin detach, got %v", p)
	}
	if s.IsEmpty() {
		t.Fatalf("session still holds a guardian")
	}

	s.Detach(RoleGuardian)
	s.Detach(RoleGuardian)
	if !s.IsEmpty() {
		t.Fatalf("expected empty session")
	}
}

func TestSession_RolesInPrecedenceOrder(t *testing.T) {
	var s Session
	s.Attach(&GuardianPrincipal{ID: "g"})
	s.Attach(&ManagerPrincipal{ID: "m", BranchID: "b"})
	s.Attach(&AdminPrincipal{ID: "a"})

	got := s.Roles()
	want := []Role{RoleAdmin, RoleManager, RoleGuardian}
	if len(got) != len(want) {
		t.Fatalf("roles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("roles = %v, want %v", got, want)
		}
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Fatalf("should not be expired yet")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Fatalf("should be expired at ExpiresAt")
	}
}

func TestParseRole(t *testing.T) {
	for _, in := range []string{"admin", "manager", "guardian"} {
		if _, err := ParseRole(in); err != nil {
			t.Fatalf("ParseRole(%q) unexpected error: %v", in, err)
		}
	}
	if _, err := ParseRole("gestor"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestCredentialErrorsCollapse(t *testing.T) {
	for _, err := range []error{ErrAccountNotFound, ErrAccountInactive, ErrBadSecret} {
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%v should wrap ErrInvalidCredentials", err)
		}
	}
	if !errors.Is(ErrSessionExpired, ErrUnauthenticated) {
		t.Fatalf("expired sessions must read as unauthenticated")
	}
	if CredentialFailureReason(ErrAccountInactive) != "inactive" {
		t.Fatalf("unexpected reason tag")
	}
}

func TestGuardianPrincipal_SummaryCopiesStudentIDs(t *testing.T) {
	p := &GuardianPrincipal{ID: "g", StudentIDs: []string{"s1", "s2"}}
	sum := p.Summary()
	sum.StudentIDs[0] = "tampered"
	if !p.LinkedTo("s1") || p.LinkedTo("tampered") {
		t.Fatalf("summary must not alias the principal's linked set")
	}
}
