package auth

import "slices"

// Principal is an authenticated actor. Instances are built only by the
// credential service after a successful verification.
type Principal interface {
	Role() Role
	PrincipalID() string
	Summary() PrincipalSummary
}

// PrincipalSummary is the client-facing view of a principal.
type PrincipalSummary struct {
	Role       Role     `json:"role"`
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	BranchID   string   `json:"branch_id,omitempty"`
	StudentIDs []string `json:"student_ids,omitempty"`
}

// AdminPrincipal is a platform administrator. Active is cached at login and
// refreshed at the next login.
type AdminPrincipal struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Tag    string `json:"role_tag"`
	Active bool   `json:"active"`
}

func (p *AdminPrincipal) Role() Role          { return RoleAdmin }
func (p *AdminPrincipal) PrincipalID() string { return p.ID }

func (p *AdminPrincipal) Summary() PrincipalSummary {
	return PrincipalSummary{Role: RoleAdmin, ID: p.ID, Name: p.Name, Email: p.Email}
}

// ManagerPrincipal is a unit manager ("gestor"). BranchID is fixed for the
// lifetime of the session.
type ManagerPrincipal struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	BranchID string `json:"branch_id"`
}

func (p *ManagerPrincipal) Role() Role          { return RoleManager }
func (p *ManagerPrincipal) PrincipalID() string { return p.ID }

func (p *ManagerPrincipal) Summary() PrincipalSummary {
	return PrincipalSummary{Role: RoleManager, ID: p.ID, Name: p.Name, Email: p.Email, BranchID: p.BranchID}
}

// GuardianPrincipal is a guardian ("responsável"). StudentIDs is computed from
// the guardian_students links at login or refresh, never from the client.
type GuardianPrincipal struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	StudentIDs []string `json:"student_ids"`
}

func (p *GuardianPrincipal) Role() Role          { return RoleGuardian }
func (p *GuardianPrincipal) PrincipalID() string { return p.ID }

func (p *GuardianPrincipal) Summary() PrincipalSummary {
	return PrincipalSummary{
		Role:       RoleGuardian,
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		StudentIDs: slices.Clone(p.StudentIDs),
	}
}

// LinkedTo reports whether studentID is in the guardian's linked set.
func (p *GuardianPrincipal) LinkedTo(studentID string) bool {
	return slices.Contains(p.StudentIDs, studentID)
}
