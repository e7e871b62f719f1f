package model

// AdminAccount is the stored record of a platform administrator.
type AdminAccount struct {
	ID           string
	Name         string
	Email        string
	Role         string
	Active       bool
	PasswordHash string
}

// ManagerAccount is the stored record of a unit manager. Every manager belongs
// to exactly one branch.
type ManagerAccount struct {
	ID           string
	Name         string
	Email        string
	BranchID     string
	PasswordHash string
}

// GuardianAccount is the stored record of a guardian.
type GuardianAccount struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
}

// CreateAdminRequest is used by the admin CLI to provision administrators.
type CreateAdminRequest struct {
	Name         string `validate:"required,max=200"`
	Email        string `validate:"required,email,max=320"`
	PasswordHash string `validate:"required"`
}

// CreateManagerRequest provisions a unit manager bound to a branch.
type CreateManagerRequest struct {
	Name         string `validate:"required,max=200"`
	Email        string `validate:"required,email,max=320"`
	BranchID     string `validate:"required,uuid"`
	PasswordHash string `validate:"required"`
}

// CreateGuardianRequest provisions a guardian.
type CreateGuardianRequest struct {
	Name         string `validate:"required,max=200"`
	Email        string `validate:"required,email,max=320"`
	PasswordHash string `validate:"required"`
}
