package service

import "slices"

// Reference declares a column pointing at a row of another resource. Writes
// through a scoped store must reference rows the caller can see.
type Reference struct {
	Column   string
	Resource string
}

// Resource describes a branch- or student-owned table reachable through the
// scoped store.
type Resource struct {
	Name    string
	Table   string
	Columns []string
	// BranchColumn holds the owning branch id. Empty means managers have no
	// access at all.
	BranchColumn string
	// StudentColumn holds the student id. Empty means guardians have no access.
	StudentColumn string
	// Writable lists the columns accepted from clients on create and update.
	Writable   []string
	Filterable []string
	References []Reference
	OrderBy    string
	// AdminOnlyWrites forbids inserts, updates and deletes by managers.
	AdminOnlyWrites bool
}

var (
	Branches = Resource{
		Name:            "branches",
		Table:           "branches",
		Columns:         []string{"id", "name", "city", "created_at"},
		BranchColumn:    "id",
		Writable:        []string{"name", "city"},
		Filterable:      []string{"city"},
		OrderBy:         "name",
		AdminOnlyWrites: true,
	}
	Students = Resource{
		Name:          "students",
		Table:         "students",
		Columns:       []string{"id", "branch_id", "plan_id", "name", "birth_date", "active", "created_at"},
		BranchColumn:  "branch_id",
		StudentColumn: "id",
		Writable:      []string{"branch_id", "plan_id", "name", "birth_date", "active"},
		Filterable:    []string{"branch_id", "plan_id", "active"},
		References:    []Reference{{Column: "plan_id", Resource: "plans"}},
		OrderBy:       "name",
	}
	Plans = Resource{
		Name:         "plans",
		Table:        "plans",
		Columns:      []string{"id", "branch_id", "name", "monthly_fee_cents", "due_day", "created_at"},
		BranchColumn: "branch_id",
		Writable:     []string{"branch_id", "name", "monthly_fee_cents", "due_day"},
		Filterable:   []string{"branch_id"},
		OrderBy:      "name",
	}
	Payments = Resource{
		Name:    "payments",
		Table:   "payments",
		Columns: []string{"id", "branch_id", "student_id", "amount_cents", "due_date", "paid_at", "status", "created_at"},
		// student_id also carries the guardian scope.
		BranchColumn:  "branch_id",
		StudentColumn: "student_id",
		Writable:      []string{"branch_id", "student_id", "amount_cents", "due_date", "status"},
		Filterable:    []string{"branch_id", "student_id", "status"},
		References:    []Reference{{Column: "student_id", Resource: "students"}},
		OrderBy:       "due_date",
	}
)

var resourcesByName = map[string]Resource{
	Branches.Name: Branches,
	Students.Name: Students,
	Plans.Name:    Plans,
	Payments.Name: Payments,
}

// LookupResource returns the resource registered under name.
func LookupResource(name string) (Resource, bool) {
	r, ok := resourcesByName[name]
	return r, ok
}

func (r Resource) writable(column string) bool   { return slices.Contains(r.Writable, column) }
func (r Resource) filterable(column string) bool { return slices.Contains(r.Filterable, column) }

// ownsBranch reports whether the branch column is the row's own id.
func (r Resource) ownsBranch() bool { return r.BranchColumn == "id" }
