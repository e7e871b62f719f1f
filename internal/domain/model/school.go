package model

// Inputs accepted by the resource endpoints. Row() only emits fields the client
// actually sent, so an omitted branch_id is never mistaken for a foreign one.

// BranchInput creates or updates a branch (unit).
type BranchInput struct {
	Name string `json:"name" validate:"required,max=200"`
	City string `json:"city" validate:"omitempty,max=120"`
}

func (in BranchInput) Row() Row {
	row := Row{"name": in.Name}
	if in.City != "" {
		row["city"] = in.City
	}
	return row
}

// StudentInput creates or updates a student.
type StudentInput struct {
	BranchID  string `json:"branch_id" validate:"omitempty,uuid"`
	PlanID    string `json:"plan_id" validate:"omitempty,uuid"`
	Name      string `json:"name" validate:"required,max=200"`
	BirthDate string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Active    *bool  `json:"active"`
}

func (in StudentInput) Row() Row {
	row := Row{"name": in.Name}
	putString(row, "branch_id", in.BranchID)
	putString(row, "plan_id", in.PlanID)
	putString(row, "birth_date", in.BirthDate)
	if in.Active != nil {
		row["active"] = *in.Active
	}
	return row
}

// PlanInput creates or updates a billing plan.
type PlanInput struct {
	BranchID        string `json:"branch_id" validate:"omitempty,uuid"`
	Name            string `json:"name" validate:"required,max=200"`
	MonthlyFeeCents int64  `json:"monthly_fee_cents" validate:"gte=0"`
	DueDay          int    `json:"due_day" validate:"omitempty,min=1,max=28"`
}

func (in PlanInput) Row() Row {
	row := Row{"name": in.Name, "monthly_fee_cents": in.MonthlyFeeCents}
	putString(row, "branch_id", in.BranchID)
	if in.DueDay != 0 {
		row["due_day"] = in.DueDay
	}
	return row
}

// PaymentInput creates or updates a payment entry.
type PaymentInput struct {
	BranchID    string `json:"branch_id" validate:"omitempty,uuid"`
	StudentID   string `json:"student_id" validate:"required,uuid"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02"`
	Status      string `json:"status" validate:"omitempty,oneof=pending paid canceled"`
}

func (in PaymentInput) Row() Row {
	row := Row{"student_id": in.StudentID, "amount_cents": in.AmountCents, "due_date": in.DueDate}
	putString(row, "branch_id", in.BranchID)
	putString(row, "status", in.Status)
	return row
}

func putString(row Row, column, value string) {
	if value != "" {
		row[column] = value
	}
}
