package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/escolafut/escola-api/internal/data/pgxutil"
	"github.com/escolafut/escola-api/internal/domain/model"
	apperrors "github.com/escolafut/escola-api/internal/errors"
	"github.com/escolafut/escola-api/internal/ports"
)

// NormalizeEmail is the canonical identifier form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func lookupErr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrAccountNotFound
	}
	return fmt.Errorf("find %s: %w", what, apperrors.MapDBError(err))
}

// AdminRepo provides database operations for administrators.
type AdminRepo struct {
	DB *sql.DB
}

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

func (r *AdminRepo) FindAdminByEmail(ctx context.Context, email string) (*model.AdminAccount, error) {
	const q = `SELECT id, name, email, role, active, password_hash FROM admins WHERE email = $1`
	var a model.AdminAccount
	err := r.DB.QueryRowContext(ctx, q, NormalizeEmail(email)).
		Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.Active, &a.PasswordHash)
	if err != nil {
		return nil, lookupErr(err, "admin")
	}
	return &a, nil
}

// CreateAdmin inserts an active administrator.
func (r *AdminRepo) CreateAdmin(ctx context.Context, req model.CreateAdminRequest) (*model.AdminAccount, error) {
	a := model.AdminAccount{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        NormalizeEmail(req.Email),
		Role:         "admin",
		Active:       true,
		PasswordHash: req.PasswordHash,
	}
	const q = `INSERT INTO admins (id, name, email, role, active, password_hash) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.DB.ExecContext(ctx, q, a.ID, a.Name, a.Email, a.Role, a.Active, a.PasswordHash); err != nil {
		return nil, fmt.Errorf("create admin: %w", apperrors.MapDBError(err))
	}
	return &a, nil
}

// SetAdminActive toggles the active flag. It takes effect at the admin's next login.
func (r *AdminRepo) SetAdminActive(ctx context.Context, email string, active bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE admins SET active = $1 WHERE email = $2`, active, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("update admin: %w", apperrors.MapDBError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrAccountNotFound
	}
	return nil
}

// ManagerRepo provides database operations for unit managers.
type ManagerRepo struct {
	DB *sql.DB
}

func NewManagerRepo(db *sql.DB) *ManagerRepo { return &ManagerRepo{DB: db} }

func (r *ManagerRepo) FindManagerByEmail(ctx context.Context, email string) (*model.ManagerAccount, error) {
	const q = `SELECT id, name, email, branch_id, password_hash FROM managers WHERE email = $1`
	var m model.ManagerAccount
	err := r.DB.QueryRowContext(ctx, q, NormalizeEmail(email)).
		Scan(&m.ID, &m.Name, &m.Email, &m.BranchID, &m.PasswordHash)
	if err != nil {
		return nil, lookupErr(err, "manager")
	}
	return &m, nil
}

func (r *ManagerRepo) CreateManager(ctx context.Context, req model.CreateManagerRequest) (*model.ManagerAccount, error) {
	m := model.ManagerAccount{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        NormalizeEmail(req.Email),
		BranchID:     req.BranchID,
		PasswordHash: req.PasswordHash,
	}
	const q = `INSERT INTO managers (id, name, email, branch_id, password_hash) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.DB.ExecContext(ctx, q, m.ID, m.Name, m.Email, m.BranchID, m.PasswordHash); err != nil {
		return nil, fmt.Errorf("create manager: %w", apperrors.MapDBError(err))
	}
	return &m, nil
}

// GuardianRepo provides database operations for guardians and their student links.
type GuardianRepo struct {
	DB *sql.DB
}

func NewGuardianRepo(db *sql.DB) *GuardianRepo { return &GuardianRepo{DB: db} }

func (r *GuardianRepo) FindGuardianByEmail(ctx context.Context, email string) (*model.GuardianAccount, error) {
	const q = `SELECT id, name, email, password_hash FROM guardians WHERE email = $1`
	var g model.GuardianAccount
	err := r.DB.QueryRowContext(ctx, q, NormalizeEmail(email)).
		Scan(&g.ID, &g.Name, &g.Email, &g.PasswordHash)
	if err != nil {
		return nil, lookupErr(err, "guardian")
	}
	return &g, nil
}

// LinkedStudentIDs returns the ids of students linked to the guardian, sorted.
func (r *GuardianRepo) LinkedStudentIDs(ctx context.Context, guardianID string) ([]string, error) {
	const q = `SELECT student_id FROM guardian_students WHERE guardian_id = $1 ORDER BY student_id`
	rows, err := r.DB.QueryContext(ctx, q, guardianID)
	if err != nil {
		return nil, fmt.Errorf("list linked students: %w", apperrors.MapDBError(err))
	}
	defer func() { _ = rows.Close() }()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan linked student: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate linked students: %w", err)
	}
	return ids, nil
}

func (r *GuardianRepo) CreateGuardian(ctx context.Context, req model.CreateGuardianRequest) (*model.GuardianAccount, error) {
	g := model.GuardianAccount{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        NormalizeEmail(req.Email),
		PasswordHash: req.PasswordHash,
	}
	const q = `INSERT INTO guardians (id, name, email, password_hash) VALUES ($1, $2, $3, $4)`
	if _, err := r.DB.ExecContext(ctx, q, g.ID, g.Name, g.Email, g.PasswordHash); err != nil {
		return nil, fmt.Errorf("create guardian: %w", apperrors.MapDBError(err))
	}
	return &g, nil
}

// LinkStudent links a student to a guardian. Linking twice is a no-op.
func (r *GuardianRepo) LinkStudent(ctx context.Context, guardianID, studentID string) error {
	return pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{Fn: func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM guardians WHERE id = $1)`, guardianID).Scan(&exists); err != nil {
			return fmt.Errorf("check guardian: %w", apperrors.MapDBError(err))
		}
		if !exists {
			return ports.ErrAccountNotFound
		}
		const q = `INSERT INTO guardian_students (guardian_id, student_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, q, guardianID, studentID); err != nil {
			return fmt.Errorf("link student: %w", apperrors.MapDBError(err))
		}
		return nil
	}})
}
