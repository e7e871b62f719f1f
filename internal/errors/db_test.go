package errors

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextAndNoRows(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{"deadline exceeded", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeCanceled},
		{"pgx no rows", pgx.ErrNoRows, ErrCodeNotFound},
		{"sql no rows", sql.ErrNoRows, ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(MapDBError(tt.err)); got != tt.wantCode {
				t.Errorf("MapDBError() code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestMapDBError_UniqueViolationField(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
	}{
		{
			name:      "column metadata",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "email"},
			wantField: "email",
		},
		{
			name: "detail message",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: `Key (email)=(ana@escolafut.com) already exists.`,
			},
			wantField: "email",
		},
		{
			name:      "constraint name",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "managers_email_key"},
			wantField: "email",
		},
		{
			name:      "ambiguous constraint",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "guardian_students_pkey_x"},
			wantField: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsConflict(err) {
				t.Fatalf("want conflict, got %v", GetCode(err))
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestMapDBError_ForeignKeyMessages(t *testing.T) {
	tests := []struct {
		name    string
		pgErr   *pgconn.PgError
		wantSub string
	}{
		{
			name: "parent still referenced",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (id)=(b1) is still referenced from table "students".`,
			},
			wantSub: "in use by a student",
		},
		{
			name: "missing parent",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (branch_id)=(b9) is not present in table "branches".`,
			},
			wantSub: "referenced unit does not exist",
		},
		{
			name:    "table fallback",
			pgErr:   &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "payments"},
			wantSub: "payment",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			var appErr *AppError
			if !errors.As(err, &appErr) || appErr.Code != ErrCodeForeignKey {
				t.Fatalf("want foreign key error, got %v", err)
			}
			if !strings.Contains(appErr.Message, tt.wantSub) {
				t.Errorf("message %q does not contain %q", appErr.Message, tt.wantSub)
			}
		})
	}
}

func TestMapDBError_ValidationAndUnknown(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "name"})
	if !IsValidation(err) || GetField(err) != "name" {
		t.Errorf("not-null: got code %v field %q", GetCode(err), GetField(err))
	}
	err = MapDBError(&pgconn.PgError{Code: pgerrcode.CheckViolation})
	if !IsValidation(err) {
		t.Errorf("check: got %v", GetCode(err))
	}
	err = MapDBError(&pgconn.PgError{Code: pgerrcode.SerializationFailure})
	if !IsInternal(err) {
		t.Errorf("unknown pg code: got %v", GetCode(err))
	}
	plain := errors.New("plain")
	if got := MapDBError(plain); got != plain {
		t.Errorf("plain error should pass through, got %v", got)
	}
}
