package ports

import (
	"context"

	"github.com/escolafut/escola-api/internal/domain/model"
)

// DataStore is the generic table/predicate boundary to the relational store.
// It performs no authorization; callers outside internal/service must reach it
// through the tenant-scoped store.
type DataStore interface {
	List(ctx context.Context, q model.Query) ([]model.Row, error)
	Insert(ctx context.Context, table string, values model.Row, returning []string) (model.Row, error)
	Update(ctx context.Context, table string, where []model.Predicate, values model.Row, returning []string) ([]model.Row, error)
	Delete(ctx context.Context, table string, where []model.Predicate) (int64, error)
}

// StudentLinker manages guardian to student links. Used by the admin CLI.
type StudentLinker interface {
	LinkStudent(ctx context.Context, guardianID, studentID string) error
}
