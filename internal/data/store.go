package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/escolafut/escola-api/internal/data/database"
	"github.com/escolafut/escola-api/internal/domain/model"
	apperrors "github.com/escolafut/escola-api/internal/errors"
)

// Store is the generic table/predicate data store backed by PostgreSQL.
// It performs no authorization of its own.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{DB: db} }

func toConditions(preds []model.Predicate) []database.Condition {
	conds := make([]database.Condition, 0, len(preds))
	for _, p := range preds {
		op := database.Equal
		if p.Op == model.OpIn {
			op = database.In
		}
		conds = append(conds, database.WhereCond(p.Column, op, p.Value))
	}
	return conds
}

func (s *Store) List(ctx context.Context, q model.Query) ([]model.Row, error) {
	if q.Table == "" {
		return nil, ErrTableRequired
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	opts := database.NewListQueryOptions(q.Table,
		database.WithColumns(q.Columns...),
		database.WithConditions(toConditions(q.Where)...),
		database.WithOrderBy(q.OrderBy, dir),
	)
	if q.Limit > 0 {
		database.WithLimit(q.Limit)(opts)
	}
	if q.Offset > 0 {
		database.WithOffset(q.Offset)(opts)
	}

	query, args := database.BuildListQuery(opts)
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", q.Table, apperrors.MapDBError(err))
	}
	return scanRows(rows)
}

// Insert writes values into table. A missing "id" is assigned a new UUID.
func (s *Store) Insert(ctx context.Context, table string, values model.Row, returning []string) (model.Row, error) {
	if table == "" {
		return nil, ErrTableRequired
	}
	if len(values) == 0 {
		return nil, ErrValuesRequired
	}
	row := make(map[string]any, len(values)+1)
	for k, v := range values {
		row[k] = v
	}
	if _, ok := row["id"]; !ok {
		row["id"] = uuid.NewString()
	}

	query, args := database.BuildInsertQuery(table, row, returning)
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, apperrors.MapDBError(err))
	}
	out, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("insert %s: no row returned", table)
	}
	return out[0], nil
}

func (s *Store) Update(
	ctx context.Context,
	table string,
	where []model.Predicate,
	values model.Row,
	returning []string,
) ([]model.Row, error) {
	if table == "" {
		return nil, ErrTableRequired
	}
	if len(where) == 0 {
		return nil, ErrUnscopedMutation
	}
	if len(values) == 0 {
		return nil, ErrValuesRequired
	}
	query, args := database.BuildUpdateQuery(table, values, toConditions(where), returning)
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, apperrors.MapDBError(err))
	}
	return scanRows(rows)
}

func (s *Store) Delete(ctx context.Context, table string, where []model.Predicate) (int64, error) {
	if table == "" {
		return 0, ErrTableRequired
	}
	if len(where) == 0 {
		return 0, ErrUnscopedMutation
	}
	query, args := database.BuildDeleteQuery(table, toConditions(where))
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %s: rows affected: %w", table, err)
	}
	return n, nil
}

// scanRows reads every row into a column-keyed map and closes rows.
func scanRows(rows *sql.Rows) ([]model.Row, error) {
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	out := []model.Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(model.Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", apperrors.MapDBError(err))
	}
	return out, nil
}
