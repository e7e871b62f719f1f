// Package memdata provides an in-memory ports.DataStore for unit tests. It
// evaluates predicates the way the SQL store renders them, including an empty
// IN set matching nothing.
package memdata

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/escolafut/escola-api/internal/domain/model"
	"github.com/escolafut/escola-api/internal/ports"
)

var _ ports.DataStore = (*Store)(nil)

// Store keeps rows per table. Rows are copied on the way in and out.
type Store struct {
	mu     sync.Mutex
	tables map[string][]model.Row
	// Queries records every query passed to List, for assertions.
	Queries []model.Query
}

// New creates an empty Store.
func New() *Store {
	return &Store{tables: make(map[string][]model.Row)}
}

// Seed inserts rows into table as-is.
func (s *Store) Seed(table string, rows ...model.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.tables[table] = append(s.tables[table], clone(r))
	}
}

// Count returns the number of rows in table.
func (s *Store) Count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table])
}

func (s *Store) List(_ context.Context, q model.Query) ([]model.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries = append(s.Queries, q)

	var out []model.Row
	for _, r := range s.tables[q.Table] {
		ok, err := matches(r, q.Where)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, project(r, q.Columns))
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := fmt.Sprint(out[i][q.OrderBy]), fmt.Sprint(out[j][q.OrderBy])
			if q.Desc {
				return a > b
			}
			return a < b
		})
	}
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []model.Row{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if out == nil {
		out = []model.Row{}
	}
	return out, nil
}

func (s *Store) Insert(_ context.Context, table string, values model.Row, returning []string) (model.Row, error) {
	if table == "" || len(values) == 0 {
		return nil, errors.New("table and values are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row := clone(values)
	if row.String("id") == "" {
		row["id"] = uuid.NewString()
	}
	s.tables[table] = append(s.tables[table], row)
	return project(row, returning), nil
}

func (s *Store) Update(
	_ context.Context,
	table string,
	where []model.Predicate,
	values model.Row,
	returning []string,
) ([]model.Row, error) {
	if len(where) == 0 {
		return nil, errors.New("unscoped update")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Row
	for _, r := range s.tables[table] {
		ok, err := matches(r, where)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for k, v := range values {
			r[k] = v
		}
		out = append(out, project(r, returning))
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, table string, where []model.Predicate) (int64, error) {
	if len(where) == 0 {
		return 0, errors.New("unscoped delete")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tables[table][:0]
	var n int64
	for _, r := range s.tables[table] {
		ok, err := matches(r, where)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.tables[table] = kept
	return n, nil
}

func matches(r model.Row, where []model.Predicate) (bool, error) {
	for _, p := range where {
		switch p.Op {
		case model.OpEq:
			if fmt.Sprint(r[p.Column]) != fmt.Sprint(p.Value) {
				return false, nil
			}
		case model.OpIn:
			vals, ok := p.Value.([]string)
			if !ok {
				return false, fmt.Errorf("IN on %s needs []string", p.Column)
			}
			if !slices.Contains(vals, fmt.Sprint(r[p.Column])) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported operator %q", p.Op)
		}
	}
	return true, nil
}

func project(r model.Row, cols []string) model.Row {
	if len(cols) == 0 {
		return clone(r)
	}
	out := make(model.Row, len(cols))
	for _, c := range cols {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

func clone(r model.Row) model.Row {
	out := make(model.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
