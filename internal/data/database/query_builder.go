package database

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

type ConditionType string

const (
	Equal ConditionType = "="
	In    ConditionType = "IN"

	defaultLimit  = -1
	defaultOffset = -1
)

type Condition struct {
	Field string
	Type  ConditionType
	Value any
}

func WhereCond(field string, condType ConditionType, value any) Condition {
	return Condition{Field: field, Type: condType, Value: value}
}

type ListQueryOptions struct {
	Table      string
	Columns    []string
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
	Offset     int
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table:  table,
		Limit:  defaultLimit,
		Offset: defaultOffset,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithConditions appends conditions; all are AND-ed.
func WithConditions(conds ...Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, conds...) }
}

// WithOrderBy sets the ordering column and direction.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

func sanitizeIdentifier(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

func columnList(cols []string) string {
	if len(cols) == 0 {
		return "*"
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = sanitizeIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

// BuildListQuery constructs a SELECT with sanitized identifiers and positional args.
//
//	opts := NewListQueryOptions("students",
//		WithColumns("id", "name"),
//		WithConditions(WhereCond("branch_id", Equal, branchID)),
//		WithOrderBy("name", "ASC"),
//		WithLimit(50),
//	)
//	query, args := BuildListQuery(opts)
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder
	query.WriteString("SELECT ")
	query.WriteString(columnList(options.Columns))
	query.WriteString(" FROM ")
	query.WriteString(sanitizeIdentifier(options.Table))

	where, args, next := buildWhereClause(options.Conditions, 1)
	query.WriteString(where)

	if options.OrderBy != "" {
		query.WriteString(" ORDER BY ")
		query.WriteString(sanitizeIdentifier(options.OrderBy))
		if dir := strings.ToUpper(options.OrderDir); dir == "ASC" || dir == "DESC" {
			query.WriteString(" " + dir)
		}
	}
	if options.Limit != defaultLimit {
		fmt.Fprintf(&query, " LIMIT $%d", next)
		args = append(args, options.Limit)
		next++
	}
	if options.Offset != defaultOffset {
		fmt.Fprintf(&query, " OFFSET $%d", next)
		args = append(args, options.Offset)
	}
	return query.String(), args
}

// BuildInsertQuery constructs an INSERT ... RETURNING. Columns are emitted in
// sorted order so the statement text is stable.
func BuildInsertQuery(table string, values map[string]any, returning []string) (string, []any) {
	cols := sortedKeys(values)
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		quoted[i] = sanitizeIdentifier(c)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = values[c]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		sanitizeIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
		columnList(returning))
	return query, args
}

// BuildUpdateQuery constructs an UPDATE ... SET ... WHERE ... RETURNING.
func BuildUpdateQuery(table string, values map[string]any, conds []Condition, returning []string) (string, []any) {
	cols := sortedKeys(values)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(conds))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", sanitizeIdentifier(c), i+1)
		args = append(args, values[c])
	}
	where, whereArgs, _ := buildWhereClause(conds, len(cols)+1)
	args = append(args, whereArgs...)
	query := fmt.Sprintf("UPDATE %s SET %s%s RETURNING %s",
		sanitizeIdentifier(table),
		strings.Join(sets, ", "),
		where,
		columnList(returning))
	return query, args
}

// BuildDeleteQuery constructs a DELETE ... WHERE.
func BuildDeleteQuery(table string, conds []Condition) (string, []any) {
	where, args, _ := buildWhereClause(conds, 1)
	return "DELETE FROM " + sanitizeIdentifier(table) + where, args
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// processCondition renders one condition. An IN over an empty set renders as
// FALSE so it narrows to nothing instead of being dropped.
func processCondition(cond Condition, paramCount int) (string, []any, int) {
	if cond.Field == "" {
		return "", nil, paramCount
	}
	field := sanitizeIdentifier(cond.Field)

	switch cond.Type {
	case Equal:
		return fmt.Sprintf("%s = $%d", field, paramCount), []any{cond.Value}, paramCount + 1
	case In:
		rv := reflect.ValueOf(cond.Value)
		if rv.Kind() != reflect.Slice || rv.Len() == 0 {
			return "FALSE", nil, paramCount
		}
		placeholders := make([]string, rv.Len())
		args := make([]any, rv.Len())
		for i := range rv.Len() {
			placeholders[i] = fmt.Sprintf("$%d", paramCount)
			args[i] = rv.Index(i).Interface()
			paramCount++
		}
		return fmt.Sprintf("%s IN (%s)", field, strings.Join(placeholders, ", ")), args, paramCount
	}
	return "", nil, paramCount
}

func buildWhereClause(inputConditions []Condition, startParamIndex int) (string, []any, int) {
	conditions := make([]string, 0, len(inputConditions))
	args := []any{}
	paramCount := startParamIndex

	for _, cond := range inputConditions {
		conditionStr, newArgs, next := processCondition(cond, paramCount)
		if conditionStr != "" {
			conditions = append(conditions, conditionStr)
			args = append(args, newArgs...)
			paramCount = next
		}
	}
	if len(conditions) == 0 {
		return "", args, paramCount
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, paramCount
}
