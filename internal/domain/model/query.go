package model

// Row is a single record exchanged with the data store, keyed by column name.
type Row map[string]any

// String returns the string value of column, or "" when absent or not a string.
func (r Row) String(column string) string {
	if v, ok := r[column].(string); ok {
		return v
	}
	return ""
}

// PredicateOp is a comparison understood by the data store.
type PredicateOp string

const (
	OpEq PredicateOp = "="
	OpIn PredicateOp = "IN"
)

// Predicate is one AND-ed condition of a query or mutation.
type Predicate struct {
	Column string
	Op     PredicateOp
	Value  any
}

// Eq builds a column = value predicate.
func Eq(column string, value any) Predicate {
	return Predicate{Column: column, Op: OpEq, Value: value}
}

// In builds a column IN (values...) predicate.
func In(column string, values []string) Predicate {
	return Predicate{Column: column, Op: OpIn, Value: values}
}

// Query describes a read against one table.
type Query struct {
	Table   string
	Columns []string
	Where   []Predicate
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

// ListOptions carries client-supplied paging and equality filters for list endpoints.
type ListOptions struct {
	Filters map[string]string
	Limit   int
	Offset  int
}
