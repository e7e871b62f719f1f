package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrTableRequired  = errors.New("table is required")
	ErrValuesRequired = errors.New("at least one column value is required")
	// ErrUnscopedMutation guards against UPDATE/DELETE statements without a WHERE clause.
	ErrUnscopedMutation = errors.New("mutation requires at least one predicate")
)
