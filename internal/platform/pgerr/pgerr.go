// Package pgerr classifies postgres constraint violations into caller-defined
// kinds through a declared mapping table, instead of string-matching on
// constraint names at every call site.
package pgerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes for integrity constraint violations.
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
	CheckViolation      = "23514"
	NotNullViolation    = "23502"
)

// Violation identifies one declared constraint by its violation class and
// constraint name.
type Violation struct {
	Code       string
	Constraint string
}

// Table maps declared violations to a caller-defined classification. Build it
// once per repository from the constraints that repository's statements can
// trip.
type Table[K any] struct {
	entries map[Violation]K
}

func NewTable[K any](entries map[Violation]K) *Table[K] {
	return &Table[K]{entries: entries}
}

// Classify extracts the postgres violation behind err and looks it up. The
// returned bool is false when err is not a *pgconn.PgError or the violation
// is not declared in the table; such errors stay unclassified and surface as
// infrastructure failures.
func (t *Table[K]) Classify(err error) (K, *pgconn.PgError, bool) {
	var zero K
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return zero, nil, false
	}
	kind, ok := t.entries[Violation{Code: pgErr.Code, Constraint: pgErr.ConstraintName}]
	if !ok {
		return zero, pgErr, false
	}
	return kind, pgErr, true
}

// Violations lists the declared entries, for exhaustiveness checks in tests.
func (t *Table[K]) Violations() []Violation {
	vs := make([]Violation, 0, len(t.entries))
	for v := range t.entries {
		vs = append(vs, v)
	}
	return vs
}
