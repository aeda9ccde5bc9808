package sql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Contract violations raised by the builders before any text is rendered.
var (
	// ErrArgCount is returned when columns and values differ in length.
	ErrArgCount = errors.New("dialect/sql: columns and values must be of equal length")

	// ErrMissingIdentifier is returned when a required identifier is empty.
	ErrMissingIdentifier = errors.New("dialect/sql: missing identifier")

	// ErrNoValidator is returned when validation is requested without a Validator.
	ErrNoValidator = errors.New("dialect/sql: validation requested without a validator")
)

func missingIdentifier(what string) error {
	return fmt.Errorf("%w: must supply %s", ErrMissingIdentifier, what)
}

// IncompatibleValueError is returned by a validating builder when a value
// cannot be stored in its destination column.
type IncompatibleValueError struct {
	Table  TableName
	Column string
	Value  Value
}

// Error implements the error interface.
func (e *IncompatibleValueError) Error() string {
	return fmt.Sprintf("dialect/sql: value %q (%s) is incompatible with column %q of %s",
		e.Value.String(), e.Value.Kind(), e.Column, e.Table)
}

// IsIncompatibleValue reports whether err is an IncompatibleValueError.
func IsIncompatibleValue(err error) bool {
	var e *IncompatibleValueError
	return errors.As(err, &e)
}

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation  = "23505"
	pgFKViolation      = "23503"
	pgNotNullViolation = "23502"
	pgCheckViolation   = "23514"
	pgUndefinedTable   = "42P01"
	pgUndefinedColumn  = "42703"
	pgDuplicateObject  = "42710"
	pgDuplicateTable   = "42P07"
	pgDuplicateSchema  = "42P06"
	pgInvalidSchemaRef = "3F000"
)

// sqlStateError is an interface for errors that provide SQLSTATE codes.
type sqlStateError interface {
	SQLState() string
}

// sqlState extracts the SQLSTATE code from the error chain.
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var se sqlStateError
	if errors.As(err, &se) {
		return se.SQLState()
	}
	return ""
}

// IsUniqueViolation reports if the error resulted from a uniqueness constraint violation.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if sqlState(err) == pgUniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "violates unique constraint")
}

// IsForeignKeyViolation reports if the error resulted from a foreign-key
// constraint violation, e.g. the parent row does not exist.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if sqlState(err) == pgFKViolation {
		return true
	}
	return strings.Contains(err.Error(), "violates foreign key constraint")
}

// IsCheckViolation reports if the error resulted from a check or not-null
// constraint violation.
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	switch sqlState(err) {
	case pgCheckViolation, pgNotNullViolation:
		return true
	}
	return containsAny(err.Error(), "violates check constraint", "violates not-null constraint")
}

// ConstraintViolation names the class 23 violation behind err, or returns
// "" if err is not a constraint violation.
func ConstraintViolation(err error) string {
	switch {
	case IsUniqueViolation(err):
		return "unique violation"
	case IsForeignKeyViolation(err):
		return "foreign key violation"
	case IsCheckViolation(err):
		return "check violation"
	}
	return ""
}

// IsUndefinedTable reports if the error resulted from referencing a
// missing table, view or schema.
func IsUndefinedTable(err error) bool {
	if err == nil {
		return false
	}
	switch sqlState(err) {
	case pgUndefinedTable, pgInvalidSchemaRef:
		return true
	case "":
		return strings.Contains(err.Error(), "does not exist")
	}
	return false
}

// IsUndefinedColumn reports if the error resulted from referencing a missing column.
func IsUndefinedColumn(err error) bool {
	return err != nil && sqlState(err) == pgUndefinedColumn
}

// IsDuplicateObject reports if the error resulted from creating a schema,
// table, view or trigger that already exists.
func IsDuplicateObject(err error) bool {
	if err == nil {
		return false
	}
	switch sqlState(err) {
	case pgDuplicateObject, pgDuplicateTable, pgDuplicateSchema:
		return true
	case "":
		return strings.Contains(err.Error(), "already exists")
	}
	return false
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
