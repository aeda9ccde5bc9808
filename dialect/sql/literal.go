package sql

import (
	"math"
	"regexp"
	"strings"

	"github.com/lib/pq"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// ValidIdentifier checks if the string is a plain SQL identifier that is
// safe to interpolate without quoting.
func ValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// QuoteString escapes a string for use as a SQL text literal: every single
// quote is doubled and the result is wrapped in single quotes.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// UnquoteString reverses QuoteString. It reports false if s is not wrapped
// in single quotes.
func UnquoteString(s string) (string, bool) {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
}

// Literal renders v as a SQL literal. Booleans and numbers render unquoted
// in their canonical form, NULL renders as the bare keyword and everything
// else is stringified and quoted.
func Literal(v Value) string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool, KindInt:
		return v.String()
	case KindFloat:
		switch {
		case math.IsInf(v.f, 1):
			return QuoteString("Infinity")
		case math.IsInf(v.f, -1):
			return QuoteString("-Infinity")
		case math.IsNaN(v.f):
			return QuoteString("NaN")
		}
		return v.String()
	default:
		return QuoteString(v.String())
	}
}

// QuoteIdent quotes an identifier with double quotes, doubling any
// embedded double quote.
func QuoteIdent(s string) string {
	return pq.QuoteIdentifier(s)
}

// TableName identifies a table or view. Schema may be empty for builtin
// tables that are reachable without a qualifier (e.g. pg_stat_activity).
type TableName struct {
	Schema string
	Name   string
}

// Table returns a TableName for the given schema and name.
func Table(schema, name string) TableName {
	return TableName{Schema: schema, Name: name}
}

// String returns "schema.name", or "name" when no schema is set.
func (t TableName) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Quoted returns the double-quoted qualified name.
func (t TableName) Quoted() string {
	if t.Schema == "" {
		return QuoteIdent(t.Name)
	}
	return QuoteIdent(t.Schema) + "." + QuoteIdent(t.Name)
}

func (t TableName) check() error {
	if t.Name == "" {
		return missingIdentifier("table name")
	}
	return nil
}
