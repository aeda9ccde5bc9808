package cli

import (
	"fmt"
	"strings"

	"github.com/syssam/sqltools/coerce"
	"github.com/syssam/sqltools/dialect/sql"
	"github.com/syssam/sqltools/dialect/sql/schema"
)

// parseTable splits "schema.table". A bare name gets defaultSchema, or
// pg_catalog for builtin pg_ tables.
func parseTable(s, defaultSchema string) (sql.TableName, error) {
	schemaName, name, ok := strings.Cut(s, ".")
	if !ok {
		schemaName, name = defaultSchema, s
		if strings.HasPrefix(name, schema.BuiltinPrefix) {
			schemaName = schema.BuiltinSchema
		}
	}
	if name == "" || strings.Contains(name, ".") {
		return sql.TableName{}, fmt.Errorf("invalid table name %q, want schema.table", s)
	}
	return sql.Table(schemaName, name), nil
}

// inferValue converts a command line argument to the most specific Go
// value it coerces to. With raw set, the text is kept as is.
func inferValue(s string, raw bool) any {
	if raw {
		return s
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	for _, t := range []coerce.Type{coerce.Int, coerce.Float, coerce.Datetime, coerce.Date} {
		if r := coerce.Check(s, t); r.OK() {
			return r.Value
		}
	}
	return s
}

// parseAssignments parses "column=value" arguments, preserving order.
func parseAssignments(args []string, raw bool) ([]string, []any, error) {
	columns := make([]string, 0, len(args))
	values := make([]any, 0, len(args))
	for _, a := range args {
		col, val, ok := strings.Cut(a, "=")
		if !ok || col == "" {
			return nil, nil, fmt.Errorf("invalid assignment %q, want column=value", a)
		}
		columns = append(columns, col)
		values = append(values, inferValue(val, raw))
	}
	return columns, values, nil
}

// parseKey parses the "column=value[,value...]" form of --where.
func parseKey(s string, raw bool) (string, []any, error) {
	col, list, ok := strings.Cut(s, "=")
	if !ok || col == "" {
		return "", nil, fmt.Errorf("invalid key %q, want column=value", s)
	}
	parts := strings.Split(list, ",")
	values := make([]any, len(parts))
	for i, p := range parts {
		values[i] = inferValue(p, raw)
	}
	return col, values, nil
}
