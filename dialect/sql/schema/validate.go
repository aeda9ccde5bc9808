package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/sqltools/dialect/sql"
)

// ValidationError represents a single validation finding.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of a validation run.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
	// Verdicts holds one entry per checked column/value pair, in input order.
	Verdicts []Verdict
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// CheckRow checks every column/value pair of a prospective row and reports
// all incompatible pairs instead of stopping at the first one. Values of
// permissive columns are listed as warnings. Lookup and database failures
// abort the run.
//
// Example:
//
//	res, err := checker.CheckRow(ctx, sql.Table("public", "users"), cols, vals)
//	if err != nil {
//	    return err
//	}
//	if res.HasErrors() {
//	    fmt.Println(res)
//	}
func (c *Checker) CheckRow(ctx context.Context, t sql.TableName, columns []string, values []any) (*ValidationResult, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("%w: got %d columns and %d values", sql.ErrArgCount, len(columns), len(values))
	}
	result := &ValidationResult{}
	seen := make(map[string]bool, len(columns))
	for i, col := range columns {
		if seen[col] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.String(),
				Column:  col,
				Message: "duplicate column",
			})
			continue
		}
		seen[col] = true
		v, err := c.Check(ctx, t, col, sql.ValueOf(values[i]))
		if err != nil {
			return nil, err
		}
		result.Verdicts = append(result.Verdicts, v)
		switch {
		case !v.Compatible:
			result.Errors = append(result.Errors, &ValidationError{
				Table:   c.Resolve(t).String(),
				Column:  col,
				Message: v.Reason,
			})
		case v.Bucket == BucketAny:
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   c.Resolve(t).String(),
				Column:  col,
				Message: fmt.Sprintf("%s column accepts any value", v.DataType),
			})
		}
	}
	return result, nil
}

// ValidateTable validates a table definition before it is created.
func ValidateTable(t sql.TableName, columns []sql.ColumnDef, types *TypeMap) *ValidationResult {
	result := &ValidationResult{}
	if types == nil {
		types = DefaultTypeMap
	}
	if len(columns) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   t.String(),
			Message: "table has no columns",
		})
	}

	// Check for duplicate column names
	colNames := make(map[string]bool)
	hasKey := false
	for _, c := range columns {
		if c.Name == "" {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.String(),
				Message: "column without a name",
			})
			continue
		}
		if colNames[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.String(),
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		colNames[c.Name] = true
		if strings.TrimSpace(c.Type) == "" {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.String(),
				Column:  c.Name,
				Message: "column without a datatype",
			})
			continue
		}
		if strings.Contains(strings.ToLower(c.Type), "primary key") {
			hasKey = true
		}
		if _, ok := types.Resolve(c.Type); !ok {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   t.String(),
				Column:  c.Name,
				Message: fmt.Sprintf("datatype %q cannot be validated", c.Type),
			})
		}
	}

	if len(columns) > 0 && !hasKey {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.String(),
			Message: "table has no primary key",
		})
	}
	return result
}
