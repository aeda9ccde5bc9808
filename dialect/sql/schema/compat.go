package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/syssam/sqltools/dialect"
	"github.com/syssam/sqltools/dialect/sql"
)

// ErrColumnNotFound is matched by every *ColumnNotFoundError.
var ErrColumnNotFound = errors.New("dialect/sql/schema: column not found")

// ColumnNotFoundError is returned when the catalog has no row for the
// requested column. It signals a wrong schema, table or column name.
type ColumnNotFoundError struct {
	Table  sql.TableName
	Column string
}

// Error implements the error interface.
func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("dialect/sql/schema: nonexistent column %s.%s", e.Table, e.Column)
}

// Is reports whether target is ErrColumnNotFound.
func (e *ColumnNotFoundError) Is(target error) bool {
	return target == ErrColumnNotFound
}

// IsColumnNotFound reports whether err is a ColumnNotFoundError.
func IsColumnNotFound(err error) bool {
	return errors.Is(err, ErrColumnNotFound)
}

// Verdict is the outcome of a compatibility check.
type Verdict struct {
	// Column is the fully qualified column name.
	Column     string
	DataType   string
	Bucket     Bucket
	Compatible bool
	// Reason explains an incompatible verdict.
	Reason string
}

// Checker decides whether values may be stored in catalog columns.
type Checker struct {
	inspector *Inspector
	types     *TypeMap
	prefix    string
	builtin   string
	log       *slog.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithTypeMap replaces DefaultTypeMap.
func WithTypeMap(m *TypeMap) CheckerOption {
	return func(c *Checker) {
		c.types = m
	}
}

// Builtin catalog tables are named with BuiltinPrefix and live in
// BuiltinSchema, whatever schema the caller names.
const (
	BuiltinPrefix = "pg_"
	BuiltinSchema = "pg_catalog"
)

// WithBuiltinSchema sets the table name prefix that marks builtin catalog
// tables and the schema they live in. The default is "pg_" and
// "pg_catalog". An empty prefix disables the override.
func WithBuiltinSchema(prefix, schema string) CheckerOption {
	return func(c *Checker) {
		c.prefix, c.builtin = prefix, schema
	}
}

// WithLogger sets the logger receiving diagnostics.
func WithLogger(l *slog.Logger) CheckerOption {
	return func(c *Checker) {
		c.log = l
	}
}

// NewChecker returns a Checker reading column metadata through conn.
func NewChecker(conn dialect.ExecQuerier, opts ...CheckerOption) *Checker {
	c := &Checker{
		inspector: NewInspector(conn),
		types:     DefaultTypeMap,
		prefix:    BuiltinPrefix,
		builtin:   BuiltinSchema,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TypeMap returns the type map the checker resolves datatypes with.
func (c *Checker) TypeMap() *TypeMap { return c.types }

// Resolve applies the builtin schema override to t.
func (c *Checker) Resolve(t sql.TableName) sql.TableName {
	if c.prefix != "" && strings.HasPrefix(t.Name, c.prefix) {
		t.Schema = c.builtin
	}
	return t
}

// Check looks up column in the catalog and decides whether v may be
// stored in it. Besides database failures it errors only for a missing
// column or a table left without a schema after Resolve. Every other
// outcome is reported through the Verdict.
func (c *Checker) Check(ctx context.Context, t sql.TableName, column string, v sql.Value) (Verdict, error) {
	t = c.Resolve(t)
	spec, err := c.inspector.Column(ctx, t, column)
	if err != nil {
		return Verdict{}, err
	}
	return c.decide(ctx, t, spec, v), nil
}

// Compatible implements sql.Validator.
func (c *Checker) Compatible(ctx context.Context, t sql.TableName, column string, v sql.Value) (bool, error) {
	verdict, err := c.Check(ctx, t, column, v)
	if err != nil {
		return false, err
	}
	return verdict.Compatible, nil
}

func (c *Checker) decide(ctx context.Context, t sql.TableName, spec *ColumnSpec, v sql.Value) Verdict {
	verdict := Verdict{
		Column:   t.String() + "." + spec.Name,
		DataType: spec.DataType,
	}
	reject := func(reason string) Verdict {
		verdict.Reason = reason
		return verdict
	}
	if v.IsNull() {
		if spec.Nullable {
			verdict.Compatible = true
			return verdict
		}
		c.log.ErrorContext(ctx, "NULL not allowed for column", "column", verdict.Column)
		return reject("column is not nullable")
	}
	bucket, ok := c.types.Resolve(spec.DataType)
	if !ok {
		c.log.ErrorContext(ctx, "unable to match column datatype to a known bucket",
			"column", verdict.Column, "datatype", spec.DataType, "buckets", c.types.Buckets())
		return reject(fmt.Sprintf("unknown datatype %q", spec.DataType))
	}
	verdict.Bucket = bucket
	if verdict.Compatible = accepts(bucket, spec.DataType, v); !verdict.Compatible {
		c.log.DebugContext(ctx, "incompatible datatypes",
			"column", verdict.Column, "datatype", spec.DataType, "value", v.String(), "kind", v.Kind())
		return reject(fmt.Sprintf("%s value %q does not fit %s column", v.Kind(), v.String(), spec.DataType))
	}
	return verdict
}

// accepts applies the per-bucket rule to a non-NULL value.
func accepts(b Bucket, dataType string, v sql.Value) bool {
	if v.Kind() == sql.KindTime {
		dt := strings.ToLower(dataType)
		return strings.Contains(dt, "date") || strings.Contains(dt, "timestamp")
	}
	switch b {
	case BucketBool:
		switch v.Kind() {
		case sql.KindBool:
			return true
		case sql.KindText:
			switch strings.ToLower(v.AsText()) {
			case "t", "true", "f", "false":
				return true
			}
		}
		return false
	case BucketInt:
		switch v.Kind() {
		case sql.KindInt:
			return true
		case sql.KindText:
			_, err := strconv.ParseInt(strings.TrimSpace(v.AsText()), 10, 64)
			return err == nil
		}
		return false
	case BucketFloat:
		switch v.Kind() {
		case sql.KindFloat, sql.KindInt:
			return true
		case sql.KindText:
			s := strings.TrimSpace(v.AsText())
			if strings.EqualFold(s, "inf") {
				return true
			}
			f, err := strconv.ParseFloat(s, 64)
			return err == nil && !math.IsNaN(f)
		}
		return false
	case BucketString:
		return v.Kind() == sql.KindText
	default:
		return true
	}
}

var _ sql.Validator = (*Checker)(nil)
