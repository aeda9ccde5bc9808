package sql

import (
	"context"
	"fmt"
	"strings"
)

// Validator reports whether a value may be stored in a column.
// schema.Checker is the catalog-backed implementation.
type Validator interface {
	Compatible(ctx context.Context, table TableName, column string, v Value) (bool, error)
}

// BuildOption configures the Build* functions.
type BuildOption func(*buildConfig)

type buildConfig struct {
	validator Validator
	fallback  Validator
	validate  bool
	pretty    bool
}

// WithValidator validates every column/value pair before rendering.
func WithValidator(v Validator) BuildOption {
	return func(c *buildConfig) {
		c.validator, c.validate = v, true
	}
}

// WithDefaultValidator sets the Validator used when Validate(true) is given
// without WithValidator. It does not enable validation by itself.
func WithDefaultValidator(v Validator) BuildOption {
	return func(c *buildConfig) {
		c.fallback = v
	}
}

// Validate requests validation. If no Validator is set by WithValidator or
// WithDefaultValidator, building fails with ErrNoValidator.
func Validate(enabled bool) BuildOption {
	return func(c *buildConfig) {
		c.validate = enabled
	}
}

func (c buildConfig) active() Validator {
	switch {
	case !c.validate:
		return nil
	case c.validator != nil:
		return c.validator
	case c.fallback != nil:
		return c.fallback
	default:
		return missingValidator{}
	}
}

// Pretty renders the statement on several lines.
func Pretty() BuildOption {
	return func(c *buildConfig) {
		c.pretty = true
	}
}

type missingValidator struct{}

func (missingValidator) Compatible(context.Context, TableName, string, Value) (bool, error) {
	return false, ErrNoValidator
}

// pair classifies values and checks that they line up with columns.
func pair(columns []string, values []any) ([]Value, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("%w: got %d columns and %d values", ErrArgCount, len(columns), len(values))
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no columns given", ErrArgCount)
	}
	vs := make([]Value, len(values))
	for i, v := range values {
		vs[i] = ValueOf(v)
	}
	return vs, nil
}

func validate(ctx context.Context, v Validator, t TableName, columns []string, values []Value) error {
	if v == nil {
		return nil
	}
	for i, c := range columns {
		ok, err := v.Compatible(ctx, t, c, values[i])
		if err != nil {
			return fmt.Errorf("dialect/sql: validate column %q: %w", c, err)
		}
		if !ok {
			return &IncompatibleValueError{Table: t, Column: c, Value: values[i]}
		}
	}
	return nil
}

// renderValue renders a SET or VALUES entry. NULL-like values use the
// given keyword; UPDATE and INSERT spell it differently.
func renderValue(v Value, null string) string {
	if v.IsNull() {
		return null
	}
	return Literal(v)
}

func join(parts []string, pretty bool) string {
	if pretty {
		return strings.Join(parts, "\n")
	}
	return strings.Join(parts, " ")
}

// UpdateBuilder renders a single-row UPDATE keyed by a primary key.
type UpdateBuilder struct {
	table   TableName
	pkey    string
	pval    Value
	columns []string
	values  []Value
	cfg     buildConfig
}

// Update returns a builder for an UPDATE statement on t.
func Update(t TableName) *UpdateBuilder {
	return &UpdateBuilder{table: t}
}

// Set appends a column assignment.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	u.columns = append(u.columns, column)
	u.values = append(u.values, ValueOf(v))
	return u
}

// Where sets the primary key column and value.
func (u *UpdateBuilder) Where(pkey string, v any) *UpdateBuilder {
	u.pkey, u.pval = pkey, ValueOf(v)
	return u
}

// Options applies build options.
func (u *UpdateBuilder) Options(opts ...BuildOption) *UpdateBuilder {
	for _, opt := range opts {
		opt(&u.cfg)
	}
	return u
}

// Build validates (if requested) and renders the statement.
func (u *UpdateBuilder) Build(ctx context.Context) (string, error) {
	if err := u.table.check(); err != nil {
		return "", err
	}
	if u.pkey == "" {
		return "", missingIdentifier("primary key name")
	}
	if len(u.columns) == 0 {
		return "", fmt.Errorf("%w: no columns given", ErrArgCount)
	}
	if err := validate(ctx, u.cfg.active(), u.table, u.columns, u.values); err != nil {
		return "", err
	}
	sets := make([]string, len(u.columns))
	for i, c := range u.columns {
		sets[i] = `"` + c + `"=` + renderValue(u.values[i], "NULL")
	}
	sep := ", "
	if u.cfg.pretty {
		sep = ",\n  "
	}
	return join([]string{
		"UPDATE " + u.table.String(),
		"SET " + strings.Join(sets, sep),
		`WHERE "` + u.pkey + `" = ` + Literal(u.pval),
	}, u.cfg.pretty), nil
}

// BuildUpdate renders
//
//	UPDATE <table> SET "<col1>"=<val1>, ... WHERE "<pkey>" = <pkey literal>
//
// columns and values are paired positionally.
func BuildUpdate(ctx context.Context, t TableName, pkey string, pkeyValue any, columns []string, values []any, opts ...BuildOption) (string, error) {
	vs, err := pair(columns, values)
	if err != nil {
		return "", err
	}
	u := Update(t).Where(pkey, pkeyValue).Options(opts...)
	u.columns, u.values = columns, vs
	return u.Build(ctx)
}

// InsertBuilder renders a single-row INSERT.
type InsertBuilder struct {
	table   TableName
	columns []string
	values  []Value
	cfg     buildConfig
}

// Insert returns a builder for an INSERT statement into t.
func Insert(t TableName) *InsertBuilder {
	return &InsertBuilder{table: t}
}

// Set appends a column and its value.
func (i *InsertBuilder) Set(column string, v any) *InsertBuilder {
	i.columns = append(i.columns, column)
	i.values = append(i.values, ValueOf(v))
	return i
}

// Options applies build options.
func (i *InsertBuilder) Options(opts ...BuildOption) *InsertBuilder {
	for _, opt := range opts {
		opt(&i.cfg)
	}
	return i
}

// Build validates (if requested) and renders the statement.
func (i *InsertBuilder) Build(ctx context.Context) (string, error) {
	if err := i.table.check(); err != nil {
		return "", err
	}
	if len(i.columns) == 0 {
		return "", fmt.Errorf("%w: no columns given", ErrArgCount)
	}
	if err := validate(ctx, i.cfg.active(), i.table, i.columns, i.values); err != nil {
		return "", err
	}
	cols := make([]string, len(i.columns))
	vals := make([]string, len(i.values))
	for n := range i.columns {
		cols[n] = `"` + i.columns[n] + `"`
		vals[n] = renderValue(i.values[n], "null")
	}
	return join([]string{
		"insert into " + i.table.String() + " (" + strings.Join(cols, ", ") + ")",
		"values (" + strings.Join(vals, ", ") + ")",
	}, i.cfg.pretty), nil
}

// BuildInsert renders
//
//	insert into <table> ("<col1>", ...) values (<val1>, ...)
//
// columns and values are paired positionally.
func BuildInsert(ctx context.Context, t TableName, columns []string, values []any, opts ...BuildOption) (string, error) {
	vs, err := pair(columns, values)
	if err != nil {
		return "", err
	}
	i := Insert(t).Options(opts...)
	i.columns, i.values = columns, vs
	return i.Build(ctx)
}

// DeleteBuilder renders a DELETE keyed by one or more primary key values.
type DeleteBuilder struct {
	table TableName
	pkey  string
	pvals []Value
	in    bool
	cfg   buildConfig
}

// Delete returns a builder for a DELETE statement on t.
func Delete(t TableName) *DeleteBuilder {
	return &DeleteBuilder{table: t}
}

// Where matches a single primary key value.
func (d *DeleteBuilder) Where(pkey string, v any) *DeleteBuilder {
	d.pkey, d.pvals, d.in = pkey, []Value{ValueOf(v)}, false
	return d
}

// WhereIn matches any of the given primary key values.
func (d *DeleteBuilder) WhereIn(pkey string, vs ...any) *DeleteBuilder {
	d.pkey, d.in = pkey, true
	d.pvals = make([]Value, len(vs))
	for i, v := range vs {
		d.pvals[i] = ValueOf(v)
	}
	return d
}

// Options applies build options. Validation does not apply to DELETE.
func (d *DeleteBuilder) Options(opts ...BuildOption) *DeleteBuilder {
	for _, opt := range opts {
		opt(&d.cfg)
	}
	return d
}

// Build renders the statement.
func (d *DeleteBuilder) Build() (string, error) {
	if err := d.table.check(); err != nil {
		return "", err
	}
	if d.pkey == "" {
		return "", missingIdentifier("primary key name")
	}
	if len(d.pvals) == 0 {
		return "", fmt.Errorf("%w: no primary key values given", ErrArgCount)
	}
	where := "where " + d.pkey + " = " + Literal(d.pvals[0])
	if d.in {
		lits := make([]string, len(d.pvals))
		for i, v := range d.pvals {
			lits[i] = Literal(v)
		}
		where = "where " + d.pkey + " in (" + strings.Join(lits, ", ") + ")"
	}
	return join([]string{"delete from " + d.table.String(), where}, d.cfg.pretty), nil
}

// BuildDelete renders
//
//	delete from <table> where <pkey> = <literal>
//
// or, when pkeyValue is a slice or array,
//
//	delete from <table> where <pkey> in (<literal1>, ...)
func BuildDelete(t TableName, pkey string, pkeyValue any, opts ...BuildOption) (string, error) {
	d := Delete(t).Options(opts...)
	if vs, ok := ValuesOf(pkeyValue); ok {
		d.pkey, d.pvals, d.in = pkey, vs, true
	} else {
		d.Where(pkey, pkeyValue)
	}
	return d.Build()
}
