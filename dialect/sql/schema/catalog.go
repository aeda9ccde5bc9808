package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/sqltools/dialect"
	"github.com/syssam/sqltools/dialect/sql"
)

// ColumnSpec describes a column as reported by information_schema.columns.
type ColumnSpec struct {
	Name     string
	DataType string
	Nullable bool
	Position int
}

// Trigger is one row of the trigger listing. Events holds the
// comma-separated event_manipulation values of the trigger.
type Trigger struct {
	Table      sql.TableName
	Schema     string
	Name       string
	Events     string
	Activation string
	Condition  string
	Definition string
}

// Inspector reads catalog metadata. Every call re-queries the database;
// nothing is cached.
type Inspector struct {
	conn dialect.ExecQuerier
}

// NewInspector returns an Inspector issuing its queries on conn.
func NewInspector(conn dialect.ExecQuerier) *Inspector {
	return &Inspector{conn: conn}
}

// where appends "<column> = $n" for every non-empty filter value. Filters
// are column/value pairs; placeholders continue after the given args.
func where(q string, and bool, args []any, filters ...string) (string, []any) {
	var conds []string
	for i := 0; i+1 < len(filters); i += 2 {
		if filters[i+1] == "" {
			continue
		}
		args = append(args, filters[i+1])
		conds = append(conds, fmt.Sprintf("%s = $%d", filters[i], len(args)))
	}
	if len(conds) == 0 {
		return q, args
	}
	kw := " where "
	if and {
		kw = " and "
	}
	return q + kw + strings.Join(conds, " and "), args
}

func (i *Inspector) query(ctx context.Context, q string, args []any) (*sql.Rows, error) {
	rows := &sql.Rows{}
	if err := i.conn.Query(ctx, q, args, rows); err != nil {
		return nil, fmt.Errorf("dialect/sql/schema: query catalog: %w", err)
	}
	return rows, nil
}

func (i *Inspector) tableNames(ctx context.Context, q string, args []any) (_ []sql.TableName, rerr error) {
	rows, err := i.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()
	var names []sql.TableName
	for rows.Next() {
		var t sql.TableName
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return nil, fmt.Errorf("dialect/sql/schema: scan table name: %w", err)
		}
		names = append(names, t)
	}
	return names, rows.Err()
}

// Tables lists the base tables of schema, or of every schema when schema
// is empty.
func (i *Inspector) Tables(ctx context.Context, schema string) ([]sql.TableName, error) {
	q, args := where("select table_schema, table_name from information_schema.tables where table_type = 'BASE TABLE'",
		true, nil, "table_schema", schema)
	return i.tableNames(ctx, q+" order by table_schema, table_name", args)
}

// Views lists the views of schema, or of every schema when schema is empty.
func (i *Inspector) Views(ctx context.Context, schema string) ([]sql.TableName, error) {
	q, args := where("select table_schema as view_schema, table_name as view_name from information_schema.views",
		false, nil, "table_schema", schema)
	return i.tableNames(ctx, q+" order by view_schema, view_name", args)
}

const triggersQuery = `select event_object_schema as table_schema, event_object_table as table_name, trigger_schema, trigger_name,
string_agg(event_manipulation, ',') as event, action_timing as activation, coalesce(action_condition, '') as condition, action_statement as definition
from information_schema.triggers`

// Triggers lists the triggers defined in schema, or in every schema when
// schema is empty. A trigger firing on several events is reported once.
func (i *Inspector) Triggers(ctx context.Context, schema string) (_ []Trigger, rerr error) {
	q, args := where(triggersQuery, false, nil, "trigger_schema", schema)
	rows, err := i.query(ctx, q+" group by 1, 2, 3, 4, 6, 7, 8 order by table_schema, table_name", args)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()
	var triggers []Trigger
	for rows.Next() {
		var t Trigger
		if err := rows.Scan(&t.Table.Schema, &t.Table.Name, &t.Schema, &t.Name,
			&t.Events, &t.Activation, &t.Condition, &t.Definition); err != nil {
			return nil, fmt.Errorf("dialect/sql/schema: scan trigger: %w", err)
		}
		triggers = append(triggers, t)
	}
	return triggers, rows.Err()
}

const columnsQuery = "select column_name, data_type, is_nullable, ordinal_position from information_schema.columns where table_name = $1"

func (i *Inspector) columns(ctx context.Context, t sql.TableName, column string) (_ []ColumnSpec, rerr error) {
	q, args := where(columnsQuery, true, []any{t.Name}, "table_schema", t.Schema, "column_name", column)
	rows, err := i.query(ctx, q+" order by ordinal_position", args)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()
	var specs []ColumnSpec
	for rows.Next() {
		var (
			c        ColumnSpec
			nullable string
		)
		if err := rows.Scan(&c.Name, &c.DataType, &nullable, &c.Position); err != nil {
			return nil, fmt.Errorf("dialect/sql/schema: scan column: %w", err)
		}
		c.Nullable = yesNo(nullable)
		specs = append(specs, c)
	}
	return specs, rows.Err()
}

// Columns returns the columns of t in ordinal order.
func (i *Inspector) Columns(ctx context.Context, t sql.TableName) ([]ColumnSpec, error) {
	if t.Name == "" {
		return nil, fmt.Errorf("%w: must supply table name", sql.ErrMissingIdentifier)
	}
	return i.columns(ctx, t, "")
}

// ColumnNames returns the column names of t in ordinal order.
func (i *Inspector) ColumnNames(ctx context.Context, t sql.TableName) ([]string, error) {
	specs, err := i.Columns(ctx, t)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(specs))
	for n, c := range specs {
		names[n] = c.Name
	}
	return names, nil
}

// ColumnTypes maps every column name of t to its reported datatype.
func (i *Inspector) ColumnTypes(ctx context.Context, t sql.TableName) (map[string]string, error) {
	specs, err := i.Columns(ctx, t)
	if err != nil {
		return nil, err
	}
	types := make(map[string]string, len(specs))
	for _, c := range specs {
		types[c.Name] = c.DataType
	}
	return types, nil
}

// Column looks up a single column of t. It returns a *ColumnNotFoundError
// when the catalog has no such column. t must be schema-qualified, since a
// table name alone may match columns of several schemas.
func (i *Inspector) Column(ctx context.Context, t sql.TableName, column string) (*ColumnSpec, error) {
	if t.Schema == "" || t.Name == "" || column == "" {
		return nil, fmt.Errorf("%w: must supply schema, table and column name", sql.ErrMissingIdentifier)
	}
	specs, err := i.columns(ctx, t, column)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, &ColumnNotFoundError{Table: t, Column: column}
	}
	return &specs[0], nil
}

// InfoSchema reads a whole information_schema view. An is_nullable column,
// if present, is converted from YES/NO to bool.
func (i *Inspector) InfoSchema(ctx context.Context, view string) (*sql.Frame, error) {
	if !sql.ValidIdentifier(view) || strings.Contains(view, ".") {
		return nil, fmt.Errorf("dialect/sql/schema: invalid information_schema view %q", view)
	}
	rows, err := i.query(ctx, "select * from information_schema."+view, []any{})
	if err != nil {
		return nil, err
	}
	f, err := sql.ScanFrame(rows)
	if err != nil {
		return nil, err
	}
	if n := f.Index("is_nullable"); n >= 0 {
		for _, row := range f.Rows {
			if s, ok := row[n].(string); ok {
				row[n] = yesNo(s)
			}
		}
	}
	return f, nil
}

func yesNo(s string) bool {
	return strings.EqualFold(s, "YES")
}
