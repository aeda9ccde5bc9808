package sqltools

import (
	"context"
	"errors"
	"slices"

	"github.com/syssam/sqltools/dialect/sql"
	"github.com/syssam/sqltools/dialect/sql/schema"
)

// CreateSchema creates a schema.
func (c *Client) CreateSchema(ctx context.Context, name string) error {
	stmt, err := sql.CreateSchema(name)
	if err != nil {
		return err
	}
	return c.Execute(ctx, stmt)
}

// DropSchema drops a schema. Use sql.IfExists and sql.Cascade to relax it.
func (c *Client) DropSchema(ctx context.Context, name string, opts ...sql.DDLOption) error {
	stmt, err := sql.DropSchema(name, opts...)
	if err != nil {
		return err
	}
	return c.Execute(ctx, stmt)
}

// RecreateSchema drops and creates a schema in a single transaction. The
// drop options apply to the drop statement.
func (c *Client) RecreateSchema(ctx context.Context, name string, opts ...sql.DDLOption) error {
	drop, err := sql.DropSchema(name, opts...)
	if err != nil {
		return err
	}
	create, err := sql.CreateSchema(name)
	if err != nil {
		return err
	}
	return c.Execute(ctx, drop, create)
}

// CreateTable creates a table with the given columns, in order. The
// definition is checked first; warnings are logged, errors abort.
func (c *Client) CreateTable(ctx context.Context, t sql.TableName, columns []sql.ColumnDef, opts ...sql.DDLOption) error {
	res := schema.ValidateTable(t, columns, c.checker.TypeMap())
	if res.HasErrors() {
		errs := make([]error, len(res.Errors))
		for i, e := range res.Errors {
			errs[i] = e
		}
		return &ValidationError{Name: t.String(), Err: errors.Join(errs...)}
	}
	for _, w := range res.Warnings {
		c.log.WarnContext(ctx, "table definition warning", "table", t.String(), "warning", w.Error())
	}
	stmt, err := sql.CreateTable(t, columns, opts...)
	if err != nil {
		return err
	}
	return c.Execute(ctx, stmt)
}

// DropTable drops a table.
func (c *Client) DropTable(ctx context.Context, t sql.TableName, opts ...sql.DDLOption) error {
	stmt, err := sql.DropTable(t, opts...)
	if err != nil {
		return err
	}
	return c.Execute(ctx, stmt)
}

// WipeTable deletes every row of a table, keeping the table. Nothing is
// sent when the table does not exist.
func (c *Client) WipeTable(ctx context.Context, t sql.TableName) error {
	stmt, err := sql.WipeTable(t)
	if err != nil {
		return err
	}
	exists, err := c.TableExists(ctx, t)
	if err != nil || !exists {
		return err
	}
	return c.Execute(ctx, stmt)
}

// CreateView creates a view from a query. Use sql.OrReplace to replace an
// existing view.
func (c *Client) CreateView(ctx context.Context, v sql.TableName, body string, opts ...sql.DDLOption) error {
	stmt, err := sql.CreateView(v, body, opts...)
	if err != nil {
		return err
	}
	return c.Execute(ctx, stmt)
}

// DropView drops a view.
func (c *Client) DropView(ctx context.Context, v sql.TableName, opts ...sql.DDLOption) error {
	stmt, err := sql.DropView(v, opts...)
	if err != nil {
		return err
	}
	return c.Execute(ctx, stmt)
}

// ListTables lists base tables. An empty schema lists every schema.
func (c *Client) ListTables(ctx context.Context, schema string) ([]sql.TableName, error) {
	return c.inspector.Tables(ctx, schema)
}

// ListViews lists views. An empty schema lists every schema.
func (c *Client) ListViews(ctx context.Context, schema string) ([]sql.TableName, error) {
	return c.inspector.Views(ctx, schema)
}

// ListTriggers lists triggers. An empty schema lists every schema.
func (c *Client) ListTriggers(ctx context.Context, schemaName string) ([]schema.Trigger, error) {
	return c.inspector.Triggers(ctx, schemaName)
}

func containsName(names []sql.TableName, name string) bool {
	return slices.ContainsFunc(names, func(n sql.TableName) bool { return n.Name == name })
}

// TableExists reports whether t is a base table. An empty schema matches a
// table of that name in any schema.
func (c *Client) TableExists(ctx context.Context, t sql.TableName) (bool, error) {
	tables, err := c.ListTables(ctx, t.Schema)
	if err != nil {
		return false, err
	}
	return containsName(tables, t.Name), nil
}

// ViewExists reports whether v is a view. An empty schema matches a view
// of that name in any schema.
func (c *Client) ViewExists(ctx context.Context, v sql.TableName) (bool, error) {
	views, err := c.ListViews(ctx, v.Schema)
	if err != nil {
		return false, err
	}
	return containsName(views, v.Name), nil
}

// TableOrViewExists reports whether t is a table or a view. Views are only
// listed when no table matches.
func (c *Client) TableOrViewExists(ctx context.Context, t sql.TableName) (bool, error) {
	ok, err := c.TableExists(ctx, t)
	if err != nil || ok {
		return ok, err
	}
	return c.ViewExists(ctx, t)
}

// TriggerExists reports whether a trigger called name is defined in
// schemaName, or in any schema when schemaName is empty.
func (c *Client) TriggerExists(ctx context.Context, schemaName, name string) (bool, error) {
	triggers, err := c.ListTriggers(ctx, schemaName)
	if err != nil {
		return false, err
	}
	for _, t := range triggers {
		if t.Name == name {
			return true, nil
		}
	}
	return false, nil
}
