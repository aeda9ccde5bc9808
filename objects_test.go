package sqltools

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqltools/dialect/sql"
)

const (
	tablesQuery = "select table_schema, table_name from information_schema.tables where table_type = 'BASE TABLE' and table_schema = $1 order by table_schema, table_name"
	viewsQuery  = "select table_schema as view_schema, table_name as view_name from information_schema.views where table_schema = $1 order by view_schema, view_name"
)

// expectStatements registers one transaction executing stmts.
func expectStatements(mock sqlmock.Sqlmock, stmts ...string) {
	mock.ExpectBegin()
	for _, s := range stmts {
		mock.ExpectExec(escape(s)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()
}

func tableRows(names ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"table_schema", "table_name"})
	for _, n := range names {
		rows.AddRow("public", n)
	}
	return rows
}

func TestSchemaStatements(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		client, mock := mockClient(t)
		expectStatements(mock, "create schema staging")
		require.NoError(t, client.CreateSchema(ctx, "staging"))
	})

	t.Run("drop", func(t *testing.T) {
		client, mock := mockClient(t)
		expectStatements(mock, "drop schema if exists staging cascade")
		require.NoError(t, client.DropSchema(ctx, "staging", sql.IfExists(), sql.Cascade()))
	})

	t.Run("recreate", func(t *testing.T) {
		client, mock := mockClient(t)
		expectStatements(mock, "drop schema if exists staging", "create schema staging")
		require.NoError(t, client.RecreateSchema(ctx, "staging", sql.IfExists()))
	})

	t.Run("missing_name", func(t *testing.T) {
		client, _ := mockClient(t)
		require.ErrorIs(t, client.CreateSchema(ctx, ""), sql.ErrMissingIdentifier)
		require.ErrorIs(t, client.RecreateSchema(ctx, ""), sql.ErrMissingIdentifier)
	})
}

func TestCreateTable(t *testing.T) {
	ctx := context.Background()
	users := sql.Table("public", "users")

	t.Run("ok", func(t *testing.T) {
		client, mock := mockClient(t)
		expectStatements(mock, "create table if not exists public.users (\n    id serial primary key,\n    email text\n)")
		require.NoError(t, client.CreateTable(ctx, users, []sql.ColumnDef{
			{Name: "id", Type: "serial primary key"},
			{Name: "email", Type: "text"},
		}, sql.IfNotExists()))
	})

	t.Run("invalid", func(t *testing.T) {
		client, _ := mockClient(t)
		err := client.CreateTable(ctx, users, []sql.ColumnDef{
			{Name: "id", Type: "int"},
			{Name: "id", Type: "text"},
		})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Contains(t, err.Error(), "duplicate column name")
	})
}

func TestTableStatements(t *testing.T) {
	ctx := context.Background()
	users := sql.Table("public", "users")

	t.Run("drop_table", func(t *testing.T) {
		client, mock := mockClient(t)
		expectStatements(mock, `drop table if exists "public"."users" cascade`)
		require.NoError(t, client.DropTable(ctx, users, sql.IfExists(), sql.Cascade()))
	})

	t.Run("wipe_existing", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectQuery(escape(tablesQuery)).WithArgs("public").WillReturnRows(tableRows("orders", "users"))
		expectStatements(mock, "delete from public.users where 1 = 1")
		require.NoError(t, client.WipeTable(ctx, users))
	})

	t.Run("wipe_missing", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectQuery(escape(tablesQuery)).WithArgs("public").WillReturnRows(tableRows("orders"))
		require.NoError(t, client.WipeTable(ctx, users))
	})

	t.Run("create_view", func(t *testing.T) {
		client, mock := mockClient(t)
		expectStatements(mock, `create or replace view "public"."active" as (select * from users where active)`)
		require.NoError(t, client.CreateView(ctx, sql.Table("public", "active"), "select * from users where active", sql.OrReplace()))
	})

	t.Run("drop_view", func(t *testing.T) {
		client, mock := mockClient(t)
		expectStatements(mock, `drop view "public"."active"`)
		require.NoError(t, client.DropView(ctx, sql.Table("public", "active")))
	})
}

func TestExists(t *testing.T) {
	ctx := context.Background()

	t.Run("table", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectQuery(escape(tablesQuery)).WithArgs("public").WillReturnRows(tableRows("users"))
		ok, err := client.TableExists(ctx, sql.Table("public", "users"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("table_or_view", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectQuery(escape(tablesQuery)).WithArgs("public").WillReturnRows(tableRows("users"))
		mock.ExpectQuery(escape(viewsQuery)).WithArgs("public").
			WillReturnRows(sqlmock.NewRows([]string{"view_schema", "view_name"}).AddRow("public", "active"))
		ok, err := client.TableOrViewExists(ctx, sql.Table("public", "active"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("table_or_view_short_circuit", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectQuery(escape(tablesQuery)).WithArgs("public").WillReturnRows(tableRows("users"))
		ok, err := client.TableOrViewExists(ctx, sql.Table("public", "users"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("view_missing", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectQuery(escape(viewsQuery)).WithArgs("public").
			WillReturnRows(sqlmock.NewRows([]string{"view_schema", "view_name"}))
		ok, err := client.ViewExists(ctx, sql.Table("public", "active"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("trigger", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectQuery(`^select event_object_schema as table_schema, .* from information_schema\.triggers where trigger_schema = \$1 group by 1, 2, 3, 4, 6, 7, 8 order by table_schema, table_name$`).
			WithArgs("public").
			WillReturnRows(sqlmock.NewRows([]string{"table_schema", "table_name", "trigger_schema", "trigger_name", "event", "activation", "condition", "definition"}).
				AddRow("public", "users", "public", "users_audit", "INSERT,UPDATE", "AFTER", "", "EXECUTE FUNCTION audit()"))
		ok, err := client.TriggerExists(ctx, "public", "users_audit")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
