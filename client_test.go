package sqltools

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqltools/dialect"
	"github.com/syssam/sqltools/dialect/sql"
	"github.com/syssam/sqltools/internal/logging"
)

func escape(query string) string {
	return "^" + regexp.QuoteMeta(query) + "$"
}

func mockClient(t *testing.T, opts ...Option) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	opts = append([]Option{WithLogger(logging.Discard()), WithDatabase("analytics", "report")}, opts...)
	return NewClient(sql.OpenDB(dialect.Postgres, db), opts...), mock
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectBegin()
		mock.ExpectExec(escape("create schema s")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(escape("create table s.t (\n    id int\n)")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		require.NoError(t, client.Execute(ctx, "create schema s", "create table s.t (\n    id int\n)"))
	})

	t.Run("empty", func(t *testing.T) {
		client, _ := mockClient(t)
		require.NoError(t, client.Execute(ctx))
	})

	t.Run("rollback", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectBegin()
		mock.ExpectExec(escape("delete from s.t where 1 = 1")).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(escape("drop table s.t")).WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		err := client.Execute(ctx, "delete from s.t where 1 = 1", "drop table s.t", "create schema never")
		require.Error(t, err)
		var qe *QueryError
		require.ErrorAs(t, err, &qe)
		assert.Equal(t, "exec", qe.Op)
		assert.Equal(t, "drop table s.t", qe.Statement)
		var re *RollbackError
		assert.False(t, errors.As(err, &re))
	})

	t.Run("rollback_failure", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectBegin()
		mock.ExpectExec(escape("drop table s.t")).WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback().WillReturnError(errors.New("connection reset"))

		err := client.Execute(ctx, "drop table s.t")
		require.Error(t, err)
		assert.True(t, IsQueryError(err))
		var re *RollbackError
		require.ErrorAs(t, err, &re)
		assert.EqualError(t, re.Err, "connection reset")
	})

	t.Run("unique_violation", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectBegin()
		mock.ExpectExec(escape(`insert into s.t ("id") values (1)`)).WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})
		mock.ExpectRollback()

		err := client.Execute(ctx, `insert into s.t ("id") values (1)`)
		require.Error(t, err)
		assert.True(t, IsConstraintError(err))
		assert.True(t, IsQueryError(err))
	})

	t.Run("foreign_key_violation", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectBegin()
		mock.ExpectExec(escape(`delete from s.parent where id = 1`)).WillReturnError(&pq.Error{Code: "23503", Message: "update or delete violates foreign key constraint"})
		mock.ExpectRollback()

		err := client.Execute(ctx, `delete from s.parent where id = 1`)
		require.Error(t, err)
		assert.True(t, IsConstraintError(err))
		assert.Contains(t, err.Error(), "foreign key violation")
	})

	t.Run("begin_failure", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))
		err := client.Execute(ctx, "create schema s")
		require.ErrorContains(t, err, "too many connections")
	})

	t.Run("commit_failure", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectBegin()
		mock.ExpectExec(escape("create schema s")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
		err := client.Execute(ctx, "create schema s")
		require.ErrorContains(t, err, "commit transaction")
	})
}

func TestStatementLog(t *testing.T) {
	var buf bytes.Buffer
	client, mock := mockClient(t, WithStatementLog(&buf))
	mock.ExpectBegin()
	mock.ExpectExec(escape("create schema s")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(escape("drop schema s")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	require.NoError(t, client.Execute(context.Background(), "create schema s", "drop schema s"))

	lines := regexp.MustCompile(`(?m)^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} (.*)$`).FindAllStringSubmatch(buf.String(), -1)
	require.Len(t, lines, 2)
	assert.Equal(t, "create schema s", lines[0][1])
	assert.Equal(t, "drop schema s", lines[1][1])
}

func TestStats(t *testing.T) {
	client, mock := mockClient(t, WithStats(sql.WithSlowThreshold(time.Hour)))
	mock.ExpectQuery(escape("select 1")).WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(escape("create schema s")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ctx := context.Background()
	_, err := client.Query(ctx, "select 1")
	require.NoError(t, err)
	require.NoError(t, client.Execute(ctx, "create schema s"))

	s, ok := client.Stats()
	require.True(t, ok)
	assert.EqualValues(t, 1, s.TotalQueries)
	assert.EqualValues(t, 1, s.TotalExecs)
	assert.Zero(t, s.Errors)

	plain, _ := mockClient(t)
	_, ok = plain.Stats()
	assert.False(t, ok)
}

func TestQuery(t *testing.T) {
	client, mock := mockClient(t)
	ctx := context.Background()

	mock.ExpectQuery(escape("select datname, numbackends from pg_stat_database where datid = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"datname", "numbackends"}).AddRow([]byte("analytics"), int64(3)))
	f, err := client.Query(ctx, "select datname, numbackends from pg_stat_database where datid = $1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"datname", "numbackends"}, f.Columns)
	assert.Equal(t, [][]any{{"analytics", int64(3)}}, f.Rows)

	mock.ExpectQuery(escape("select nope")).WillReturnError(errors.New(`column "nope" does not exist`))
	_, err = client.Query(ctx, "select nope")
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "query", qe.Op)
}

func TestReadTable(t *testing.T) {
	client, mock := mockClient(t)
	ctx := context.Background()

	mock.ExpectQuery(escape(`select * from "public"."users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "ada").AddRow(2, "grace"))
	f, err := client.ReadTable(ctx, sql.Table("public", "users"))
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	names, ok := f.Column("name")
	require.True(t, ok)
	assert.Equal(t, []any{"ada", "grace"}, names)

	mock.ExpectQuery(escape(`select * from "public"."nope"`)).
		WillReturnError(&pq.Error{Code: "42P01", Message: `relation "public.nope" does not exist`})
	_, err = client.ReadTable(ctx, sql.Table("public", "nope"))
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))

	_, err = client.ReadTable(ctx, sql.Table("public", ""))
	require.ErrorIs(t, err, sql.ErrMissingIdentifier)
}

const columnQuery = "select column_name, data_type, is_nullable, ordinal_position from information_schema.columns where table_name = $1 and table_schema = $2 and column_name = $3 order by ordinal_position"

var columnRows = []string{"column_name", "data_type", "is_nullable", "ordinal_position"}

func TestBuilders(t *testing.T) {
	ctx := context.Background()
	pgStat := sql.Table("public", "pg_stat_database")

	t.Run("update_validated", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectQuery(escape(columnQuery)).WithArgs("pg_stat_database", "pg_catalog", "tup_returned").
			WillReturnRows(sqlmock.NewRows(columnRows).AddRow("tup_returned", "bigint", "YES", 7))
		mock.ExpectQuery(escape(columnQuery)).WithArgs("pg_stat_database", "pg_catalog", "tup_fetched").
			WillReturnRows(sqlmock.NewRows(columnRows).AddRow("tup_fetched", "bigint", "YES", 8))

		got, err := client.BuildUpdate(ctx, pgStat, "datid", 1,
			[]string{"tup_returned", "tup_fetched"}, []any{11111, 22222}, sql.Validate(true))
		require.NoError(t, err)
		assert.Equal(t, `UPDATE public.pg_stat_database SET "tup_returned"=11111, "tup_fetched"=22222 WHERE "datid" = 1`, got)
	})

	t.Run("insert_incompatible", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectQuery(escape(columnQuery)).WithArgs("pg_stat_database", "pg_catalog", "tup_returned").
			WillReturnRows(sqlmock.NewRows(columnRows).AddRow("tup_returned", "bigint", "YES", 7))

		_, err := client.BuildInsert(ctx, pgStat, []string{"tup_returned"}, []any{"many"}, sql.Validate(true))
		var ie *sql.IncompatibleValueError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, "tup_returned", ie.Column)
	})

	t.Run("unvalidated", func(t *testing.T) {
		client, _ := mockClient(t)
		got, err := client.BuildInsert(ctx, pgStat, []string{"tup_returned", "tup_fetched"}, []any{11111, 22222})
		require.NoError(t, err)
		assert.Equal(t, `insert into public.pg_stat_database ("tup_returned", "tup_fetched") values (11111, 22222)`, got)

		got, err = client.BuildDelete(pgStat, "datid", []any{1, 2})
		require.NoError(t, err)
		assert.Equal(t, "delete from public.pg_stat_database where datid in (1, 2)", got)
	})

	t.Run("compatible", func(t *testing.T) {
		client, mock := mockClient(t)
		mock.ExpectQuery(escape(columnQuery)).WithArgs("users", "public", "email").
			WillReturnRows(sqlmock.NewRows(columnRows).AddRow("email", "text", "NO", 2))
		ok, err := client.Compatible(ctx, sql.Table("public", "users"), "email", nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestAccessors(t *testing.T) {
	client, mock := mockClient(t)
	assert.NotNil(t, client.Driver())
	assert.NotNil(t, client.Inspector())
	assert.NotNil(t, client.Checker())
	assert.Equal(t, "analytics", client.Database())
	mock.ExpectClose()
	require.NoError(t, client.Close())
}
