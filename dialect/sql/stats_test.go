package sql

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/syssam/sqltools/dialect"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := NewStatsDriver(OpenDB(dialect.Postgres, db), WithSlowThreshold(time.Hour))
	ctx := context.Background()

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectExec("DELETE").WillReturnError(errors.New("fail"))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	var rows Rows
	require.NoError(t, drv.Query(ctx, "SELECT 1", []any{}, &rows))
	require.NoError(t, rows.Close())
	require.Error(t, drv.Exec(ctx, "DELETE FROM t", []any{}, nil))

	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, "INSERT INTO t VALUES (1)", []any{}, nil))
	require.NoError(t, tx.Commit())

	s := drv.QueryStats().Stats()
	assert.Equal(t, int64(1), s.TotalQueries)
	assert.Equal(t, int64(2), s.TotalExecs)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(0), s.SlowQueries)
	assert.Contains(t, s.String(), "queries=1 execs=2")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	drv := NewLogDriver(OpenDB(dialect.Postgres, db), &buf)
	drv.now = func() time.Time { return time.Date(2019, 2, 8, 9, 10, 11, 0, time.UTC) }
	ctx := context.Background()

	mock.ExpectExec("create schema s").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("drop schema x").WillReturnError(errors.New("does not exist"))
	mock.ExpectBegin()
	mock.ExpectExec("delete from s.t").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, drv.Exec(ctx, "create schema s", []any{}, nil))
	require.Error(t, drv.Exec(ctx, "drop schema x", []any{}, nil))
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, "delete from s.t where 1 = 1", []any{}, nil))
	require.NoError(t, tx.Commit())

	assert.Equal(t,
		"2019-02-08 09:10:11 create schema s\n"+
			"2019-02-08 09:10:11 delete from s.t where 1 = 1\n",
		buf.String())
	require.NoError(t, mock.ExpectationsWereMet())
}
