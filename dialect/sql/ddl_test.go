package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaDDL(t *testing.T) {
	got, err := CreateSchema("staging")
	require.NoError(t, err)
	assert.Equal(t, "create schema staging", got)

	got, err = DropSchema("staging")
	require.NoError(t, err)
	assert.Equal(t, "drop schema staging", got)

	got, err = DropSchema("staging", IfExists(), Cascade())
	require.NoError(t, err)
	assert.Equal(t, "drop schema if exists staging cascade", got)

	_, err = CreateSchema("")
	require.ErrorIs(t, err, ErrMissingIdentifier)
	_, err = DropSchema("")
	require.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestCreateTable(t *testing.T) {
	cols := []ColumnDef{{"id", "serial primary key"}, {"name", "text"}}

	got, err := CreateTable(Table("s", "t"), cols)
	require.NoError(t, err)
	assert.Equal(t, "create table s.t (\n    id serial primary key,\n    name text\n)", got)

	got, err = CreateTable(Table("s", "t"), cols, IfNotExists())
	require.NoError(t, err)
	assert.Equal(t, "create table if not exists s.t (\n    id serial primary key,\n    name text\n)", got)

	_, err = CreateTable(Table("s", "t"), nil)
	require.ErrorIs(t, err, ErrMissingIdentifier)
	_, err = CreateTable(Table("s", "t"), []ColumnDef{{"id", ""}})
	require.ErrorIs(t, err, ErrMissingIdentifier)
	_, err = CreateTable(Table("s", ""), cols)
	require.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestDropAndWipeTable(t *testing.T) {
	got, err := DropTable(Table("s", "t"))
	require.NoError(t, err)
	assert.Equal(t, `drop table "s"."t"`, got)

	got, err = DropTable(Table("s", "t"), IfExists(), Cascade())
	require.NoError(t, err)
	assert.Equal(t, `drop table if exists "s"."t" cascade`, got)

	got, err = WipeTable(Table("s", "t"))
	require.NoError(t, err)
	assert.Equal(t, "delete from s.t where 1 = 1", got)
}

func TestViewDDL(t *testing.T) {
	got, err := CreateView(Table("s", "v"), "select 1 as one")
	require.NoError(t, err)
	assert.Equal(t, `create view "s"."v" as (select 1 as one)`, got)

	got, err = CreateView(Table("s", "v"), "select 1", OrReplace())
	require.NoError(t, err)
	assert.Equal(t, `create or replace view "s"."v" as (select 1)`, got)

	_, err = CreateView(Table("s", "v"), "  ")
	require.ErrorIs(t, err, ErrMissingIdentifier)

	got, err = DropView(Table("s", "v"), IfExists())
	require.NoError(t, err)
	assert.Equal(t, `drop view if exists "s"."v"`, got)
}
