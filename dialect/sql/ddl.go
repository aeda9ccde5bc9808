package sql

import "strings"

// DDLOption toggles an optional keyword of a DDL statement.
type DDLOption func(*ddlConfig)

type ddlConfig struct {
	ifExists    bool
	ifNotExists bool
	cascade     bool
	orReplace   bool
}

// IfExists renders "if exists" on DROP statements.
func IfExists() DDLOption { return func(c *ddlConfig) { c.ifExists = true } }

// IfNotExists renders "if not exists" on CREATE TABLE.
func IfNotExists() DDLOption { return func(c *ddlConfig) { c.ifNotExists = true } }

// Cascade renders "cascade" on DROP statements.
func Cascade() DDLOption { return func(c *ddlConfig) { c.cascade = true } }

// OrReplace renders "or replace" on CREATE VIEW.
func OrReplace() DDLOption { return func(c *ddlConfig) { c.orReplace = true } }

func ddlOptions(opts []DDLOption) ddlConfig {
	var c ddlConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c ddlConfig) ifExistsStr() string {
	if c.ifExists {
		return "if exists "
	}
	return ""
}

func (c ddlConfig) cascadeStr() string {
	if c.cascade {
		return " cascade"
	}
	return ""
}

// CreateSchema renders "create schema <name>".
func CreateSchema(name string) (string, error) {
	if name == "" {
		return "", missingIdentifier("schema name")
	}
	return "create schema " + name, nil
}

// DropSchema renders "drop schema [if exists ]<name>[ cascade]".
func DropSchema(name string, opts ...DDLOption) (string, error) {
	if name == "" {
		return "", missingIdentifier("schema name")
	}
	c := ddlOptions(opts)
	return "drop schema " + c.ifExistsStr() + name + c.cascadeStr(), nil
}

// ColumnDef is one entry of a CREATE TABLE column list.
type ColumnDef struct {
	Name string
	Type string
}

// CreateTable renders a CREATE TABLE statement with one column per line:
//
//	create table [if not exists ]<schema>.<table> (
//	    col1 int,
//	    col2 text
//	)
func CreateTable(t TableName, columns []ColumnDef, opts ...DDLOption) (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", missingIdentifier("at least one column")
	}
	c := ddlOptions(opts)
	lines := make([]string, len(columns))
	for i, col := range columns {
		if col.Name == "" || col.Type == "" {
			return "", missingIdentifier("column name and type")
		}
		lines[i] = "    " + col.Name + " " + col.Type
	}
	ine := ""
	if c.ifNotExists {
		ine = "if not exists "
	}
	return strings.Join([]string{
		"create table " + ine + t.String() + " (",
		strings.Join(lines, ",\n"),
		")",
	}, "\n"), nil
}

// DropTable renders `drop table [if exists ]"<schema>"."<table>"[ cascade]`.
func DropTable(t TableName, opts ...DDLOption) (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	c := ddlOptions(opts)
	return "drop table " + c.ifExistsStr() + t.Quoted() + c.cascadeStr(), nil
}

// WipeTable renders a DELETE removing every row of t.
func WipeTable(t TableName) (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	return "delete from " + t.String() + " where 1 = 1", nil
}

// CreateView renders `create [or replace ]view "<schema>"."<view>" as (<body>)`.
func CreateView(v TableName, body string, opts ...DDLOption) (string, error) {
	if err := v.check(); err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		return "", missingIdentifier("view body")
	}
	c := ddlOptions(opts)
	orReplace := ""
	if c.orReplace {
		orReplace = "or replace "
	}
	return "create " + orReplace + "view " + v.Quoted() + " as (" + body + ")", nil
}

// DropView renders `drop view [if exists ]"<schema>"."<view>"[ cascade]`.
func DropView(v TableName, opts ...DDLOption) (string, error) {
	if err := v.check(); err != nil {
		return "", err
	}
	c := ddlOptions(opts)
	return "drop view " + c.ifExistsStr() + v.Quoted() + c.cascadeStr(), nil
}
