// Package sql provides the database/sql driver wrapper and the statement
// text builders used by sqltools.
//
// # Values
//
// Statement values are a closed tagged variant, Value, with the kinds
// Null, Bool, Int, Float, Text and Time. ValueOf classifies arbitrary Go
// values; callers that know their types use the constructors directly:
//
//	sql.Int(11111)
//	sql.Text("O'Brien")
//	sql.Null()
//
// Texts matching the NullSentinel set ("nan", "n/a", "null", "none", ""),
// in any case, and NaN floats render as NULL.
//
// # Builders
//
//	sql.BuildUpdate(ctx, sql.Table("pg_catalog", "pg_stat_database"), "datid", 12345,
//	    []string{"tup_returned", "tup_fetched"}, []any{11111, 22222})
//	// UPDATE pg_catalog.pg_stat_database SET "tup_returned"=11111, "tup_fetched"=22222 WHERE "datid" = 12345
//
//	sql.BuildInsert(ctx, sql.Table("public", "users"), []string{"id", "name"}, []any{1, "a'b"})
//	// insert into public.users ("id", "name") values (1, 'a''b')
//
//	sql.BuildDelete(sql.Table("public", "users"), "id", []int{1, 2})
//	// delete from public.users where id in (1, 2)
//
// Pass WithValidator to check every value against its column before any
// text is rendered, and Pretty to split the statement over several lines.
//
// # Drivers
//
// Driver wraps *sql.DB. StatsDriver and LogDriver decorate any
// dialect.Driver with statistics and a timestamped statement log.
package sql
