// Package dialect defines the connection abstraction used by sqltools.
//
// A Driver executes statement text and queries against one database
// connection. The sqltools client never talks to database/sql directly;
// it goes through a Driver so that tests can substitute go-sqlmock and
// callers can stack decorators (statement logging, statistics) on top.
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// Tx extends ExecQuerier with Commit and Rollback. A batch of statements
// passed to sqltools.Client.Execute runs inside one Tx.
//
// Opening a connection:
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// Sub-packages:
//
//   - dialect/sql: database/sql driver, statement builders, literal quoting
//   - dialect/sql/schema: catalog inspection and datatype compatibility
package dialect
