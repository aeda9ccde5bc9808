package sqltools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/syssam/sqltools/config"
	"github.com/syssam/sqltools/dialect"
	"github.com/syssam/sqltools/dialect/sql"
	"github.com/syssam/sqltools/dialect/sql/schema"
)

// Client is a connection to a single Postgres database together with the
// catalog readers and statement builders bound to it. A Client performs no
// locking of its own.
type Client struct {
	driver    dialect.Driver
	stats     *sql.StatsDriver
	inspector *schema.Inspector
	checker   *schema.Checker
	database  string
	user      string
	binDirs   []string
	log       *slog.Logger
}

// Option configures a Client.
type Option func(*options)

type options struct {
	log          *slog.Logger
	statementLog io.Writer
	stats        bool
	statsOpts    []sql.StatsOption
	checkerOpts  []schema.CheckerOption
	database     string
	user         string
	binDirs      []string
}

// WithLogger sets the logger used by the client and its checker.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithStatementLog appends every executed statement to w, one line per
// statement prefixed with a timestamp.
func WithStatementLog(w io.Writer) Option {
	return func(o *options) {
		o.statementLog = w
	}
}

// WithStats records query statistics and logs slow queries.
func WithStats(opts ...sql.StatsOption) Option {
	return func(o *options) {
		o.stats = true
		o.statsOpts = append(o.statsOpts, opts...)
	}
}

// WithCheckerOptions configures the datatype checker.
func WithCheckerOptions(opts ...schema.CheckerOption) Option {
	return func(o *options) {
		o.checkerOpts = append(o.checkerOpts, opts...)
	}
}

// WithDatabase records the database name and role of the connection. Open
// sets both from the config; the dump operations need them.
func WithDatabase(database, user string) Option {
	return func(o *options) {
		o.database, o.user = database, user
	}
}

// WithBinDirs adds directories searched for client programs such as
// pg_dump, after PATH and the usual system locations.
func WithBinDirs(dirs ...string) Option {
	return func(o *options) {
		o.binDirs = append(o.binDirs, dirs...)
	}
}

// Open connects to the database described by cfg and verifies the
// connection with a ping.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	drv, err := sql.Open(dialect.Postgres, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("sqltools: open %s: %w", cfg.Redacted(), err)
	}
	if err := drv.Ping(ctx); err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("sqltools: connect %s: %w", cfg.Redacted(), err)
	}
	opts = append([]Option{WithDatabase(cfg.Database, cfg.User)}, opts...)
	return NewClient(drv, opts...), nil
}

// NewClient wraps an open driver.
func NewClient(drv dialect.Driver, opts ...Option) *Client {
	o := &options{log: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	c := &Client{database: o.database, user: o.user, binDirs: o.binDirs, log: o.log}
	if o.stats {
		c.stats = sql.NewStatsDriver(drv, append([]sql.StatsOption{sql.WithStatsLogger(o.log)}, o.statsOpts...)...)
		drv = c.stats
	}
	if o.statementLog != nil {
		drv = sql.NewLogDriver(drv, o.statementLog)
	}
	c.driver = drv
	c.inspector = schema.NewInspector(drv)
	c.checker = schema.NewChecker(drv, append([]schema.CheckerOption{schema.WithLogger(o.log)}, o.checkerOpts...)...)
	return c
}

// Driver returns the driver statements are sent through.
func (c *Client) Driver() dialect.Driver { return c.driver }

// Inspector returns the catalog reader of the connection.
func (c *Client) Inspector() *schema.Inspector { return c.inspector }

// Checker returns the datatype checker of the connection.
func (c *Client) Checker() *schema.Checker { return c.checker }

// Database returns the database name, if known.
func (c *Client) Database() string { return c.database }

// Stats returns the collected query statistics. ok is false unless the
// client was created with WithStats.
func (c *Client) Stats() (s sql.StatsSnapshot, ok bool) {
	if c.stats == nil {
		return s, false
	}
	return c.stats.QueryStats().Stats(), true
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.driver.Close() }

// Execute runs stmts in order inside one transaction. The transaction is
// committed when every statement succeeded and rolled back at the first
// failure.
func (c *Client) Execute(ctx context.Context, stmts ...string) error {
	if len(stmts) == 0 {
		return nil
	}
	log := c.log.With("batch", uuid.NewString())
	tx, err := c.driver.Tx(ctx)
	if err != nil {
		return fmt.Errorf("sqltools: begin transaction: %w", err)
	}
	for i, stmt := range stmts {
		log.DebugContext(ctx, "executing statement", "index", i, "statement", stmt)
		if err := tx.Exec(ctx, stmt, []any{}, nil); err != nil {
			err = execError(stmt, err)
			if rerr := tx.Rollback(); rerr != nil {
				err = errors.Join(err, &RollbackError{Err: rerr})
			}
			log.ErrorContext(ctx, "statement failed, transaction rolled back", "index", i, "error", err)
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqltools: commit transaction: %w", err)
	}
	log.DebugContext(ctx, "transaction committed", "statements", len(stmts))
	return nil
}

func execError(stmt string, err error) error {
	err = &QueryError{Op: "exec", Statement: stmt, Err: err}
	if v := sql.ConstraintViolation(err); v != "" {
		return NewConstraintError(v, err)
	}
	return err
}

// Query runs q and materializes its result.
func (c *Client) Query(ctx context.Context, q string, args ...any) (*sql.Frame, error) {
	rows := &sql.Rows{}
	if err := c.driver.Query(ctx, q, args, rows); err != nil {
		return nil, &QueryError{Op: "query", Statement: q, Err: err}
	}
	f, err := sql.ScanFrame(rows)
	if err != nil {
		return nil, &QueryError{Op: "query", Statement: q, Err: err}
	}
	return f, nil
}

// ReadTable returns every row of a table or view.
func (c *Client) ReadTable(ctx context.Context, t sql.TableName) (*sql.Frame, error) {
	if t.Name == "" {
		return nil, fmt.Errorf("%w: must supply table name", sql.ErrMissingIdentifier)
	}
	f, err := c.Query(ctx, "select * from "+t.Quoted())
	if sql.IsUndefinedTable(err) {
		return nil, &NotFoundError{Kind: "table", Name: t.String(), Err: err}
	}
	return f, err
}

// buildOptions makes the checker the validator used by sql.Validate(true).
func (c *Client) buildOptions(opts []sql.BuildOption) []sql.BuildOption {
	return append([]sql.BuildOption{sql.WithDefaultValidator(c.checker)}, opts...)
}

// BuildUpdate is sql.BuildUpdate with the client's checker as validator.
func (c *Client) BuildUpdate(ctx context.Context, t sql.TableName, pkey string, pkeyValue any, columns []string, values []any, opts ...sql.BuildOption) (string, error) {
	return sql.BuildUpdate(ctx, t, pkey, pkeyValue, columns, values, c.buildOptions(opts)...)
}

// BuildInsert is sql.BuildInsert with the client's checker as validator.
func (c *Client) BuildInsert(ctx context.Context, t sql.TableName, columns []string, values []any, opts ...sql.BuildOption) (string, error) {
	return sql.BuildInsert(ctx, t, columns, values, c.buildOptions(opts)...)
}

// BuildDelete is sql.BuildDelete.
func (c *Client) BuildDelete(t sql.TableName, pkey string, pkeyValue any, opts ...sql.BuildOption) (string, error) {
	return sql.BuildDelete(t, pkey, pkeyValue, opts...)
}

// Compatible reports whether v may be stored in the column.
func (c *Client) Compatible(ctx context.Context, t sql.TableName, column string, v any) (bool, error) {
	return c.checker.Compatible(ctx, t, column, sql.ValueOf(v))
}
