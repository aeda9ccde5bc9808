// Package cli implements the sqltools command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/syssam/sqltools"
	"github.com/syssam/sqltools/config"
	"github.com/syssam/sqltools/dialect/sql"
	"github.com/syssam/sqltools/internal/logging"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// Opener connects a client. Tests replace it to inject a mock connection.
type Opener func(ctx context.Context, cfg *config.Config, opts ...sqltools.Option) (*sqltools.Client, error)

// rootOptions carries the persistent flags shared by every command.
type rootOptions struct {
	configPath   string
	host         string
	port         int
	database     string
	user         string
	sslMode      string
	statementLog string
	logLevel     string
	logFormat    string
	open         Opener
}

func addConnectionFlags(fs *pflag.FlagSet, o *rootOptions) {
	fs.StringVar(&o.configPath, "config", "", "Path to a YAML config file")
	fs.StringVarP(&o.host, "host", "H", "", "Database host (overrides PGHOST)")
	fs.IntVarP(&o.port, "port", "p", 0, "Database port (overrides PGPORT)")
	fs.StringVarP(&o.database, "database", "d", "", "Database name (overrides PGDATABASE)")
	fs.StringVarP(&o.user, "user", "U", "", "Database role (overrides PGUSER)")
	fs.StringVar(&o.sslMode, "sslmode", "", "SSL mode (overrides PGSSLMODE)")
	fs.StringVar(&o.statementLog, "statement-log", "", "Append executed statements to this file")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&o.logFormat, "log-format", "", "Log format (text, json, console)")
}

// override applies the connection flags that were given.
func (o *rootOptions) override(c *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Host, o.host)
	set(&c.Database, o.database)
	set(&c.User, o.user)
	set(&c.SSLMode, o.sslMode)
	set(&c.StatementLog, o.statementLog)
	set(&c.Log.Level, o.logLevel)
	set(&c.Log.Format, o.logFormat)
	if o.port != 0 {
		c.Port = o.port
	}
}

// connect resolves the configuration and opens a client. The returned
// function closes the client and the statement log.
func (o *rootOptions) connect(cmd *cobra.Command) (*sqltools.Client, func(), error) {
	cfg, err := config.Resolve(o.configPath, o.override)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewWithComponent(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	}, "sqltools")
	if err != nil {
		return nil, nil, err
	}
	opts := []sqltools.Option{
		sqltools.WithLogger(logger),
		sqltools.WithStats(sql.WithSlowThreshold(cfg.SlowQuery)),
	}
	var logFile io.Closer
	if cfg.StatementLog != "" {
		//nolint:gosec // G304: path is supplied by the operator.
		f, err := os.OpenFile(cfg.StatementLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open statement log: %w", err)
		}
		logFile = f
		opts = append(opts, sqltools.WithStatementLog(f))
	}
	client, err := o.open(cmd.Context(), cfg, opts...)
	if err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, nil, err
	}
	return client, func() {
		if s, ok := client.Stats(); ok {
			logger.Debug("connection statistics", "stats", s.String())
		}
		_ = client.Close()
		if logFile != nil {
			_ = logFile.Close()
		}
	}, nil
}

// NewRootCmd creates the sqltools command tree.
func NewRootCmd(open Opener) *cobra.Command {
	o := &rootOptions{open: open}
	cmd := &cobra.Command{
		Use:   "sqltools",
		Short: "Postgres convenience tools",
		Long: `Build and run INSERT, UPDATE and DELETE statements, check values against
column datatypes, inspect the catalog, manage schema objects and dump
databases.

Connection settings are read, in increasing priority, from the config file
(--config), the libpq environment variables (PGHOST, PGPORT, PGDATABASE,
PGUSER, PGPASSWORD, PGSSLMODE) and the command line flags. A missing
password is looked up in the password file (PGPASSFILE, default ~/.pgpass).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addConnectionFlags(cmd.PersistentFlags(), o)

	cmd.AddCommand(newBuildCmd(o))
	cmd.AddCommand(newExecCmd(o))
	cmd.AddCommand(newQueryCmd(o))
	cmd.AddCommand(newInspectCmd(o))
	cmd.AddCommand(newCheckCmd(o))
	cmd.AddCommand(newCoerceCmd())
	cmd.AddCommand(newSchemaCmd(o))
	cmd.AddCommand(newDumpCmd(o))
	cmd.AddCommand(newDumpTablesCmd(o))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sqltools version %s\n", Version)
		},
	}
}

// Execute runs the root command against a real database.
func Execute(ctx context.Context) error {
	return NewRootCmd(sqltools.Open).ExecuteContext(ctx)
}
