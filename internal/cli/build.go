package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/sqltools/dialect/sql"
)

// statementBuilder is implemented by *sqltools.Client and plainBuilder.
type statementBuilder interface {
	BuildInsert(ctx context.Context, t sql.TableName, columns []string, values []any, opts ...sql.BuildOption) (string, error)
	BuildUpdate(ctx context.Context, t sql.TableName, pkey string, pkeyValue any, columns []string, values []any, opts ...sql.BuildOption) (string, error)
	BuildDelete(t sql.TableName, pkey string, pkeyValue any, opts ...sql.BuildOption) (string, error)
}

// plainBuilder renders statements without a connection.
type plainBuilder struct{}

func (plainBuilder) BuildInsert(ctx context.Context, t sql.TableName, columns []string, values []any, opts ...sql.BuildOption) (string, error) {
	return sql.BuildInsert(ctx, t, columns, values, opts...)
}

func (plainBuilder) BuildUpdate(ctx context.Context, t sql.TableName, pkey string, pkeyValue any, columns []string, values []any, opts ...sql.BuildOption) (string, error) {
	return sql.BuildUpdate(ctx, t, pkey, pkeyValue, columns, values, opts...)
}

func (plainBuilder) BuildDelete(t sql.TableName, pkey string, pkeyValue any, opts ...sql.BuildOption) (string, error) {
	return sql.BuildDelete(t, pkey, pkeyValue, opts...)
}

type buildOptions struct {
	schema   string
	where    string
	validate bool
	pretty   bool
	raw      bool
	exec     bool
}

func (b *buildOptions) addFlags(cmd *cobra.Command, validate bool) {
	cmd.Flags().StringVarP(&b.schema, "schema", "s", "public", "Schema of unqualified table names")
	cmd.Flags().BoolVar(&b.pretty, "pretty", false, "Render the statement on several lines")
	cmd.Flags().BoolVar(&b.raw, "raw", false, "Keep every value as text")
	cmd.Flags().BoolVar(&b.exec, "exec", false, "Execute the statement instead of printing it")
	if validate {
		cmd.Flags().BoolVar(&b.validate, "validate", false, "Check values against the column datatypes")
	}
}

func (b *buildOptions) options() []sql.BuildOption {
	var opts []sql.BuildOption
	if b.pretty {
		opts = append(opts, sql.Pretty())
	}
	if b.validate {
		opts = append(opts, sql.Validate(true))
	}
	return opts
}

// needsClient reports whether building requires a database connection.
func (b *buildOptions) needsClient() bool { return b.validate || b.exec }

func newBuildCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build INSERT, UPDATE and DELETE statements",
		Long: `Build a single INSERT, UPDATE or DELETE statement from column=value pairs.

Values are typed from their text: integers, decimals, true/false,
timestamps and dates become literals of that type, everything else is a
quoted string. The words null, none, nan and n/a (any case) and the empty
string render as NULL. Use --raw to keep every value as text.

Statements are only sent to the database with --exec or checked against it
with --validate; otherwise no connection is made.`,
	}
	cmd.AddCommand(newBuildInsertCmd(o))
	cmd.AddCommand(newBuildUpdateCmd(o))
	cmd.AddCommand(newBuildDeleteCmd(o))
	return cmd
}

// emit prints stmt, or executes it when --exec is set.
func emit(cmd *cobra.Command, o *rootOptions, b *buildOptions, build func(c statementBuilder) (string, error)) error {
	if !b.needsClient() {
		stmt, err := build(plainBuilder{})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), stmt)
		return nil
	}
	client, closeFn, err := o.connect(cmd)
	if err != nil {
		return err
	}
	defer closeFn()
	stmt, err := build(client)
	if err != nil {
		return err
	}
	if !b.exec {
		fmt.Fprintln(cmd.OutOrStdout(), stmt)
		return nil
	}
	return client.Execute(cmd.Context(), stmt)
}

func newBuildInsertCmd(o *rootOptions) *cobra.Command {
	b := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "insert TABLE COLUMN=VALUE...",
		Short: "Build an INSERT statement",
		Example: `  sqltools build insert public.users name=ada age=36
  sqltools build insert users name=ada --validate`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTable(args[0], b.schema)
			if err != nil {
				return err
			}
			columns, values, err := parseAssignments(args[1:], b.raw)
			if err != nil {
				return err
			}
			return emit(cmd, o, b, func(c statementBuilder) (string, error) {
				return c.BuildInsert(cmd.Context(), t, columns, values, b.options()...)
			})
		},
	}
	b.addFlags(cmd, true)
	return cmd
}

func newBuildUpdateCmd(o *rootOptions) *cobra.Command {
	b := &buildOptions{}
	cmd := &cobra.Command{
		Use:     "update TABLE COLUMN=VALUE... --where KEY=VALUE",
		Short:   "Build an UPDATE statement",
		Example: `  sqltools build update public.users --where id=7 name=grace active=false`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTable(args[0], b.schema)
			if err != nil {
				return err
			}
			columns, values, err := parseAssignments(args[1:], b.raw)
			if err != nil {
				return err
			}
			pkey, keys, err := parseKey(b.where, b.raw)
			if err != nil {
				return err
			}
			if len(keys) != 1 {
				return fmt.Errorf("update takes a single key value, got %d", len(keys))
			}
			return emit(cmd, o, b, func(c statementBuilder) (string, error) {
				return c.BuildUpdate(cmd.Context(), t, pkey, keys[0], columns, values, b.options()...)
			})
		},
	}
	b.addFlags(cmd, true)
	cmd.Flags().StringVarP(&b.where, "where", "w", "", "Primary key as column=value")
	_ = cmd.MarkFlagRequired("where")
	return cmd
}

func newBuildDeleteCmd(o *rootOptions) *cobra.Command {
	b := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "delete TABLE --where KEY=VALUE[,VALUE...]",
		Short: "Build a DELETE statement",
		Example: `  sqltools build delete public.users --where id=7
  sqltools build delete public.users --where id=7,8,9`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTable(args[0], b.schema)
			if err != nil {
				return err
			}
			pkey, keys, err := parseKey(b.where, b.raw)
			if err != nil {
				return err
			}
			var key any = keys
			if len(keys) == 1 {
				key = keys[0]
			}
			return emit(cmd, o, b, func(c statementBuilder) (string, error) {
				return c.BuildDelete(t, pkey, key, b.options()...)
			})
		},
	}
	b.addFlags(cmd, false)
	cmd.Flags().StringVarP(&b.where, "where", "w", "", "Primary key as column=value, or column=v1,v2,... for several rows")
	_ = cmd.MarkFlagRequired("where")
	return cmd
}
