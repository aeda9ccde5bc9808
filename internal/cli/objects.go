package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/sqltools"
	"github.com/syssam/sqltools/dialect/sql"
)

type ddlFlags struct {
	ifExists    bool
	ifNotExists bool
	cascade     bool
	orReplace   bool
}

func (d *ddlFlags) options() []sql.DDLOption {
	var opts []sql.DDLOption
	if d.ifExists {
		opts = append(opts, sql.IfExists())
	}
	if d.ifNotExists {
		opts = append(opts, sql.IfNotExists())
	}
	if d.cascade {
		opts = append(opts, sql.Cascade())
	}
	if d.orReplace {
		opts = append(opts, sql.OrReplace())
	}
	return opts
}

func (d *ddlFlags) addDropFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&d.ifExists, "if-exists", false, "Do not fail if the object does not exist")
	cmd.Flags().BoolVar(&d.cascade, "cascade", false, "Also drop dependent objects")
}

// objectCmd builds a command that runs fn with a connected client.
func objectCmd(o *rootOptions, use, short string, args cobra.PositionalArgs, fn func(ctx context.Context, c *sqltools.Client, cmd *cobra.Command, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := o.connect(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			return fn(cmd.Context(), client, cmd, args)
		},
	}
}

func newSchemaCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create and drop schemas, tables and views",
	}

	create := objectCmd(o, "create NAME", "Create a schema", cobra.ExactArgs(1),
		func(ctx context.Context, c *sqltools.Client, _ *cobra.Command, args []string) error {
			return c.CreateSchema(ctx, args[0])
		})

	var drop ddlFlags
	dropCmd := objectCmd(o, "drop NAME", "Drop a schema", cobra.ExactArgs(1),
		func(ctx context.Context, c *sqltools.Client, _ *cobra.Command, args []string) error {
			return c.DropSchema(ctx, args[0], drop.options()...)
		})
	drop.addDropFlags(dropCmd)

	var recreate ddlFlags
	recreateCmd := objectCmd(o, "recreate NAME", "Drop and create a schema in one transaction", cobra.ExactArgs(1),
		func(ctx context.Context, c *sqltools.Client, _ *cobra.Command, args []string) error {
			return c.RecreateSchema(ctx, args[0], recreate.options()...)
		})
	recreate.addDropFlags(recreateCmd)

	cmd.AddCommand(create, dropCmd, recreateCmd)
	cmd.AddCommand(newTableCmd(o), newViewCmd(o))
	return cmd
}

// parseColumnDefs parses "name:type" arguments.
func parseColumnDefs(args []string) ([]sql.ColumnDef, error) {
	defs := make([]sql.ColumnDef, len(args))
	for i, a := range args {
		name, typ, ok := strings.Cut(a, ":")
		if !ok {
			return nil, fmt.Errorf("invalid column definition %q, want name:type", a)
		}
		defs[i] = sql.ColumnDef{Name: name, Type: typ}
	}
	return defs, nil
}

func newTableCmd(o *rootOptions) *cobra.Command {
	var schemaName string
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Create, drop and wipe tables",
	}
	cmd.PersistentFlags().StringVarP(&schemaName, "schema", "s", "public", "Schema of unqualified table names")

	var create ddlFlags
	createCmd := objectCmd(o, "create TABLE NAME:TYPE...", "Create a table", cobra.MinimumNArgs(2),
		func(ctx context.Context, c *sqltools.Client, _ *cobra.Command, args []string) error {
			t, err := parseTable(args[0], schemaName)
			if err != nil {
				return err
			}
			defs, err := parseColumnDefs(args[1:])
			if err != nil {
				return err
			}
			return c.CreateTable(ctx, t, defs, create.options()...)
		})
	createCmd.Example = `  sqltools schema table create public.users "id:serial primary key" email:text`
	createCmd.Flags().BoolVar(&create.ifNotExists, "if-not-exists", false, "Do not fail if the table exists")

	var drop ddlFlags
	dropCmd := objectCmd(o, "drop TABLE", "Drop a table", cobra.ExactArgs(1),
		func(ctx context.Context, c *sqltools.Client, _ *cobra.Command, args []string) error {
			t, err := parseTable(args[0], schemaName)
			if err != nil {
				return err
			}
			return c.DropTable(ctx, t, drop.options()...)
		})
	drop.addDropFlags(dropCmd)

	wipeCmd := objectCmd(o, "wipe TABLE", "Delete every row of a table if it exists", cobra.ExactArgs(1),
		func(ctx context.Context, c *sqltools.Client, _ *cobra.Command, args []string) error {
			t, err := parseTable(args[0], schemaName)
			if err != nil {
				return err
			}
			return c.WipeTable(ctx, t)
		})

	existsCmd := objectCmd(o, "exists TABLE", "Report whether a table or view exists", cobra.ExactArgs(1),
		func(ctx context.Context, c *sqltools.Client, cmd *cobra.Command, args []string) error {
			t, err := parseTable(args[0], schemaName)
			if err != nil {
				return err
			}
			ok, err := c.TableOrViewExists(ctx, t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		})

	cmd.AddCommand(createCmd, dropCmd, wipeCmd, existsCmd)
	return cmd
}

func newViewCmd(o *rootOptions) *cobra.Command {
	var schemaName string
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Create and drop views",
	}
	cmd.PersistentFlags().StringVarP(&schemaName, "schema", "s", "public", "Schema of unqualified view names")

	var create ddlFlags
	createCmd := objectCmd(o, "create VIEW QUERY", "Create a view", cobra.ExactArgs(2),
		func(ctx context.Context, c *sqltools.Client, _ *cobra.Command, args []string) error {
			v, err := parseTable(args[0], schemaName)
			if err != nil {
				return err
			}
			return c.CreateView(ctx, v, args[1], create.options()...)
		})
	createCmd.Example = `  sqltools schema view create public.active "select * from users where active"`
	createCmd.Flags().BoolVar(&create.orReplace, "or-replace", false, "Replace an existing view")

	var drop ddlFlags
	dropCmd := objectCmd(o, "drop VIEW", "Drop a view", cobra.ExactArgs(1),
		func(ctx context.Context, c *sqltools.Client, _ *cobra.Command, args []string) error {
			v, err := parseTable(args[0], schemaName)
			if err != nil {
				return err
			}
			return c.DropView(ctx, v, drop.options()...)
		})
	drop.addDropFlags(dropCmd)

	cmd.AddCommand(createCmd, dropCmd)
	return cmd
}
