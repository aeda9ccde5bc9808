package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/syssam/sqltools"
	"github.com/syssam/sqltools/dialect/sql"
)

func newInspectCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Read catalog metadata",
		Long: `Read tables, views, triggers and columns from information_schema. Nothing
is cached; every command queries the catalog again.`,
	}
	cmd.AddCommand(newInspectListCmd(o, "tables", "List base tables", func(ctx context.Context, c *sqltools.Client, s string) (*sql.Frame, error) {
		names, err := c.ListTables(ctx, s)
		if err != nil {
			return nil, err
		}
		return tableFrame(names), nil
	}))
	cmd.AddCommand(newInspectListCmd(o, "views", "List views", func(ctx context.Context, c *sqltools.Client, s string) (*sql.Frame, error) {
		names, err := c.ListViews(ctx, s)
		if err != nil {
			return nil, err
		}
		return tableFrame(names), nil
	}))
	cmd.AddCommand(newInspectListCmd(o, "triggers", "List triggers", func(ctx context.Context, c *sqltools.Client, s string) (*sql.Frame, error) {
		triggers, err := c.ListTriggers(ctx, s)
		if err != nil {
			return nil, err
		}
		f := &sql.Frame{Columns: []string{"table", "schema", "name", "events", "activation", "condition", "definition"}}
		for _, t := range triggers {
			f.Rows = append(f.Rows, []any{t.Table.String(), t.Schema, t.Name, t.Events, t.Activation, t.Condition, t.Definition})
		}
		return f, nil
	}))
	cmd.AddCommand(newInspectColumnsCmd(o))
	cmd.AddCommand(newInspectInfoCmd(o))
	return cmd
}

type lister func(ctx context.Context, c *sqltools.Client, schema string) (*sql.Frame, error)

func newInspectListCmd(o *rootOptions, use, short string, list lister) *cobra.Command {
	var format, schemaName string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := o.connect(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			f, err := list(cmd.Context(), client, schemaName)
			if err != nil {
				return err
			}
			return writeFrame(cmd.OutOrStdout(), format, f)
		},
	}
	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Restrict to one schema (default all)")
	addFormatFlag(cmd, &format)
	return cmd
}

func newInspectColumnsCmd(o *rootOptions) *cobra.Command {
	var format, schemaName string
	cmd := &cobra.Command{
		Use:     "columns TABLE",
		Short:   "List the columns of a table or view",
		Example: `  sqltools inspect columns public.users`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTable(args[0], schemaName)
			if err != nil {
				return err
			}
			client, closeFn, err := o.connect(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			specs, err := client.Inspector().Columns(cmd.Context(), client.Checker().Resolve(t))
			if err != nil {
				return err
			}
			f := &sql.Frame{Columns: []string{"position", "name", "data_type", "nullable"}}
			for _, c := range specs {
				f.Rows = append(f.Rows, []any{c.Position, c.Name, c.DataType, c.Nullable})
			}
			return writeFrame(cmd.OutOrStdout(), format, f)
		},
	}
	cmd.Flags().StringVarP(&schemaName, "schema", "s", "public", "Schema of unqualified table names")
	addFormatFlag(cmd, &format)
	return cmd
}

func newInspectInfoCmd(o *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "info VIEW",
		Short:   "Print a whole information_schema view",
		Example: `  sqltools inspect info schemata`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := o.connect(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			f, err := client.Inspector().InfoSchema(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeFrame(cmd.OutOrStdout(), format, f)
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}
