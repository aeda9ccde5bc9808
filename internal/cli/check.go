package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/sqltools/coerce"
	"github.com/syssam/sqltools/dialect/sql"
)

// errCheckFailed makes the command exit non-zero after printing a report.
var errCheckFailed = errors.New("check failed")

func newCheckCmd(o *rootOptions) *cobra.Command {
	var (
		format     string
		schemaName string
		raw        bool
	)
	cmd := &cobra.Command{
		Use:   "check TABLE COLUMN=VALUE...",
		Short: "Check values against column datatypes",
		Long: `Look up the datatype of every named column and report whether the value
could be stored in it. All pairs are checked; the command fails if any of
them is incompatible.`,
		Example: `  sqltools check public.users age=36 name=ada`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTable(args[0], schemaName)
			if err != nil {
				return err
			}
			columns, values, err := parseAssignments(args[1:], raw)
			if err != nil {
				return err
			}
			client, closeFn, err := o.connect(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			res, err := client.Checker().CheckRow(cmd.Context(), t, columns, values)
			if err != nil {
				return err
			}
			f := &sql.Frame{Columns: []string{"column", "data_type", "bucket", "compatible", "reason"}}
			for _, v := range res.Verdicts {
				f.Rows = append(f.Rows, []any{v.Column, v.DataType, string(v.Bucket), v.Compatible, v.Reason})
			}
			if err := writeFrame(cmd.OutOrStdout(), format, f); err != nil {
				return err
			}
			if res.HasErrors() {
				return fmt.Errorf("%w: %d incompatible value(s)", errCheckFailed, len(res.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&schemaName, "schema", "s", "public", "Schema of unqualified table names")
	cmd.Flags().BoolVar(&raw, "raw", false, "Keep every value as text")
	addFormatFlag(cmd, &format)
	return cmd
}

func newCoerceCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "coerce TYPE VALUE...",
		Short: "Check whether values coerce to a type",
		Long: `Report whether each value coerces to TYPE, one of bool, string, int,
float, date, datetime, path or path-exists. No connection is made.`,
		Example: `  sqltools coerce int 42 4.0 4.5
  sqltools coerce datetime "2024-02-29 10:00:00+02:00"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := coerce.ParseType(args[0])
			if err != nil {
				return err
			}
			f := &sql.Frame{Columns: []string{"value", "ok", "result"}}
			failed := 0
			for _, a := range args[1:] {
				r := coerce.Check(a, t)
				if !r.OK() {
					failed++
					f.Rows = append(f.Rows, []any{a, false, nil})
					continue
				}
				f.Rows = append(f.Rows, []any{a, true, r.Value})
			}
			if err := writeFrame(cmd.OutOrStdout(), format, f); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d value(s) do not coerce to %s", errCheckFailed, failed, t)
			}
			return nil
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}
