package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newExecCmd(o *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "exec [STATEMENT...]",
		Short: "Execute statements in one transaction",
		Long: `Execute the given statements in order inside a single transaction. If any
statement fails, the transaction is rolled back and none of them takes
effect.

With --file, the file is sent as one statement batch; use - for stdin.`,
		Example: `  sqltools exec "create schema staging" "create table staging.t (id int)"
  sqltools exec --file migrate.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			stmts := args
			if file != "" {
				text, err := readInput(cmd, file)
				if err != nil {
					return err
				}
				stmts = append(stmts, text)
			}
			if len(stmts) == 0 {
				return fmt.Errorf("no statements given")
			}
			client, closeFn, err := o.connect(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			return client.Execute(cmd.Context(), stmts...)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read statements from a file (- for stdin)")
	return cmd
}

func readInput(cmd *cobra.Command, file string) (string, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		//nolint:gosec // G304: path is supplied by the operator.
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read statements: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func newQueryCmd(o *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Run a query and print the result",
		Example: `  sqltools query "select datname, numbackends from pg_stat_database"
  sqltools query -o json "select * from public.users"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := o.connect(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			f, err := client.Query(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeFrame(cmd.OutOrStdout(), format, f)
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}
