package cli

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/syssam/sqltools"
)

func newDumpCmd(o *rootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump the database with pg_dump",
		Long: `Write the whole database to <dir>/<database>.sql with pg_dump. pg_dump is
looked up on PATH, then in /usr/bin and /usr/local/bin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := o.connect(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			path, err := client.Dump(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Output directory")
	return cmd
}

func newDumpTablesCmd(o *rootOptions) *cobra.Command {
	var (
		dir     string
		sep     string
		rewrite bool
		workers int
	)
	cmd := &cobra.Command{
		Use:   "dump-tables",
		Short: "Export every table as CSV",
		Long: `Export every base table outside pg_catalog and information_schema to
<dir>/<schema>.<table>.csv. The files are written by the database server, so
the directory must be reachable by the server and by this command.

With --rewrite the files are rewritten comma separated with every
non-numeric field quoted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, size := utf8.DecodeRuneInString(sep)
			if size == 0 || size != len(sep) {
				return fmt.Errorf("separator must be a single character, got %q", sep)
			}
			client, closeFn, err := o.connect(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			files, err := client.DumpTables(cmd.Context(), dir, sqltools.DumpOptions{
				Separator: r,
				Rewrite:   rewrite,
				Workers:   workers,
			})
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Output directory")
	cmd.Flags().StringVar(&sep, "sep", ",", "Field separator")
	cmd.Flags().BoolVar(&rewrite, "rewrite", false, "Rewrite files comma separated with non-numeric fields quoted")
	cmd.Flags().IntVar(&workers, "workers", 4, "Files rewritten concurrently")
	return cmd
}
