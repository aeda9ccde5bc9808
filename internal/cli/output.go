package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/syssam/sqltools/dialect/sql"
)

// OutputFormat selects how result frames are printed.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatCSV   OutputFormat = "csv"
)

var outputFormats = []OutputFormat{FormatTable, FormatJSON, FormatCSV}

// addFormatFlag adds the --format/-o flag to a command.
func addFormatFlag(cmd *cobra.Command, format *string) {
	names := make([]string, len(outputFormats))
	for i, f := range outputFormats {
		names[i] = string(f)
	}
	cmd.Flags().StringVarP(format, "format", "o", string(FormatTable),
		fmt.Sprintf("Output format (%s)", strings.Join(names, ", ")))
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

// writeFrame prints f to w in the given format.
func writeFrame(w io.Writer, format string, f *sql.Frame) error {
	switch OutputFormat(format) {
	case FormatTable:
		if len(f.Columns) == 0 {
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		if _, err := fmt.Fprintln(tw, strings.Join(f.Columns, "\t")); err != nil {
			return err
		}
		for _, row := range f.Rows {
			if _, err := fmt.Fprintln(tw, strings.Join(cells(row, "NULL"), "\t")); err != nil {
				return err
			}
		}
		return tw.Flush()
	case FormatJSON:
		records := f.Records()
		if records == nil {
			records = []map[string]any{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(f.Columns); err != nil {
			return err
		}
		for _, row := range f.Rows {
			if err := cw.Write(cells(row, "")); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unsupported format %q, must be one of: table, json, csv", format)
	}
}

func cells(row []any, null string) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch v := v.(type) {
		case nil:
			out[i] = null
		case time.Time:
			out[i] = v.Format(time.RFC3339Nano)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

// tableFrame lists table or view names as a two column frame.
func tableFrame(names []sql.TableName) *sql.Frame {
	f := &sql.Frame{Columns: []string{"schema", "name"}}
	for _, n := range names {
		f.Rows = append(f.Rows, []any{n.Schema, n.Name})
	}
	return f
}
