package sqltools

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/sqltools/dialect/sql"
	"github.com/syssam/sqltools/internal/sysutil"
)

// Dump writes the whole database to <dir>/<database>.sql with pg_dump and
// returns the file path. pg_dump reads the password from the environment
// or the password file like any libpq client.
func (c *Client) Dump(ctx context.Context, dir string) (string, error) {
	if c.database == "" {
		return "", ErrNoDatabase
	}
	dir, err := expandDir(dir)
	if err != nil {
		return "", err
	}
	bin, err := sysutil.FindBinary("pg_dump", c.binDirs...)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, c.database+".sql")
	var args []string
	if c.user != "" {
		args = append(args, "--username", c.user)
	}
	args = append(args, "--file", path, c.database)

	c.log.InfoContext(ctx, "dumping database", "database", c.database, "file", path)
	out, err := sysutil.Run(ctx, bin, args...)
	if err != nil {
		return "", err
	}
	if strings.Contains(out.Text, "FATAL") || out.ExitCode != 0 {
		return "", fmt.Errorf("sqltools: pg_dump exited with status %d: %s", out.ExitCode, strings.TrimSpace(out.Text))
	}
	return path, nil
}

// DumpOptions configures DumpTables.
type DumpOptions struct {
	// Separator is the field delimiter of the exported files. Default ','.
	Separator rune
	// Rewrite rewrites every exported file comma separated, with every
	// non-numeric field quoted.
	Rewrite bool
	// Workers bounds the number of files rewritten at once. Default 4.
	Workers int
}

// dbToCSV installs a function exporting every base table outside the
// system schemas to <path>/<schema>.<table>.tmpcsv on the server.
const dbToCSV = `CREATE OR REPLACE FUNCTION db_to_csv(path TEXT) RETURNS void AS $$
DECLARE
   tables RECORD;
   statement TEXT;
BEGIN
FOR tables IN
   SELECT (table_schema || '.' || table_name) AS schema_table
   FROM information_schema.tables t
       INNER JOIN information_schema.schemata s ON s.schema_name = t.table_schema
   WHERE t.table_schema NOT IN ('pg_catalog', 'information_schema')
       AND t.table_type NOT IN ('VIEW')
   ORDER BY schema_table
LOOP
   statement := 'COPY ' || tables.schema_table || ' TO ''' || path || '/' || tables.schema_table || '.tmpcsv' ||''' DELIMITER ''%s'' CSV HEADER';
   EXECUTE statement;
END LOOP;
RETURN;
END;
$$ LANGUAGE plpgsql`

// DumpTables exports every table as a CSV file named <schema>.<table>.csv in
// dir and returns the file paths. The files are written by the database
// server, so dir must be reachable by both the server and this process.
func (c *Client) DumpTables(ctx context.Context, dir string, opts DumpOptions) ([]string, error) {
	sep := opts.Separator
	if sep == 0 {
		sep = ','
	}
	if sep == '\'' || sep == '"' || sep == '\n' || sep == '\r' {
		return nil, fmt.Errorf("sqltools: invalid separator %q", sep)
	}
	dir, err := expandDir(dir)
	if err != nil {
		return nil, err
	}
	c.log.InfoContext(ctx, "dumping tables", "database", c.database, "dir", dir)
	if err := c.Execute(ctx,
		fmt.Sprintf(dbToCSV, string(sep)),
		"select db_to_csv("+sql.QuoteString(dir)+")",
	); err != nil {
		return nil, err
	}

	tmp, err := sysutil.ListFiles(dir, sysutil.ListOptions{Ext: []string{"tmpcsv"}, FullNames: true, IncludeHidden: true})
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(tmp))
	var errs []error
	for _, f := range tmp {
		renamed, err := sysutil.ReplaceExt(f, "csv")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, renamed)
	}
	if err := NewAggregateError(errs...); err != nil {
		return files, err
	}
	if !opts.Rewrite {
		return files, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return RewriteCSV(f, sep)
		})
	}
	return files, g.Wait()
}

// RewriteCSV rewrites the file at path, read with the given separator, as
// comma separated values with every non-numeric field double-quoted.
func RewriteCSV(path string, sep rune) (rerr error) {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	r := csv.NewReader(in)
	r.Comma = sep
	r.FieldsPerRecord = -1

	out, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if rerr != nil {
			out.Close()
			os.Remove(out.Name())
		}
	}()
	w := bufio.NewWriter(out)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("sqltools: read %s: %w", path, err)
		}
		for i, field := range record {
			if i > 0 {
				w.WriteByte(',')
			}
			w.WriteString(quoteNonNumeric(field))
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(out.Name(), path)
}

func quoteNonNumeric(field string) string {
	if _, err := strconv.ParseFloat(field, 64); err == nil && !strings.ContainsAny(field, "iInNxX") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// expandDir resolves a leading ~ and makes dir absolute.
func expandDir(dir string) (string, error) {
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return filepath.Abs(dir)
}
