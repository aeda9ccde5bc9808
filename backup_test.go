package sqltools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqltools/internal/sysutil"
)

// fakePgDump installs an executable pg_dump script in a fresh directory
// placed first on PATH.
func fakePgDump(t *testing.T, script string) string {
	t.Helper()
	if _, err := sysutil.FindBinary("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pg_dump"), []byte("#!/bin/sh\n"+script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return dir
}

func TestDump(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		fakePgDump(t, `
while [ $# -gt 0 ]; do
  case "$1" in
    --file) shift; out="$1" ;;
    --username) shift; user="$1" ;;
    *) db="$1" ;;
  esac
  shift
done
echo "-- dump of $db by $user" > "$out"
`)
		client, _ := mockClient(t)
		dir := t.TempDir()
		path, err := client.Dump(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "analytics.sql"), path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "-- dump of analytics by report\n", string(data))
	})

	t.Run("fatal", func(t *testing.T) {
		fakePgDump(t, `echo 'pg_dump: error: connection failed: FATAL:  role "report" does not exist'`)
		client, _ := mockClient(t)
		_, err := client.Dump(ctx, t.TempDir())
		require.ErrorContains(t, err, `FATAL:  role "report" does not exist`)
	})

	t.Run("exit_status", func(t *testing.T) {
		fakePgDump(t, "exit 1\n")
		client, _ := mockClient(t)
		_, err := client.Dump(ctx, t.TempDir())
		require.ErrorContains(t, err, "status 1")
	})

	t.Run("no_database", func(t *testing.T) {
		client, _ := mockClient(t, WithDatabase("", ""))
		_, err := client.Dump(ctx, t.TempDir())
		require.ErrorIs(t, err, ErrNoDatabase)
	})

	t.Run("no_binary", func(t *testing.T) {
		client, _ := mockClient(t)
		t.Setenv("PATH", t.TempDir())
		saved := sysutil.DefaultBinDirs
		sysutil.DefaultBinDirs = nil
		t.Cleanup(func() { sysutil.DefaultBinDirs = saved })
		_, err := client.Dump(ctx, t.TempDir())
		require.ErrorIs(t, err, sysutil.ErrBinaryNotFound)
	})
}

func TestDumpTables(t *testing.T) {
	ctx := context.Background()

	expectExport := func(mock sqlmock.Sqlmock, dir, sep string) {
		expectStatements(mock, fmt.Sprintf(dbToCSV, sep), "select db_to_csv('"+dir+"')")
	}

	t.Run("rename", func(t *testing.T) {
		client, mock := mockClient(t)
		dir := t.TempDir()
		// The server writes these while db_to_csv runs.
		require.NoError(t, os.WriteFile(filepath.Join(dir, "public.users.tmpcsv"), []byte("id,name\n1,ada\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "audit.log.tmpcsv"), []byte("id\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
		expectExport(mock, dir, ",")

		files, err := client.DumpTables(ctx, dir, DumpOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "audit.log.csv"), filepath.Join(dir, "public.users.csv")}, files)
		assert.NoFileExists(t, filepath.Join(dir, "public.users.tmpcsv"))
		data, err := os.ReadFile(filepath.Join(dir, "public.users.csv"))
		require.NoError(t, err)
		assert.Equal(t, "id,name\n1,ada\n", string(data))
	})

	t.Run("rewrite", func(t *testing.T) {
		client, mock := mockClient(t)
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "public.users.tmpcsv"),
			[]byte("id|name|score\n1|ada|9.5\n2|\"o\"\"x\"|\n"), 0o644))
		expectExport(mock, dir, "|")

		files, err := client.DumpTables(ctx, dir, DumpOptions{Separator: '|', Rewrite: true, Workers: 2})
		require.NoError(t, err)
		require.Len(t, files, 1)
		data, err := os.ReadFile(files[0])
		require.NoError(t, err)
		assert.Equal(t, "\"id\",\"name\",\"score\"\n1,\"ada\",9.5\n2,\"o\"\"x\",\"\"\n", string(data))
	})

	t.Run("invalid_separator", func(t *testing.T) {
		client, _ := mockClient(t)
		_, err := client.DumpTables(ctx, t.TempDir(), DumpOptions{Separator: '\''})
		require.ErrorContains(t, err, "invalid separator")
	})

	t.Run("export_failure", func(t *testing.T) {
		client, mock := mockClient(t)
		dir := t.TempDir()
		mock.ExpectBegin()
		mock.ExpectExec(escape(fmt.Sprintf(dbToCSV, ","))).WillReturnError(fmt.Errorf("permission denied for language plpgsql"))
		mock.ExpectRollback()
		_, err := client.DumpTables(ctx, dir, DumpOptions{})
		require.ErrorContains(t, err, "permission denied")
	})
}

func TestQuoteNonNumeric(t *testing.T) {
	tests := map[string]string{
		"42":       "42",
		"-1.5e3":   "-1.5e3",
		"":         `""`,
		"NaN":      `"NaN"`,
		"Infinity": `"Infinity"`,
		"0x1F":     `"0x1F"`,
		`say "hi"`: `"say ""hi"""`,
	}
	for in, want := range tests {
		assert.Equal(t, want, quoteNonNumeric(in), in)
	}
}
