package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "info", Format: "text", Output: &buf})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info(`
		Retrieved   information_schema.columns
	`, "rows", 3)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `msg="Retrieved information_schema.columns"`)
	assert.Contains(t, out, "rows=3")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithComponent(Config{Level: "debug", Format: "json", Output: &buf}, "checker")
	require.NoError(t, err)
	log.Debug("a\n b")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "a b", rec["msg"])
	assert.Equal(t, "checker", rec["component"])
	assert.Equal(t, "DEBUG", rec["level"])
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "warn", Format: "console", Output: &buf})
	require.NoError(t, err)

	log.Info("skipped")
	log.With("table", "public.users").WithGroup("stmt").Warn("slow  query", "ms", 250)
	out := buf.String()
	assert.NotContains(t, out, "skipped")
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "slow query")
	assert.Contains(t, out, "table=public.users")
	assert.Contains(t, out, "stmt.ms=250")
}

func TestNewErrors(t *testing.T) {
	_, err := New(Config{Format: "xml"})
	require.Error(t, err)
	_, err = New(Config{Level: "loud"})
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a\n\tb   c "))
	assert.Equal(t, "", Normalize(" \n "))
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(t.Context(), slog.LevelError))
}
