// Package logging builds the slog loggers used by sqltools.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// Config contains logger configuration.
type Config struct {
	// Level sets the logging level (debug, info, warn, error).
	Level string
	// Format selects the output: text, json or console (human readable).
	Format string
	// Output sets the output writer (defaults to os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "text",
		Output: os.Stderr,
	}
}

// ParseLevel parses a level name. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("logging: unknown level %q", s)
}

// New creates a logger with the given configuration. Messages have their
// runs of whitespace collapsed so multi-line messages stay on one line.
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		h = slog.NewTextHandler(output, opts)
	case "json":
		h = slog.NewJSONHandler(output, opts)
	case "console":
		h = newConsoleHandler(output, level)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}
	return slog.New(&normalizeHandler{Handler: h}), nil
}

// NewWithComponent creates a logger with a component attribute.
func NewWithComponent(cfg Config, component string) (*slog.Logger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return l.With("component", component), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

var spaces = regexp.MustCompile(`\s+`)

// Normalize trims msg and collapses each run of whitespace to one space.
func Normalize(msg string) string {
	return spaces.ReplaceAllString(strings.TrimSpace(msg), " ")
}

type normalizeHandler struct {
	slog.Handler
}

func (h *normalizeHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Message = Normalize(r.Message)
	return h.Handler.Handle(ctx, r)
}

func (h *normalizeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &normalizeHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *normalizeHandler) WithGroup(name string) slog.Handler {
	return &normalizeHandler{Handler: h.Handler.WithGroup(name)}
}
