// Package config loads the connection settings of sqltools.
//
// Settings are layered: defaults, then a YAML file, then the libpq
// environment variables (PGHOST, PGPORT, ...), then the first matching
// .pgpass entry for fields still unset. Host and port fall back to
// localhost:5432 last, so that they do not narrow the .pgpass lookup.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the connection and logging settings.
type Config struct {
	Host     string `yaml:"host" env:"PGHOST"`
	Port     int    `yaml:"port" env:"PGPORT"`
	Database string `yaml:"database" env:"PGDATABASE"`
	User     string `yaml:"user" env:"PGUSER"`
	Password string `yaml:"password" env:"PGPASSWORD"`
	SSLMode  string `yaml:"sslmode" env:"PGSSLMODE"`

	// Pgpass is the credentials file consulted for unset fields.
	Pgpass string `yaml:"pgpass" env:"PGPASSFILE"`

	// StatementLog, if set, receives every executed statement.
	StatementLog string `yaml:"statement_log" env:"SQLTOOLS_STATEMENT_LOG"`
	// SlowQuery is the threshold above which queries are logged as slow.
	SlowQuery time.Duration `yaml:"slow_query" env:"SQLTOOLS_SLOW_QUERY"`

	Log LogConfig `yaml:"log"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level" env:"SQLTOOLS_LOG_LEVEL"`
	Format string `yaml:"format" env:"SQLTOOLS_LOG_FORMAT"`
}

// Connection defaults applied by Resolve.
const (
	DefaultHost = "localhost"
	DefaultPort = 5432
)

// Default returns the built-in defaults. Host and port are left unset.
func Default() *Config {
	pgpass := ""
	if home, err := os.UserHomeDir(); err == nil {
		pgpass = filepath.Join(home, ".pgpass")
	}
	return &Config{
		SSLMode:   "disable",
		Pgpass:    pgpass,
		SlowQuery: 500 * time.Millisecond,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	//nolint:gosec // G304: path is supplied by the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads path, applies environment overrides and then the given
// overrides (command line flags), fills unset credentials from the .pgpass
// file and validates the result.
func Resolve(path string, overrides ...func(*Config)) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	if cfg.Pgpass != "" {
		entries, err := ReadPgpass(cfg.Pgpass)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			cfg.ApplyPgpass(entries)
		}
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigError describes an invalid or missing setting.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// IsConfigError reports whether err contains a ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// Validate checks that every setting needed to connect is present.
func (c *Config) Validate() error {
	var errs []error
	required := []struct {
		field, value string
	}{
		{"host", c.Host},
		{"database", c.Database},
		{"user", c.User},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, &ConfigError{Field: r.field, Message: "must be provided"})
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, &ConfigError{Field: "port", Message: fmt.Sprintf("invalid port %d", c.Port)})
	}
	switch c.SSLMode {
	case "", "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		errs = append(errs, &ConfigError{Field: "sslmode", Message: fmt.Sprintf("unknown mode %q", c.SSLMode)})
	}
	if c.SlowQuery < 0 {
		errs = append(errs, &ConfigError{Field: "slow_query", Message: "must not be negative"})
	}
	return errors.Join(errs...)
}

// DSN returns the lib/pq connection URL.
func (c *Config) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	switch {
	case c.User != "" && c.Password != "":
		u.User = url.UserPassword(c.User, c.Password)
	case c.User != "":
		u.User = url.User(c.User)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// Redacted returns the DSN with the password masked, for logging.
func (c *Config) Redacted() string {
	u, err := url.Parse(c.DSN())
	if err != nil {
		return ""
	}
	return u.Redacted()
}
