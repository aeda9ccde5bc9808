package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// PgpassEntry is one line of a .pgpass file:
//
//	hostname:port:database:username:password
//
// Any of the first four fields may be "*".
type PgpassEntry struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// ReadPgpass parses the credentials file at path. Blank lines and lines
// starting with '#' are skipped; "\:" and "\\" escape a literal colon and
// backslash.
func ReadPgpass(path string) ([]PgpassEntry, error) {
	//nolint:gosec // G304: path is supplied by the operator.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pgpass: %w", err)
	}
	defer f.Close()

	var entries []PgpassEntry
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitPgpass(line)
		if len(fields) != 5 {
			return nil, &ConfigError{
				Field:   "pgpass",
				Message: fmt.Sprintf("%s:%d: expected hostname:port:database:username:password", path, n),
			}
		}
		entries = append(entries, PgpassEntry{
			Host:     fields[0],
			Port:     fields[1],
			Database: fields[2],
			User:     fields[3],
			Password: fields[4],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pgpass: %w", err)
	}
	return entries, nil
}

func splitPgpass(line string) []string {
	var (
		fields []string
		sb     strings.Builder
	)
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '\\' && i+1 < len(line):
			i++
			sb.WriteByte(line[i])
		case c == ':':
			fields = append(fields, sb.String())
			sb.Reset()
		default:
			sb.WriteByte(c)
		}
	}
	return append(fields, sb.String())
}

func matches(pattern, value string) bool {
	return pattern == "*" || value == "" || pattern == value
}

// Match reports whether e applies to the given connection settings. Empty
// settings match any entry value.
func (e PgpassEntry) Match(host string, port int, database, user string) bool {
	p := ""
	if port > 0 {
		p = strconv.Itoa(port)
	}
	return matches(e.Host, host) && matches(e.Port, p) && matches(e.Database, database) && matches(e.User, user)
}

// ApplyPgpass fills the unset fields of c from the first entry matching
// the settings c already has.
func (c *Config) ApplyPgpass(entries []PgpassEntry) {
	for _, e := range entries {
		if !e.Match(c.Host, c.Port, c.Database, c.User) {
			continue
		}
		fill := func(dst *string, v string) {
			if *dst == "" && v != "*" {
				*dst = v
			}
		}
		fill(&c.Host, e.Host)
		fill(&c.Database, e.Database)
		fill(&c.User, e.User)
		fill(&c.Password, e.Password)
		if c.Port == 0 {
			if p, err := strconv.Atoi(e.Port); err == nil {
				c.Port = p
			}
		}
		return
	}
}
