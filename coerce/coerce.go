// Package coerce converts loosely typed input values, typically strings
// read from a command line or a CSV file, into booleans, numbers, dates and
// paths.
//
// Three entry points share one set of rules:
//
//	coerce.Check(v, coerce.Int)     // Result with the coerced value or the failure
//	coerce.Coerce(v, coerce.Int)    // coerced value, error on failure
//	coerce.Is(v, coerce.Int)        // false on failure, error only in Strict mode
package coerce

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Type is a coercion target.
type Type string

// Target types.
const (
	Bool       Type = "bool"
	String     Type = "string"
	Int        Type = "int"
	Float      Type = "float"
	Date       Type = "date"
	Datetime   Type = "datetime"
	Path       Type = "path"
	PathExists Type = "path-exists"
)

// Types lists every valid target type.
func Types() []Type {
	return []Type{Bool, String, Int, Float, Date, Datetime, Path, PathExists}
}

// ErrInvalidType is returned for an unknown target type name.
var ErrInvalidType = errors.New("coerce: invalid target type")

var aliases = map[string]Type{
	"str":         String,
	"integer":     Int,
	"path exists": PathExists,
	"path_exists": PathExists,
}

// ParseType parses a target type name. It accepts the Type constants and
// the aliases "str", "integer" and "path exists".
func ParseType(name string) (Type, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if t, ok := aliases[n]; ok {
		return t, nil
	}
	for _, t := range Types() {
		if string(t) == n {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w %q: must be one of %v", ErrInvalidType, name, Types())
}

func (t Type) valid() bool {
	for _, v := range Types() {
		if v == t {
			return true
		}
	}
	return false
}

// CoercionError is returned when a value cannot be coerced to a type.
type CoercionError struct {
	Value any
	Type  Type
}

// Error implements the error interface.
func (e *CoercionError) Error() string {
	return fmt.Sprintf("coerce: unable to coerce value '%v' (type: %T) to %s", e.Value, e.Value, e.Type)
}

// IsCoercionError reports whether err is a CoercionError.
func IsCoercionError(err error) bool {
	var e *CoercionError
	return errors.As(err, &e)
}

// Result is the outcome of Check.
type Result struct {
	// Value holds the coerced value when Err is nil: bool, string, int64,
	// float64, time.Time or, for the path types, the path string.
	Value any
	Err   error
}

// OK reports whether the coercion succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Check coerces v to t. An invalid t yields an error wrapping
// ErrInvalidType; any other failure carries a *CoercionError.
func Check(v any, t Type) Result {
	if !t.valid() {
		return Result{Err: fmt.Errorf("%w %q", ErrInvalidType, t)}
	}
	if v == nil {
		return Result{Err: &CoercionError{Value: v, Type: t}}
	}
	out, ok := coerce(v, t)
	if !ok {
		return Result{Err: &CoercionError{Value: v, Type: t}}
	}
	return Result{Value: out}
}

// Coerce returns v converted to t.
func Coerce(v any, t Type) (any, error) {
	r := Check(v, t)
	return r.Value, r.Err
}

// Option configures Is.
type Option func(*options)

type options struct {
	strict bool
	log    *slog.Logger
}

// Strict makes Is return coercion failures as errors.
func Strict() Option {
	return func(o *options) { o.strict = true }
}

// WithLogger sets the logger Is reports failures to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Is reports whether v can be coerced to t. A failed coercion is logged at
// debug level and reported as false, unless Strict is given. An invalid t
// is always an error.
func Is(v any, t Type, opts ...Option) (bool, error) {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	r := Check(v, t)
	switch {
	case r.OK():
		return true, nil
	case errors.Is(r.Err, ErrInvalidType), o.strict:
		return false, r.Err
	}
	o.log.Debug(r.Err.Error())
	return false, nil
}

func coerce(v any, t Type) (any, bool) {
	switch t {
	case Bool:
		return toBool(v)
	case String:
		return toString(v), true
	case Int:
		return toInt(v)
	case Float:
		return toFloat(v)
	case Date:
		return toDate(v)
	case Datetime:
		return toDatetime(v)
	case Path:
		return toPath(v)
	case PathExists:
		return toExistingPath(v)
	}
	return nil, false
}

func toString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}

func toBool(v any) (any, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	switch strings.ToLower(toString(v)) {
	case "true", "t", "yes", "y":
		return true, true
	case "false", "f", "no", "n":
		return false, true
	}
	return nil, false
}

func toInt(v any) (any, bool) {
	switch v := v.(type) {
	case bool:
		return nil, false
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, false
		}
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return nil, false
		}
		return int64(v), true
	case float32:
		return truncate(float64(v))
	case float64:
		return truncate(v)
	}
	i, err := strconv.ParseInt(strings.TrimSpace(toString(v)), 10, 64)
	if err != nil {
		return nil, false
	}
	return i, true
}

// truncate drops the fraction of a finite float that fits in an int64.
func truncate(f float64) (any, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, false
	}
	return int64(f), true
}

func toFloat(v any) (any, bool) {
	switch v := v.(type) {
	case bool:
		return nil, false
	case float32:
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
		return f, true
	case float64:
		return v, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, _ := strconv.ParseFloat(fmt.Sprint(v), 64)
		return i, true
	}
	s := strings.TrimSpace(toString(v))
	if !strings.Contains(s, ".") {
		return nil, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

const sep = `[./\-_:]`

var (
	dateRe       = regexp.MustCompile(`^(\d{4})` + sep + `(\d{2})` + sep + `(\d{2})$`)
	datetimeRe   = regexp.MustCompile(`^(\d{4})` + sep + `(\d{2})` + sep + `(\d{2}) (\d{2})` + sep + `(\d{2})` + sep + `(\d{2})`)
	zoneSuffixRe = regexp.MustCompile(`^([-+])(\d{1,2}):(\d{1,2})$`)
	fracSuffixRe = regexp.MustCompile(`^\.(\d+)$`)
)

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// civil builds a time and rejects components time.Date would normalize,
// such as February 30th or hour 25.
func civil(y, mo, d, h, mi, s, ns int, loc *time.Location) (time.Time, bool) {
	t := time.Date(y, time.Month(mo), d, h, mi, s, ns, loc)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d || t.Hour() != h || t.Minute() != mi || t.Second() != s {
		return time.Time{}, false
	}
	return t, true
}

func toDate(v any) (any, bool) {
	if t, ok := v.(time.Time); ok {
		return t, true
	}
	m := dateRe.FindStringSubmatch(strings.TrimSpace(toString(v)))
	if m == nil {
		return nil, false
	}
	t, ok := civil(atoi(m[1]), atoi(m[2]), atoi(m[3]), 0, 0, 0, 0, time.UTC)
	if !ok {
		return nil, false
	}
	return t, true
}

// toDatetime accepts "date HH:MM:SS" optionally followed by a "±H:MM" zone
// offset or by fractional seconds. The first form that matches wins.
func toDatetime(v any) (any, bool) {
	if t, ok := v.(time.Time); ok {
		return t, true
	}
	s := strings.TrimSpace(toString(v))
	m := datetimeRe.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	y, mo, d := atoi(m[1]), atoi(m[2]), atoi(m[3])
	h, mi, sec := atoi(m[4]), atoi(m[5]), atoi(m[6])
	rest := s[len(m[0]):]

	loc, ns := time.UTC, 0
	switch {
	case rest == "":
	case zoneSuffixRe.MatchString(rest):
		z := zoneSuffixRe.FindStringSubmatch(rest)
		offset := atoi(z[2])*3600 + atoi(z[3])*60
		if z[1] == "-" {
			offset = -offset
		}
		loc = time.FixedZone("", offset)
	case fracSuffixRe.MatchString(rest):
		frac := fracSuffixRe.FindStringSubmatch(rest)[1]
		// Digits beyond nanosecond precision are dropped.
		if len(frac) > 9 {
			frac = frac[:9]
		}
		ns = atoi(frac + strings.Repeat("0", 9-len(frac)))
	default:
		return nil, false
	}
	t, ok := civil(y, mo, d, h, mi, sec, ns, loc)
	if !ok {
		return nil, false
	}
	return t, true
}

func toPath(v any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	if s == "." || strings.ContainsRune(s, '/') || strings.ContainsRune(s, filepath.Separator) {
		return s, true
	}
	return nil, false
}

func toExistingPath(v any) (any, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil, false
	}
	if _, err := os.Stat(s); err != nil {
		return nil, false
	}
	return s, true
}
