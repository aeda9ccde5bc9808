package sql

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"golang.org/x/text/cases"
)

// Kind identifies the variant held by a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindTime
)

var kindNames = [...]string{
	KindNull:  "null",
	KindBool:  "bool",
	KindInt:   "int",
	KindFloat: "float",
	KindText:  "text",
	KindTime:  "time",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a statement value. Builders render a Value by switching over its
// Kind; callers either construct one explicitly or classify an arbitrary Go
// value with ValueOf.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
}

// Null returns the NULL value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Text returns a string value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Time returns a date/time value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// AsBool returns the boolean payload.
func (v Value) AsBool() bool { return v.b }

// AsInt returns the integer payload.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the floating point payload.
func (v Value) AsFloat() float64 { return v.f }

// AsText returns the string payload.
func (v Value) AsText() string { return v.s }

// AsTime returns the time payload.
func (v Value) AsTime() time.Time { return v.t }

// TimeLayout is the layout used to render KindTime values.
const TimeLayout = "2006-01-02 15:04:05.999999-07:00"

// String returns the canonical, unquoted string form of v.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindText:
		return v.s
	case KindTime:
		return v.t.Format(TimeLayout)
	default:
		return "NULL"
	}
}

// IsNull reports whether v renders as SQL NULL: the Null kind, a NaN float,
// or a text matching the NullSentinel set.
func (v Value) IsNull() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindFloat:
		return math.IsNaN(v.f)
	case KindText:
		return IsNullSentinel(v.s)
	default:
		return false
	}
}

// nullSentinel holds the case-folded tokens that request a NULL literal.
var nullSentinel = map[string]struct{}{
	"nan":  {},
	"n/a":  {},
	"null": {},
	"none": {},
	"":     {},
}

// NullSentinel returns the tokens that render as NULL, regardless of case.
func NullSentinel() []string {
	return []string{"nan", "n/a", "null", "none", ""}
}

// IsNullSentinel reports whether s, case-folded, is a NULL token.
func IsNullSentinel(s string) bool {
	_, ok := nullSentinel[cases.Fold().String(s)]
	return ok
}

// widen converts f to the float64 closest to its shortest decimal form,
// so float32(0.1) becomes 0.1 and not 0.10000000149011612.
func widen(f float32) float64 {
	w, _ := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	return w
}

// ValueOf classifies a Go value. Values that already are a Value are
// returned as is, nil and nil pointers become Null, and types without a
// dedicated kind become Text through fmt.Sprint.
func ValueOf(x any) Value {
	switch x := x.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return Int(int64(x))
		}
		return Text(strconv.FormatUint(uint64(x), 10))
	case uint64:
		if x <= math.MaxInt64 {
			return Int(int64(x))
		}
		return Text(strconv.FormatUint(x, 10))
	case float32:
		return Float(widen(x))
	case float64:
		return Float(x)
	case string:
		return Text(x)
	case []byte:
		return Text(string(x))
	case time.Time:
		return Time(x)
	case fmt.Stringer:
		return Text(x.String())
	}
	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Null()
		}
		return ValueOf(rv.Elem().Interface())
	}
	return Text(fmt.Sprint(x))
}

// ValuesOf classifies every element of a slice or array. It reports false
// when x is not a sequence; []byte and string are treated as scalars.
func ValuesOf(x any) ([]Value, bool) {
	switch x := x.(type) {
	case []Value:
		return x, true
	case []any:
		vs := make([]Value, len(x))
		for i := range x {
			vs[i] = ValueOf(x[i])
		}
		return vs, true
	case []byte, string, nil:
		return nil, false
	}
	rv := reflect.ValueOf(x)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	vs := make([]Value, rv.Len())
	for i := range vs {
		vs[i] = ValueOf(rv.Index(i).Interface())
	}
	return vs, true
}
