package schema

import (
	"strings"
)

// Bucket is a coarse class of SQL datatypes sharing one compatibility rule.
type Bucket string

// Known buckets.
const (
	BucketInt    Bucket = "int"
	BucketFloat  Bucket = "float"
	BucketString Bucket = "str"
	BucketBool   Bucket = "bool"
	// BucketAny accepts every value.
	BucketAny Bucket = "any"
)

// TypeMapEntry maps a datatype key to its bucket.
type TypeMapEntry struct {
	Key    string
	Bucket Bucket
}

// TypeMap resolves reported column datatypes to buckets. It is immutable
// once built and safe for concurrent use.
type TypeMap struct {
	entries []TypeMapEntry
}

// NewTypeMap builds a TypeMap from entries. Keys are matched case
// insensitively; on equal-length matches the earlier entry wins.
func NewTypeMap(entries ...TypeMapEntry) *TypeMap {
	m := &TypeMap{entries: make([]TypeMapEntry, len(entries))}
	for i, e := range entries {
		m.entries[i] = TypeMapEntry{Key: strings.ToLower(e.Key), Bucket: e.Bucket}
	}
	return m
}

// DefaultTypeMap covers the datatypes PostgreSQL reports in
// information_schema.columns.data_type for ordinary columns.
var DefaultTypeMap = NewTypeMap(
	TypeMapEntry{"bigint", BucketInt},
	TypeMapEntry{"int8", BucketInt},
	TypeMapEntry{"bigserial", BucketInt},
	TypeMapEntry{"serial8", BucketInt},
	TypeMapEntry{"serial", BucketInt},
	TypeMapEntry{"integer", BucketInt},
	TypeMapEntry{"int", BucketInt},
	TypeMapEntry{"int4", BucketInt},
	TypeMapEntry{"smallint", BucketInt},
	TypeMapEntry{"int2", BucketInt},
	TypeMapEntry{"oid", BucketInt},
	TypeMapEntry{"double precision", BucketFloat},
	TypeMapEntry{"real", BucketFloat},
	TypeMapEntry{"float", BucketFloat},
	TypeMapEntry{"float4", BucketFloat},
	TypeMapEntry{"float8", BucketFloat},
	TypeMapEntry{"numeric", BucketFloat},
	TypeMapEntry{"decimal", BucketFloat},
	TypeMapEntry{"money", BucketString},
	TypeMapEntry{"character", BucketString},
	TypeMapEntry{"char", BucketString},
	TypeMapEntry{"character varying", BucketString},
	TypeMapEntry{"varchar", BucketString},
	TypeMapEntry{"text", BucketString},
	TypeMapEntry{"citext", BucketString},
	TypeMapEntry{"name", BucketString},
	TypeMapEntry{"date", BucketString},
	TypeMapEntry{"time", BucketString},
	TypeMapEntry{"timestamp", BucketString},
	TypeMapEntry{"timestamp with time zone", BucketString},
	TypeMapEntry{"timestamp without time zone", BucketString},
	TypeMapEntry{"interval", BucketString},
	TypeMapEntry{"inet", BucketString},
	TypeMapEntry{"cidr", BucketString},
	TypeMapEntry{"macaddr", BucketString},
	TypeMapEntry{"point", BucketString},
	TypeMapEntry{"boolean", BucketBool},
	TypeMapEntry{"bool", BucketBool},
	TypeMapEntry{"uuid", BucketAny},
	TypeMapEntry{"json", BucketAny},
	TypeMapEntry{"jsonb", BucketAny},
	TypeMapEntry{"bytea", BucketAny},
	TypeMapEntry{"xml", BucketAny},
	TypeMapEntry{"array", BucketAny},
	TypeMapEntry{"user-defined", BucketAny},
)

// Entries returns a copy of the entries in declaration order.
func (m *TypeMap) Entries() []TypeMapEntry {
	return append([]TypeMapEntry(nil), m.entries...)
}

// Buckets returns the distinct buckets of m in first-seen order.
func (m *TypeMap) Buckets() []Bucket {
	var (
		out  []Bucket
		seen = make(map[Bucket]bool)
	)
	for _, e := range m.entries {
		if !seen[e.Bucket] {
			seen[e.Bucket] = true
			out = append(out, e.Bucket)
		}
	}
	return out
}

// Resolve returns the bucket of a reported datatype. An exact key match
// wins; otherwise the longest key contained in the datatype is used, so
// "character varying(255)" resolves through "character varying" and
// "interval" is not mistaken for "int".
func (m *TypeMap) Resolve(dataType string) (Bucket, bool) {
	dt := strings.ToLower(strings.TrimSpace(dataType))
	if dt == "" {
		return "", false
	}
	var best *TypeMapEntry
	for i := range m.entries {
		e := &m.entries[i]
		if e.Key == dt {
			return e.Bucket, true
		}
		if strings.Contains(dt, e.Key) && (best == nil || len(e.Key) > len(best.Key)) {
			best = e
		}
	}
	if best == nil {
		return "", false
	}
	return best.Bucket, true
}
