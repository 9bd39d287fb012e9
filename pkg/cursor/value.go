// Package cursor persists per-endpoint resume points between runs.
package cursor

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind says which form a cursor value takes.
type Kind int

const (
	KindNone Kind = iota
	KindID
	KindStamp
)

// Value is the last record ID or timestamp seen for an endpoint. The zero
// Value is "no cursor".
type Value struct {
	kind  Kind
	id    int64
	stamp string
}

// None returns the absent cursor.
func None() Value { return Value{} }

// ID returns an integer cursor.
func ID(n int64) Value { return Value{kind: KindID, id: n} }

// Stamp returns a timestamp cursor.
func Stamp(s string) Value { return Value{kind: KindStamp, stamp: s} }

// FromJSON converts a decoded JSON value to a cursor. Integral numbers become
// IDs, strings become stamps, anything else is absent.
func FromJSON(v interface{}) Value {
	switch x := v.(type) {
	case int64:
		return ID(x)
	case int:
		return ID(int64(x))
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return ID(int64(x))
		}
		return Stamp(strconv.FormatFloat(x, 'f', -1, 64))
	case string:
		return Stamp(x)
	default:
		return None()
	}
}


// IsZero reports whether v means "start from the beginning": absent, 0 or "".
func (v Value) IsZero() bool {
	switch v.kind {
	case KindID:
		return v.id == 0
	case KindStamp:
		return v.stamp == ""
	default:
		return true
	}
}

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.id == o.id && v.stamp == o.stamp
}

// Less orders two cursors of the same kind. Mixed kinds never compare less.
func (v Value) Less(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindID:
		return v.id < o.id
	case KindStamp:
		return v.stamp < o.stamp
	default:
		return false
	}
}

// Segment renders v as a URL path segment; an absent cursor is "0".
func (v Value) Segment() string {
	switch v.kind {
	case KindID:
		return strconv.FormatInt(v.id, 10)
	case KindStamp:
		if v.stamp != "" {
			return v.stamp
		}
	}
	return "0"
}

// Cell returns v as a spreadsheet cell value: int64, string or nil.
func (v Value) Cell() interface{} {
	switch v.kind {
	case KindID:
		return v.id
	case KindStamp:
		return v.stamp
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindID:
		return strconv.FormatInt(v.id, 10)
	case KindStamp:
		return strconv.Quote(v.stamp)
	default:
		return "null"
	}
}

// MarshalYAML writes IDs as integers, stamps as strings and absent as null.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.Cell(), nil
}

// UnmarshalYAML reads a scalar written by MarshalYAML.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: cursor must be a scalar", node.Line)
	}
	switch node.ShortTag() {
	case "!!null":
		*v = None()
	case "!!int":
		n, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("line %d: cursor %q: %w", node.Line, node.Value, err)
		}
		*v = ID(n)
	default:
		*v = Stamp(node.Value)
	}
	return nil
}

// Map holds one cursor per endpoint name.
type Map map[string]Value

// Clone returns an independent copy.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Get returns the cursor for name, absent if unknown.
func (m Map) Get(name string) Value {
	return m[name]
}
