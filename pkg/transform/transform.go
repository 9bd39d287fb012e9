// pkg/transform/transform.go
package transform

import (
	"strconv"
	"strings"

	"github.com/saturnines/repsly-export/pkg/record"
	"github.com/saturnines/repsly-export/pkg/sheet"
)

// ListSeparator joins list elements and object entries in a flattened cell.
const ListSeparator = ", "

// Formatter renders one column's raw value into a cell. present is false when
// the record has no such key.
type Formatter func(value interface{}, present bool) interface{}

// Project maps a record onto a fixed column list. The row always has exactly
// len(columns) cells; a missing key becomes nil. Formatters override the
// default flattening for the columns they name.
func Project(obj *record.Object, columns []string, formatters map[string]Formatter) sheet.Row {
	row := make(sheet.Row, len(columns))
	for i, col := range columns {
		v, ok := obj.Get(col)
		if f, has := formatters[col]; has && f != nil {
			row[i] = f(v, ok)
			continue
		}
		if !ok {
			continue
		}
		row[i] = Flatten(v)
	}
	return row
}

// Flatten turns a nested value into a single cell. Lists become their
// elements joined by ", ", objects become "key:value" pairs in insertion
// order joined by ", ", and scalars pass through.
func Flatten(v interface{}) interface{} {
	switch x := v.(type) {
	case []interface{}:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ListSeparator)
	case *record.Object:
		return joinEntries(x)
	default:
		return v
	}
}

// Stringify renders any decoded value as text.
func Stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []interface{}:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = Stringify(item)
		}
		return "[" + strings.Join(parts, ListSeparator) + "]"
	case *record.Object:
		return "{" + joinEntries(x) + "}"
	default:
		return ""
	}
}

func joinEntries(obj *record.Object) string {
	parts := make([]string, 0, obj.Len())
	obj.Each(func(k string, item interface{}) {
		parts = append(parts, k+":"+Stringify(item))
	})
	return strings.Join(parts, ListSeparator)
}

// JoinItems renders a list of objects as "f1:f2:..." per item, items joined
// by sep. It is used for the import status warning and error lists. A
// missing or null list renders as an empty string.
func JoinItems(sep string, fields ...string) Formatter {
	return func(v interface{}, present bool) interface{} {
		if !present || v == nil {
			return ""
		}
		list, ok := v.([]interface{})
		if !ok {
			return Flatten(v)
		}
		items := make([]string, 0, len(list))
		for _, item := range list {
			obj, ok := item.(*record.Object)
			if !ok {
				items = append(items, Stringify(item))
				continue
			}
			vals := make([]string, len(fields))
			for i, f := range fields {
				fv, has := obj.Get(f)
				if !has {
					continue
				}
				vals[i] = Stringify(fv)
			}
			items = append(items, strings.Join(vals, ":"))
		}
		return strings.Join(items, sep)
	}
}
