package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
)

// Decode parses a JSON document. Objects become *Object so the order of
// their entries survives; integral numbers become int64, the rest float64.
func Decode(data []byte) (interface{}, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty JSON document")
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON document %q", truncate(data, 40))
	}
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return convert(value, dataType)
}

func convert(value []byte, dataType jsonparser.ValueType) (interface{}, error) {
	switch dataType {
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)
	case jsonparser.Number:
		return parseNumber(value)
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Array:
		return convertArray(value)
	case jsonparser.Object:
		return convertObject(value)
	default:
		return nil, fmt.Errorf("unexpected JSON value %q", truncate(value, 40))
	}
}

func convertArray(value []byte) ([]interface{}, error) {
	items := make([]interface{}, 0)
	var inner error
	_, err := jsonparser.ArrayEach(value, func(v []byte, dt jsonparser.ValueType, _ int, cbErr error) {
		if inner != nil {
			return
		}
		if cbErr != nil {
			inner = cbErr
			return
		}
		item, err := convert(v, dt)
		if err != nil {
			inner = err
			return
		}
		items = append(items, item)
	})
	if inner != nil {
		return nil, inner
	}
	if err != nil {
		return nil, fmt.Errorf("parse array: %w", err)
	}
	return items, nil
}

func convertObject(value []byte) (*Object, error) {
	obj := NewObject()
	err := jsonparser.ObjectEach(value, func(k, v []byte, dt jsonparser.ValueType, _ int) error {
		key, err := jsonparser.ParseString(k)
		if err != nil {
			return fmt.Errorf("parse key: %w", err)
		}
		item, err := convert(v, dt)
		if err != nil {
			return err
		}
		obj.Set(key, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse object: %w", err)
	}
	return obj, nil
}

func parseNumber(value []byte) (interface{}, error) {
	s := string(value)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("parse number %q: %w", s, err)
	}
	return f, nil
}

// Shape summarises a decoded document for debug logs: top-level keys with the
// length of list values and the size of object values.
func Shape(v interface{}) map[string]interface{} {
	shape := make(map[string]interface{})
	switch x := v.(type) {
	case *Object:
		x.Each(func(k string, item interface{}) {
			switch it := item.(type) {
			case []interface{}:
				shape[k] = fmt.Sprintf("list(%d)", len(it))
			case *Object:
				shape[k] = fmt.Sprintf("object(%d)", it.Len())
			default:
				shape[k] = fmt.Sprintf("%T", item)
			}
		})
	case []interface{}:
		shape["<root>"] = fmt.Sprintf("list(%d)", len(x))
	default:
		shape["<root>"] = fmt.Sprintf("%T", v)
	}
	return shape
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
