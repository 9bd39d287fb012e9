// Package record holds decoded vendor JSON with object entries kept in
// document order. Values are nil, bool, string, int64, float64, []interface{}
// or *Object.
package record

// Object is a JSON object that remembers the order its keys arrived in.
type Object struct {
	keys   []string
	values map[string]interface{}
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]interface{})}
}

// Set stores v under key. A new key is appended to the key order; an existing
// key keeps its position.
func (o *Object) Set(key string, v interface{}) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value under key and whether the key was present.
func (o *Object) Get(key string) (interface{}, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present, even with a null value.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of entries.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Each calls fn for every entry in insertion order.
func (o *Object) Each(fn func(key string, v interface{})) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		fn(k, o.values[k])
	}
}

// Lookup walks nested objects by key and returns the value at the end of the
// path.
func Lookup(v interface{}, path ...string) (interface{}, bool) {
	cur := v
	for _, key := range path {
		obj, ok := cur.(*Object)
		if !ok {
			return nil, false
		}
		cur, ok = obj.Get(key)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Truthy mirrors the loose truthiness the vendor cursors rely on: null, false,
// zero and the empty string are all "no value".
func Truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int64:
		return x != 0
	case float64:
		return x != 0
	case []interface{}:
		return len(x) > 0
	case *Object:
		return x.Len() > 0
	default:
		return true
	}
}
