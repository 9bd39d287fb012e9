package pagination

import (
	"github.com/saturnines/repsly-export/pkg/record"
)

// ExtractItems finds the records of a decoded page. With a result key the
// body must be an object holding a list under that key. Without one, a bare
// array is the record list and a flat object is a single record. found is
// false when the expected shape is missing.
func ExtractItems(body interface{}, resultKey string) (items []interface{}, found bool) {
	if resultKey == "" {
		switch b := body.(type) {
		case []interface{}:
			return b, true
		case *record.Object:
			return []interface{}{b}, true
		default:
			return nil, false
		}
	}

	obj, ok := body.(*record.Object)
	if !ok {
		return nil, false
	}
	v, ok := obj.Get(resultKey)
	if !ok {
		return nil, false
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	return list, true
}
