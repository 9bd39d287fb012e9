package pagination

import (
	"github.com/saturnines/repsly-export/pkg/cursor"
)

// PageSize is the number of records the vendor returns on a full page.
const PageSize = 50

const (
	// DateLayout formats the begin/end path segments of date-range endpoints.
	DateLayout = "2006-01-02"
	// ModifiedLayout formats the modified query parameter of skip endpoints.
	ModifiedLayout = "2006-01-02T15:04:05.000Z"
)

// Request describes the next page to fetch, relative to the export base URL.
type Request struct {
	Segments  []string          // path segments, joined with "/"
	Query     map[string]string // optional query parameters
	ResultKey string            // top-level key holding the records; "" for bare or flat bodies
	Collect   bool              // whether the page's records become rows
	ArrayOnly bool              // only a bare array body holds records
	Defaults  map[string]interface{}
}

// Items finds the records of a decoded body for this request. With
// ArrayOnly set anything but a bare array counts as not found.
func (r *Request) Items(body interface{}) ([]interface{}, bool) {
	if r.ArrayOnly {
		list, ok := body.([]interface{})
		return list, ok
	}
	return ExtractItems(body, r.ResultKey)
}

// Page is what came back for a Request.
type Page struct {
	Request *Request
	Body    interface{}   // decoded document
	Items   []interface{} // records found under ResultKey
	Found   bool          // ResultKey was present with a list
	Failed  bool          // transport error or non-200 status
}

// Pager drives one pagination strategy.
type Pager interface {
	// NextRequest returns nil when there are no more pages.
	NextRequest() (*Request, error)
	UpdateState(page *Page) error
	// Cursor is the value to persist once the pager is done.
	Cursor() cursor.Value
}
