// Package catalog lists the Repsly export endpoints and how each one pages.
package catalog

import (
	"github.com/saturnines/repsly-export/pkg/transform"
)

// Variant selects the pagination strategy of an endpoint.
type Variant int

const (
	// ByID pages with MetaCollectionResult.LastID in the path.
	ByID Variant = iota
	// ByTimestamp pages with MetaCollectionResult.LastTimeStamp in the path.
	ByTimestamp
	// ByDateRange walks a begin/end date window in the path.
	ByDateRange
	// BySkip pages with modified/skip query parameters.
	BySkip
	// ByParentFanout lists parents first, then fetches one child list per parent.
	ByParentFanout
	// None is a single unpaginated request.
	None
	// Status is a single request for one job's flat status object.
	Status
)

func (v Variant) String() string {
	switch v {
	case ByID:
		return "by_id"
	case ByTimestamp:
		return "by_timestamp"
	case ByDateRange:
		return "by_date_range"
	case BySkip:
		return "by_skip"
	case ByParentFanout:
		return "by_parent_fanout"
	case None:
		return "none"
	case Status:
		return "status"
	default:
		return "unknown"
	}
}

// HasCursor reports whether the variant persists a resume cursor.
func (v Variant) HasCursor() bool {
	return v == ByID || v == ByTimestamp
}

// FanoutSpec describes the parent listing of a ByParentFanout endpoint.
type FanoutSpec struct {
	ParentPath    string // listed once, e.g. "pricelists"
	ParentKey     string // result key of the parent listing
	ParentIDField string // field on each parent holding its ID
	ChildIDColumn string // column set to the parent ID on every child row
}

// Descriptor is the static description of one endpoint.
type Descriptor struct {
	Name      string   // unique key, also the cursor map key
	Key       string   // display key, sheet name and default result key
	Path      string   // path under the export base URL
	ResultKey string   // top-level key holding the record list; "" for bare or flat bodies
	Columns   []string // output columns in order
	Variant   Variant

	DateField  string      // ByDateRange: record field whose date narrows the window
	Fanout     *FanoutSpec // ByParentFanout only
	Formatters map[string]transform.Formatter
}

// FileName is the per-endpoint spreadsheet written before combining.
func (d Descriptor) FileName() string {
	return "Repsly_" + d.Key + "_Export.xlsx"
}
