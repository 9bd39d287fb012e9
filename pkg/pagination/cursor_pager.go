package pagination

import (
	"github.com/saturnines/repsly-export/pkg/cursor"
	"github.com/saturnines/repsly-export/pkg/record"
)

const metaKey = "MetaCollectionResult"

// CursorPager handles the vendor's last-ID and last-timestamp pagination:
// GET {path}/{cursor}, with the next cursor read from MetaCollectionResult.
type CursorPager struct {
	Path      string
	ResultKey string
	NextField string // preferred meta field, LastID or LastTimeStamp
	AltField  string // read when NextField is absent
	// ShortPageStops ends pagination after a page with fewer than PageSize
	// records.
	ShortPageStops bool

	current cursor.Value
	done    bool
}

// NewCursorPager builds a CursorPager resuming from start.
func NewCursorPager(path, resultKey, nextField, altField string, shortPageStops bool, start cursor.Value) *CursorPager {
	return &CursorPager{
		Path:           path,
		ResultKey:      resultKey,
		NextField:      nextField,
		AltField:       altField,
		ShortPageStops: shortPageStops,
		current:        start,
	}
}

// NextRequest returns the request for the current cursor, or nil when done.
func (p *CursorPager) NextRequest() (*Request, error) {
	if p.done {
		return nil, nil
	}
	return &Request{
		Segments:  []string{p.Path, p.current.Segment()},
		ResultKey: p.ResultKey,
		Collect:   true,
	}, nil
}

// UpdateState advances the cursor. Pagination stops when the page failed,
// the result key is missing, the meta cursor is absent, or the meta cursor
// repeats the current one.
func (p *CursorPager) UpdateState(page *Page) error {
	if page.Failed || !page.Found {
		p.done = true
		return nil
	}

	next := p.metaCursor(page.Body)
	if next.IsZero() || next.Equal(p.current) {
		p.done = true
		return nil
	}
	p.current = next

	if p.ShortPageStops && len(page.Items) < PageSize {
		p.done = true
	}
	return nil
}

func (p *CursorPager) metaCursor(body interface{}) cursor.Value {
	for _, field := range []string{p.NextField, p.AltField} {
		if field == "" {
			continue
		}
		v, ok := record.Lookup(body, metaKey, field)
		if ok && record.Truthy(v) {
			return cursor.FromJSON(v)
		}
	}
	return cursor.None()
}

// Cursor returns the last cursor the vendor reported.
func (p *CursorPager) Cursor() cursor.Value {
	return p.current
}
