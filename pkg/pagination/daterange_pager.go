package pagination

import (
	"time"

	"github.com/saturnines/repsly-export/pkg/cursor"
	"github.com/saturnines/repsly-export/pkg/record"
)

// DateRangePager walks GET {path}/{begin}/{end}. After a full page the window
// restarts at the date of the last record seen.
type DateRangePager struct {
	Path      string
	ResultKey string
	DateField string

	begin string
	end   string
	done  bool
}

// NewDateRangePager covers the last windowDays days up to now, in UTC.
func NewDateRangePager(path, resultKey, dateField string, now time.Time, windowDays int) *DateRangePager {
	now = now.UTC()
	return &DateRangePager{
		Path:      path,
		ResultKey: resultKey,
		DateField: dateField,
		begin:     now.AddDate(0, 0, -windowDays).Format(DateLayout),
		end:       now.Format(DateLayout),
	}
}

// NextRequest returns the request for the current window, or nil when done.
func (p *DateRangePager) NextRequest() (*Request, error) {
	if p.done {
		return nil, nil
	}
	return &Request{
		Segments:  []string{p.Path, p.begin, p.end},
		ResultKey: p.ResultKey,
		Collect:   true,
	}, nil
}

// UpdateState stops on a failed, missing or short page, and when the last
// record would not move the window forward.
func (p *DateRangePager) UpdateState(page *Page) error {
	if page.Failed || !page.Found || len(page.Items) < PageSize {
		p.done = true
		return nil
	}

	last := page.Items[len(page.Items)-1]
	v, ok := record.Lookup(last, p.DateField)
	s, isString := v.(string)
	if !ok || !isString || len(s) < len(DateLayout) {
		p.done = true
		return nil
	}
	next := s[:len(DateLayout)]
	if next == p.begin {
		p.done = true
		return nil
	}
	p.begin = next
	return nil
}

// Cursor is always absent; the window is recomputed every run.
func (p *DateRangePager) Cursor() cursor.Value {
	return cursor.None()
}
