package pagination

import (
	"strconv"
	"time"

	"github.com/saturnines/repsly-export/pkg/cursor"
)

// OffsetPager handles skip based pagination:
// GET {path}?modified=<window start>&skip=<n>, skip growing by PageSize.
type OffsetPager struct {
	Path      string
	ResultKey string

	modified string
	skip     int
	done     bool
}

// NewOffsetPager fixes the modified filter at now minus windowDays.
func NewOffsetPager(path, resultKey string, now time.Time, windowDays int) *OffsetPager {
	return &OffsetPager{
		Path:      path,
		ResultKey: resultKey,
		modified:  now.UTC().AddDate(0, 0, -windowDays).Format(ModifiedLayout),
	}
}

// NextRequest returns the request for the current offset, or nil when done.
func (p *OffsetPager) NextRequest() (*Request, error) {
	if p.done {
		return nil, nil
	}
	return &Request{
		Segments: []string{p.Path},
		Query: map[string]string{
			"modified": p.modified,
			"skip":     strconv.Itoa(p.skip),
		},
		ResultKey: p.ResultKey,
		Collect:   true,
	}, nil
}

// UpdateState moves to the next offset after a full page.
func (p *OffsetPager) UpdateState(page *Page) error {
	if page.Failed || !page.Found || len(page.Items) < PageSize {
		p.done = true
		return nil
	}
	p.skip += PageSize
	return nil
}

// Cursor is always absent.
func (p *OffsetPager) Cursor() cursor.Value {
	return cursor.None()
}
