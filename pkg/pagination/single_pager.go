package pagination

import (
	"github.com/saturnines/repsly-export/pkg/cursor"
)

// SinglePager issues exactly one request.
type SinglePager struct {
	req  *Request
	sent bool
}

// NewSinglePager requests GET {segments...} once.
func NewSinglePager(resultKey string, segments ...string) *SinglePager {
	return &SinglePager{req: &Request{
		Segments:  segments,
		ResultKey: resultKey,
		Collect:   true,
	}}
}

// NextRequest returns the request the first time, then nil.
func (p *SinglePager) NextRequest() (*Request, error) {
	if p.sent {
		return nil, nil
	}
	p.sent = true
	return p.req, nil
}

// UpdateState has nothing to track.
func (p *SinglePager) UpdateState(*Page) error {
	return nil
}

// Cursor is always absent.
func (p *SinglePager) Cursor() cursor.Value {
	return cursor.None()
}
