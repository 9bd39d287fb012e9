package pagination

import (
	"github.com/saturnines/repsly-export/pkg/cursor"
	"github.com/saturnines/repsly-export/pkg/record"
	"github.com/saturnines/repsly-export/pkg/transform"
)

// FanoutPager lists parents once, then requests GET {childPath}/{id} for each
// parent. Child pages are bare arrays, any other body is skipped; each child
// record gets the parent ID.
type FanoutPager struct {
	ParentPath    string
	ParentKey     string
	ParentIDField string
	ChildPath     string
	ChildIDColumn string

	listed  bool
	pending []interface{}
}

// NewFanoutPager builds a FanoutPager.
func NewFanoutPager(parentPath, parentKey, parentIDField, childPath, childIDColumn string) *FanoutPager {
	return &FanoutPager{
		ParentPath:    parentPath,
		ParentKey:     parentKey,
		ParentIDField: parentIDField,
		ChildPath:     childPath,
		ChildIDColumn: childIDColumn,
	}
}

// NextRequest returns the parent listing first, then one request per parent.
func (p *FanoutPager) NextRequest() (*Request, error) {
	if !p.listed {
		return &Request{
			Segments:  []string{p.ParentPath},
			ResultKey: p.ParentKey,
		}, nil
	}
	if len(p.pending) == 0 {
		return nil, nil
	}

	id := p.pending[0]
	p.pending = p.pending[1:]

	req := &Request{
		Segments:  []string{p.ChildPath, transform.Stringify(id)},
		Collect:   true,
		ArrayOnly: true,
	}
	if p.ChildIDColumn != "" {
		req.Defaults = map[string]interface{}{p.ChildIDColumn: id}
	}
	return req, nil
}

// UpdateState collects parent IDs from the listing. A failed or empty child
// page only skips that parent.
func (p *FanoutPager) UpdateState(page *Page) error {
	if p.listed {
		return nil
	}
	p.listed = true
	if page.Failed || !page.Found {
		return nil
	}
	for _, item := range page.Items {
		id, ok := record.Lookup(item, p.ParentIDField)
		if ok && record.Truthy(id) {
			p.pending = append(p.pending, id)
		}
	}
	return nil
}

// Pending returns how many parents are still to be fetched.
func (p *FanoutPager) Pending() int {
	return len(p.pending)
}

// Cursor is always absent.
func (p *FanoutPager) Cursor() cursor.Value {
	return cursor.None()
}
