package core

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/saturnines/repsly-export/pkg/catalog"
	"github.com/saturnines/repsly-export/pkg/cursor"
	"github.com/saturnines/repsly-export/pkg/errors"
	"github.com/saturnines/repsly-export/pkg/logging"
	"github.com/saturnines/repsly-export/pkg/pagination"
	"github.com/saturnines/repsly-export/pkg/record"
	"github.com/saturnines/repsly-export/pkg/sheet"
	"github.com/saturnines/repsly-export/pkg/transform"
)

// Result is the outcome of paging through one endpoint.
type Result struct {
	Endpoint      string
	Sheet         *sheet.Sheet
	Cursor        cursor.Value
	Pages         int
	FailedFetches int
	ShapeMisses   int
}

// Extractor walks an endpoint page by page and projects every record onto
// the endpoint's columns.
type Extractor struct {
	fetcher    Fetcher
	factory    *pagination.Factory
	observer   Observer
	clock      func() time.Time
	windowDays int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFactory sets the pager factory.
func WithFactory(f *pagination.Factory) Option {
	return func(x *Extractor) { x.factory = f }
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(x *Extractor) {
		if o != nil {
			x.observer = o
		}
	}
}

// WithClock sets the clock used for date windows.
func WithClock(now func() time.Time) Option {
	return func(x *Extractor) { x.clock = now }
}

// WithWindowDays sets the look-back of date windows.
func WithWindowDays(days int) Option {
	return func(x *Extractor) { x.windowDays = days }
}

// NewExtractor builds an Extractor on top of f.
func NewExtractor(f Fetcher, options ...Option) *Extractor {
	x := &Extractor{
		fetcher:    f,
		factory:    pagination.DefaultFactory,
		observer:   noopObserver{},
		clock:      time.Now,
		windowDays: pagination.DefaultWindowDays,
	}
	for _, option := range options {
		option(x)
	}
	return x
}

// Extract pages through d. Fetch failures end the loop and keep what was
// gathered so far; a body that is not valid JSON is returned as an error.
func (x *Extractor) Extract(ctx context.Context, d catalog.Descriptor, opts pagination.Options) (*Result, error) {
	if opts.Now.IsZero() {
		opts.Now = x.clock()
	}
	if opts.WindowDays == 0 {
		opts.WindowDays = x.windowDays
	}

	pager, err := x.factory.CreatePager(d, opts)
	if err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx).WithField("endpoint", d.Name)
	b := sheet.NewBuilder(d.Key, d.Columns)
	res := &Result{Endpoint: d.Name}

	for {
		req, err := pager.NextRequest()
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrExtraction, "next request for "+d.Name)
		}
		if req == nil {
			break
		}

		res.Pages++
		page, err := x.fetchPage(ctx, log, req)
		if err != nil {
			return nil, err
		}
		if page.Failed {
			res.FailedFetches++
			x.observer.FetchFailed(d.Name)
		} else {
			x.observer.PageFetched(d.Name)
			if !page.Found {
				res.ShapeMisses++
				log.WithField("result_key", req.ResultKey).Warn("no records found in response")
			}
		}

		if req.Collect && page.Found {
			n, err := x.appendRows(log, b, d, req, page.Items)
			if err != nil {
				return nil, err
			}
			x.observer.RowsAppended(d.Name, n)
			log.WithFields(logrus.Fields{"page": res.Pages, "rows": n, "total": b.Len()}).Debug("page appended")
		}

		before := pager.Cursor()
		if err := pager.UpdateState(page); err != nil {
			return nil, errors.WrapError(err, errors.ErrExtraction, "update state for "+d.Name)
		}
		if after := pager.Cursor(); after.Less(before) {
			log.WithFields(logrus.Fields{"from": before, "to": after}).Warn("cursor moved backwards")
		}
	}

	res.Sheet = b.Build()
	res.Cursor = pager.Cursor()
	return res, nil
}

func (x *Extractor) fetchPage(ctx context.Context, log *logrus.Entry, req *pagination.Request) (*pagination.Page, error) {
	body, err := x.fetcher.Fetch(ctx, req)
	if err != nil {
		if errors.IsFetchFailure(err) {
			log.WithError(err).Warn("fetch failed, treating as no more data")
			return &pagination.Page{Request: req, Failed: true}, nil
		}
		return nil, err
	}
	items, found := req.Items(body)
	return &pagination.Page{Request: req, Body: body, Items: items, Found: found}, nil
}

func (x *Extractor) appendRows(log *logrus.Entry, b *sheet.Builder, d catalog.Descriptor, req *pagination.Request, items []interface{}) (int, error) {
	for i, item := range items {
		obj, ok := item.(*record.Object)
		if !ok {
			log.WithField("index", i).Debugf("record is %T, not an object", item)
			obj = nil
		}
		if obj != nil {
			for k, v := range req.Defaults {
				if cur, ok := obj.Get(k); !ok || cur == nil {
					obj.Set(k, v)
				}
			}
		}
		if err := b.Append(transform.Project(obj, d.Columns, d.Formatters)); err != nil {
			return i, err
		}
	}
	return len(items), nil
}
