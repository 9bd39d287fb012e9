package pagination

import (
	"fmt"

	"github.com/saturnines/repsly-export/pkg/catalog"
)

// DefaultRegistry maps variants to creators.
var DefaultRegistry = map[catalog.Variant]Creator{
	catalog.ByID:           idCreator,
	catalog.ByTimestamp:    timestampCreator,
	catalog.ByDateRange:    dateRangeCreator,
	catalog.BySkip:         skipCreator,
	catalog.ByParentFanout: fanoutCreator,
	catalog.None:           singleCreator,
	catalog.Status:         statusCreator,
}

func idCreator(d catalog.Descriptor, opts Options) (Pager, error) {
	if err := requireResultKey(d); err != nil {
		return nil, err
	}
	return NewCursorPager(d.Path, d.ResultKey, "LastID", "LastTimeStamp", true, opts.Start), nil
}

func timestampCreator(d catalog.Descriptor, opts Options) (Pager, error) {
	if err := requireResultKey(d); err != nil {
		return nil, err
	}
	return NewCursorPager(d.Path, d.ResultKey, "LastTimeStamp", "LastID", false, opts.Start), nil
}

func dateRangeCreator(d catalog.Descriptor, opts Options) (Pager, error) {
	if err := requireResultKey(d); err != nil {
		return nil, err
	}
	if d.DateField == "" {
		return nil, fmt.Errorf("%s: date field missing", d.Name)
	}
	if opts.Now.IsZero() {
		return nil, fmt.Errorf("%s: run clock missing", d.Name)
	}
	return NewDateRangePager(d.Path, d.ResultKey, d.DateField, opts.Now, windowDays(opts)), nil
}

func skipCreator(d catalog.Descriptor, opts Options) (Pager, error) {
	if err := requireResultKey(d); err != nil {
		return nil, err
	}
	if opts.Now.IsZero() {
		return nil, fmt.Errorf("%s: run clock missing", d.Name)
	}
	return NewOffsetPager(d.Path, d.ResultKey, opts.Now, windowDays(opts)), nil
}

func fanoutCreator(d catalog.Descriptor, _ Options) (Pager, error) {
	f := d.Fanout
	if f == nil || f.ParentPath == "" || f.ParentKey == "" || f.ParentIDField == "" {
		return nil, fmt.Errorf("%s: fanout parent incomplete", d.Name)
	}
	return NewFanoutPager(f.ParentPath, f.ParentKey, f.ParentIDField, d.Path, f.ChildIDColumn), nil
}

func singleCreator(d catalog.Descriptor, _ Options) (Pager, error) {
	return NewSinglePager(d.ResultKey, d.Path), nil
}

func statusCreator(d catalog.Descriptor, opts Options) (Pager, error) {
	if opts.JobID == "" {
		return nil, fmt.Errorf("%s: job ID missing", d.Name)
	}
	return NewSinglePager(d.ResultKey, d.Path, opts.JobID), nil
}

func requireResultKey(d catalog.Descriptor) error {
	if d.ResultKey == "" {
		return fmt.Errorf("%s: result key missing", d.Name)
	}
	return nil
}

// DefaultWindowDays is the look-back of date-window endpoints.
const DefaultWindowDays = 30

func windowDays(opts Options) int {
	if opts.WindowDays <= 0 {
		return DefaultWindowDays
	}
	return opts.WindowDays
}
