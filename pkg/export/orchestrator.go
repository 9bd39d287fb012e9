// Package export runs the extraction of many endpoints concurrently and turns
// their results into the combined workbook and the next cursor map.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/saturnines/repsly-export/pkg/catalog"
	"github.com/saturnines/repsly-export/pkg/core"
	"github.com/saturnines/repsly-export/pkg/cursor"
	"github.com/saturnines/repsly-export/pkg/errors"
	"github.com/saturnines/repsly-export/pkg/logging"
	"github.com/saturnines/repsly-export/pkg/metrics"
	"github.com/saturnines/repsly-export/pkg/pagination"
	"github.com/saturnines/repsly-export/pkg/sheet"
)

// Report is the outcome of one endpoint job.
type Report struct {
	Descriptor    catalog.Descriptor
	Path          string // saved workbook, empty when the job failed
	Rows          int
	Pages         int
	FailedFetches int
	Cursor        cursor.Value
	Duration      time.Duration
	Err           error
}

// Failed reports whether the job produced no file.
func (r Report) Failed() bool { return r.Err != nil }

// Orchestrator fans endpoint jobs out over a bounded worker pool.
type Orchestrator struct {
	extractor   *core.Extractor
	dir         string
	concurrency int
	jobID       string
	windowDays  int
	metrics     *metrics.Metrics
	clock       func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithConcurrency caps the number of endpoints exported at once. Zero or
// less means one worker per endpoint.
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.concurrency = n }
}

// WithImportJob sets the job ID used by the import status endpoint.
func WithImportJob(id string) OrchestratorOption {
	return func(o *Orchestrator) { o.jobID = id }
}

// WithWindow sets the look-back of date-window endpoints in days.
func WithWindow(days int) OrchestratorOption {
	return func(o *Orchestrator) { o.windowDays = days }
}

// WithMetrics records endpoint durations and failures.
func WithMetrics(m *metrics.Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithNow fixes the clock that anchors date windows.
func WithNow(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.clock = now }
}

// NewOrchestrator returns an Orchestrator saving endpoint files in dir.
func NewOrchestrator(x *core.Extractor, dir string, options ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		extractor:  x,
		dir:        dir,
		windowDays: pagination.DefaultWindowDays,
		clock:      time.Now,
	}
	for _, option := range options {
		option(o)
	}
	return o
}

// Dispatch exports every descriptor and returns one report per descriptor
// in completion order. A failing endpoint never stops its siblings.
func (o *Orchestrator) Dispatch(ctx context.Context, descs []catalog.Descriptor, cursors cursor.Map) []Report {
	if len(descs) == 0 {
		return nil
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		logging.FromContext(ctx).WithError(err).Error("cannot create output directory")
	}

	now := o.clock()
	results := make(chan Report, len(descs))

	g, gctx := errgroup.WithContext(ctx)
	limit := o.concurrency
	if limit <= 0 {
		limit = len(descs)
	}
	g.SetLimit(limit)

	for _, d := range descs {
		opts := pagination.Options{
			Start:      cursors.Get(d.Name),
			Now:        now,
			WindowDays: o.windowDays,
			JobID:      o.jobID,
		}
		g.Go(func() error {
			results <- o.run(gctx, d, opts)
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	reports := make([]Report, 0, len(descs))
	for r := range results {
		reports = append(reports, r)
	}
	return reports
}

func (o *Orchestrator) run(ctx context.Context, d catalog.Descriptor, opts pagination.Options) (report Report) {
	ctx = logging.WithFields(ctx, logrus.Fields{
		"endpoint": d.Name,
		"variant":  d.Variant.String(),
	})
	log := logging.FromContext(ctx)

	start := time.Now()
	report = Report{Descriptor: d, Cursor: opts.Start}

	defer func() {
		if r := recover(); r != nil {
			log.WithField("stack", string(debug.Stack())).Errorf("panic while exporting: %v", r)
			report.Err = errors.WrapError(fmt.Errorf("panic: %v", r), errors.ErrEndpoint, d.Name)
			report.Path = ""
			report.Cursor = opts.Start
		}
		report.Duration = time.Since(start)
		o.metrics.EndpointFinished(d.Name, report.Duration, report.Failed())
	}()

	res, err := o.extractor.Extract(ctx, d, opts)
	if err != nil {
		report.Err = errors.WrapError(err, errors.ErrEndpoint, d.Name)
		log.WithError(err).Error("endpoint failed")
		return report
	}

	path := filepath.Join(o.dir, d.FileName())
	if err := sheet.SaveSheet(res.Sheet, path); err != nil {
		report.Err = errors.WrapError(err, errors.ErrEndpoint, d.Name)
		log.WithError(err).Error("endpoint failed")
		return report
	}

	report.Path = path
	report.Rows = res.Sheet.Len()
	report.Pages = res.Pages
	report.FailedFetches = res.FailedFetches
	report.Cursor = res.Cursor

	log.WithFields(logrus.Fields{
		"rows":     report.Rows,
		"pages":    report.Pages,
		"failures": report.FailedFetches,
		"cursor":   report.Cursor.String(),
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Info("endpoint completed")
	log.WithFields(logrus.Fields{
		"file":    path,
		"rows":    report.Rows,
		"columns": len(res.Sheet.Header()),
	}).Debug("sheet saved")
	return report
}
