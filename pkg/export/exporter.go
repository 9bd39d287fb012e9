package export

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/saturnines/repsly-export/pkg/auth"
	"github.com/saturnines/repsly-export/pkg/catalog"
	"github.com/saturnines/repsly-export/pkg/combine"
	"github.com/saturnines/repsly-export/pkg/config"
	"github.com/saturnines/repsly-export/pkg/core"
	"github.com/saturnines/repsly-export/pkg/cursor"
	"github.com/saturnines/repsly-export/pkg/errors"
	"github.com/saturnines/repsly-export/pkg/logging"
	"github.com/saturnines/repsly-export/pkg/metrics"
	"github.com/saturnines/repsly-export/pkg/transport/rest"
)

// UserAgent identifies the exporter to the vendor API.
const UserAgent = "repsly-export/1.0"

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Workbook string
	Reports  []Report
	Unknown  []string
	Cursors  cursor.Map
}

// Rows is the number of rows exported over all endpoints.
func (s *Summary) Rows() int {
	return lo.SumBy(s.Reports, func(r Report) int { return r.Rows })
}

// Failed lists the endpoints that produced no file.
func (s *Summary) Failed() []string {
	failed := lo.Filter(s.Reports, func(r Report, _ int) bool { return r.Failed() })
	return lo.Map(failed, func(r Report, _ int) string { return r.Descriptor.Name })
}

// Exporter runs complete exports: lock, load cursors, extract, combine and
// persist.
type Exporter struct {
	cfg          *config.Config
	catalog      *catalog.Catalog
	store        cursor.Store
	orchestrator *Orchestrator
	metrics      *metrics.Metrics
	logger       *logrus.Logger
	clock        func() time.Time
}

// New wires an Exporter from cfg. The caller must Close it.
func New(cfg *config.Config, logger *logrus.Logger) (*Exporter, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	basic, err := auth.NewBasicAuth(cfg.API.Username, cfg.API.Password)
	if err != nil {
		return nil, err
	}
	client := rest.NewClient(cfg.API.BaseURL, basic,
		rest.WithTimeout(cfg.API.Timeout),
		rest.WithHeader("User-Agent", UserAgent),
	)

	store, err := cursor.Open(cfg.Cursors.Backend, cfg.Cursors.Path)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	x := core.NewExtractor(client,
		core.WithObserver(m),
		core.WithWindowDays(cfg.Export.WindowDays),
	)

	e := &Exporter{
		cfg:     cfg,
		catalog: catalog.Default(),
		store:   store,
		metrics: m,
		logger:  logger,
		clock:   time.Now,
	}
	e.orchestrator = NewOrchestrator(x, cfg.Output.Dir,
		WithConcurrency(cfg.Export.Concurrency),
		WithImportJob(cfg.Export.ImportJobID),
		WithWindow(cfg.Export.WindowDays),
		WithMetrics(m),
		WithNow(func() time.Time { return e.clock() }),
	)
	return e, nil
}

// Metrics returns the collectors updated by every run.
func (e *Exporter) Metrics() *metrics.Metrics { return e.metrics }

// Close releases the cursor store.
func (e *Exporter) Close() error {
	return e.store.Close()
}

// Run exports the named endpoints, or the configured ones, or all of them.
// Unknown names are reported in the summary and skipped.
func (e *Exporter) Run(ctx context.Context, names []string) (*Summary, error) {
	started := e.clock()
	runID := uuid.NewString()
	log := e.logger.WithField("run_id", runID)
	ctx = logging.WithLogger(ctx, log)

	lock, err := cursor.AcquireRunLock(ctx, e.store.Path())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.WithError(err).Warn("cannot release run lock")
		}
	}()

	previous, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		names = e.cfg.Export.Endpoints
	}
	descs := e.catalog.All()
	var unknown []string
	if len(names) > 0 {
		descs, unknown = e.catalog.Select(names)
	}
	for _, name := range unknown {
		log.WithField("endpoint", name).Warn("unknown endpoint, skipping")
	}
	if e.cfg.Export.ImportJobID != "" {
		descs = append(descs, catalog.ImportStatus)
	}

	log.WithFields(logrus.Fields{
		"endpoints":   len(descs),
		"concurrency": e.cfg.Export.Concurrency,
	}).Info("export started")

	reports := e.orchestrator.Dispatch(ctx, descs, previous)
	next := MergeCursors(previous, reports)

	paths := lo.FilterMap(reports, func(r Report, _ int) (string, bool) {
		return r.Path, r.Path != ""
	})
	workbook, err := combine.Write(ctx, e.cfg.Output.Dir, e.cfg.Output.CombinedPrefix, started,
		paths, next, e.catalog.Names(), combine.Options{KeepSources: e.cfg.Output.KeepEndpointFiles})
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrWorkbook, "write combined workbook")
	}

	if err := e.store.Save(ctx, next); err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:    runID,
		Started:  started,
		Finished: e.clock(),
		Workbook: workbook,
		Reports:  reports,
		Unknown:  unknown,
		Cursors:  next,
	}

	e.metrics.RunCompleted(summary.Finished, summary.Rows())
	if path := e.cfg.Metrics.Textfile; path != "" {
		if err := e.metrics.WriteTextfile(path); err != nil {
			log.WithError(err).Warn("cannot write metrics textfile")
		}
	}

	log.WithFields(logrus.Fields{
		"workbook": workbook,
		"rows":     summary.Rows(),
		"failed":   summary.Failed(),
		"duration": summary.Finished.Sub(started).Round(time.Millisecond).String(),
	}).Info("export finished")
	return summary, nil
}

// MergeCursors builds the cursor map to persist after a run. Cursor
// endpoints that failed keep their previous value, other endpoints store
// null, and entries for endpoints not run this time are carried over.
func MergeCursors(previous cursor.Map, reports []Report) cursor.Map {
	next := previous.Clone()
	for _, r := range reports {
		d := r.Descriptor
		switch {
		case d.Variant == catalog.Status:
			continue
		case !d.Variant.HasCursor():
			next[d.Name] = cursor.None()
		case r.Failed():
			if _, ok := previous[d.Name]; !ok {
				next[d.Name] = cursor.None()
			}
		default:
			next[d.Name] = r.Cursor
		}
	}
	return next
}
