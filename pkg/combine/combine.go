// Package combine merges per-endpoint spreadsheets into one workbook and
// appends the cursor summary sheet.
package combine

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/saturnines/repsly-export/pkg/cursor"
	"github.com/saturnines/repsly-export/pkg/logging"
	"github.com/saturnines/repsly-export/pkg/sheet"
)

const (
	// CursorSheet is the reserved name of the cursor summary sheet.
	CursorSheet = "LastIDs"
	// PlaceholderSheet is added when no source contributed a sheet.
	PlaceholderSheet = "Sheet"
	// DefaultPrefix starts every combined file name.
	DefaultPrefix = "Repsly_Export_Combined"
)

// CursorHeader is the header row of the cursor summary sheet.
var CursorHeader = []string{"Endpoint", "Last ID/Timestamp"}

// Options tune Combine.
type Options struct {
	// KeepSources leaves the per-endpoint files on disk.
	KeepSources bool
}

// Combine copies every sheet of every readable file at paths, in order, into
// one workbook. Empty paths are skipped; missing or unreadable files are
// logged and skipped. Each source is deleted once copied unless KeepSources
// is set. The result always has at least one sheet.
func Combine(ctx context.Context, paths []string, opts Options) *sheet.Workbook {
	log := logging.FromContext(ctx)
	out := sheet.NewWorkbook()

	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			log.WithField("file", p).WithError(err).Warn("source file missing, skipping")
			continue
		}
		wb, err := sheet.Load(p)
		if err != nil {
			log.WithField("file", p).WithError(err).Warn("source file unreadable, skipping")
			continue
		}
		for _, s := range wb.Sheets() {
			out.Put(s)
			log.WithFields(logrus.Fields{"file": p, "sheet": s.Name(), "rows": s.Len()}).Debug("sheet copied")
		}
		if opts.KeepSources {
			continue
		}
		if err := os.Remove(p); err != nil {
			log.WithField("file", p).WithError(err).Warn("could not delete source file")
		}
	}

	if out.Len() == 0 {
		out.Put(sheet.NewBuilder(PlaceholderSheet, nil).Build())
	}
	return out
}

// AttachCursorSummary replaces the cursor sheet with one row per endpoint.
// Names listed in order come first, in that order; remaining names follow
// sorted.
func AttachCursorSummary(wb *sheet.Workbook, cursors cursor.Map, order []string) {
	b := sheet.NewBuilder(CursorSheet, CursorHeader)

	listed := lo.Filter(order, func(name string, _ int) bool {
		_, ok := cursors[name]
		return ok
	})
	listed = lo.Uniq(listed)

	rest := lo.Without(lo.Keys(map[string]cursor.Value(cursors)), listed...)
	sort.Strings(rest)

	for _, name := range append(listed, rest...) {
		// header width matches, Append cannot fail
		_ = b.Append(sheet.Row{name, cursors[name].Cell()})
	}

	wb.Remove(CursorSheet)
	wb.Put(b.Build())
}

// FileName returns the combined workbook name for a run started at t.
func FileName(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "_" + t.Format("20060102_150405") + ".xlsx"
}

// Write combines paths, attaches the cursor summary and saves the result in
// dir. It returns the path written.
func Write(ctx context.Context, dir, prefix string, at time.Time, paths []string, cursors cursor.Map, order []string, opts Options) (string, error) {
	wb := Combine(ctx, paths, opts)
	AttachCursorSummary(wb, cursors, order)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(dir, FileName(prefix, at))
	if err := sheet.Save(wb, out); err != nil {
		return "", err
	}
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"file":   out,
		"sheets": wb.Names(),
	}).Info("combined workbook saved")
	return out, nil
}
