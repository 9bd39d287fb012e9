// Package sheet models tabular export data: rows appended by one producer,
// frozen into a read-only Sheet, and grouped into an ordered Workbook that is
// written to and read from .xlsx files.
package sheet

import (
	"fmt"

	"github.com/saturnines/repsly-export/pkg/errors"
)

// Row is one record flattened to cell values. Cells hold string, int64,
// float64, bool or nil.
type Row []interface{}

// Sheet is a named table with a header row. It is read-only once built.
type Sheet struct {
	name   string
	header []string
	rows   []Row
}

// Name returns the sheet name.
func (s *Sheet) Name() string { return s.name }

// Header returns a copy of the header cells.
func (s *Sheet) Header() []string {
	out := make([]string, len(s.header))
	copy(out, s.header)
	return out
}

// Rows returns the data rows, header excluded. Callers must not modify them.
func (s *Sheet) Rows() []Row { return s.rows }

// Len returns the number of data rows.
func (s *Sheet) Len() int { return len(s.rows) }

// Builder accumulates rows for one Sheet. It is owned by a single producer.
type Builder struct {
	name   string
	header []string
	rows   []Row
	built  bool
}

// NewBuilder starts a sheet with the given name and header.
func NewBuilder(name string, header []string) *Builder {
	h := make([]string, len(header))
	copy(h, header)
	return &Builder{name: name, header: h}
}

// Append adds a row. Short rows are padded with nil; rows longer than the
// header are rejected, as is any append after Build.
func (b *Builder) Append(row Row) error {
	if b.built {
		return errors.WrapError(
			fmt.Errorf("sheet %q already built", b.name),
			errors.ErrWorkbook,
			"append row",
		)
	}
	if len(row) > len(b.header) && len(b.header) > 0 {
		return errors.WrapError(
			fmt.Errorf("row has %d cells, header has %d", len(row), len(b.header)),
			errors.ErrWorkbook,
			"append row",
		)
	}
	r := make(Row, len(b.header))
	if len(b.header) == 0 {
		r = make(Row, len(row))
	}
	copy(r, row)
	b.rows = append(b.rows, r)
	return nil
}

// Len returns the number of rows appended so far.
func (b *Builder) Len() int { return len(b.rows) }

// Build freezes the builder and returns the Sheet.
func (b *Builder) Build() *Sheet {
	b.built = true
	return &Sheet{name: b.name, header: b.header, rows: b.rows}
}
