package sheet

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/saturnines/repsly-export/pkg/errors"
)

const defaultSheet = "Sheet1"

// Save writes the workbook to path as .xlsx, header row first on every sheet.
func Save(w *Workbook, path string) error {
	if w.Len() == 0 {
		return errors.WrapError(
			fmt.Errorf("workbook has no sheets"),
			errors.ErrWorkbook,
			"save "+path,
		)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range w.sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.name); err != nil {
				return errors.WrapError(err, errors.ErrWorkbook, "name sheet "+s.name)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return errors.WrapError(err, errors.ErrWorkbook, "create sheet "+s.name)
		}
		if err := writeSheet(f, s); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return errors.WrapError(err, errors.ErrWorkbook, "save "+path)
	}
	return nil
}

// SaveSheet writes a single-sheet workbook.
func SaveSheet(s *Sheet, path string) error {
	w := NewWorkbook()
	w.Put(s)
	return Save(w, path)
}

func writeSheet(f *excelize.File, s *Sheet) error {
	sw, err := f.NewStreamWriter(s.name)
	if err != nil {
		return errors.WrapError(err, errors.ErrWorkbook, "stream sheet "+s.name)
	}

	next := 1
	if len(s.header) > 0 {
		header := make([]interface{}, len(s.header))
		for i, h := range s.header {
			header[i] = h
		}
		if err := setRow(sw, next, header); err != nil {
			return errors.WrapError(err, errors.ErrWorkbook, "write header of "+s.name)
		}
		next++
	}
	for _, row := range s.rows {
		if err := setRow(sw, next, row); err != nil {
			return errors.WrapError(err, errors.ErrWorkbook, fmt.Sprintf("write row %d of %s", next, s.name))
		}
		next++
	}

	if err := sw.Flush(); err != nil {
		return errors.WrapError(err, errors.ErrWorkbook, "flush sheet "+s.name)
	}
	return nil
}

func setRow(sw *excelize.StreamWriter, n int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	return sw.SetRow(cell, cells)
}

// Load reads every sheet of an .xlsx file. The first row of each sheet is
// taken as its header; cell types written by Save are restored.
func Load(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrWorkbook, "open "+path)
	}
	defer f.Close()

	w := NewWorkbook()
	for _, name := range f.GetSheetList() {
		s, err := readSheet(f, name)
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrWorkbook, fmt.Sprintf("read sheet %s of %s", name, path))
		}
		w.Put(s)
	}
	return w, nil
}

func readSheet(f *excelize.File, name string) (*Sheet, error) {
	rows, err := f.Rows(name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s := &Sheet{name: name}
	n := 0
	for rows.Next() {
		n++
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		if n == 1 {
			s.header = cols
			continue
		}

		width := len(s.header)
		if len(cols) > width {
			width = len(cols)
		}
		row := make(Row, width)
		for c, raw := range cols {
			if raw == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, n)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(name, ref)
			if err != nil {
				return nil, err
			}
			row[c] = restore(raw, typ)
		}
		s.rows = append(s.rows, row)
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}
	return s, nil
}

// restore turns a raw cell string back into the Go value it was written from.
func restore(raw string, typ excelize.CellType) interface{} {
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || raw == "TRUE" || raw == "true"
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
		if fl, err := strconv.ParseFloat(raw, 64); err == nil {
			return fl
		}
		return raw
	default:
		return raw
	}
}
