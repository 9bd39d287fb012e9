package sheet

// Workbook is an ordered collection of uniquely named sheets.
type Workbook struct {
	sheets []*Sheet
}

// NewWorkbook returns an empty Workbook.
func NewWorkbook() *Workbook {
	return &Workbook{}
}

// Put adds s. A sheet with the same name is replaced in place.
func (w *Workbook) Put(s *Sheet) {
	for i, existing := range w.sheets {
		if existing.name == s.name {
			w.sheets[i] = s
			return
		}
	}
	w.sheets = append(w.sheets, s)
}

// Remove drops the named sheet and reports whether it was present.
func (w *Workbook) Remove(name string) bool {
	for i, existing := range w.sheets {
		if existing.name == name {
			w.sheets = append(w.sheets[:i], w.sheets[i+1:]...)
			return true
		}
	}
	return false
}

// Sheet looks a sheet up by name.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	for _, s := range w.sheets {
		if s.name == name {
			return s, true
		}
	}
	return nil, false
}

// Sheets returns the sheets in workbook order.
func (w *Workbook) Sheets() []*Sheet {
	out := make([]*Sheet, len(w.sheets))
	copy(out, w.sheets)
	return out
}

// Names returns the sheet names in workbook order.
func (w *Workbook) Names() []string {
	names := make([]string, len(w.sheets))
	for i, s := range w.sheets {
		names[i] = s.name
	}
	return names
}

// Len returns the number of sheets.
func (w *Workbook) Len() int { return len(w.sheets) }
