package table

// Sheet is one named table of a workbook.
type Sheet struct {
	Name  string
	Table *Table
}

// Workbook is an ordered list of sheets, kept in file order.
type Workbook struct {
	sheets []Sheet
}

func (w *Workbook) Add(name string, t *Table) {
	w.sheets = append(w.sheets, Sheet{Name: name, Table: t})
}

func (w *Workbook) Sheets() []Sheet {
	return w.sheets
}

func (w *Workbook) Get(name string) (*Table, bool) {
	for _, s := range w.sheets {
		if s.Name == name {
			return s.Table, true
		}
	}
	return nil, false
}

func (w *Workbook) Names() []string {
	names := make([]string, len(w.sheets))
	for i, s := range w.sheets {
		names[i] = s.Name
	}
	return names
}

func (w *Workbook) Len() int {
	return len(w.sheets)
}
