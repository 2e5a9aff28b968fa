package types

// SheetSummary describes one sheet written to the output workbook.
type SheetSummary struct {
	Name       string
	OutputName string
	RowsIn     int
	RowsOut    int
	Columns    int
	Charts     []string
}

type RunResult struct {
	InputFile  string
	OutputFile string
	Sheets     []SheetSummary
	Skipped    []string
}

// ChartCount returns the number of chart images written across all sheets.
func (r *RunResult) ChartCount() int {
	n := 0
	for _, s := range r.Sheets {
		n += len(s.Charts)
	}
	return n
}
