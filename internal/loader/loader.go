package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nconklindev/tidysheet/internal/table"
	"github.com/nconklindev/tidysheet/internal/types"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// Load reads every sheet of the spreadsheet at path into a workbook, in file
// order. Empty sheets are kept as empty tables.
func Load(path string, logger *slog.Logger) (*table.Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", types.ErrFileNotFound, path)
		}
		return nil, err
	}

	logger.Info("reading all sheets", "file", path)

	var (
		wb  *table.Workbook
		err error
	)
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm":
		wb, err = readXLSX(path)
	case ".csv":
		wb, err = readCSV(path)
	default:
		return nil, fmt.Errorf("%w: unsupported file type: %s", types.ErrInvalidFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	for _, s := range wb.Sheets() {
		logger.Info("sheet loaded", "sheet", s.Name, "rows", s.Table.Len(), "columns", s.Table.Width())
	}

	return wb, nil
}

func readXLSX(path string) (*table.Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidFormat, err)
	}
	defer f.Close()

	wb := &table.Workbook{}
	for _, sheetName := range f.GetSheetList() {
		// Raw values keep dates as serial numbers instead of locale-formatted text.
		rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, types.NewSheetError(sheetName, types.StageLoad, fmt.Errorf("%w: %v", types.ErrInvalidFormat, err))
		}

		dates, err := dateCells(f, sheetName, rows)
		if err != nil {
			return nil, types.NewSheetError(sheetName, types.StageLoad, fmt.Errorf("%w: %v", types.ErrInvalidFormat, err))
		}

		t, err := buildTable(rows, dates)
		if err != nil {
			return nil, types.NewSheetError(sheetName, types.StageLoad, err)
		}
		wb.Add(sheetName, t)
	}

	return wb, nil
}

func readCSV(path string) (*table.Workbook, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidFormat, err)
	}

	t, err := BuildTable(records)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	wb := &table.Workbook{}
	wb.Add(name, t)
	return wb, nil
}

// BuildTable turns raw rows into a typed table. The first row with any
// non-empty cell is the header; rows above it are ignored. Column kinds are
// inferred from the data rows.
func BuildTable(rows [][]string) (*table.Table, error) {
	return buildTable(rows, nil)
}

// buildTable is BuildTable with a mask of cells holding date serials, indexed
// like rows. A column whose filled cells are all dates becomes a date column.
// Date cells mixed with other values are kept as ISO text so date coercion
// can still read them.
func buildTable(rows [][]string, dates [][]bool) (*table.Table, error) {
	headerIdx := findHeaderRow(rows)
	if headerIdx == -1 {
		return table.MustNew(), nil
	}

	body := rows[headerIdx+1:]
	width := len(rows[headerIdx])
	for _, row := range body {
		if len(row) > width {
			width = len(row)
		}
	}
	headers := normalizeHeaders(rows[headerIdx], width)

	records := make([][]string, len(body))
	for i, row := range body {
		rec := make([]string, width)
		copy(rec, row)
		records[i] = rec
	}

	isDate := func(i, j int) bool {
		r := headerIdx + 1 + i
		return r < len(dates) && j < len(dates[r]) && dates[r][j]
	}
	dateCols := make([]bool, width)
	for j := range headers {
		filled, allDates := 0, true
		for i, rec := range records {
			if strings.TrimSpace(rec[j]) == "" {
				continue
			}
			filled++
			if !isDate(i, j) {
				allDates = false
			}
		}
		dateCols[j] = filled > 0 && allDates
		if dateCols[j] {
			continue
		}
		for i, rec := range records {
			if isDate(i, j) {
				rec[j] = serialText(rec[j])
			}
		}
	}

	kinds, err := inferKinds(headers, records)
	if err != nil {
		return nil, err
	}
	for j, ok := range dateCols {
		if ok {
			kinds[j] = table.Date
		}
	}

	cols := make([]*table.Column, width)
	for j, name := range headers {
		values := make([]table.Value, len(records))
		for i, rec := range records {
			values[i] = parseCell(rec[j], kinds[j])
		}
		cols[j] = table.NewColumn(name, kinds[j], values...)
	}

	return table.New(cols...)
}

// inferKinds runs gota's type detection over the data rows. Int and Float
// series become numeric columns, everything else is text.
func inferKinds(headers []string, records [][]string) ([]table.Kind, error) {
	kinds := make([]table.Kind, len(headers))
	if len(records) == 0 {
		return kinds, nil
	}

	loaded := make([][]string, 0, len(records)+1)
	loaded = append(loaded, headers)
	for _, rec := range records {
		row := make([]string, len(rec))
		for j, cell := range rec {
			if strings.TrimSpace(cell) == "" {
				cell = "NaN"
			}
			row[j] = cell
		}
		loaded = append(loaded, row)
	}

	df := dataframe.LoadRecords(loaded, dataframe.HasHeader(true), dataframe.DetectTypes(true))
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidFormat, df.Err)
	}

	for j, typ := range df.Types() {
		if j >= len(kinds) {
			break
		}
		if typ == series.Int || typ == series.Float {
			kinds[j] = table.Number
		}
	}
	return kinds, nil
}

func parseCell(raw string, kind table.Kind) table.Value {
	if raw == "" {
		return table.Null()
	}
	switch kind {
	case table.Number, table.Date:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return table.Null()
		}
		return table.Num(f).As(kind)
	}
	return table.Str(raw)
}

// serialText renders a date serial as ISO text, with the time of day when it
// has one.
func serialText(raw string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	t, err := table.SerialToTime(f)
	if err != nil {
		return raw
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return table.FormatDate(t)
	}
	return t.Format("2006-01-02 15:04:05")
}

// dateCells marks the numeric cells of rows whose number format shows a date.
func dateCells(f *excelize.File, sheet string, rows [][]string) ([][]bool, error) {
	styles := make(map[int]bool)
	mask := make([][]bool, len(rows))
	for r, row := range rows {
		mask[r] = make([]bool, len(row))
		for c, raw := range row {
			if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			id, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return nil, err
			}
			isDate, ok := styles[id]
			if !ok {
				style, err := f.GetStyle(id)
				if err != nil {
					return nil, err
				}
				isDate = isDateStyle(style)
				styles[id] = isDate
			}
			mask[r][c] = isDate
		}
	}
	return mask, nil
}

// isDateStyle reports whether style formats numbers as calendar dates.
// Time-only formats do not count.
func isDateStyle(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	switch n := style.NumFmt; {
	case n >= 14 && n <= 17, n == 22:
		return true
	case n >= 27 && n <= 36, n >= 50 && n <= 58:
		return true
	}
	return false
}

// isDateFormatCode looks for day or year tokens in a number format code,
// ignoring quoted literals, escaped characters and bracketed sections such
// as [Red] or [$-416].
func isDateFormatCode(code string) bool {
	inQuote, inBracket, escaped := false, false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case r == 'd', r == 'y':
			return true
		}
	}
	return false
}

// findHeaderRow returns the index of the first row with a non-empty cell,
// or -1 if every row is empty.
func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return i
			}
		}
	}
	return -1
}

// normalizeHeaders pads the header row to width, names blank headers
// "Unnamed: <idx>" and suffixes repeated names with ".1", ".2", ...
func normalizeHeaders(row []string, width int) []string {
	headers := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(row) {
			name = strings.TrimSpace(row[i])
		}
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n+1)
		}
		seen[name] = 0
		headers[i] = name
	}
	return headers
}
