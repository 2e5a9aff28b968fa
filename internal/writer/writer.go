package writer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nconklindev/tidysheet/internal/charts"
	"github.com/nconklindev/tidysheet/internal/cleaner"
	"github.com/nconklindev/tidysheet/internal/table"
	"github.com/nconklindev/tidysheet/internal/types"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// MaxSheetNameLength is the longest sheet name a workbook accepts.
const MaxSheetNameLength = 31

const (
	FilenamePrefix = "ong_dados_limpos_"
	dateNumFmt     = "yyyy-mm-dd"
)

// ChartRenderer renders the charts of one cleaned sheet.
type ChartRenderer interface {
	Render(t *table.Table, outputDir, label string) ([]string, error)
}

type Writer struct {
	Cleaner *cleaner.Cleaner
	// Charts is nil to skip chart rendering.
	Charts ChartRenderer
	// ChartsDir defaults to the output directory.
	ChartsDir string
	// Only restricts the run to the named input sheets; nil keeps all.
	Only     map[string]bool
	Progress chan<- float64
	Now      func() time.Time
	Logger   *slog.Logger
}

func New(logger *slog.Logger) *Writer {
	return &Writer{
		Cleaner: cleaner.New(logger),
		Charts:  charts.New(logger),
		Now:     time.Now,
		Logger:  logger,
	}
}

// DefaultFilename returns ong_dados_limpos_<YYYYMMDD_HHMMSS>.xlsx for now.
func DefaultFilename(now time.Time) string {
	return FilenamePrefix + now.Format("20060102_150405") + ".xlsx"
}

// TruncateSheetName cuts name to MaxSheetNameLength characters.
func TruncateSheetName(name string) string {
	name = norm.NFC.String(name)
	runes := []rune(name)
	if len(runes) <= MaxSheetNameLength {
		return name
	}
	return string(runes[:MaxSheetNameLength])
}

// Write cleans every non-empty sheet of wb, writes them in order to a single
// workbook in outputDir and renders each sheet's charts. The output file is
// saved once, after the last sheet. filename defaults to DefaultFilename.
func (w *Writer) Write(wb *table.Workbook, outputDir, filename string) (*types.RunResult, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create output dir: %v", types.ErrWrite, err)
	}

	if filename == "" {
		filename = DefaultFilename(w.now())
	}
	if !strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		filename += ".xlsx"
	}
	outputPath := filepath.Join(outputDir, filename)

	chartsDir := w.ChartsDir
	if chartsDir == "" {
		chartsDir = outputDir
	}

	f := excelize.NewFile()
	defer f.Close()

	result := &types.RunResult{OutputFile: outputPath}
	sheets := wb.Sheets()
	for i, s := range sheets {
		w.reportProgress(i, len(sheets))

		if w.Only != nil && !w.Only[s.Name] {
			continue
		}
		if s.Table.Len() == 0 {
			w.Logger.Warn("skipping empty sheet", "sheet", s.Name)
			result.Skipped = append(result.Skipped, s.Name)
			continue
		}

		cleaned := w.Cleaner.Clean(s.Table)
		name := TruncateSheetName(s.Name)
		if idx, _ := f.GetSheetIndex(name); idx != -1 && len(result.Sheets) > 0 {
			w.Logger.Warn("truncated sheet name already written", "sheet", s.Name, "name", name)
		}

		if err := appendSheet(f, name, cleaned, len(result.Sheets) == 0); err != nil {
			return nil, types.NewSheetError(s.Name, types.StageWrite, err)
		}

		summary := types.SheetSummary{
			Name:       s.Name,
			OutputName: name,
			RowsIn:     s.Table.Len(),
			RowsOut:    cleaned.Len(),
			Columns:    cleaned.Width(),
		}
		if w.Charts != nil {
			paths, err := w.Charts.Render(cleaned, chartsDir, name)
			if err != nil {
				return nil, types.NewSheetError(s.Name, types.StageCharts, err)
			}
			summary.Charts = paths
		}
		result.Sheets = append(result.Sheets, summary)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return nil, fmt.Errorf("%w: save %s: %v", types.ErrWrite, outputPath, err)
	}
	w.reportProgress(len(sheets), len(sheets))

	w.Logger.Info("final file saved", "path", outputPath, "sheets", len(result.Sheets), "skipped", len(result.Skipped))
	return result, nil
}

func (w *Writer) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

func (w *Writer) reportProgress(current, total int) {
	if w.Progress == nil || total == 0 {
		return
	}
	select {
	case w.Progress <- float64(current) / float64(total):
	default:
	}
}

// appendSheet writes t as sheet name. The first sheet reuses the default
// sheet of a new file so the output holds no stray empty sheet.
func appendSheet(f *excelize.File, name string, t *table.Table, first bool) error {
	if first {
		if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("%w: %v", types.ErrWrite, err)
		}
	} else if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("%w: %v", types.ErrWrite, err)
	}

	header := make([]interface{}, t.Width())
	for i, n := range t.Names() {
		header[i] = n
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("%w: %v", types.ErrWrite, err)
	}

	for r := 0; r < t.Len(); r++ {
		row := make([]interface{}, t.Width())
		for c, v := range t.Row(r) {
			row[c] = cellValue(v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("%w: %v", types.ErrWrite, err)
		}
	}

	return styleSheet(f, name, t)
}

func styleSheet(f *excelize.File, name string, t *table.Table) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrWrite, err)
	}
	last, _ := excelize.CoordinatesToCellName(t.Width(), 1)
	if err := f.SetCellStyle(name, "A1", last, bold); err != nil {
		return fmt.Errorf("%w: %v", types.ErrWrite, err)
	}

	if t.Len() == 0 {
		return nil
	}
	numFmt := dateNumFmt
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrWrite, err)
	}
	for c, col := range t.Columns() {
		if col.Kind != table.Date {
			continue
		}
		top, _ := excelize.CoordinatesToCellName(c+1, 2)
		bottom, _ := excelize.CoordinatesToCellName(c+1, t.Len()+1)
		if err := f.SetCellStyle(name, top, bottom, dateStyle); err != nil {
			return fmt.Errorf("%w: %v", types.ErrWrite, err)
		}
	}
	return nil
}

func cellValue(v table.Value) interface{} {
	if f, ok := v.Float(); ok {
		return f
	}
	if d, ok := v.Date(); ok {
		return d
	}
	if v.IsNull() {
		return nil
	}
	return v.Text()
}
