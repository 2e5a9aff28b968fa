// Package charts renders the exploratory chart family for a cleaned table:
// one histogram per numeric column, a daily row-count series for the date
// column and one frequency bar chart per text column.
package charts

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nconklindev/tidysheet/internal/table"
	"github.com/nconklindev/tidysheet/internal/types"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	DefaultBins = 20
	DateColumn  = "data"
)

var (
	histColor   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	seriesColor = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
	barColor    = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
)

// Renderer writes PNG charts.
type Renderer struct {
	Width  vg.Length
	Height vg.Length
	Bins   int
	Logger *slog.Logger
}

func New(logger *slog.Logger) *Renderer {
	return &Renderer{
		Width:  8 * vg.Inch,
		Height: 5 * vg.Inch,
		Bins:   DefaultBins,
		Logger: logger,
	}
}

// Render writes every applicable chart for t into outputDir, creating it if
// needed, and returns the written paths. Existing files are overwritten.
func (r *Renderer) Render(t *table.Table, outputDir, label string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create charts dir: %v", types.ErrWrite, err)
	}

	var written []string
	save := func(p *plot.Plot, name string) error {
		path := filepath.Join(outputDir, name)
		if err := p.Save(r.Width, r.Height, path); err != nil {
			return fmt.Errorf("%w: save chart %s: %v", types.ErrWrite, path, err)
		}
		written = append(written, path)
		return nil
	}

	for _, col := range t.Columns() {
		if col.Kind != table.Number {
			continue
		}
		values := numbers(col)
		if len(values) == 0 {
			continue
		}
		p, err := r.histogram(col.Name, values)
		if err != nil {
			return written, err
		}
		if err := save(p, FileName(label, col.Name, "hist")); err != nil {
			return written, err
		}
	}

	if col, ok := t.Column(DateColumn); ok {
		if days := DailyCounts(col); len(days) > 0 {
			p, err := timeSeries(days)
			if err != nil {
				return written, err
			}
			if err := save(p, sanitize(label)+"_serie_temporal.png"); err != nil {
				return written, err
			}
		}
	}

	for _, col := range t.Columns() {
		if col.Kind != table.Text {
			continue
		}
		counts := Counts(col)
		if len(counts) == 0 {
			continue
		}
		p, err := categories(col.Name, counts)
		if err != nil {
			return written, err
		}
		if err := save(p, FileName(label, col.Name, "categorias")); err != nil {
			return written, err
		}
	}

	r.Logger.Info("charts rendered", "label", label, "dir", outputDir, "count", len(written))
	return written, nil
}

func (r *Renderer) histogram(name string, values plotter.Values) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Distribuição: " + name
	p.X.Label.Text = name
	p.Y.Label.Text = "Frequência"

	h, err := plotter.NewHist(values, r.Bins)
	if err != nil {
		return nil, fmt.Errorf("histogram %s: %w", name, err)
	}
	h.FillColor = histColor
	p.Add(h)
	return p, nil
}

func timeSeries(days []DayCount) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Série temporal - registros por data"
	p.X.Label.Text = "Data"
	p.Y.Label.Text = "Registros"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

	pts := make(plotter.XYs, len(days))
	for i, d := range days {
		pts[i].X = float64(d.Day.Unix())
		pts[i].Y = float64(d.Count)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("time series: %w", err)
	}
	line.Color = seriesColor

	points, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("time series: %w", err)
	}
	points.Color = seriesColor

	p.Add(line, points)
	return p, nil
}

func categories(name string, counts []Count) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Comparação de categorias: " + name
	p.X.Label.Text = name
	p.Y.Label.Text = "Frequência"

	values := make(plotter.Values, len(counts))
	labels := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
		labels[i] = c.Value
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("bar chart %s: %w", name, err)
	}
	bars.Color = barColor
	p.Add(bars)
	p.NominalX(labels...)
	if len(labels) > 8 {
		p.X.Tick.Label.Rotation = math.Pi / 4
	}
	return p, nil
}

// Count is the frequency of one category value.
type Count struct {
	Value string
	Count int
}

// Counts tallies the non-missing values of col, most frequent first. Ties
// keep the order in which values first appear.
func Counts(col *table.Column) []Count {
	index := make(map[string]int)
	var counts []Count
	for _, v := range col.Values {
		if v.IsNull() {
			continue
		}
		s := v.String()
		if i, ok := index[s]; ok {
			counts[i].Count++
			continue
		}
		index[s] = len(counts)
		counts = append(counts, Count{Value: s, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// DayCount is the number of rows sharing one date.
type DayCount struct {
	Day   time.Time
	Count int
}

// DailyCounts groups the rows of a date column by date, ascending. Missing
// or unparseable dates are excluded.
func DailyCounts(col *table.Column) []DayCount {
	index := make(map[int64]int)
	var days []DayCount
	for _, v := range col.Values {
		d, ok := v.As(table.Date).Date()
		if !ok {
			continue
		}
		key := d.UnixNano()
		if i, ok := index[key]; ok {
			days[i].Count++
			continue
		}
		index[key] = len(days)
		days = append(days, DayCount{Day: d, Count: 1})
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Day.Before(days[j].Day)
	})
	return days
}

// FileName builds "{label}_{column}_{kind}.png" with path separators removed.
func FileName(label, column, kind string) string {
	return sanitize(label) + "_" + sanitize(column) + "_" + kind + ".png"
}

func numbers(col *table.Column) plotter.Values {
	var values plotter.Values
	for _, v := range col.Values {
		if f, ok := v.Float(); ok && !math.IsInf(f, 0) {
			values = append(values, f)
		}
	}
	return values
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator || r == 0 {
			return '_'
		}
		return r
	}, s)
}
