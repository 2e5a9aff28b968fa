// Package cleaner applies the fixed sheet-cleaning transformation: dedupe,
// whitespace trimming, empty-row removal, missing-value imputation, date
// coercion, text normalization and the derived sum column.
package cleaner

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/nconklindev/tidysheet/internal/table"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Column names the cleaning rules act on.
const (
	ColumnNum   = "coluna_num"
	ColumnText  = "coluna_texto"
	ColumnDate  = "data"
	ColumnA     = "coluna1"
	ColumnB     = "coluna2"
	ColumnSum   = "soma_colunas"
	TextDefault = "desconhecido"
)

// SentinelDate fills missing entries of the date column.
var SentinelDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Rule fills missing values of Column with Fill when the column exists.
type Rule struct {
	Column string
	Fill   table.Value
}

func DefaultRules() []Rule {
	return []Rule{
		{Column: ColumnNum, Fill: table.Num(0)},
		{Column: ColumnText, Fill: table.Str(TextDefault)},
		{Column: ColumnDate, Fill: table.Time(SentinelDate)},
	}
}

// Cleaner is not safe for concurrent use.
type Cleaner struct {
	Rules  []Rule
	Logger *slog.Logger

	lower cases.Caser
}

func New(logger *slog.Logger) *Cleaner {
	return &Cleaner{
		Rules:  DefaultRules(),
		Logger: logger,
		lower:  cases.Lower(language.BrazilianPortuguese),
	}
}

// Clean returns a cleaned copy of t. The input table is never modified.
func (c *Cleaner) Clean(t *table.Table) *table.Table {
	c.Logger.Info("cleaning sheet", "rows", t.Len(), "columns", t.Width())

	out := DropDuplicates(t)
	c.step("duplicates removed", out)
	TrimText(out)
	c.step("text trimmed", out)
	out = DropEmptyRows(out)
	c.step("empty rows removed", out)
	c.FillMissing(out)
	c.step("missing values filled", out)
	CoerceDates(out, ColumnDate)
	c.step("dates converted", out)
	c.NormalizeText(out, ColumnText)
	c.step("text normalized", out)
	DeriveSum(out, ColumnA, ColumnB, ColumnSum)
	c.step("sum column derived", out)
	// Trimming and normalization can turn distinct rows into equal ones.
	out = DropDuplicates(out)
	c.step("normalized duplicates removed", out)

	c.Logger.Info("sheet cleaned", "rows", out.Len(), "columns", out.Width())
	return out
}

func (c *Cleaner) step(msg string, t *table.Table) {
	c.Logger.Debug(msg, "rows", t.Len(), "columns", t.Width())
}

// DropDuplicates returns a copy of t keeping the first of each set of rows
// with equal values in every column.
func DropDuplicates(t *table.Table) *table.Table {
	seen := make(map[string]struct{}, t.Len())
	return t.Filter(func(i int) bool {
		key := t.RowKey(i)
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
}

// TrimText trims surrounding whitespace from every text cell in place.
// Cells left empty become missing.
func TrimText(t *table.Table) {
	for _, col := range t.Columns() {
		for i, v := range col.Values {
			if v.IsNull() || v.Kind() != table.Text {
				continue
			}
			col.Values[i] = textOrNull(strings.TrimSpace(v.Text()))
		}
	}
}

// DropEmptyRows returns a copy of t without rows whose cells are all missing.
func DropEmptyRows(t *table.Table) *table.Table {
	return t.Filter(func(i int) bool {
		return !t.RowIsNull(i)
	})
}

// FillMissing applies the rule set in place. The fill value is converted to
// the column's kind; when that is impossible the column becomes text.
func (c *Cleaner) FillMissing(t *table.Table) {
	for _, rule := range c.Rules {
		col, ok := t.Column(rule.Column)
		if !ok {
			continue
		}
		fill := rule.Fill.As(col.Kind)
		if fill.IsNull() {
			col.Convert(table.Text)
			fill = rule.Fill.As(table.Text)
		}
		for i, v := range col.Values {
			if v.IsNull() {
				col.Values[i] = fill
			}
		}
	}
}

// CoerceDates converts the named column to dates in place. Unparseable
// values become missing.
func CoerceDates(t *table.Table, name string) {
	col, ok := t.Column(name)
	if !ok {
		return
	}
	col.Convert(table.Date)
}

// NormalizeText lowercases and trims the named column in place.
func (c *Cleaner) NormalizeText(t *table.Table, name string) {
	col, ok := t.Column(name)
	if !ok {
		return
	}
	if col.Kind != table.Text {
		col.Convert(table.Text)
	}
	for i, v := range col.Values {
		if v.IsNull() {
			continue
		}
		col.Values[i] = textOrNull(strings.TrimSpace(c.lower.String(v.Text())))
	}
}

// DeriveSum sets column sum to a + b row by row, replacing any existing
// column of that name. A row is missing when either operand is missing or
// not numeric. Nothing happens unless both a and b exist.
func DeriveSum(t *table.Table, a, b, sum string) {
	colA, okA := t.Column(a)
	colB, okB := t.Column(b)
	if !okA || !okB {
		return
	}

	values := make([]table.Value, t.Len())
	for i := range values {
		x, okX := colA.Values[i].As(table.Number).Float()
		y, okY := colB.Values[i].As(table.Number).Float()
		if okX && okY {
			values[i] = table.Num(x + y)
		} else {
			values[i] = table.Num(math.NaN())
		}
	}
	// values has one entry per row, so Set cannot fail.
	if err := t.Set(table.NewColumn(sum, table.Number, values...)); err != nil {
		panic(err)
	}
}

func textOrNull(s string) table.Value {
	if s == "" {
		return table.Null()
	}
	return table.Str(s)
}
