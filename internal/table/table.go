package table

import (
	"fmt"
	"strings"
)

// Column is a named sequence of values of one kind, aligned by row index.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

func NewColumn(name string, kind Kind, values ...Value) *Column {
	return &Column{Name: name, Kind: kind, Values: values}
}

func (c *Column) Len() int {
	return len(c.Values)
}

// Clone returns a deep copy of c.
func (c *Column) Clone() *Column {
	values := make([]Value, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Kind: c.Kind, Values: values}
}

// Convert changes the kind of c, converting every value with Value.As.
func (c *Column) Convert(k Kind) {
	for i, v := range c.Values {
		c.Values[i] = v.As(k)
	}
	c.Kind = k
}

// Table is an ordered set of equally long columns addressed by name.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New builds a table from cols. All columns must have the same length and
// distinct names.
func New(cols ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int)}
	for _, c := range cols {
		if _, ok := t.index[c.Name]; ok {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		if err := t.Set(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNew is like New but panics on error.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.cols)
}

func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. The slice is shared with t.
func (t *Table) Columns() []*Column {
	return t.cols
}

func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Set appends col, or replaces the column of the same name in place.
func (t *Table) Set(col *Column) error {
	if len(t.cols) > 0 && col.Len() != t.rows {
		return fmt.Errorf("column %q has %d values, table has %d rows", col.Name, col.Len(), t.rows)
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[col.Name]; ok {
		t.cols[i] = col
		return nil
	}
	t.index[col.Name] = len(t.cols)
	t.cols = append(t.cols, col)
	t.rows = col.Len()
	return nil
}

// Row returns the values of row i across all columns.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Values[i]
	}
	return row
}

// RowKey returns a string identifying the full content of row i. Rows with
// equal values in every column have equal keys.
func (t *Table) RowKey(i int) string {
	var b strings.Builder
	for j, c := range t.cols {
		if j > 0 {
			b.WriteByte(0x1f)
		}
		v := c.Values[i]
		if v.IsNull() {
			b.WriteByte(0x00)
			continue
		}
		b.WriteString(v.Kind().String())
		b.WriteByte(':')
		b.WriteString(v.String())
	}
	return b.String()
}

// RowIsNull reports whether every cell of row i is missing.
func (t *Table) RowIsNull(i int) bool {
	for _, c := range t.cols {
		if !c.Values[i].IsNull() {
			return false
		}
	}
	return true
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	var rows []int
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	out := &Table{index: make(map[string]int, len(t.cols)), rows: len(rows)}
	for j, c := range t.cols {
		values := make([]Value, len(rows))
		for k, i := range rows {
			values[k] = c.Values[i]
		}
		out.cols = append(out.cols, &Column{Name: c.Name, Kind: c.Kind, Values: values})
		out.index[c.Name] = j
	}
	return out
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	return t.Filter(func(int) bool { return true })
}
