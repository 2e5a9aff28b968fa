package table

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tbl, err := New(
		NewColumn("a", Number, Num(1), Num(2)),
		NewColumn("b", Text, Str("x"), Null()),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, 2, tbl.Width())
	assert.Equal(t, []string{"a", "b"}, tbl.Names())
	assert.True(t, tbl.Has("b"))
	assert.False(t, tbl.Has("c"))

	_, err = New(
		NewColumn("a", Number, Num(1)),
		NewColumn("b", Number, Num(1), Num(2)),
	)
	assert.Error(t, err, "length mismatch")

	_, err = New(NewColumn("a", Text), NewColumn("a", Text))
	assert.Error(t, err, "duplicate name")
}

func TestSetOverwritesInPlace(t *testing.T) {
	tbl := MustNew(
		NewColumn("a", Number, Num(1)),
		NewColumn("b", Number, Num(2)),
	)
	require.NoError(t, tbl.Set(NewColumn("a", Text, Str("z"))))
	assert.Equal(t, []string{"a", "b"}, tbl.Names())

	col, ok := tbl.Column("a")
	require.True(t, ok)
	assert.Equal(t, Text, col.Kind)
	assert.Equal(t, "z", col.Values[0].Text())

	require.NoError(t, tbl.Set(NewColumn("c", Number, Num(3))))
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Names())
}

func TestFilterDoesNotShareValues(t *testing.T) {
	orig := MustNew(NewColumn("a", Number, Num(1), Num(2), Num(3)))
	out := orig.Filter(func(i int) bool { return i != 1 })
	require.Equal(t, 2, out.Len())

	col, _ := out.Column("a")
	col.Values[0] = Num(100)

	origCol, _ := orig.Column("a")
	f, _ := origCol.Values[0].Float()
	assert.Equal(t, 1.0, f)
	assert.Equal(t, 3, orig.Len())
}

func TestRowKey(t *testing.T) {
	tbl := MustNew(
		NewColumn("a", Text, Str("x"), Str("x"), Str("x"), Null()),
		NewColumn("b", Number, Num(1), Num(1), Num(2), Null()),
	)
	assert.Equal(t, tbl.RowKey(0), tbl.RowKey(1))
	assert.NotEqual(t, tbl.RowKey(0), tbl.RowKey(2))
	assert.True(t, tbl.RowIsNull(3))
	assert.False(t, tbl.RowIsNull(0))
}

func TestValueAs(t *testing.T) {
	jan1 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   Value
		kind Kind
		want Value
	}{
		{"Text to number", Str(" 10.5 "), Number, Num(10.5)},
		{"Bad text to number", Str("abc"), Number, Null()},
		{"Number to text", Num(10), Text, Str("10")},
		{"Text to date", Str("2021-01-01"), Date, Time(jan1)},
		{"Brazilian text to date", Str("01/01/2021"), Date, Time(jan1)},
		{"Bad text to date", Str("not-a-date"), Date, Null()},
		{"Serial to date", Num(44197), Date, Time(jan1)},
		{"Date to number", Time(jan1), Number, Num(44197)},
		{"Date to text", Time(jan1), Text, Str("2021-01-01")},
		{"Null stays null", Null(), Date, Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.As(tt.kind)
			assert.True(t, got.Equal(tt.want), "got %v (%s), want %v", got, got.Kind(), tt.want)
		})
	}
}

func TestNumNaNIsNull(t *testing.T) {
	assert.True(t, Num(math.NaN()).IsNull())
}

func TestWorkbookOrder(t *testing.T) {
	var wb Workbook
	wb.Add("b", MustNew())
	wb.Add("a", MustNew())
	assert.Equal(t, []string{"b", "a"}, wb.Names())

	_, ok := wb.Get("a")
	assert.True(t, ok)
	_, ok = wb.Get("c")
	assert.False(t, ok)
}
