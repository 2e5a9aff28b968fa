package cleaner

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nconklindev/tidysheet/internal/logging"
	"github.com/nconklindev/tidysheet/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func donations() *table.Table {
	return table.MustNew(
		table.NewColumn("coluna_texto", table.Text, table.Str("Ana "), table.Str("Ana"), table.Null()),
		table.NewColumn("coluna1", table.Number, table.Num(10), table.Num(10), table.Null()),
		table.NewColumn("coluna2", table.Number, table.Num(5), table.Num(5), table.Null()),
		table.NewColumn("data", table.Text, table.Str("2021-01-01"), table.Str("2021-01-01"), table.Null()),
	)
}

func column(t *testing.T, tbl *table.Table, name string) *table.Column {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok, "missing column %q", name)
	return col
}

func TestCleanDonationsScenario(t *testing.T) {
	out := New(logging.Discard()).Clean(donations())

	require.Equal(t, 1, out.Len())
	assert.Equal(t, []string{"coluna_texto", "coluna1", "coluna2", "data", "soma_colunas"}, out.Names())

	assert.Equal(t, "ana", column(t, out, "coluna_texto").Values[0].Text())

	d, ok := column(t, out, "data").Values[0].Date()
	require.True(t, ok)
	assert.True(t, d.Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))

	sum, ok := column(t, out, "soma_colunas").Values[0].Float()
	require.True(t, ok)
	assert.Equal(t, 15.0, sum)
}

func TestCleanDoesNotModifyInput(t *testing.T) {
	in := donations()
	New(logging.Discard()).Clean(in)

	assert.Equal(t, 3, in.Len())
	assert.Equal(t, 4, in.Width())
	assert.Equal(t, "Ana ", column(t, in, "coluna_texto").Values[0].Text())
	assert.Equal(t, table.Text, column(t, in, "data").Kind)
}

func TestCleanUnparseableDate(t *testing.T) {
	in := table.MustNew(
		table.NewColumn("data", table.Text, table.Str("not-a-date"), table.Str("2021-03-04"), table.Null()),
		table.NewColumn("valor", table.Number, table.Num(1), table.Num(2), table.Num(3)),
	)
	out := New(logging.Discard()).Clean(in)
	require.Equal(t, 3, out.Len())

	data := column(t, out, "data")
	assert.Equal(t, table.Date, data.Kind)
	assert.True(t, data.Values[0].IsNull(), "unparseable date becomes missing")

	d, ok := data.Values[1].Date()
	require.True(t, ok)
	assert.Equal(t, "2021-03-04", d.Format("2006-01-02"))

	d, ok = data.Values[2].Date()
	require.True(t, ok, "missing date is filled with the sentinel")
	assert.True(t, d.Equal(SentinelDate))
}

func TestCleanSerialDates(t *testing.T) {
	in := table.MustNew(
		table.NewColumn("data", table.Number, table.Num(44197), table.Null()),
		table.NewColumn("x", table.Number, table.Num(1), table.Num(2)),
	)
	out := New(logging.Discard()).Clean(in)

	data := column(t, out, "data")
	d0, _ := data.Values[0].Date()
	d1, _ := data.Values[1].Date()
	assert.Equal(t, "2021-01-01", d0.Format("2006-01-02"))
	assert.Equal(t, "2000-01-01", d1.Format("2006-01-02"))
}

func TestFillMissing(t *testing.T) {
	in := table.MustNew(
		table.NewColumn("coluna_num", table.Number, table.Num(3), table.Null()),
		table.NewColumn("coluna_texto", table.Text, table.Str("x"), table.Null()),
		table.NewColumn("outra", table.Text, table.Null(), table.Str("y")),
	)
	New(logging.Discard()).FillMissing(in)

	n, ok := column(t, in, "coluna_num").Values[1].Float()
	require.True(t, ok)
	assert.Equal(t, 0.0, n)
	assert.Equal(t, "desconhecido", column(t, in, "coluna_texto").Values[1].Text())
	assert.True(t, column(t, in, "outra").Values[0].IsNull(), "columns outside the rule set keep missing values")
}

func TestFillMissingIntoNumericTextColumn(t *testing.T) {
	in := table.MustNew(
		table.NewColumn("coluna_texto", table.Number, table.Num(7), table.Null()),
	)
	New(logging.Discard()).FillMissing(in)

	col := column(t, in, "coluna_texto")
	assert.Equal(t, table.Text, col.Kind)
	assert.Equal(t, "7", col.Values[0].Text())
	assert.Equal(t, "desconhecido", col.Values[1].Text())
}

func TestNormalizeText(t *testing.T) {
	in := table.MustNew(
		table.NewColumn("coluna_texto", table.Text, table.Str("  ÁGUA Potável "), table.Str("DOAÇÃO")),
	)
	New(logging.Discard()).NormalizeText(in, ColumnText)

	col := column(t, in, "coluna_texto")
	assert.Equal(t, "água potável", col.Values[0].Text())
	assert.Equal(t, "doação", col.Values[1].Text())
}

func TestDeriveSum(t *testing.T) {
	t.Run("Overwrites existing column", func(t *testing.T) {
		in := table.MustNew(
			table.NewColumn("soma_colunas", table.Text, table.Str("old"), table.Str("old")),
			table.NewColumn("coluna1", table.Number, table.Num(1), table.Num(2)),
			table.NewColumn("coluna2", table.Number, table.Num(3), table.Null()),
		)
		require.NotPanics(t, func() { DeriveSum(in, ColumnA, ColumnB, ColumnSum) })

		assert.Equal(t, []string{"soma_colunas", "coluna1", "coluna2"}, in.Names())
		sum := column(t, in, "soma_colunas")
		assert.Equal(t, table.Number, sum.Kind)
		f, ok := sum.Values[0].Float()
		require.True(t, ok)
		assert.Equal(t, 4.0, f)
		assert.True(t, sum.Values[1].IsNull())
	})

	t.Run("Needs both columns", func(t *testing.T) {
		in := table.MustNew(table.NewColumn("coluna1", table.Number, table.Num(1)))
		DeriveSum(in, ColumnA, ColumnB, ColumnSum)
		assert.False(t, in.Has("soma_colunas"))
	})
}

func TestCleanProperties(t *testing.T) {
	in := table.MustNew(
		table.NewColumn("coluna_texto", table.Text,
			table.Str(" Maria"), table.Str("MARIA"), table.Str("  "), table.Str("joão "), table.Null(), table.Str("joão")),
		table.NewColumn("coluna1", table.Number,
			table.Num(1), table.Num(1), table.Null(), table.Num(2.5), table.Null(), table.Num(2.5)),
		table.NewColumn("coluna2", table.Number,
			table.Num(4), table.Num(4), table.Null(), table.Num(-1), table.Null(), table.Num(-1)),
		table.NewColumn("categoria", table.Text,
			table.Str("a"), table.Str("a"), table.Null(), table.Str("b"), table.Null(), table.Str("b")),
	)
	out := New(logging.Discard()).Clean(in)

	seen := map[string]bool{}
	for i := 0; i < out.Len(); i++ {
		key := out.RowKey(i)
		assert.False(t, seen[key], "row %d duplicated", i)
		seen[key] = true
		assert.False(t, out.RowIsNull(i), "row %d entirely missing", i)
	}

	for _, v := range column(t, out, "coluna_texto").Values {
		s := v.Text()
		assert.Equal(t, strings.ToLower(strings.TrimSpace(s)), s)
	}

	c1 := column(t, out, "coluna1")
	c2 := column(t, out, "coluna2")
	sum := column(t, out, "soma_colunas")
	for i := 0; i < out.Len(); i++ {
		a, _ := c1.Values[i].Float()
		b, _ := c2.Values[i].Float()
		s, ok := sum.Values[i].Float()
		require.True(t, ok)
		assert.Equal(t, a+b, s)
	}

	assert.Equal(t, 2, out.Len())
}

func TestCleanWithoutKnownColumns(t *testing.T) {
	in := table.MustNew(
		table.NewColumn("nome", table.Text, table.Str(" x "), table.Str("x")),
	)
	out := New(logging.Discard()).Clean(in)

	assert.Equal(t, []string{"nome"}, out.Names())
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "x", column(t, out, "nome").Values[0].Text())
}

func TestCleanLogsEachStep(t *testing.T) {
	var buf bytes.Buffer
	New(logging.New(&buf, slog.LevelDebug)).Clean(donations())

	out := buf.String()
	for _, step := range []string{
		"duplicates removed",
		"text trimmed",
		"empty rows removed",
		"missing values filled",
		"dates converted",
		"text normalized",
		"sum column derived",
		"normalized duplicates removed",
		"sheet cleaned",
	} {
		if !strings.Contains(out, "msg=\""+step+"\"") {
			t.Errorf("missing log line %q in:\n%s", step, out)
		}
	}
}
