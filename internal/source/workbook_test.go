package source

import (
	"errors"
	"testing"

	"github.com/garyjia/pharmacy-audit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWorkbook(t *testing.T) {
	data, err := testutil.BuildXLSX(
		testutil.SheetData{Name: "Summary", Rows: [][]interface{}{
			{"Total Prescriptions", 1200},
			{"Cash %", "12.5%"},
		}},
		testutil.SheetData{Name: "Rows", Rows: [][]interface{}{
			{"Patient ID", "Drug Name", "Quantity"},
			{"P1", "Oxycodone 30mg", "1,200"},
			{"", "", ""},
			{"P2", "Alprazolam 2mg", 60},
		}},
	)
	require.NoError(t, err)

	wb, err := OpenWorkbook(File{Name: "report.xlsx", Data: data})
	require.NoError(t, err)

	t.Run("keeps sheet order", func(t *testing.T) {
		assert.Equal(t, []string{"Summary", "Rows"}, wb.SheetNames())
	})

	t.Run("addresses cells by coordinate", func(t *testing.T) {
		s := wb.Sheet("Summary")
		assert.Equal(t, "Total Prescriptions", s.Cell("A1"))
		assert.Equal(t, "1200", s.At(2, 1))
		assert.Equal(t, "", s.Cell("Z99"))
	})

	t.Run("looks up values by label", func(t *testing.T) {
		v, ok := wb.Sheet("Summary").Lookup("cash %")
		assert.True(t, ok)
		assert.Equal(t, "12.5%", v)

		_, ok = wb.Sheet("Summary").Lookup("Unknown")
		assert.False(t, ok)
	})

	t.Run("reads records by header and skips blank rows", func(t *testing.T) {
		records := wb.Sheet("Rows").Records(1)
		require.Len(t, records, 2)
		assert.Equal(t, "P1", records[0].Get("Patient ID"))
		assert.Equal(t, 1200.0, records[0].Number("quantity"))
		assert.Equal(t, "", records[1].Get("Missing Column"))
	})

	t.Run("absent sheet is empty, not an error", func(t *testing.T) {
		s := wb.Sheet("Nope")
		assert.Nil(t, s)
		assert.Equal(t, "", s.Cell("A1"))
		assert.Nil(t, s.Records(1))
		assert.NoError(t, s.Conform("K40"))
	})

	t.Run("rejects invalid bytes", func(t *testing.T) {
		_, err := OpenWorkbook(File{Name: "bad.xlsx", Data: []byte("not a workbook")})
		assert.Error(t, err)
	})
}

func TestSheet_Conform(t *testing.T) {
	s := NewSheet("Analysis", [][]string{
		{"a", "b", "c"},
		{"a"},
	})

	assert.NoError(t, s.Conform("C2"))

	err := s.Conform("D2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "Analysis")

	assert.True(t, errors.Is(s.Conform("A3"), ErrSchemaMismatch))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,234.50", 1234.5, true},
		{"$ 99", 99, true},
		{"-12", -12, true},
		{"x 1.5", 1.5, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"1.2.3", 1.2, true},
		{"10-20", 10, true},
		{"2024-01", 2024, true},
		{".5 mi", 0.5, true},
		{"-.25", -0.25, true},
		{"--", 0, false},
		{"-", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParsePercent(t *testing.T) {
	v, ok := ParsePercent("12.5%")
	assert.True(t, ok)
	assert.InDelta(t, 0.125, v, 1e-9)

	v, ok = ParsePercent("0.4")
	assert.True(t, ok)
	assert.InDelta(t, 0.4, v, 1e-9)
}
