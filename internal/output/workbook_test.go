package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestValue(t *testing.T) {
	assert.Equal(t, "abc", String("abc").Display())
	assert.Equal(t, "0.25", Number(0.25).Display())
	assert.Equal(t, "true", Bool(true).Display())
	assert.Equal(t, "=deaconcern!F2", Formula("deaconcern!F2").Display())
	assert.True(t, Null().IsNull())
	assert.True(t, OptionalNumber(3, false).IsNull())
	assert.Equal(t, KindNumber, OptionalNumber(3, true).Kind())
}

func TestWorkbook(t *testing.T) {
	build := func() *Workbook {
		wb := NewWorkbook()
		for _, name := range []string{"aig2", "common", "extra", "aig1"} {
			s := NewSheet(name, []string{"Name", "Count"})
			require.NoError(t, s.AddRow([]Value{String(name), Number(1)}))
			require.NoError(t, wb.Append(s))
		}
		return wb
	}

	t.Run("rejects duplicates", func(t *testing.T) {
		wb := build()
		err := wb.Append(NewSheet("common", nil))
		assert.True(t, errors.Is(err, ErrDuplicateSheet))
	})

	t.Run("rejects rows of the wrong width", func(t *testing.T) {
		s := NewSheet("s", []string{"A", "B"})
		assert.True(t, errors.Is(s.AddRow([]Value{Null()}), ErrRowWidth))
	})

	t.Run("reorder filters and orders", func(t *testing.T) {
		wb := build()
		wb.Reorder([]string{"common", "deaconcern", "aig1", "aig2"})
		assert.Equal(t, []string{"common", "aig1", "aig2"}, wb.Names())
		assert.Nil(t, wb.Sheet("extra"))
	})

	t.Run("empty workbook cannot render", func(t *testing.T) {
		_, err := NewWorkbook().Render()
		assert.True(t, errors.Is(err, ErrEmptyWorkbook))
	})
}

func TestRender(t *testing.T) {
	wb := NewWorkbook()
	common := NewSheet("common", []string{"pharmacy", "address", "totalRx", "flag", "empty"})
	common.Wrap = []string{"address"}
	require.NoError(t, common.AddRow([]Value{
		String("ACME"), String("100 Main St\nSpringfield"), Number(12000), Bool(true), Null(),
	}))
	require.NoError(t, wb.Append(common))

	trend := NewSheet("aigtable", []string{"Drug", "Prior", "Current", "Trend"})
	require.NoError(t, trend.AddRow([]Value{
		String("Oxycodone"), Number(2500), Number(3000),
		Formula(`IF(C2<B2,"LOWER",IF(C2>B2,"HIGHER","NO CHANGE"))`),
	}))
	require.NoError(t, wb.Append(trend))

	data, err := wb.Bytes()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	t.Run("sheet order", func(t *testing.T) {
		assert.Equal(t, []string{"common", "aigtable"}, f.GetSheetList())
	})

	t.Run("typed cells", func(t *testing.T) {
		rows, err := f.GetRows("common")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, []string{"pharmacy", "address", "totalRx", "flag", "empty"}, rows[0])
		assert.Equal(t, "ACME", rows[1][0])
		assert.Equal(t, "12000", rows[1][2])
		assert.Equal(t, "TRUE", rows[1][3])
		assert.Len(t, rows[1], 4)
	})

	t.Run("address wraps", func(t *testing.T) {
		styleID, err := f.GetCellStyle("common", "B2")
		require.NoError(t, err)
		style, err := f.GetStyle(styleID)
		require.NoError(t, err)
		require.NotNil(t, style.Alignment)
		assert.True(t, style.Alignment.WrapText)
	})

	t.Run("formula is emitted verbatim", func(t *testing.T) {
		formula, err := f.GetCellFormula("aigtable", "D2")
		require.NoError(t, err)
		assert.Equal(t, `IF(C2<B2,"LOWER",IF(C2>B2,"HIGHER","NO CHANGE"))`, formula)
	})
}
