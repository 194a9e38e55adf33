package source

import (
	"errors"
	"testing"

	"github.com/garyjia/pharmacy-audit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFirstTable(t *testing.T) {
	rows := [][]string{
		{"ACME PHARMACY BA1234567 Calculations Jan 2024", "BA1234567"},
		{"Springfield,\nIL 62701"},
		{"Aggregate Totals", "1,000", "250"},
	}

	t.Run("reads docx table", func(t *testing.T) {
		data, err := testutil.BuildDocx(rows)
		require.NoError(t, err)

		table, err := ReadFirstTable(File{Name: "calc.docx", Data: data})
		require.NoError(t, err)
		require.Len(t, table.Rows, 3)
		assert.Equal(t, "BA1234567", table.Rows[0][1])
		assert.Equal(t, "Springfield, IL 62701", table.Rows[1][0])
		assert.Equal(t, []string{"Aggregate Totals", "1,000", "250"}, table.Rows[2])
	})

	t.Run("sniffs docx without extension", func(t *testing.T) {
		data, err := testutil.BuildDocx(rows)
		require.NoError(t, err)

		table, err := ReadFirstTable(File{Name: "upload", Data: data})
		require.NoError(t, err)
		assert.Len(t, table.Rows, 3)
	})

	t.Run("reads html table", func(t *testing.T) {
		table, err := ReadFirstTable(File{Name: "calc.html", Data: testutil.BuildHTML(rows)})
		require.NoError(t, err)
		require.Len(t, table.Rows, 3)
		assert.Equal(t, "Springfield, IL 62701", table.Rows[1][0])
	})

	t.Run("docx without table is fatal", func(t *testing.T) {
		data, err := testutil.BuildDocx(nil)
		require.NoError(t, err)

		_, err = ReadFirstTable(File{Name: "calc.docx", Data: data})
		assert.True(t, errors.Is(err, ErrNoTable))
	})

	t.Run("html without table is fatal", func(t *testing.T) {
		_, err := ReadFirstTable(File{Name: "calc.html", Data: []byte("<html><body><p>none</p></body></html>")})
		assert.True(t, errors.Is(err, ErrNoTable))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := ReadFirstTable(File{Name: "calc.bin", Data: []byte{0x01, 0x02}})
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})
}
