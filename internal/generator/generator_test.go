package generator

import (
	"bytes"
	"context"
	"testing"

	"github.com/garyjia/pharmacy-audit/internal/practitioner"
	"github.com/garyjia/pharmacy-audit/internal/report"
	"github.com/garyjia/pharmacy-audit/internal/sheet"
	"github.com/garyjia/pharmacy-audit/internal/source"
	"github.com/garyjia/pharmacy-audit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func fixtureInput(t *testing.T) Input {
	t.Helper()
	docs, err := testutil.BuildDocuments()
	require.NoError(t, err)

	return Input{
		Report:        source.File{Name: "report.xlsx", Data: docs.Report},
		Current:       source.File{Name: "current.docx", Data: docs.Current},
		Prior:         source.File{Name: "prior.html", Data: docs.Prior},
		Practitioners: source.File{Name: "practitioners.xlsx", Data: docs.Practitioners},
	}
}

func generate(t *testing.T, in Input, opts ...Option) *Result {
	t.Helper()
	res, err := New(in, report.DefaultConfig(), zap.NewNop(), opts...).Generate(context.Background())
	require.NoError(t, err)
	return res
}

func TestCanonicalOrder(t *testing.T) {
	order := CanonicalOrder()
	require.Len(t, order, 27)
	assert.Equal(t, []string{"common", "deaconcern", "cscash", "arcos", "top10cs", "topdr", "aig1"}, order[:7])
	assert.Equal(t, "aig20", order[25])
	assert.Equal(t, "aigtable", order[26])
}

func TestGenerate(t *testing.T) {
	res := generate(t, fixtureInput(t))

	t.Run("sheets in canonical order", func(t *testing.T) {
		assert.Equal(t, []string{
			"common", "deaconcern", "cscash", "arcos", "top10cs", "topdr",
			"aig1", "aig2", "aig8", "aigtable",
		}, res.Workbook.Names())
	})

	t.Run("identity comes from the current calculations", func(t *testing.T) {
		assert.Equal(t, "ACME PHARMACY", res.Pharmacy)
		assert.Equal(t, "BA1234567", res.PharmacyID)
		assert.Equal(t, "2024-01 to 2024-06", res.Period)
	})

	t.Run("missing prescribers are reported", func(t *testing.T) {
		assert.Equal(t, []string{testutil.DEAGamma}, res.MissingDEA)
	})

	t.Run("drug without a calculations block", func(t *testing.T) {
		assert.Nil(t, res.Workbook.Sheet("aig7"))
		common := res.Workbook.Sheet(sheet.SheetCommon)
		require.NotNil(t, common)
		assert.True(t, common.Value(0, "fentanylHighPct").IsNull())
	})

	t.Run("liquid formulations are excluded", func(t *testing.T) {
		aig2 := res.Workbook.Sheet("aig2")
		require.NotNil(t, aig2)
		for i := range aig2.Rows {
			assert.NotEqual(t, 500.0, aig2.Value(i, sheet.ColQuantity).Float())
		}
	})

	t.Run("trend compares prior html with current docx", func(t *testing.T) {
		table := res.Workbook.Sheet(sheet.SheetAIGTable)
		require.NotNil(t, table)
		assert.Equal(t, 2500.0, table.Value(1, sheet.ColPriorPerMonth).Float())
		assert.Equal(t, 3000.0, table.Value(1, sheet.ColCurrentPerMonth).Float())
	})
}

func TestGenerate_Render(t *testing.T) {
	res := generate(t, fixtureInput(t))
	f, err := res.Render()
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, res.Workbook.Names(), f.GetSheetList())

	styleID, err := f.GetCellStyle(sheet.SheetCommon, "D2")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Alignment)
	assert.True(t, style.Alignment.WrapText, "address cell wraps")

	address, err := f.GetCellValue(sheet.SheetCommon, "D2")
	require.NoError(t, err)
	assert.Equal(t, "100 Main St Springfield, IL 62701", address)

	formula, err := f.GetCellFormula("aig2", "P2")
	require.NoError(t, err)
	assert.Equal(t, "deaconcern!F2", formula)

	formula, err = f.GetCellFormula(sheet.SheetAIGTable, "D3")
	require.NoError(t, err)
	assert.Equal(t, `IF(C3<B3,"LOWER",IF(C3>B3,"HIGHER","NO CHANGE"))`, formula)
}

func TestGenerate_Idempotent(t *testing.T) {
	in := fixtureInput(t)
	first, err := generate(t, in).Bytes()
	require.NoError(t, err)
	second, err := generate(t, in).Bytes()
	require.NoError(t, err)

	a := readAll(t, first)
	b := readAll(t, second)
	assert.Equal(t, a, b)
}

func TestGenerate_PractitionerAdditions(t *testing.T) {
	res := generate(t, fixtureInput(t), WithPractitioners(practitioner.Practitioner{
		DEA:       testutil.DEAGamma,
		Name:      "Dr. Gamma",
		Specialty: "Anesthesiology",
	}))

	assert.Empty(t, res.MissingDEA)
	aig2 := res.Workbook.Sheet("aig2")
	require.NotNil(t, aig2)
	assert.Equal(t, "Dr. Gamma", aig2.Value(1, sheet.ColPrescriber).Text())
}

func TestGenerate_Progress(t *testing.T) {
	var events []sheet.Progress
	generate(t, fixtureInput(t), WithProgress(func(p sheet.Progress) {
		events = append(events, p)
	}))

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, last.Total, last.Done)
	assert.Equal(t, len(events), last.Total)
	assert.Equal(t, sheet.SheetCommon, last.Manager)
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("calculations without a table", func(t *testing.T) {
		in := fixtureInput(t)
		data, err := testutil.BuildDocx(nil)
		require.NoError(t, err)
		in.Current = source.File{Name: "current.docx", Data: data}

		_, err = New(in, report.DefaultConfig(), zap.NewNop()).Generate(context.Background())
		assert.ErrorIs(t, err, ErrGeneration)
		assert.ErrorIs(t, err, source.ErrNoTable)
	})

	t.Run("empty input", func(t *testing.T) {
		in := fixtureInput(t)
		in.Practitioners = source.File{Name: "practitioners.xlsx"}

		_, err := New(in, report.DefaultConfig(), zap.NewNop()).Generate(context.Background())
		assert.ErrorIs(t, err, ErrGeneration)
		assert.ErrorIs(t, err, ErrNoInput)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(fixtureInput(t), report.DefaultConfig(), zap.NewNop()).Generate(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// readAll returns every sheet's cell values and formulas
func readAll(t *testing.T, data []byte) map[string][][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	out := make(map[string][][]string)
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		require.NoError(t, err)
		for r, row := range rows {
			for c := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				formula, _ := f.GetCellFormula(name, cell)
				if formula != "" {
					row[c] = "=" + formula
				}
			}
		}
		out[name] = rows
	}
	return out
}
