package sheet

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/garyjia/pharmacy-audit/internal/aig"
	"github.com/garyjia/pharmacy-audit/internal/output"
	"github.com/garyjia/pharmacy-audit/internal/report"
	"github.com/garyjia/pharmacy-audit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func aigManager(t *testing.T, c *Controller, sheet int) *AIGManager {
	t.Helper()
	m, ok := c.AIG(sheet)
	require.True(t, ok, "aig%d not registered", sheet)
	return m
}

func TestAIGManager_Oxycodone(t *testing.T) {
	c := collected(t, fixtureSources(t))
	m := aigManager(t, c, 2)

	t.Run("aggregates", func(t *testing.T) {
		agg := m.Aggregates()
		assert.True(t, agg.Available)
		assert.Equal(t, "oxy30", agg.Base)
		// liquids count toward the family but never reach the candidate set
		assert.Equal(t, 5, agg.FamilyCount)
		assert.Equal(t, 3, agg.Candidates)
		assert.Equal(t, 2, agg.Passing)
		assert.InDelta(t, 2.0/3.0, agg.HighPct, 1e-9)
		assert.InDelta(t, 0.6, agg.Per, 1e-9)
		assert.True(t, agg.HasMED)
		assert.Equal(t, 300.0, agg.HighMED)
		assert.Equal(t, 180.0, agg.LowMED)
		assert.Equal(t, 3000.0, agg.PerMonth)
		assert.Equal(t, 333.0, agg.Variance)
	})

	t.Run("high variance ranks the whole candidate set", func(t *testing.T) {
		rows := m.Rows()
		require.Len(t, rows, 2)
		assert.Equal(t, testutil.DEAAlpha, rows[0].DEA)
		assert.Equal(t, 210.0, rows[0].Quantity)
		assert.Equal(t, testutil.DEAGamma, rows[1].DEA)
		assert.Equal(t, 200.0, rows[1].Quantity)
	})

	t.Run("liquid row is excluded", func(t *testing.T) {
		for _, r := range m.Rows() {
			if r.DEA == testutil.DEAGamma {
				assert.Equal(t, 200.0, r.Quantity, "the 500ml fill must not count")
			}
		}
	})

	t.Run("patients span the prescriber's full history", func(t *testing.T) {
		alpha, gamma := m.Rows()[0], m.Rows()[1]
		assert.Equal(t, 3, alpha.Patients, "P1, P2 and the methadone patient P7")
		assert.Equal(t, 2, gamma.Patients, "P5 and the non-controlled P4")
	})

	t.Run("prescriber details", func(t *testing.T) {
		alpha := m.Rows()[0]
		assert.Equal(t, "Dr. Alpha", alpha.Practitioner.Name)
		assert.True(t, alpha.HasCSP)
		assert.Equal(t, 4, alpha.TotalRx)
		assert.Equal(t, 3, alpha.ControlledRx)
		assert.InDelta(t, 0.75, alpha.CSP, 1e-9)
		assert.True(t, alpha.HasCash)
		assert.InDelta(t, 2.0/3.0, alpha.CashPct, 1e-9)
		assert.Equal(t, output.Formula("deaconcern!F2"), alpha.Miles)

		gamma := m.Rows()[1]
		assert.Empty(t, gamma.Practitioner.Name)
		assert.True(t, gamma.HasCSP)
		assert.InDelta(t, 0.25, gamma.CSP, 1e-9)
		assert.False(t, gamma.HasCash)
		assert.Equal(t, output.String("N/A"), gamma.Miles)
	})

	t.Run("missing practitioner is recorded", func(t *testing.T) {
		assert.Equal(t, []string{testutil.DEAGamma}, c.MissingDEA())
	})
}

func TestAIGManager_Methadone(t *testing.T) {
	c := collected(t, fixtureSources(t))
	m := aigManager(t, c, 8)

	agg := m.Aggregates()
	assert.Equal(t, 1.0, agg.HighPct)
	assert.False(t, agg.HasPer)
	assert.Equal(t, 840.0, agg.HighMED)
	assert.Equal(t, 240.0, agg.LowMED)

	rows := m.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, testutil.DEADelta, rows[0].DEA)
	assert.Equal(t, testutil.DEAAlpha, rows[1].DEA)
	assert.Equal(t, output.Formula("deaconcern!F4"), rows[0].Miles)
}

func TestAIGManager_NameFilterAndPer(t *testing.T) {
	c := collected(t, fixtureSources(t))
	m := aigManager(t, c, 1)

	agg := m.Aggregates()
	assert.Equal(t, "Alprazolam 2mg", agg.Label)
	assert.Equal(t, 2, agg.FamilyCount)
	assert.Equal(t, 1, agg.Candidates)
	assert.InDelta(t, 0.5, agg.Per, 1e-9)
	assert.False(t, agg.MEDConfigured)

	rows := m.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, testutil.DEADelta, rows[0].DEA)
	assert.InDelta(t, 1.0, rows[0].CSP, 1e-9)
	assert.InDelta(t, 1.0, rows[0].CashPct, 1e-9)
}

func TestAIGManager_MissingCalculations(t *testing.T) {
	c := collected(t, fixtureSources(t))

	fentanyl := aigManager(t, c, 7)
	assert.False(t, fentanyl.Aggregates().Available)
	assert.Empty(t, fentanyl.Rows())

	hydrocodone := aigManager(t, c, 3)
	assert.True(t, hydrocodone.Aggregates().Available)
	assert.Zero(t, hydrocodone.Aggregates().HighPct)
	assert.False(t, hydrocodone.Aggregates().HasMED)
}

func TestAIGManager_CSPGating(t *testing.T) {
	// Alpha: 80 prescriptions, 20 controlled (CSP 0.25), 3 of them cash (0.15).
	sheets := testutil.ReportSheets()
	rows := [][]interface{}{
		{"Rx Number", "Fill Date", "Patient ID", "Prescriber DEA", "Drug Name", "Controlled", "Payment Type"},
	}
	for i := 0; i < 80; i++ {
		controlled, payment := "N", "Insurance"
		if i < 20 {
			controlled = "Y"
		}
		if i < 3 {
			payment = "Cash"
		}
		rows = append(rows, []interface{}{fmt.Sprintf("X%d", i), "2024-01-01", "P1", testutil.DEAAlpha, "Drug", controlled, payment})
	}
	// Gamma: CSP exactly 0.20 is not retained
	for i := 0; i < 5; i++ {
		controlled := "N"
		if i == 0 {
			controlled = "Y"
		}
		rows = append(rows, []interface{}{fmt.Sprintf("G%d", i), "2024-01-01", "P5", testutil.DEAGamma, "Drug", controlled, "Cash"})
	}
	sheets[len(sheets)-1] = testutil.SheetData{Name: report.SheetAll, Rows: rows}

	c := collected(t, fixtureSources(t, sheets...))
	m := aigManager(t, c, 2)
	require.Len(t, m.Rows(), 2)

	alpha := m.Rows()[0]
	assert.True(t, alpha.HasCSP)
	assert.InDelta(t, 0.25, alpha.CSP, 1e-9)
	assert.False(t, alpha.HasCash)

	gamma := m.Rows()[1]
	assert.False(t, gamma.HasCSP)
	assert.False(t, gamma.HasCash)

	wb := output.NewWorkbook()
	require.NoError(t, m.Generate(context.Background(), wb))
	s := wb.Sheet("aig2")
	require.NotNil(t, s)
	assert.Equal(t, output.Number(0.25), s.Value(0, ColCSP))
	assert.True(t, s.Value(0, ColCSCash).IsNull())
	assert.True(t, s.Value(1, ColTotalRx).IsNull())
	assert.True(t, s.Value(1, ColControlledRx).IsNull())
	assert.True(t, s.Value(1, ColCSP).IsNull())
}

func TestAIGManager_Generate(t *testing.T) {
	c := collected(t, fixtureSources(t))
	wb := output.NewWorkbook()
	require.NoError(t, c.GenerateAll(context.Background(), wb))

	s := wb.Sheet("aig2")
	require.NotNil(t, s)
	assert.Equal(t, []string{
		"Drug", "DU/Month", "Variance", "DEA", "Prescriber", "Specialty", "Location", "State",
		"Disciplinary", "Quantity", "Patients", "Total Rx", "Controlled Rx", "CSP", "CSCash",
		"Miles", "Pharmacist Note", "Note Date",
	}, s.Header)
	require.Len(t, s.Rows, 2)

	assert.Equal(t, output.String("Oxycodone 30mg"), s.Value(0, ColDrug))
	assert.Equal(t, output.Number(3000), s.Value(0, ColPerMonth))
	assert.Equal(t, output.String("Verified by phone"), s.Value(0, ColNote))
	assert.True(t, s.Value(1, ColDrug).IsNull(), "label only on the first row")
	assert.True(t, s.Value(1, ColVariance).IsNull())
	assert.Equal(t, output.String(""), s.Value(1, ColPrescriber))

	assert.Nil(t, wb.Sheet("aig7"), "no rows, no sheet")
	assert.Nil(t, wb.Sheet("aig3"))
}

func TestAIGManager_UnknownOperator(t *testing.T) {
	rules := aig.DefaultTable().Rules()
	for i := range rules {
		if rules[i].Sheet == 5 {
			rules[i].Operator = "=>"
		}
	}
	src := fixtureSources(t)
	src.Rules = aig.NewTable(rules)

	c := NewController(src, zap.NewNop())
	require.NoError(t, RegisterDefaults(c))
	err := c.CollectAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, aig.ErrUnknownOperator))
	assert.Contains(t, err.Error(), "aig5")
}
