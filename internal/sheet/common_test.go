package sheet

import (
	"context"
	"testing"

	"github.com/garyjia/pharmacy-audit/internal/output"
	"github.com/garyjia/pharmacy-audit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNarrative(t *testing.T) {
	tests := []struct {
		ids  []string
		want string
	}{
		{nil, "None"},
		{[]string{"123"}, "1 patient (#123)"},
		{[]string{"123", "456"}, "2 patients (#123, #456)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Narrative(tt.ids))
		})
	}
}

func TestCommonManager(t *testing.T) {
	c := collected(t, fixtureSources(t))
	wb := output.NewWorkbook()
	require.NoError(t, c.GenerateAll(context.Background(), wb))

	s := wb.Sheet(SheetCommon)
	require.NotNil(t, s)
	require.Len(t, s.Rows, 1)
	assert.Equal(t, []string{FieldAddress}, s.Wrap)

	t.Run("fixed fields lead the header", func(t *testing.T) {
		assert.Equal(t, []string{
			"pharmacy", "pharmacyId", "period", "address", "totalRx", "controlledRx",
			"controlledPct", "cashPct", "outOfStatePct", "uniquePatients", "uniquePrescribers",
			"top10Share", "trinity", "irMulti", "multiPrescriber", "highMed", "spatialConcerns",
			"prescriberDistanceCs", "prescriberDistanceNonCs", "patientDistanceCs",
			"patientDistanceNonCs", "prescriberPatientCs", "prescriberPatientNonCs", "missingDea",
		}, s.Header[:24])
	})

	t.Run("aig fields follow sheet order with base names", func(t *testing.T) {
		assert.Equal(t, []string{
			"xanaxHighPct", "xanaxPer",
			"oxy30HighPct", "oxy30Per", "oxy30HighMed", "oxy30LowMed",
			"hydrocodoneHighPct", "hydrocodoneHighMed", "hydrocodoneLowMed",
		}, s.Header[24:33])
		assert.Contains(t, s.Header, "somaHighPct")
		assert.Contains(t, s.Header, "adderallHighPct")
		assert.NotContains(t, s.Header, "carisoprodolHighPct")
	})

	t.Run("values", func(t *testing.T) {
		assert.Equal(t, output.String("ACME PHARMACY"), s.Value(0, FieldPharmacy))
		assert.Equal(t, output.String("BA1234567"), s.Value(0, FieldPharmacyID))
		assert.Equal(t, output.String("2024-01 to 2024-06"), s.Value(0, FieldPeriod))
		assert.Equal(t, output.Number(12000), s.Value(0, FieldTotalRx))
		assert.InDelta(t, 0.45, s.Value(0, FieldTop10Share).Float(), 1e-9)
		assert.Equal(t, output.String("2 patients (#P1, #P9)"), s.Value(0, FieldTrinity))
		assert.Equal(t, output.String("3 patients (#P1, #P3, #P4)"), s.Value(0, FieldIRMulti))
		assert.Equal(t, output.String("2 patients (#P1, #P5)"), s.Value(0, FieldMultiPrescriber))
		assert.Equal(t, output.String("2 patients (#P1, #P5)"), s.Value(0, FieldHighMED))
		assert.Equal(t, output.Number(2), s.Value(0, FieldSpatialConcerns))
		assert.Equal(t, output.String(testutil.DEAGamma), s.Value(0, FieldMissingDEA))

		cs := s.Value(0, FieldPatientDistanceCS)
		assert.InDelta(t, 1.0, cs.Float(), 1e-9)
	})

	t.Run("aig aggregates", func(t *testing.T) {
		assert.InDelta(t, 2.0/3.0, s.Value(0, "oxy30HighPct").Float(), 1e-9)
		assert.InDelta(t, 0.6, s.Value(0, "oxy30Per").Float(), 1e-9)
		assert.Equal(t, output.Number(300), s.Value(0, "oxy30HighMed"))
		assert.Equal(t, output.Number(840), s.Value(0, "methadoneHighMed"))
		assert.Equal(t, output.Number(0), s.Value(0, "hydrocodoneHighPct"))
		assert.True(t, s.Value(0, "hydrocodoneHighMed").IsNull())
	})

	t.Run("drug without calculations is empty", func(t *testing.T) {
		assert.Contains(t, s.Header, "fentanylHighPct")
		assert.True(t, s.Value(0, "fentanylHighPct").IsNull())
		assert.True(t, s.Value(0, "fentanylHighMed").IsNull())
		assert.True(t, s.Value(0, "fentanylLowMed").IsNull())
	})
}

func TestCommonManager_RequiresCollectedAIG(t *testing.T) {
	src := fixtureSources(t)
	c := NewController(src, nopLogger())
	require.NoError(t, c.Register(NewAIGManager(mustRule(t, src, 2))))
	common := NewCommonManager([]string{AIGSheetName(2)})
	require.NoError(t, c.Register(common))

	err := common.Collect(context.Background(), c)
	assert.ErrorIs(t, err, ErrNotCollected)
}
