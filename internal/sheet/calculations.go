package sheet

import (
	"context"
	"fmt"

	"github.com/garyjia/pharmacy-audit/internal/calculations"
	"github.com/garyjia/pharmacy-audit/internal/output"
)

// Calculation sheet columns
const (
	ColPriorPerMonth   = "Prior DU/Month"
	ColCurrentPerMonth = "Current DU/Month"
	ColTrend           = "Trend"
)

// trendFormula compares current (C) against prior (B) DU/month on row r
const trendFormula = `IF(C%[1]d<B%[1]d,"LOWER",IF(C%[1]d>B%[1]d,"HIGHER","NO CHANGE"))`

type arcosLine struct {
	drug  string
	stats calculations.DrugStats
}

var arcosLayout = mustLayout([]string{
	ColDrug, ColTotalDU, ColPerMonth, ColExpected, ColVariance,
}, map[string]Accessor[arcosLine]{
	ColDrug:     func(l arcosLine) output.Value { return str(l.drug) },
	ColTotalDU:  func(l arcosLine) output.Value { return num(l.stats.TotalDosageUnits) },
	ColPerMonth: func(l arcosLine) output.Value { return num(l.stats.DosageUnitsPerMonth) },
	ColExpected: func(l arcosLine) output.Value { return num(l.stats.ExpectedPerMonth) },
	ColVariance: func(l arcosLine) output.Value { return num(l.stats.VarianceMultiplier) },
})

// ArcosManager lists each monitored drug's current dispensing block
type ArcosManager struct {
	lines []arcosLine
}

// NewArcosManager creates the dispensing block manager
func NewArcosManager() *ArcosManager {
	return &ArcosManager{}
}

// Name returns the sheet name
func (m *ArcosManager) Name() string {
	return SheetArcos
}

// Collect reads the current document's block for every rule lookup; drugs
// without a block are skipped.
func (m *ArcosManager) Collect(ctx context.Context, c *Controller) error {
	src := c.Sources()
	m.lines = nil
	for _, drug := range src.Rules.Lookups() {
		if stats, ok := src.Current.Drug(drug); ok {
			m.lines = append(m.lines, arcosLine{drug: drug, stats: stats})
		}
	}
	return nil
}

// Generate emits one row per drug found
func (m *ArcosManager) Generate(ctx context.Context, wb *output.Workbook) error {
	s, err := arcosLayout.Sheet(m.Name(), m.lines)
	if err != nil {
		return err
	}
	return wb.Append(s)
}

type trendLine struct {
	row                  int
	drug                 string
	prior, current       float64
	hasPrior, hasCurrent bool
}

var aigTableLayout = mustLayout([]string{
	ColDrug, ColPriorPerMonth, ColCurrentPerMonth, ColTrend,
}, map[string]Accessor[trendLine]{
	ColDrug:            func(l trendLine) output.Value { return str(l.drug) },
	ColPriorPerMonth:   func(l trendLine) output.Value { return output.OptionalNumber(l.prior, l.hasPrior) },
	ColCurrentPerMonth: func(l trendLine) output.Value { return output.OptionalNumber(l.current, l.hasCurrent) },
	ColTrend:           func(l trendLine) output.Value { return output.Formula(fmt.Sprintf(trendFormula, l.row)) },
})

// AIGTableManager compares prior and current DU/month per monitored drug
type AIGTableManager struct {
	lines []trendLine
}

// NewAIGTableManager creates the trend table manager
func NewAIGTableManager() *AIGTableManager {
	return &AIGTableManager{}
}

// Name returns the sheet name
func (m *AIGTableManager) Name() string {
	return SheetAIGTable
}

// Collect pairs prior and current blocks; drugs in neither are skipped.
func (m *AIGTableManager) Collect(ctx context.Context, c *Controller) error {
	src := c.Sources()
	m.lines = nil
	for _, drug := range src.Rules.Lookups() {
		prior, hasPrior := src.Prior.Drug(drug)
		current, hasCurrent := src.Current.Drug(drug)
		if !hasPrior && !hasCurrent {
			continue
		}
		m.lines = append(m.lines, trendLine{
			row:        len(m.lines) + 2,
			drug:       drug,
			prior:      prior.DosageUnitsPerMonth,
			current:    current.DosageUnitsPerMonth,
			hasPrior:   hasPrior,
			hasCurrent: hasCurrent,
		})
	}
	return nil
}

// Generate emits one row per drug with the trend formula
func (m *AIGTableManager) Generate(ctx context.Context, wb *output.Workbook) error {
	s, err := aigTableLayout.Sheet(m.Name(), m.lines)
	if err != nil {
		return err
	}
	return wb.Append(s)
}
