package sheet

import (
	"context"
	"fmt"

	"github.com/garyjia/pharmacy-audit/internal/aig"
	"github.com/garyjia/pharmacy-audit/internal/output"
	"github.com/garyjia/pharmacy-audit/internal/practitioner"
	"github.com/garyjia/pharmacy-audit/internal/report"
	"go.uber.org/zap"
)

const (
	topPrescriberLimit = 5
	// varianceCutoff is in percentage points: above it prescribers are
	// ranked before the threshold filter.
	varianceCutoff = 300
	cspCutoff      = 0.20
	cashCutoff     = 0.20
	milesNA        = "N/A"
)

// AIG sheet columns
const (
	ColDrug         = "Drug"
	ColPerMonth     = "DU/Month"
	ColVariance     = "Variance"
	ColDEA          = "DEA"
	ColPrescriber   = "Prescriber"
	ColSpecialty    = "Specialty"
	ColLocation     = "Location"
	ColState        = "State"
	ColDisciplinary = "Disciplinary"
	ColQuantity     = "Quantity"
	ColPatients     = "Patients"
	ColTotalRx      = "Total Rx"
	ColControlledRx = "Controlled Rx"
	ColCSP          = "CSP"
	ColCSCash       = "CSCash"
	ColMiles        = "Miles"
	ColNote         = "Pharmacist Note"
	ColNoteDate     = "Note Date"
)

// Aggregates are an AIG sheet's drug-level figures read by the common sheet.
// Available is false when the drug has no block in the current calculations.
type Aggregates struct {
	Label     string
	Base      string
	Available bool

	Candidates  int
	FamilyCount int
	Passing     int
	HighPct     float64

	HasPer bool
	Per    float64

	MEDConfigured bool
	HasMED        bool
	HighMED       float64
	LowMED        float64

	PerMonth float64
	Variance float64
}

// PrescriberRow is one top prescriber of an AIG sheet
type PrescriberRow struct {
	DEA          string
	Practitioner practitioner.Practitioner
	Quantity     float64
	Patients     int

	HasCSP       bool
	TotalRx      int
	ControlledRx int
	CSP          float64
	HasCash      bool
	CashPct      float64

	Miles output.Value
}

type aigLine struct {
	first bool
	agg   *Aggregates
	row   PrescriberRow
}

func onFirst(v func(aigLine) output.Value) Accessor[aigLine] {
	return func(l aigLine) output.Value {
		if !l.first {
			return output.Null()
		}
		return v(l)
	}
}

var aigLayout = mustLayout([]string{
	ColDrug, ColPerMonth, ColVariance, ColDEA, ColPrescriber, ColSpecialty,
	ColLocation, ColState, ColDisciplinary, ColQuantity, ColPatients,
	ColTotalRx, ColControlledRx, ColCSP, ColCSCash, ColMiles, ColNote, ColNoteDate,
}, map[string]Accessor[aigLine]{
	ColDrug:         onFirst(func(l aigLine) output.Value { return str(l.agg.Label) }),
	ColPerMonth:     onFirst(func(l aigLine) output.Value { return num(l.agg.PerMonth) }),
	ColVariance:     onFirst(func(l aigLine) output.Value { return num(l.agg.Variance) }),
	ColDEA:          func(l aigLine) output.Value { return str(l.row.DEA) },
	ColPrescriber:   func(l aigLine) output.Value { return str(l.row.Practitioner.Name) },
	ColSpecialty:    func(l aigLine) output.Value { return str(l.row.Practitioner.Specialty) },
	ColLocation:     func(l aigLine) output.Value { return str(l.row.Practitioner.Location) },
	ColState:        func(l aigLine) output.Value { return str(l.row.Practitioner.State) },
	ColDisciplinary: func(l aigLine) output.Value { return str(l.row.Practitioner.Disciplinary) },
	ColQuantity:     func(l aigLine) output.Value { return num(l.row.Quantity) },
	ColPatients:     func(l aigLine) output.Value { return num(float64(l.row.Patients)) },
	ColTotalRx: func(l aigLine) output.Value {
		return output.OptionalNumber(float64(l.row.TotalRx), l.row.HasCSP)
	},
	ColControlledRx: func(l aigLine) output.Value {
		return output.OptionalNumber(float64(l.row.ControlledRx), l.row.HasCSP)
	},
	ColCSP:      func(l aigLine) output.Value { return output.OptionalNumber(l.row.CSP, l.row.HasCSP) },
	ColCSCash:   func(l aigLine) output.Value { return output.OptionalNumber(l.row.CashPct, l.row.HasCash) },
	ColMiles:    func(l aigLine) output.Value { return l.row.Miles },
	ColNote:     func(l aigLine) output.Value { return str(l.row.Practitioner.Note) },
	ColNoteDate: func(l aigLine) output.Value { return str(l.row.Practitioner.NoteDate) },
})

// AIGManager builds one per-drug AIG sheet from its rule
type AIGManager struct {
	rule aig.Rule

	agg  Aggregates
	rows []PrescriberRow
}

// NewAIGManager creates the manager for rule's sheet
func NewAIGManager(rule aig.Rule) *AIGManager {
	return &AIGManager{rule: rule}
}

// Name returns the sheet name
func (m *AIGManager) Name() string {
	return AIGSheetName(m.rule.Sheet)
}

// Rule returns the rule this sheet evaluates
func (m *AIGManager) Rule() aig.Rule {
	return m.rule
}

// Aggregates returns the drug-level figures computed by Collect
func (m *AIGManager) Aggregates() Aggregates {
	return m.agg
}

// Rows returns the top prescribers computed by Collect
func (m *AIGManager) Rows() []PrescriberRow {
	return m.rows
}

// Collect filters controlled rows through the rule and ranks prescribers.
func (m *AIGManager) Collect(ctx context.Context, c *Controller) error {
	rule := m.rule
	if err := rule.Operator.Validate(); err != nil {
		return fmt.Errorf("rule %q: %w", rule.Label, err)
	}
	src := c.Sources()
	m.agg = Aggregates{Label: rule.Label, Base: rule.Base(), HasPer: rule.Per, MEDConfigured: rule.HasMED()}

	stats, ok := src.Current.Drug(rule.Lookup)
	if !ok {
		c.logger.Warn("Drug missing from current calculations, AIG sheet left empty",
			zap.String("sheet", m.Name()),
			zap.String("lookup", rule.Lookup))
		return nil
	}
	m.agg.Available = true
	m.agg.PerMonth = stats.DosageUnitsPerMonth
	m.agg.Variance = stats.VarianceMultiplier

	for _, rx := range src.Report.Prescriptions().Controlled() {
		if rule.MatchesFamily(rx.Family) {
			m.agg.FamilyCount++
		}
	}

	var candidates, passing []report.ControlledRx
	var doses []float64
	for _, rx := range c.SolidControlled() {
		if !rule.MatchesFamily(rx.Family) || !rule.MatchesName(rx.Drug) {
			continue
		}
		candidates = append(candidates, rx)
		ok, err := rule.Passes(rx.DailyDose)
		if err != nil {
			return err
		}
		if ok {
			passing = append(passing, rx)
			doses = append(doses, rx.DailyDose)
		}
	}

	m.agg.Candidates = len(candidates)
	m.agg.Passing = len(passing)
	m.agg.HighPct = ratio(len(passing), len(candidates))
	if rule.Per {
		m.agg.Per = ratio(len(candidates), m.agg.FamilyCount)
	}
	m.agg.HighMED, m.agg.LowMED, m.agg.HasMED = rule.MEDRange(doses)

	ranked := passing
	if stats.VarianceMultiplier > varianceCutoff {
		ranked = candidates
	}
	top := rankBy(ranked,
		func(rx report.ControlledRx) string { return rx.DEA },
		func(rx report.ControlledRx) float64 { return rx.Quantity },
		topPrescriberLimit)

	m.rows = make([]PrescriberRow, 0, len(top))
	for _, t := range top {
		m.rows = append(m.rows, m.prescriberRow(c, t))
	}
	return nil
}

func (m *AIGManager) prescriberRow(c *Controller, t tally) PrescriberRow {
	src := c.Sources()
	row := PrescriberRow{DEA: t.Key, Quantity: t.Total, Miles: output.String(milesNA)}

	if p, ok := src.Practitioners.Lookup(t.Key); ok {
		row.Practitioner = p
	} else {
		c.MarkMissing(t.Key)
	}

	// patients, totals and CSP all come from the prescriber's full history
	all := src.Report.Prescriptions().ByPrescriber(t.Key)
	patients := make(map[string]bool)
	controlled, cash := 0, 0
	for _, rx := range all {
		if rx.PatientID != "" {
			patients[rx.PatientID] = true
		}
		if rx.Controlled {
			controlled++
			if rx.Cash() {
				cash++
			}
		}
	}
	row.Patients = len(patients)
	if csp := ratio(controlled, len(all)); csp > cspCutoff {
		row.HasCSP = true
		row.TotalRx = len(all)
		row.ControlledRx = controlled
		row.CSP = csp
		if pct := ratio(cash, controlled); pct > cashCutoff {
			row.HasCash = true
			row.CashPct = pct
		}
	}

	if idx, ok := src.Report.Spatial().Index(t.Key); ok {
		row.Miles = output.Formula(fmt.Sprintf("%s!F%d", SheetDEAConcern, idx+2))
	}
	return row
}

// Generate emits the sheet when it has at least one prescriber row.
func (m *AIGManager) Generate(ctx context.Context, wb *output.Workbook) error {
	if len(m.rows) == 0 {
		return nil
	}
	lines := make([]aigLine, len(m.rows))
	for i, r := range m.rows {
		lines[i] = aigLine{first: i == 0, agg: &m.agg, row: r}
	}
	s, err := aigLayout.Sheet(m.Name(), lines)
	if err != nil {
		return err
	}
	return wb.Append(s)
}
