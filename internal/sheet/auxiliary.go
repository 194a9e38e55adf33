package sheet

import (
	"context"

	"github.com/garyjia/pharmacy-audit/internal/output"
	"github.com/garyjia/pharmacy-audit/internal/practitioner"
	"github.com/garyjia/pharmacy-audit/internal/report"
)

const cashRankLimit = 10

// Auxiliary sheet columns
const (
	ColRank      = "Rank"
	ColBandCount = "Band Count"
	ColFlagged   = "Flagged"
	ColCashCSRx  = "Cash CS Rx"
	ColCSRx      = "CS Rx"
	ColCashPct   = "Cash %"
	ColTotalDU   = "Total DU"
	ColExpected  = "Expected DU/Month"
	ColRxCount   = "Rx Count"
	ColRxPct     = "% of Rx"
)

// prescriberLine pairs a ranked DEA with its reference record
type prescriberLine struct {
	rank int
	dea  string
	name string
	p    practitioner.Practitioner
}

func lookupName(ref *practitioner.Reference, dea, fallback string) (practitioner.Practitioner, string) {
	p, ok := ref.Lookup(dea)
	if ok && p.Name != "" {
		return p, p.Name
	}
	return p, fallback
}

// DEAConcernManager lists the spatial top-10 prescribers. AIG sheets refer
// to its Band Count column by row.
type DEAConcernManager struct {
	lines []deaConcernLine
}

type deaConcernLine struct {
	prescriberLine
	entry report.SpatialEntry
}

var deaConcernLayout = mustLayout([]string{
	ColRank, ColDEA, ColPrescriber, ColSpecialty, ColLocation, ColBandCount, ColFlagged,
}, map[string]Accessor[deaConcernLine]{
	ColRank:       func(l deaConcernLine) output.Value { return num(float64(l.rank)) },
	ColDEA:        func(l deaConcernLine) output.Value { return str(l.dea) },
	ColPrescriber: func(l deaConcernLine) output.Value { return str(l.name) },
	ColSpecialty:  func(l deaConcernLine) output.Value { return str(l.p.Specialty) },
	ColLocation:   func(l deaConcernLine) output.Value { return str(l.p.Location) },
	ColBandCount:  func(l deaConcernLine) output.Value { return num(l.entry.Sum) },
	ColFlagged:    func(l deaConcernLine) output.Value { return output.Bool(l.entry.Flagged) },
})

// NewDEAConcernManager creates the spatial concern manager
func NewDEAConcernManager() *DEAConcernManager {
	return &DEAConcernManager{}
}

// Name returns the sheet name
func (m *DEAConcernManager) Name() string {
	return SheetDEAConcern
}

// Collect reads the spatial top-10 block
func (m *DEAConcernManager) Collect(ctx context.Context, c *Controller) error {
	src := c.Sources()
	m.lines = nil
	for i, e := range src.Report.Spatial().Top() {
		p, name := lookupName(src.Practitioners, e.DEA, "")
		m.lines = append(m.lines, deaConcernLine{
			prescriberLine: prescriberLine{rank: i + 1, dea: e.DEA, name: name, p: p},
			entry:          e,
		})
	}
	return nil
}

// Generate emits one row per top-10 column, in spatial order
func (m *DEAConcernManager) Generate(ctx context.Context, wb *output.Workbook) error {
	s, err := deaConcernLayout.Sheet(m.Name(), m.lines)
	if err != nil {
		return err
	}
	return wb.Append(s)
}

// CSCashManager ranks prescribers by cash-paid controlled prescriptions
type CSCashManager struct {
	lines []csCashLine
}

type csCashLine struct {
	prescriberLine
	cash, controlled int
}

var csCashLayout = mustLayout([]string{
	ColDEA, ColPrescriber, ColCashCSRx, ColCSRx, ColCashPct,
}, map[string]Accessor[csCashLine]{
	ColDEA:        func(l csCashLine) output.Value { return str(l.dea) },
	ColPrescriber: func(l csCashLine) output.Value { return str(l.name) },
	ColCashCSRx:   func(l csCashLine) output.Value { return num(float64(l.cash)) },
	ColCSRx:       func(l csCashLine) output.Value { return num(float64(l.controlled)) },
	ColCashPct:    func(l csCashLine) output.Value { return num(ratio(l.cash, l.controlled)) },
})

// NewCSCashManager creates the cash-pay manager
func NewCSCashManager() *CSCashManager {
	return &CSCashManager{}
}

// Name returns the sheet name
func (m *CSCashManager) Name() string {
	return SheetCSCash
}

// Collect ranks the all-prescriptions controlled rows by cash count
func (m *CSCashManager) Collect(ctx context.Context, c *Controller) error {
	src := c.Sources()
	var controlled []report.Rx
	for _, rx := range src.Report.Prescriptions().All() {
		if rx.Controlled {
			controlled = append(controlled, rx)
		}
	}
	top := rankBy(controlled,
		func(rx report.Rx) string { return rx.DEA },
		func(rx report.Rx) float64 {
			if rx.Cash() {
				return 1
			}
			return 0
		}, cashRankLimit)

	m.lines = nil
	for i, t := range top {
		if t.Total == 0 {
			break
		}
		line := csCashLine{cash: int(t.Total)}
		line.rank = i + 1
		line.dea = t.Key
		line.p, line.name = lookupName(src.Practitioners, t.Key, "")
		for _, rx := range src.Report.Prescriptions().ByPrescriber(t.Key) {
			if rx.Controlled {
				line.controlled++
			}
		}
		m.lines = append(m.lines, line)
	}
	return nil
}

// Generate emits the ranked prescribers
func (m *CSCashManager) Generate(ctx context.Context, wb *output.Workbook) error {
	s, err := csCashLayout.Sheet(m.Name(), m.lines)
	if err != nil {
		return err
	}
	return wb.Append(s)
}

// Top10CSManager lists the analysis sheet's top controlled prescribers
type Top10CSManager struct {
	lines []top10Line
}

type top10Line struct {
	prescriberLine
	count float64
}

var top10CSLayout = mustLayout([]string{
	ColRank, ColDEA, ColPrescriber, ColSpecialty, ColLocation, ColState, ColCSRx,
}, map[string]Accessor[top10Line]{
	ColRank:       func(l top10Line) output.Value { return num(float64(l.rank)) },
	ColDEA:        func(l top10Line) output.Value { return str(l.dea) },
	ColPrescriber: func(l top10Line) output.Value { return str(l.name) },
	ColSpecialty:  func(l top10Line) output.Value { return str(l.p.Specialty) },
	ColLocation:   func(l top10Line) output.Value { return str(l.p.Location) },
	ColState:      func(l top10Line) output.Value { return str(l.p.State) },
	ColCSRx:       func(l top10Line) output.Value { return num(l.count) },
})

// NewTop10CSManager creates the top-10 prescriber manager
func NewTop10CSManager() *Top10CSManager {
	return &Top10CSManager{}
}

// Name returns the sheet name
func (m *Top10CSManager) Name() string {
	return SheetTop10CS
}

// Collect joins the analysis prescribers with the reference
func (m *Top10CSManager) Collect(ctx context.Context, c *Controller) error {
	src := c.Sources()
	m.lines = nil
	for i, v := range src.Report.Analysis().TopPrescribers() {
		p, name := lookupName(src.Practitioners, v.DEA, v.Name)
		m.lines = append(m.lines, top10Line{
			prescriberLine: prescriberLine{rank: i + 1, dea: v.DEA, name: name, p: p},
			count:          v.Count,
		})
	}
	return nil
}

// Generate emits the prescribers in analysis order
func (m *Top10CSManager) Generate(ctx context.Context, wb *output.Workbook) error {
	s, err := top10CSLayout.Sheet(m.Name(), m.lines)
	if err != nil {
		return err
	}
	return wb.Append(s)
}

// TopDrugsManager lists the analysis sheet's top drugs
type TopDrugsManager struct {
	drugs []report.DrugVolume
}

var topDrugsLayout = mustLayout([]string{
	ColRank, ColDrug, ColRxCount, ColRxPct,
}, map[string]Accessor[report.DrugVolume]{
	ColRank:    func(d report.DrugVolume) output.Value { return str(d.Rank) },
	ColDrug:    func(d report.DrugVolume) output.Value { return str(d.Drug) },
	ColRxCount: func(d report.DrugVolume) output.Value { return num(d.Count) },
	ColRxPct:   func(d report.DrugVolume) output.Value { return num(d.Pct) },
})

// NewTopDrugsManager creates the top drug manager
func NewTopDrugsManager() *TopDrugsManager {
	return &TopDrugsManager{}
}

// Name returns the sheet name
func (m *TopDrugsManager) Name() string {
	return SheetTopDr
}

// Collect reads the analysis drug block
func (m *TopDrugsManager) Collect(ctx context.Context, c *Controller) error {
	m.drugs = c.Sources().Report.Analysis().TopDrugs()
	return nil
}

// Generate emits the ranked drugs
func (m *TopDrugsManager) Generate(ctx context.Context, wb *output.Workbook) error {
	s, err := topDrugsLayout.Sheet(m.Name(), m.drugs)
	if err != nil {
		return err
	}
	return wb.Append(s)
}
