package sheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/pharmacy-audit/internal/output"
	"github.com/garyjia/pharmacy-audit/internal/report"
)

// Common sheet fixed fields
const (
	FieldPharmacy                = "pharmacy"
	FieldPharmacyID              = "pharmacyId"
	FieldPeriod                  = "period"
	FieldAddress                 = "address"
	FieldTotalRx                 = "totalRx"
	FieldControlledRx            = "controlledRx"
	FieldControlledPct           = "controlledPct"
	FieldCashPct                 = "cashPct"
	FieldOutOfStatePct           = "outOfStatePct"
	FieldUniquePatients          = "uniquePatients"
	FieldUniquePrescribers       = "uniquePrescribers"
	FieldTop10Share              = "top10Share"
	FieldTrinity                 = "trinity"
	FieldIRMulti                 = "irMulti"
	FieldMultiPrescriber         = "multiPrescriber"
	FieldHighMED                 = "highMed"
	FieldSpatialConcerns         = "spatialConcerns"
	FieldPrescriberDistanceCS    = "prescriberDistanceCs"
	FieldPrescriberDistanceNonCS = "prescriberDistanceNonCs"
	FieldPatientDistanceCS       = "patientDistanceCs"
	FieldPatientDistanceNonCS    = "patientDistanceNonCs"
	FieldPrescriberPatientCS     = "prescriberPatientCs"
	FieldPrescriberPatientNonCS  = "prescriberPatientNonCs"
	FieldMissingDEA              = "missingDea"
)

// Per-AIG field suffixes, appended to the rule's base name
const (
	SuffixHighPct = "HighPct"
	SuffixPer     = "Per"
	SuffixHighMED = "HighMed"
	SuffixLowMED  = "LowMed"
)

// commonRecord is everything the single common row is built from
type commonRecord struct {
	pharmacy, pharmacyID, period, address string

	summary report.SummaryValues
	top10   float64

	trinity, irMulti, multiPrescriber, highMED []string
	spatialConcerns                            int

	prescriberDistance, patientDistance, prescriberPatient [2]float64

	missingDEA []string
	aigs       map[string]Aggregates
}

var commonFixed = []struct {
	name string
	get  Accessor[*commonRecord]
}{
	{FieldPharmacy, func(r *commonRecord) output.Value { return str(r.pharmacy) }},
	{FieldPharmacyID, func(r *commonRecord) output.Value { return str(r.pharmacyID) }},
	{FieldPeriod, func(r *commonRecord) output.Value { return str(r.period) }},
	{FieldAddress, func(r *commonRecord) output.Value { return str(r.address) }},
	{FieldTotalRx, func(r *commonRecord) output.Value { return num(r.summary.TotalRx) }},
	{FieldControlledRx, func(r *commonRecord) output.Value { return num(r.summary.ControlledRx) }},
	{FieldControlledPct, func(r *commonRecord) output.Value { return num(r.summary.ControlledPct) }},
	{FieldCashPct, func(r *commonRecord) output.Value { return num(r.summary.CashPct) }},
	{FieldOutOfStatePct, func(r *commonRecord) output.Value { return num(r.summary.OutOfStatePct) }},
	{FieldUniquePatients, func(r *commonRecord) output.Value { return num(r.summary.UniquePatients) }},
	{FieldUniquePrescribers, func(r *commonRecord) output.Value { return num(r.summary.UniquePrescribers) }},
	{FieldTop10Share, func(r *commonRecord) output.Value { return num(r.top10) }},
	{FieldTrinity, func(r *commonRecord) output.Value { return str(Narrative(r.trinity)) }},
	{FieldIRMulti, func(r *commonRecord) output.Value { return str(Narrative(r.irMulti)) }},
	{FieldMultiPrescriber, func(r *commonRecord) output.Value { return str(Narrative(r.multiPrescriber)) }},
	{FieldHighMED, func(r *commonRecord) output.Value { return str(Narrative(r.highMED)) }},
	{FieldSpatialConcerns, func(r *commonRecord) output.Value { return num(float64(r.spatialConcerns)) }},
	{FieldPrescriberDistanceCS, func(r *commonRecord) output.Value { return num(r.prescriberDistance[0]) }},
	{FieldPrescriberDistanceNonCS, func(r *commonRecord) output.Value { return num(r.prescriberDistance[1]) }},
	{FieldPatientDistanceCS, func(r *commonRecord) output.Value { return num(r.patientDistance[0]) }},
	{FieldPatientDistanceNonCS, func(r *commonRecord) output.Value { return num(r.patientDistance[1]) }},
	{FieldPrescriberPatientCS, func(r *commonRecord) output.Value { return num(r.prescriberPatient[0]) }},
	{FieldPrescriberPatientNonCS, func(r *commonRecord) output.Value { return num(r.prescriberPatient[1]) }},
	{FieldMissingDEA, func(r *commonRecord) output.Value {
		if len(r.missingDEA) == 0 {
			return str("None")
		}
		return str(strings.Join(r.missingDEA, ", "))
	}},
}

// CommonManager builds the single-row summary sheet from every handler and
// the collected AIG aggregates.
type CommonManager struct {
	aigSheets []string

	layout *Layout[*commonRecord]
	record *commonRecord
}

// NewCommonManager creates the manager; aigSheets are the AIG managers it reads.
func NewCommonManager(aigSheets []string) *CommonManager {
	return &CommonManager{aigSheets: append([]string(nil), aigSheets...)}
}

// Name returns the sheet name
func (m *CommonManager) Name() string {
	return SheetCommon
}

// DependsOn lists the AIG sheets that must collect first
func (m *CommonManager) DependsOn() []string {
	return m.aigSheets
}

// Header returns the column list after Collect
func (m *CommonManager) Header() []string {
	if m.layout == nil {
		return nil
	}
	return m.layout.Header()
}

// Collect gathers every common field.
func (m *CommonManager) Collect(ctx context.Context, c *Controller) error {
	if err := c.RequireCollected(m.aigSheets...); err != nil {
		return err
	}
	src := c.Sources()
	rep := src.Report

	rec := &commonRecord{
		pharmacy:        src.Current.PharmacyName,
		pharmacyID:      src.Current.PharmacyID,
		period:          src.Current.Period,
		address:         src.Current.Location,
		summary:         rep.Summary().Values(),
		top10:           rep.Analysis().TopShare(),
		trinity:         rep.Trinity().Patients(),
		irMulti:         rep.IRMulti().Patients(),
		multiPrescriber: rep.MultiPrescriber().Patients(),
		highMED:         rep.MED().HighPatients(),
		spatialConcerns: len(rep.Spatial().Flagged()),
		aigs:            make(map[string]Aggregates),
	}
	rec.prescriberDistance[0], rec.prescriberDistance[1] = rep.Spatial().Table(report.TablePharmacyPrescriber).InRange()
	rec.patientDistance[0], rec.patientDistance[1] = rep.Spatial().Table(report.TablePharmacyPatient).InRange()
	rec.prescriberPatient[0], rec.prescriberPatient[1] = rep.Spatial().Table(report.TablePrescriberPatient).InRange()
	rec.missingDEA = c.MissingDEA()

	header := make([]string, 0, len(commonFixed)+4*len(m.aigSheets))
	columns := make(map[string]Accessor[*commonRecord])
	for _, f := range commonFixed {
		header = append(header, f.name)
		columns[f.name] = f.get
	}
	for _, name := range m.aigSheets {
		mgr, ok := c.Manager(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotCollected, name)
		}
		a, ok := mgr.(*AIGManager)
		if !ok {
			return fmt.Errorf("%s is not an aig sheet", name)
		}
		agg := a.Aggregates()
		rec.aigs[name] = agg
		header = appendAIGColumns(header, columns, name, agg)
	}

	layout, err := NewLayout(header, columns)
	if err != nil {
		return fmt.Errorf("failed to build common layout: %w", err)
	}
	m.layout = layout
	m.record = rec
	return nil
}

func appendAIGColumns(header []string, columns map[string]Accessor[*commonRecord], sheet string, agg Aggregates) []string {
	field := func(suffix string, get func(Aggregates) output.Value) {
		name := agg.Base + suffix
		header = append(header, name)
		columns[name] = func(r *commonRecord) output.Value {
			a := r.aigs[sheet]
			if !a.Available {
				return output.Null()
			}
			return get(a)
		}
	}

	field(SuffixHighPct, func(a Aggregates) output.Value { return num(a.HighPct) })
	if agg.HasPer {
		field(SuffixPer, func(a Aggregates) output.Value { return num(a.Per) })
	}
	if agg.MEDConfigured {
		field(SuffixHighMED, func(a Aggregates) output.Value { return output.OptionalNumber(a.HighMED, a.HasMED) })
		field(SuffixLowMED, func(a Aggregates) output.Value { return output.OptionalNumber(a.LowMED, a.HasMED) })
	}
	return header
}

// Generate emits the single common row with the address wrapped.
func (m *CommonManager) Generate(ctx context.Context, wb *output.Workbook) error {
	s, err := m.layout.Sheet(m.Name(), []*commonRecord{m.record})
	if err != nil {
		return err
	}
	s.Wrap = []string{FieldAddress}
	return wb.Append(s)
}
