package report

import "github.com/garyjia/pharmacy-audit/internal/source"

// HighMEDThreshold is the daily morphine-equivalent dose above which a row
// is high dose.
const HighMEDThreshold = 120

// MEDRow is one morphine-equivalent dose observation
type MEDRow struct {
	PatientID string
	DEA       string
	Drug      string
	MED       float64
}

// MED reads the morphine-equivalent dose watch sheet
type MED struct {
	sheet *source.Sheet

	loaded       bool
	base         []MEDRow
	high         []MEDRow
	highPatients []string
}

// Base returns rows that name a prescriber
func (m *MED) Base() []MEDRow {
	m.load()
	return m.base
}

// High returns base rows above HighMEDThreshold
func (m *MED) High() []MEDRow {
	m.load()
	return m.high
}

// HighPatients returns distinct patients with a high-dose row
func (m *MED) HighPatients() []string {
	m.load()
	return m.highPatients
}

func (m *MED) load() {
	if m.loaded {
		return
	}
	m.loaded = true
	g := newPatientGroups()
	for _, rec := range m.sheet.Records(headerRow) {
		row := MEDRow{
			PatientID: rec.Get(ColPatientID),
			DEA:       rec.Get(ColPrescriberDEA),
			Drug:      rec.Get(ColDrugName),
			MED:       rec.Number(ColDailyMED),
		}
		if row.DEA == "" {
			continue
		}
		m.base = append(m.base, row)
		if row.MED > HighMEDThreshold {
			m.high = append(m.high, row)
			g.add("", row.PatientID)
		}
	}
	m.highPatients = g.All()
}
