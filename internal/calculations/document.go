package calculations

import "strings"

// Totals are the pharmacy-wide aggregate counts
type Totals struct {
	Prescriptions         float64
	Controlled            float64
	DosageUnits           float64
	ControlledDosageUnits float64
}

// Percentages are pharmacy-wide ratios, stored as fractions in [0,1]
type Percentages struct {
	Controlled     float64
	Cash           float64
	ControlledCash float64
	OutOfState     float64
}

// Volume holds prescription throughput stats
type Volume struct {
	PerDay           float64
	PerMonth         float64
	ControlledPerDay float64
	ControlledMonth  float64
}

// DrugStats is one monitored drug's dispensing block
type DrugStats struct {
	TotalDosageUnits    float64
	DosageUnitsPerMonth float64
	ExpectedPerMonth    float64
	// VarianceMultiplier is kept in the document's percentage points
	// (237% reads as 237).
	VarianceMultiplier float64
}

// Document is a parsed calculations table. Every section is optional: a
// section absent from the table leaves its field nil or its drug missing.
type Document struct {
	PharmacyName string
	PharmacyID   string
	Period       string
	Location     string

	Totals      *Totals
	Percentages *Percentages
	Volume      *Volume

	drugs map[string]DrugStats
}

func newDocument() *Document {
	return &Document{drugs: make(map[string]DrugStats)}
}

// Drug returns the stats block for a drug name (case-insensitive).
func (d *Document) Drug(name string) (DrugStats, bool) {
	if d == nil {
		return DrugStats{}, false
	}
	s, ok := d.drugs[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// DrugCount returns how many drug blocks were found
func (d *Document) DrugCount() int {
	if d == nil {
		return 0
	}
	return len(d.drugs)
}
