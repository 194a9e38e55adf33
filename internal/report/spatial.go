package report

import (
	"strings"

	"github.com/garyjia/pharmacy-audit/internal/source"
)

// Distance table names
const (
	TablePharmacyPrescriber = "Pharmacy to Prescriber"
	TablePharmacyPatient    = "Pharmacy to Patient"
	TablePrescriberPatient  = "Prescriber to Patient"
)

// SpatialEntry is one column of the top-10 distance block
type SpatialEntry struct {
	DEA   string
	Bands [Bands]float64
	// Sum totals the band counts inside the configured top-10 range
	Sum     float64
	Flagged bool
}

// DistanceBand is one band row of a distance table (fractions)
type DistanceBand struct {
	Band     int
	Label    string
	CSPct    float64
	NonCSPct float64
}

// DistanceTable is a six-band distance distribution
type DistanceTable struct {
	Name  string
	Range BandRange
	Bands []DistanceBand
}

// InRange sums the CS and non-CS fractions of the bands inside Range
func (t DistanceTable) InRange() (cs, nonCS float64) {
	for _, b := range t.Bands {
		if t.Range.Contains(b.Band) {
			cs += b.CSPct
			nonCS += b.NonCSPct
		}
	}
	return cs, nonCS
}

// Spatial reads the Spatial Analysis sheet
type Spatial struct {
	sheet *source.Sheet
	cfg   Config

	loaded bool
	top    []SpatialEntry
	index  map[string]int
	tables map[string]DistanceTable
}

// Top returns the top-10 entries in column order; empty columns are skipped
func (s *Spatial) Top() []SpatialEntry {
	s.load()
	return s.top
}

// Flagged returns the DEAs whose in-range band sum is positive
func (s *Spatial) Flagged() []string {
	s.load()
	var out []string
	for _, e := range s.top {
		if e.Flagged {
			out = append(out, e.DEA)
		}
	}
	return out
}

// Index returns the position of dea within Top
func (s *Spatial) Index(dea string) (int, bool) {
	s.load()
	i, ok := s.index[strings.ToUpper(strings.TrimSpace(dea))]
	return i, ok
}

// Table returns a named distance table
func (s *Spatial) Table(name string) DistanceTable {
	s.load()
	return s.tables[name]
}

func (s *Spatial) load() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.index = make(map[string]int)

	for i := 0; i < spatialTopCount; i++ {
		col := spatialTopFirstCol + i
		dea := s.sheet.At(col, spatialTopDEARow)
		if dea == "" {
			continue
		}
		entry := SpatialEntry{DEA: dea}
		for b := 0; b < Bands; b++ {
			entry.Bands[b], _ = source.ParseNumber(s.sheet.At(col, spatialTopDEARow+1+b))
			if s.cfg.Top10.Contains(b + 1) {
				entry.Sum += entry.Bands[b]
			}
		}
		entry.Flagged = entry.Sum > 0
		key := strings.ToUpper(dea)
		if _, dup := s.index[key]; !dup {
			s.index[key] = len(s.top)
		}
		s.top = append(s.top, entry)
	}

	s.tables = map[string]DistanceTable{
		TablePharmacyPrescriber: s.readTable(TablePharmacyPrescriber, spatialPharmacyPrescriberRow, s.cfg.PharmacyPrescriber),
		TablePharmacyPatient:    s.readTable(TablePharmacyPatient, spatialPharmacyPatientRow, s.cfg.PharmacyPatient),
		TablePrescriberPatient:  s.readTable(TablePrescriberPatient, spatialPrescriberPatientRow, s.cfg.PrescriberPatient),
	}
}

func (s *Spatial) readTable(name string, firstRow int, rng BandRange) DistanceTable {
	t := DistanceTable{Name: name, Range: rng}
	for b := 0; b < Bands; b++ {
		row := firstRow + b
		cs, _ := source.ParsePercent(s.sheet.At(spatialLabelCol+spatialCSOffset, row))
		nonCS, _ := source.ParsePercent(s.sheet.At(spatialLabelCol+spatialNonCSOffset, row))
		t.Bands = append(t.Bands, DistanceBand{
			Band:     b + 1,
			Label:    s.sheet.At(spatialLabelCol, row),
			CSPct:    cs,
			NonCSPct: nonCS,
		})
	}
	return t
}
