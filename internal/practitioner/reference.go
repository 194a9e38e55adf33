package practitioner

import (
	"fmt"
	"strings"

	"github.com/garyjia/pharmacy-audit/internal/source"
	"go.uber.org/zap"
)

// Reference workbook contract
const (
	SheetReference = "Reference"

	ColumnDEA          = "DEA"
	ColumnName         = "Name"
	ColumnSpecialty    = "Specialty"
	ColumnLocation     = "Location"
	ColumnState        = "State"
	ColumnDisciplinary = "Disciplinary"
	ColumnNote         = "Pharmacist Note"
	ColumnNoteDate     = "Note Date"
)

// Practitioner is one prescriber record keyed by DEA registration
type Practitioner struct {
	DEA          string `json:"dea"`
	Name         string `json:"name"`
	Specialty    string `json:"specialty"`
	Location     string `json:"location"`
	State        string `json:"state"`
	Disciplinary string `json:"disciplinary,omitempty"`
	Note         string `json:"note,omitempty"`
	NoteDate     string `json:"note_date,omitempty"`
}

// Reference is the in-memory practitioner database for one generation run.
// Additions made with Add are never written back to the source file.
type Reference struct {
	byDEA map[string]Practitioner
}

// NewReference builds a reference from records; on duplicate DEA the last
// record wins.
func NewReference(records ...Practitioner) *Reference {
	r := &Reference{byDEA: make(map[string]Practitioner, len(records))}
	for _, p := range records {
		r.Add(p)
	}
	return r
}

// Load reads the Reference sheet of a practitioner workbook. A workbook
// without the sheet yields an empty reference.
func Load(f source.File, logger *zap.Logger) (*Reference, error) {
	wb, err := source.OpenWorkbook(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load practitioners: %w", err)
	}

	sheet := wb.Sheet(SheetReference)
	if sheet == nil {
		logger.Warn("Practitioner workbook has no reference sheet",
			zap.String("file", f.Name),
			zap.String("sheet", SheetReference))
		return NewReference(), nil
	}

	ref := NewReference()
	duplicates := 0
	for _, rec := range sheet.Records(1) {
		p := Practitioner{
			DEA:          rec.Get(ColumnDEA),
			Name:         rec.Get(ColumnName),
			Specialty:    rec.Get(ColumnSpecialty),
			Location:     rec.Get(ColumnLocation),
			State:        rec.Get(ColumnState),
			Disciplinary: rec.Get(ColumnDisciplinary),
			Note:         rec.Get(ColumnNote),
			NoteDate:     rec.Get(ColumnNoteDate),
		}
		if _, exists := ref.Lookup(p.DEA); exists {
			duplicates++
		}
		ref.Add(p)
	}

	logger.Info("Practitioner reference loaded",
		zap.String("file", f.Name),
		zap.Int("records", ref.Len()),
		zap.Int("duplicates", duplicates))
	return ref, nil
}

// Lookup finds a practitioner by DEA (case-insensitive, trimmed)
func (r *Reference) Lookup(dea string) (Practitioner, bool) {
	p, ok := r.byDEA[Key(dea)]
	return p, ok
}

// Add inserts or replaces a practitioner. Records without a DEA are ignored.
func (r *Reference) Add(p Practitioner) {
	key := Key(p.DEA)
	if key == "" {
		return
	}
	p.DEA = strings.TrimSpace(p.DEA)
	r.byDEA[key] = p
}

// Len returns the number of distinct DEA records
func (r *Reference) Len() int {
	return len(r.byDEA)
}

// Key normalizes a DEA registration for map lookups
func Key(dea string) string {
	return strings.ToUpper(strings.TrimSpace(dea))
}
