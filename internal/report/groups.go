package report

import (
	"strings"

	"github.com/garyjia/pharmacy-audit/internal/source"
)

// Patient-flag thresholds
const (
	irMultiMinDrugs     = 2
	multiMinPrescribers = 3
	multiMinPharmacies  = 3
)

// PatientGroups maps a category key to the distinct patients flagged under
// it, preserving first-seen order of keys and ids.
type PatientGroups struct {
	keys  []string
	ids   map[string][]string
	seen  map[string]map[string]bool
	all   []string
	inAll map[string]bool
}

func newPatientGroups() *PatientGroups {
	return &PatientGroups{
		ids:   make(map[string][]string),
		seen:  make(map[string]map[string]bool),
		inAll: make(map[string]bool),
	}
}

func (g *PatientGroups) add(key, patient string) {
	if patient == "" {
		return
	}
	if _, ok := g.seen[key]; !ok {
		g.keys = append(g.keys, key)
		g.seen[key] = make(map[string]bool)
	}
	if !g.seen[key][patient] {
		g.seen[key][patient] = true
		g.ids[key] = append(g.ids[key], patient)
	}
	if !g.inAll[patient] {
		g.inAll[patient] = true
		g.all = append(g.all, patient)
	}
}

// Keys returns the category keys in first-seen order
func (g *PatientGroups) Keys() []string {
	return g.keys
}

// IDs returns the distinct patients under key
func (g *PatientGroups) IDs(key string) []string {
	return g.ids[key]
}

// Count returns the number of distinct patients under key
func (g *PatientGroups) Count(key string) int {
	return len(g.ids[key])
}

// All returns the distinct patients across every key
func (g *PatientGroups) All() []string {
	return g.all
}

func groupPatients(sheet *source.Sheet, key func(source.Record) string, flagged func(source.Record) bool) *PatientGroups {
	g := newPatientGroups()
	for _, rec := range sheet.Records(headerRow) {
		if flagged(rec) {
			g.add(key(rec), rec.Get(ColPatientID))
		}
	}
	return g
}

func noKey(source.Record) string { return "" }

// Trinity flags patients filled an opioid, a benzodiazepine and a muscle
// relaxant together.
type Trinity struct {
	sheet  *source.Sheet
	groups *PatientGroups
}

// Patients returns the distinct flagged patient ids
func (t *Trinity) Patients() []string {
	if t.groups == nil {
		t.groups = groupPatients(t.sheet, noKey, func(r source.Record) bool {
			return r.Get(ColOpioid) != "" && r.Get(ColBenzo) != "" && r.Get(ColMuscleRelax) != ""
		})
	}
	return t.groups.All()
}

// IRMulti flags patients on several immediate-release drugs of one family
type IRMulti struct {
	sheet  *source.Sheet
	groups *PatientGroups
}

// Groups returns flagged patients by lower-cased drug family
func (m *IRMulti) Groups() *PatientGroups {
	if m.groups == nil {
		m.groups = groupPatients(m.sheet, func(r source.Record) string {
			return strings.ToLower(r.Get(ColDrugFamily))
		}, func(r source.Record) bool {
			return r.Number(ColIRDrugCount) >= irMultiMinDrugs
		})
	}
	return m.groups
}

// Patients returns the distinct flagged patients across every family
func (m *IRMulti) Patients() []string {
	return m.Groups().All()
}

// MultiPrescriber flags patients seeing several prescribers and pharmacies
type MultiPrescriber struct {
	sheet  *source.Sheet
	groups *PatientGroups
}

// Patients returns the distinct flagged patient ids
func (m *MultiPrescriber) Patients() []string {
	if m.groups == nil {
		m.groups = groupPatients(m.sheet, noKey, func(r source.Record) bool {
			return r.Number(ColPrescribers) >= multiMinPrescribers &&
				r.Number(ColPharmacies) >= multiMinPharmacies
		})
	}
	return m.groups.All()
}
