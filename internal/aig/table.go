package aig

import (
	"errors"
	"fmt"
	"strings"
)

// SheetCount is the number of AIG sheets
const SheetCount = 20

// Table is an ordered rule set. The first rule for a sheet index is the
// active one; later rules for the same index are shadowed.
type Table struct {
	rules []Rule
}

// NewTable wraps rules in declaration order
func NewTable(rules []Rule) *Table {
	return &Table{rules: append([]Rule(nil), rules...)}
}

// Rules returns every entry including shadowed ones
func (t *Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// ForSheet returns the active rule for a sheet index
func (t *Table) ForSheet(sheet int) (Rule, bool) {
	for _, r := range t.rules {
		if r.Sheet == sheet {
			return r, true
		}
	}
	return Rule{}, false
}

// Sheets returns the active rule of every covered sheet in index order
func (t *Table) Sheets() []Rule {
	var out []Rule
	for i := 1; i <= SheetCount; i++ {
		if r, ok := t.ForSheet(i); ok {
			out = append(out, r)
		}
	}
	return out
}

// Shadowed returns entries hidden by an earlier rule on the same sheet
func (t *Table) Shadowed() []Rule {
	seen := make(map[int]bool)
	var out []Rule
	for _, r := range t.rules {
		if seen[r.Sheet] {
			out = append(out, r)
			continue
		}
		seen[r.Sheet] = true
	}
	return out
}

// Lookups returns the distinct calculations lookup keys of active rules
func (t *Table) Lookups() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Sheets() {
		key := strings.ToLower(r.Lookup)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r.Lookup)
	}
	return out
}

// Validate checks operators, sheet indexes and required keys, and that
// every sheet 1..SheetCount has a rule.
func (t *Table) Validate() error {
	var errs []error
	covered := make(map[int]bool)
	for i, r := range t.rules {
		if err := r.Operator.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%s): %w", i+1, r.Label, err))
		}
		if r.Sheet < 1 || r.Sheet > SheetCount {
			errs = append(errs, fmt.Errorf("rule %d (%s): %w: %d", i+1, r.Label, ErrInvalidSheet, r.Sheet))
			continue
		}
		if r.Label == "" || r.Lookup == "" || r.Ref == "" {
			errs = append(errs, fmt.Errorf("rule %d: %w: label, lookup and ref are required", i+1, ErrInvalidRule))
		}
		covered[r.Sheet] = true
	}
	for i := 1; i <= SheetCount; i++ {
		if !covered[i] {
			errs = append(errs, fmt.Errorf("%w: %d", ErrMissingSheet, i))
		}
	}
	return errors.Join(errs...)
}

// DefaultTable returns the built-in 22-entry rule table. Two entries
// ("Alprazolam" on sheet 1 and "Soma" on sheet 13) repeat an earlier
// sheet and are reported by Shadowed.
func DefaultTable() *Table {
	return NewTable(defaultRules())
}

func defaultRules() []Rule {
	return []Rule{
		{Label: "Alprazolam 2mg", Names: []string{"alprazolam*2mg"}, Family: "alprazolam", Lookup: "Alprazolam",
			Operator: OpGreaterEqual, Threshold: 4, Per: true, Sheet: 1, Ref: "alprazolam", CommonBase: "xanax"},
		{Label: "Alprazolam", Names: []string{"alprazolam"}, Lookup: "Alprazolam",
			Operator: OpGreaterEqual, Threshold: 2, Sheet: 1, Ref: "alprazolam"},
		{Label: "Oxycodone 30mg", Names: []string{"oxycodone*30mg"}, Family: "oxycodone", Lookup: "Oxycodone",
			Operator: OpGreaterEqual, Threshold: 120, Per: true, MED: 1.5, Sheet: 2, Ref: "oxycodone", CommonBase: "oxy30"},
		{Label: "Hydrocodone", Family: "hydrocodone", Lookup: "Hydrocodone",
			Operator: OpGreaterEqual, Threshold: 60, MED: 1, Sheet: 3, Ref: "hydrocodone"},
		{Label: "Hydromorphone", Family: "hydromorphone", Lookup: "Hydromorphone",
			Operator: OpGreaterEqual, Threshold: 32, MED: 4, Sheet: 4, Ref: "hydromorphone", CommonBase: "dilaudid"},
		{Label: "Morphine", Family: "morphine", Lookup: "Morphine",
			Operator: OpGreaterEqual, Threshold: 120, MED: 1, Sheet: 5, Ref: "morphine"},
		{Label: "Oxymorphone", Family: "oxymorphone", Lookup: "Oxymorphone",
			Operator: OpGreaterEqual, Threshold: 40, MED: 3, Sheet: 6, Ref: "oxymorphone"},
		{Label: "Fentanyl", Family: "fentanyl", Lookup: "Fentanyl",
			Operator: OpGreaterEqual, Threshold: 50, MED: 2.4, Sheet: 7, Ref: "fentanyl"},
		{Label: "Methadone", Family: "methadone", Lookup: "Methadone",
			Operator: OpGreaterEqual, Threshold: 30, MED: 1, Sheet: 8, Ref: "methadone"},
		{Label: "Tapentadol", Family: "tapentadol", Lookup: "Tapentadol",
			Operator: OpGreaterEqual, Threshold: 300, MED: 0.4, Sheet: 9, Ref: "tapentadol", CommonBase: "nucynta"},
		{Label: "Tramadol", Family: "tramadol", Lookup: "Tramadol",
			Operator: OpGreaterEqual, Threshold: 300, MED: 0.2, Sheet: 10, Ref: "tramadol"},
		{Label: "Codeine", Family: "codeine", Lookup: "Codeine",
			Operator: OpGreaterEqual, Threshold: 240, MED: 0.15, Sheet: 11, Ref: "codeine"},
		{Label: "Buprenorphine", Names: []string{"buprenorphine", "suboxone"}, Lookup: "Buprenorphine",
			Operator: OpGreater, Threshold: 24, Sheet: 12, Ref: "buprenorphine", CommonBase: "bup"},
		{Label: "Carisoprodol", Family: "carisoprodol", Lookup: "Carisoprodol",
			Operator: OpGreaterEqual, Threshold: 1400, Sheet: 13, Ref: "carisoprodol", CommonBase: "soma"},
		{Label: "Soma", Names: []string{"soma"}, Lookup: "Carisoprodol",
			Operator: OpGreaterEqual, Threshold: 1050, Sheet: 13, Ref: "carisoprodol", CommonBase: "soma"},
		{Label: "Diazepam", Family: "diazepam", Lookup: "Diazepam",
			Operator: OpGreaterEqual, Threshold: 30, Sheet: 14, Ref: "diazepam"},
		{Label: "Clonazepam", Family: "clonazepam", Lookup: "Clonazepam",
			Operator: OpGreaterEqual, Threshold: 4, Sheet: 15, Ref: "clonazepam"},
		{Label: "Lorazepam", Family: "lorazepam", Lookup: "Lorazepam",
			Operator: OpGreaterEqual, Threshold: 6, Sheet: 16, Ref: "lorazepam"},
		{Label: "Zolpidem", Family: "zolpidem", Lookup: "Zolpidem",
			Operator: OpGreater, Threshold: 10, Sheet: 17, Ref: "zolpidem"},
		{Label: "Amphetamine", Family: "amphetamine", Lookup: "Amphetamine",
			Operator: OpGreaterEqual, Threshold: 40, Sheet: 18, Ref: "amphetamine", CommonBase: "adderall"},
		{Label: "Methylphenidate", Family: "methylphenidate", Lookup: "Methylphenidate",
			Operator: OpGreaterEqual, Threshold: 60, Sheet: 19, Ref: "methylphenidate"},
		{Label: "Phentermine 37.5mg", Names: []string{"phentermine*37.5"}, Family: "phentermine", Lookup: "Phentermine",
			Operator: OpGreaterEqual, Threshold: 2, Per: true, Sheet: 20, Ref: "phentermine"},
	}
}
