// Package aig holds the per-drug monitoring rules behind the AIG sheets.
package aig

import (
	"fmt"
	"strings"
)

// Operator is a threshold comparison
type Operator string

const (
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
)

// Compare evaluates value <op> threshold.
func (o Operator) Compare(value, threshold float64) (bool, error) {
	switch o {
	case OpGreater:
		return value > threshold, nil
	case OpGreaterEqual:
		return value >= threshold, nil
	case OpLess:
		return value < threshold, nil
	case OpLessEqual:
		return value <= threshold, nil
	case OpEqual:
		return value == threshold, nil
	case OpNotEqual:
		return value != threshold, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOperator, string(o))
	}
}

// Validate reports whether the operator is recognized
func (o Operator) Validate() error {
	_, err := o.Compare(0, 0)
	return err
}

const (
	nameAndSeparator = "*"
	methadoneFamily  = "methadone"
)

// Rule describes how one monitored drug is filtered, thresholded and
// surfaced on its AIG sheet and on the common sheet.
type Rule struct {
	Label     string   `yaml:"label" json:"label"`
	Names     []string `yaml:"names,omitempty" json:"names,omitempty"`
	Family    string   `yaml:"family,omitempty" json:"family,omitempty"`
	Lookup    string   `yaml:"lookup" json:"lookup"`
	Operator  Operator `yaml:"operator" json:"operator"`
	Threshold float64  `yaml:"threshold" json:"threshold"`
	Per       bool     `yaml:"per,omitempty" json:"per,omitempty"`
	MED       float64  `yaml:"med,omitempty" json:"med,omitempty"`
	Sheet     int      `yaml:"sheet" json:"sheet"`
	Ref       string   `yaml:"ref" json:"ref"`
	// CommonBase overrides Ref as the common-sheet field prefix
	CommonBase string `yaml:"common_base,omitempty" json:"common_base,omitempty"`
}

// MatchesFamily is a case-insensitive exact match; rules without a family
// match everything.
func (r Rule) MatchesFamily(family string) bool {
	if r.Family == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(family), r.Family)
}

// MatchesName reports whether drug contains any of the rule's names. A name
// with "*" requires every "*"-separated part. Rules without names match
// everything.
func (r Rule) MatchesName(drug string) bool {
	if len(r.Names) == 0 {
		return true
	}
	lower := strings.ToLower(drug)
	for _, name := range r.Names {
		if containsAll(lower, strings.Split(strings.ToLower(name), nameAndSeparator)) {
			return true
		}
	}
	return false
}

func containsAll(s string, parts []string) bool {
	matched := false
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(s, p) {
			return false
		}
		matched = true
	}
	return matched
}

// Passes compares a daily dose against the rule threshold
func (r Rule) Passes(dose float64) (bool, error) {
	ok, err := r.Operator.Compare(dose, r.Threshold)
	if err != nil {
		return false, fmt.Errorf("rule %q: %w", r.Label, err)
	}
	return ok, nil
}

// Base is the common-sheet field prefix
func (r Rule) Base() string {
	if r.CommonBase != "" {
		return r.CommonBase
	}
	return r.Ref
}

// HasMED reports whether morphine-equivalent doses are computed
func (r Rule) HasMED() bool {
	return r.MED > 0
}

// Methadone reports whether the dose-dependent methadone conversion applies
func (r Rule) Methadone() bool {
	return strings.EqualFold(r.Family, methadoneFamily)
}

// MEDFactor returns the morphine-equivalent multiplier for a daily dose.
func (r Rule) MEDFactor(dose float64) float64 {
	if r.Methadone() {
		return MethadoneFactor(dose)
	}
	return r.MED
}

// MEDRange converts the largest and smallest doses to morphine equivalents.
// ok is false when doses is empty or the rule has no multiplier.
func (r Rule) MEDRange(doses []float64) (high, low float64, ok bool) {
	if !r.HasMED() || len(doses) == 0 {
		return 0, 0, false
	}
	max, min := doses[0], doses[0]
	for _, d := range doses[1:] {
		if d > max {
			max = d
		}
		if d < min {
			min = d
		}
	}
	return max * r.MEDFactor(max), min * r.MEDFactor(min), true
}

// MethadoneFactor is the dose-dependent methadone conversion
func MethadoneFactor(dose float64) float64 {
	switch {
	case dose <= 20:
		return 4
	case dose <= 40:
		return 8
	case dose <= 60:
		return 10
	default:
		return 12
	}
}
