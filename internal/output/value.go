// Package output is the in-memory model of the generated template workbook
// and its xlsx rendering.
package output

import "strconv"

// Kind tags a Value
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindFormula
)

// Value is one output cell: a string, number, bool, formula, or nothing.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// String returns a text value
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean value
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Null returns an empty cell
func Null() Value { return Value{} }

// Formula returns a formula cell; expr has no leading "=".
func Formula(expr string) Value { return Value{kind: KindFormula, str: expr} }

// OptionalNumber is Number(n) when ok, else Null.
func OptionalNumber(n float64, ok bool) Value {
	if !ok {
		return Null()
	}
	return Number(n)
}

// Kind returns the value's tag
func (v Value) Kind() Kind { return v.kind }

// IsNull reports an empty cell
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns string and formula contents
func (v Value) Text() string { return v.str }

// Float returns a numeric value's contents
func (v Value) Float() float64 { return v.num }

// Truth returns a bool value's contents
func (v Value) Truth() bool { return v.b }

// Display renders the value as plain text, formulas prefixed with "=".
func (v Value) Display() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindFormula:
		return "=" + v.str
	default:
		return ""
	}
}
