package source

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.\-]`)
	numericPrefix = regexp.MustCompile(`^-?\d*(?:\.\d+)?`)
)

// ParseNumber strips every character except digits, '.' and '-' and parses
// the leading number of what remains, so "10-20" is 10. ok is false when no
// digits lead; the value is 0.
func ParseNumber(s string) (float64, bool) {
	prefix := numericPrefix.FindString(nonNumeric.ReplaceAllString(s, ""))
	if strings.Trim(prefix, "-.") == "" {
		return 0, false
	}
	if neg := strings.HasPrefix(prefix, "-"); strings.HasPrefix(strings.TrimPrefix(prefix, "-"), ".") {
		prefix = "0" + strings.TrimPrefix(prefix, "-")
		if neg {
			prefix = "-" + prefix
		}
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// ParsePercent parses a workbook percentage. Text carrying a '%' sign is in
// percentage points and is scaled down; anything else is already a fraction.
func ParsePercent(s string) (float64, bool) {
	v, ok := ParseNumber(s)
	if !ok {
		return 0, false
	}
	if strings.Contains(s, "%") {
		return decimal.NewFromFloat(v).Div(decimal.NewFromInt(100)).InexactFloat64(), true
	}
	return v, true
}

// Normalize collapses runs of whitespace and trims the result.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
