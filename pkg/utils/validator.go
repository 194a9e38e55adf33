package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var deaPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{7}$`)

// ValidateDEA checks a DEA registration's shape and check digit: the sum of
// digits 1, 3 and 5 plus twice the sum of digits 2, 4 and 6 must end in
// digit 7.
func ValidateDEA(dea string) error {
	dea = strings.ToUpper(strings.TrimSpace(dea))
	if !deaPattern.MatchString(dea) {
		return fmt.Errorf("invalid DEA number format: %q", dea)
	}

	d := func(i int) int { return int(dea[2+i] - '0') }
	sum := d(0) + d(2) + d(4) + 2*(d(1)+d(3)+d(5))
	if sum%10 != d(6) {
		return fmt.Errorf("invalid DEA check digit: %s", dea)
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
