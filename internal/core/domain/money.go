package domain

import (
	"fmt"
	"math"
)

// CentsFromMajor converts a major-unit amount to integer cents, rounding to
// the nearest cent (never truncating).
func CentsFromMajor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// MajorString renders cents as an exact major-unit decimal string, e.g.
// 1050 -> "10.50". Pure integer arithmetic, so repeated conversions never
// drift.
func MajorString(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
