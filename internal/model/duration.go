package model

import (
	"fmt"
	"math"
)

// FormatDuration renders seconds as h:mm:ss, followed by the microsecond
// fraction when there is one and trim is false.
//
// Example:
//
//	FormatDuration(3725.5, false) // "1:02:05.500000"
//	FormatDuration(3725.5, true)  // "1:02:05"
func FormatDuration(seconds float64, trim bool) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}

	micros := int64(math.Round(seconds * 1e6))
	whole := micros / 1e6
	frac := micros % 1e6

	str := fmt.Sprintf("%d:%02d:%02d", whole/3600, (whole/60)%60, whole%60)
	if !trim && frac != 0 {
		str += fmt.Sprintf(".%06d", frac)
	}
	return str
}
