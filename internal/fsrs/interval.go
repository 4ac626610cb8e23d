package fsrs

import (
	"fmt"
	"math"
)

// FormatInterval renders a fractional day count the way review buttons
// show it: minutes under a day, whole days under a month, months under a
// year, years beyond that.
func FormatInterval(days float64) string {
	switch {
	case days < 1:
		minutes := int(math.Round(days * 24 * 60))
		return fmt.Sprintf("%dm", minutes)
	case days < 30:
		return fmt.Sprintf("%dd", int(math.Round(days)))
	case days < 365:
		return fmt.Sprintf("%dmo", int(math.Round(days/30)))
	default:
		return fmt.Sprintf("%dy", int(math.Round(days/365)))
	}
}
