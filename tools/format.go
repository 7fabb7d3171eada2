package tools

import (
	"math"
	"strconv"
)

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// formatPrice renders a price with two decimal places.
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
