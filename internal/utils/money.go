package utils

import "math"

// Round2 rounds to two decimal places, the precision of the base currency.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round4 rounds to four decimal places. Used when converting back from the
// settlement currency, where two decimals would accumulate rounding loss on
// small amounts.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// RoundUnit rounds to a whole unit for currencies without subunits.
func RoundUnit(v float64) float64 {
	return math.Round(v)
}
