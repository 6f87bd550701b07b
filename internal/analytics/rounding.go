package analytics

import "github.com/shopspring/decimal"

// Round rounds x half away from zero to the given number of decimal places.
// Only response boundaries round; computation keeps full precision.
func Round(x float64, places int32) float64 {
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

// RoundPtr rounds *x when present.
func RoundPtr(x *float64, places int32) *float64 {
	if x == nil {
		return nil
	}
	r := Round(*x, places)
	return &r
}
