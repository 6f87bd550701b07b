package analytics

import "math"

// DailyReturns returns close[i]/close[i-1] - 1 for each consecutive pair.
// A zero previous close yields a return of 0.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return []float64{}
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			returns[i-1] = 0
			continue
		}
		returns[i-1] = closes[i]/closes[i-1] - 1
	}
	return returns
}

// AnnualizedVolatility is the sample standard deviation of the last window
// returns, scaled by sqrt(annualizationDays) and expressed in percent.
// ok is false when fewer than window returns exist.
func AnnualizedVolatility(returns []float64, window, annualizationDays int) (vol float64, ok bool) {
	if window < 2 || len(returns) < window {
		return 0, false
	}
	tail := returns[len(returns)-window:]

	mean := 0.0
	for _, r := range tail {
		mean += r
	}
	mean /= float64(window)

	sumSq := 0.0
	for _, r := range tail {
		d := r - mean
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / float64(window-1))
	return std * math.Sqrt(float64(annualizationDays)) * 100, true
}
