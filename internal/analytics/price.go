package analytics

import (
	"errors"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/irfndi/btc-dashboard-go/internal/models"
)

// AllTimeHigh returns the first point holding the maximum close.
func AllTimeHigh(series models.Series) (models.PricePoint, bool) {
	if len(series) == 0 {
		return models.PricePoint{}, false
	}
	ath := series[0]
	for _, p := range series[1:] {
		if p.Close > ath.Close {
			ath = p
		}
	}
	return ath, true
}

// DrawdownPct is the percentage distance of spot below the all-time high.
func DrawdownPct(spot, ath float64) float64 {
	if ath == 0 {
		return 0
	}
	return (spot - ath) / ath * 100
}

// PercentAbove is the share of closes strictly greater than spot, in percent.
func PercentAbove(closes []float64, spot float64) float64 {
	if len(closes) == 0 {
		return 0
	}
	above := 0
	for _, c := range closes {
		if c > spot {
			above++
		}
	}
	return float64(above) / float64(len(closes)) * 100
}

// SMA returns the arithmetic mean of the last period closes.
func SMA(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(closes) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sma := trend.NewSmaWithPeriod[float64](period)
	values := helper.ChanToSlice(sma.Compute(helper.SliceToChan(closes)))
	if len(values) == 0 {
		return 0, errors.New("not enough data for SMA calculation")
	}
	return values[len(values)-1], nil
}

// MayerMultiple is spot divided by its 200-day simple moving average.
func MayerMultiple(spot, sma200 float64) float64 {
	if sma200 == 0 {
		return 0
	}
	return spot / sma200
}
