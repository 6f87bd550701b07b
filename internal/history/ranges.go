package history

import (
	"time"

	"github.com/irfndi/btc-dashboard-go/internal/models"
	"github.com/irfndi/btc-dashboard-go/internal/utils"
)

// RangeAll selects the whole series.
const RangeAll = "ALL"

var rangeDays = map[string]int{
	"1M": 30,
	"3M": 90,
	"6M": 180,
	"1Y": 365,
}

// ParseRange returns the trailing day count for a range code. all is true for
// RangeAll. Unknown codes are an InvalidInput error.
func ParseRange(code string) (days int, all bool, err error) {
	if code == RangeAll {
		return 0, true, nil
	}
	days, ok := rangeDays[code]
	if !ok {
		return 0, false, utils.NewValidationErrorf("Invalid range: %s", code)
	}
	return days, false, nil
}

// Cutoff returns the earliest instant kept for a trailing window of days.
func Cutoff(now time.Time, days int) time.Time {
	return now.UTC().Add(-time.Duration(days) * 24 * time.Hour)
}

// Filter returns the points dated at or after cutoff.
func Filter(series models.Series, cutoff time.Time) models.Series {
	out := make(models.Series, 0, len(series))
	for _, p := range series {
		if p.Date.Before(cutoff) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ChartPoints converts a series to [unix_ms, close] pairs.
func ChartPoints(series models.Series) [][2]float64 {
	points := make([][2]float64, len(series))
	for i, p := range series {
		points[i] = [2]float64{float64(p.Date.UnixMilli()), p.Close}
	}
	return points
}
