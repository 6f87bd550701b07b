package analytics

import (
	"time"

	"github.com/irfndi/btc-dashboard-go/internal/models"
)

// CycleExtrema describes the highest and lowest close within the trailing
// cycle window, measured from the last date of the series.
type CycleExtrema struct {
	Top             models.PricePoint
	Bottom          models.PricePoint
	DaysSinceTop    int
	DaysSinceBottom int
}

// FindCycleExtrema scans points dated within windowDays of the series' last
// date. On ties the earliest point wins.
func FindCycleExtrema(series models.Series, windowDays int) (CycleExtrema, bool) {
	last, ok := series.Last()
	if !ok {
		return CycleExtrema{}, false
	}
	start := last.Date.Add(-time.Duration(windowDays) * 24 * time.Hour)

	var ext CycleExtrema
	found := false
	for _, p := range series {
		if p.Date.Before(start) {
			continue
		}
		if !found {
			ext.Top, ext.Bottom = p, p
			found = true
			continue
		}
		if p.Close > ext.Top.Close {
			ext.Top = p
		}
		if p.Close < ext.Bottom.Close {
			ext.Bottom = p
		}
	}
	if !found {
		return CycleExtrema{}, false
	}

	ext.DaysSinceTop = models.DaysBetween(ext.Top.Date, last.Date)
	ext.DaysSinceBottom = models.DaysBetween(ext.Bottom.Date, last.Date)
	return ext, true
}
