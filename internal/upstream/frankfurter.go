package upstream

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/models"
)

// DefaultFrankfurterURL is the public Frankfurter (ECB reference rates) API.
const DefaultFrankfurterURL = "https://api.frankfurter.app"

// RatePoint is one daily FX reference rate.
type RatePoint struct {
	Date time.Time
	Rate float64
}

type latestRateResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

type rateSeriesResponse struct {
	Base  string                        `json:"base"`
	Rates map[string]map[string]float64 `json:"rates"`
}

// Frankfurter fetches currency exchange rates.
type Frankfurter struct {
	*Client
}

// NewFrankfurter creates a Frankfurter client.
func NewFrankfurter(cfg Config, logger *logrus.Logger) *Frankfurter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultFrankfurterURL
	}
	return &Frankfurter{Client: NewClient("frankfurter", cfg, logger)}
}

// LatestRate returns units of `to` per one unit of `from`.
func (f *Frankfurter) LatestRate(ctx context.Context, from, to string) (float64, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)

	var resp latestRateResponse
	if err := f.getJSON(ctx, "/latest", q, &resp); err != nil {
		return 0, err
	}
	rate, ok := resp.Rates[to]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("frankfurter: no %s rate in response", to)
	}
	return rate, nil
}

// RateSeries returns daily rates between start and end inclusive, ascending.
// Days without a published rate (weekends, holidays) are absent.
func (f *Frankfurter) RateSeries(ctx context.Context, from, to string, start, end time.Time) ([]RatePoint, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)

	path := "/" + start.UTC().Format(models.DateLayout) + ".." + end.UTC().Format(models.DateLayout)
	var resp rateSeriesResponse
	if err := f.getJSON(ctx, path, q, &resp); err != nil {
		return nil, err
	}

	points := make([]RatePoint, 0, len(resp.Rates))
	for day, rates := range resp.Rates {
		date, err := time.Parse(models.DateLayout, day)
		if err != nil {
			continue
		}
		rate, ok := rates[to]
		if !ok || rate <= 0 {
			continue
		}
		points = append(points, RatePoint{Date: date, Rate: rate})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("frankfurter: no %s/%s rates between %s and %s",
			from, to, start.Format(models.DateLayout), end.Format(models.DateLayout))
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}
