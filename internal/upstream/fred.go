package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/models"
)

// DefaultFREDURL is the St. Louis Fed economic data API.
const DefaultFREDURL = "https://api.stlouisfed.org"

// Observation is one dated value of a FRED series.
type Observation struct {
	Date  time.Time
	Value float64
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FRED fetches macroeconomic series.
type FRED struct {
	*Client
	apiKey string
}

// NewFRED creates a FRED client. FRED requires an API key.
func NewFRED(cfg Config, apiKey string, logger *logrus.Logger) *FRED {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultFREDURL
	}
	return &FRED{Client: NewClient("fred", cfg, logger), apiKey: apiKey}
}

// Observations returns up to limit of the most recent observations, newest
// first. Missing values (reported by FRED as ".") are skipped.
func (f *FRED) Observations(ctx context.Context, seriesID string, limit int) ([]Observation, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("fred: api key not configured")
	}
	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", f.apiKey)
	q.Set("file_type", "json")
	q.Set("sort_order", "desc")
	q.Set("limit", strconv.Itoa(limit))

	var resp observationsResponse
	if err := f.getJSON(ctx, "/fred/series/observations", q, &resp); err != nil {
		return nil, err
	}

	out := make([]Observation, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		value, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		date, err := time.Parse(models.DateLayout, o.Date)
		if err != nil {
			continue
		}
		out = append(out, Observation{Date: date, Value: value})
	}
	return out, nil
}
