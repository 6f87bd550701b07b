package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/models"
)

// DefaultCoinGeckoURL is the public CoinGecko v3 API.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

const coinID = "bitcoin"

// CoinGecko fetches Bitcoin prices.
type CoinGecko struct {
	*Client
}

// NewCoinGecko creates a CoinGecko client.
func NewCoinGecko(cfg Config, logger *logrus.Logger) *CoinGecko {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultCoinGeckoURL
	}
	return &CoinGecko{Client: NewClient("coingecko", cfg, logger)}
}

// SpotPrice returns the current Bitcoin price in the vs currency.
func (c *CoinGecko) SpotPrice(ctx context.Context, vs string) (float64, error) {
	vs = strings.ToLower(vs)
	q := url.Values{}
	q.Set("ids", coinID)
	q.Set("vs_currencies", vs)

	var resp map[string]map[string]float64
	if err := c.getJSON(ctx, "/simple/price", q, &resp); err != nil {
		return 0, err
	}
	price, ok := resp[coinID][vs]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("coingecko: no %s price in response", vs)
	}
	return price, nil
}

type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// MarketChart returns daily closes for the trailing number of days. Points are
// returned in upstream order; the most recent day may appear twice when the
// API appends a live price.
func (c *CoinGecko) MarketChart(ctx context.Context, vs string, days int) (models.Series, error) {
	q := url.Values{}
	q.Set("vs_currency", strings.ToLower(vs))
	q.Set("days", strconv.Itoa(days))
	q.Set("interval", "daily")

	var resp marketChartResponse
	if err := c.getJSON(ctx, "/coins/"+coinID+"/market_chart", q, &resp); err != nil {
		return nil, err
	}

	series := make(models.Series, 0, len(resp.Prices))
	for _, p := range resp.Prices {
		if p[1] <= 0 {
			continue
		}
		ts := time.UnixMilli(int64(p[0])).UTC()
		series = append(series, models.PricePoint{Date: models.DayOf(ts), Close: p[1]})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("coingecko: market chart returned no prices")
	}
	return series, nil
}
