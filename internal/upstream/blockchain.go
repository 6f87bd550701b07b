package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBlockchainQueryURL  = "https://blockchain.info"
	DefaultBlockchainChartsURL = "https://api.blockchain.info"

	satoshisPerBTC = 1e8
)

// ChartPoint is one sample of a blockchain.info chart. X is unix seconds.
type ChartPoint struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}

type chartResponse struct {
	Status string       `json:"status"`
	Name   string       `json:"name"`
	Unit   string       `json:"unit"`
	Values []ChartPoint `json:"values"`
}

// Blockchain wraps the blockchain.info plain-text query API and its charts API,
// which live on different hosts.
type Blockchain struct {
	query  *Client
	charts *Client
}

// NewBlockchain creates a blockchain.info client.
func NewBlockchain(queryCfg, chartsCfg Config, logger *logrus.Logger) *Blockchain {
	if queryCfg.BaseURL == "" {
		queryCfg.BaseURL = DefaultBlockchainQueryURL
	}
	if chartsCfg.BaseURL == "" {
		chartsCfg.BaseURL = DefaultBlockchainChartsURL
	}
	return &Blockchain{
		query:  NewClient("blockchain", queryCfg, logger),
		charts: NewClient("blockchain_charts", chartsCfg, logger),
	}
}

// BlockHeight returns the current chain tip height.
func (b *Blockchain) BlockHeight(ctx context.Context) (int64, error) {
	text, err := b.query.getText(ctx, "/q/getblockcount", nil)
	if err != nil {
		return 0, err
	}
	height, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("blockchain: invalid block height %q: %w", text, err)
	}
	if height < 0 {
		return 0, fmt.Errorf("blockchain: negative block height %d", height)
	}
	return height, nil
}

// TotalSupply returns the circulating supply in BTC.
func (b *Blockchain) TotalSupply(ctx context.Context) (float64, error) {
	text, err := b.query.getText(ctx, "/q/totalbc", nil)
	if err != nil {
		return 0, err
	}
	sats, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("blockchain: invalid total supply %q: %w", text, err)
	}
	return sats / satoshisPerBTC, nil
}

// Chart returns the samples of a named chart, e.g. "hash-rate", over a
// timespan such as "30days".
func (b *Blockchain) Chart(ctx context.Context, name, timespan string) ([]ChartPoint, error) {
	q := url.Values{}
	q.Set("timespan", timespan)
	q.Set("format", "json")

	var resp chartResponse
	if err := b.charts.getJSON(ctx, "/charts/"+url.PathEscape(name), q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("blockchain: chart %s returned no values", name)
	}
	return resp.Values, nil
}

// Breakers returns the breakers of both hosts.
func (b *Blockchain) Breakers() []*CircuitBreaker {
	return []*CircuitBreaker{b.query.Breaker(), b.charts.Breaker()}
}
