package upstream

import (
	"context"

	"github.com/sirupsen/logrus"
)

// DefaultMempoolURL is the public mempool.space API.
const DefaultMempoolURL = "https://mempool.space"

// LightningStats summarizes the public Lightning network graph.
type LightningStats struct {
	CapacityBTC  float64
	ChannelCount int64
	NodeCount    int64
}

type lightningResponse struct {
	Latest struct {
		ChannelCount  int64 `json:"channel_count"`
		NodeCount     int64 `json:"node_count"`
		TotalCapacity int64 `json:"total_capacity"`
	} `json:"latest"`
}

// Mempool fetches Lightning network statistics from mempool.space.
type Mempool struct {
	*Client
}

// NewMempool creates a mempool.space client.
func NewMempool(cfg Config, logger *logrus.Logger) *Mempool {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultMempoolURL
	}
	return &Mempool{Client: NewClient("mempool", cfg, logger)}
}

// LightningStatistics returns the latest network-wide Lightning statistics.
// Capacity is reported upstream in satoshis.
func (m *Mempool) LightningStatistics(ctx context.Context) (LightningStats, error) {
	var resp lightningResponse
	if err := m.getJSON(ctx, "/api/v1/lightning/statistics/latest", nil, &resp); err != nil {
		return LightningStats{}, err
	}
	return LightningStats{
		CapacityBTC:  float64(resp.Latest.TotalCapacity) / satoshisPerBTC,
		ChannelCount: resp.Latest.ChannelCount,
		NodeCount:    resp.Latest.NodeCount,
	}, nil
}
