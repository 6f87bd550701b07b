package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBitnodesURL is the public bitnodes API.
const DefaultBitnodesURL = "https://bitnodes.io"

// Bitnodes fetches reachable-node snapshots.
type Bitnodes struct {
	*Client
}

// NewBitnodes creates a bitnodes client.
func NewBitnodes(cfg Config, logger *logrus.Logger) *Bitnodes {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBitnodesURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Bitnodes{Client: NewClient("bitnodes", cfg, logger)}
}

// LatestSnapshot returns the latest snapshot document as decoded JSON. The
// document is passed through to clients unchanged.
func (b *Bitnodes) LatestSnapshot(ctx context.Context) (map[string]interface{}, error) {
	var snapshot map[string]interface{}
	if err := b.getJSON(ctx, "/api/v1/snapshots/latest/", nil, &snapshot); err != nil {
		return nil, err
	}
	if len(snapshot) == 0 {
		return nil, fmt.Errorf("bitnodes: empty snapshot")
	}
	return snapshot, nil
}
