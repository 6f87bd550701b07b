package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/analytics"
	"github.com/irfndi/btc-dashboard-go/internal/cache"
	"github.com/irfndi/btc-dashboard-go/internal/clock"
	"github.com/irfndi/btc-dashboard-go/internal/models"
	"github.com/irfndi/btc-dashboard-go/internal/upstream"
	"github.com/irfndi/btc-dashboard-go/internal/utils"
)

// blockchain.info chart names.
const (
	ChartHashRate        = "hash-rate"
	ChartMinersRevenue   = "miners-revenue"
	ChartTransactionFees = "transaction-fees-usd"
	ChartUniqueAddresses = "n-unique-addresses"
	ChartTransactions    = "n-transactions"
	ChartFeePerTx        = "fees-usd-per-transaction"

	chartTimespan  = "30days"
	hashrateWindow = 7
)

// ChainFetcher is the on-chain data upstream (blockchain.info).
type ChainFetcher interface {
	BlockHeight(ctx context.Context) (int64, error)
	TotalSupply(ctx context.Context) (float64, error)
	Chart(ctx context.Context, name, timespan string) ([]upstream.ChartPoint, error)
}

// NodeFetcher is the reachable-node snapshot upstream (bitnodes).
type NodeFetcher interface {
	LatestSnapshot(ctx context.Context) (map[string]interface{}, error)
}

// LightningFetcher is the Lightning statistics upstream (mempool.space).
type LightningFetcher interface {
	LightningStatistics(ctx context.Context) (upstream.LightningStats, error)
}

// NetworkService serves node, supply, miner and adoption data.
type NetworkService struct {
	chain     ChainFetcher
	nodes     NodeFetcher
	lightning LightningFetcher
	cache     *cache.TimedCache
	resources Resources
	params    analytics.Params
	clock     clock.Clock
	logger    *logrus.Logger
}

// NewNetworkService creates a NetworkService. lightning may be nil, in which
// case Lightning fields are always null.
func NewNetworkService(
	chain ChainFetcher,
	nodes NodeFetcher,
	lightning LightningFetcher,
	tc *cache.TimedCache,
	resources Resources,
	params analytics.Params,
	clk clock.Clock,
	logger *logrus.Logger,
) *NetworkService {
	return &NetworkService{
		chain:     chain,
		nodes:     nodes,
		lightning: lightning,
		cache:     tc,
		resources: resources,
		params:    params,
		clock:     clk,
		logger:    logger,
	}
}

// EmptyNodesSnapshot is served when neither a live nor a cached snapshot exists.
func EmptyNodesSnapshot() map[string]interface{} {
	return map[string]interface{}{"nodes": map[string]interface{}{}}
}

// Nodes returns the latest node snapshot. It never fails: a failed fetch falls
// back to the last cached snapshot of any age and then to an empty snapshot.
func (s *NetworkService) Nodes(ctx context.Context) map[string]interface{} {
	var snapshot map[string]interface{}
	if s.cache.Read(ctx, s.resources.Nodes, &snapshot) {
		return snapshot
	}

	snapshot, err := s.nodes.LatestSnapshot(ctx)
	if err == nil {
		s.cache.Write(ctx, s.resources.Nodes, snapshot)
		return snapshot
	}

	entry := s.logger.WithFields(logrus.Fields{
		"component": "network_service",
		"operation": "nodes",
		"upstream":  "bitnodes",
		"error":     err.Error(),
	})

	var stale map[string]interface{}
	if fetchedAt, ok := s.cache.ReadStale(ctx, s.resources.Nodes, &stale); ok {
		entry.WithField("fetched_at", fetchedAt.Format(time.RFC3339)).Warn("Serving stale node snapshot")
		return stale
	}

	entry.Warn("No node snapshot available, serving empty snapshot")
	return EmptyNodesSnapshot()
}

// OnchainSupply returns the halving schedule and supply figures.
func (s *NetworkService) OnchainSupply(ctx context.Context) (*models.OnchainSupply, error) {
	height, err := cache.GetOrFetch(ctx, s.cache, s.resources.BlockHeight, s.chain.BlockHeight)
	if err != nil {
		return nil, utils.NewUpstreamError("blockchain", err)
	}
	supply, err := cache.GetOrFetch(ctx, s.cache, s.resources.TotalSupply, s.chain.TotalSupply)
	if err != nil {
		return nil, utils.NewUpstreamError("blockchain", err)
	}
	return analytics.BuildOnchainSupply(height, supply, s.clock.Now(), s.params)
}

// MinerEconomics returns the hashrate moving average and miner revenue split.
func (s *NetworkService) MinerEconomics(ctx context.Context) (*models.MinerEconomics, error) {
	return cache.GetOrFetch(ctx, s.cache, s.resources.MinerEconomics, s.fetchMinerEconomics)
}

func (s *NetworkService) fetchMinerEconomics(ctx context.Context) (*models.MinerEconomics, error) {
	hashrate, err := s.chart(ctx, ChartHashRate)
	if err != nil {
		return nil, err
	}
	revenue, err := s.chart(ctx, ChartMinersRevenue)
	if err != nil {
		return nil, err
	}
	fees, err := s.chart(ctx, ChartTransactionFees)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(hashrate))
	for i, p := range hashrate {
		values[i] = p.Y
	}
	ma, err := analytics.SMA(values, hashrateWindow)
	if err != nil {
		return nil, utils.NewUpstreamError("blockchain", fmt.Errorf("hash-rate chart too short: %w", err))
	}

	latestHash := hashrate[len(hashrate)-1]
	latestRevenue := revenue[len(revenue)-1].Y
	latestFees := fees[len(fees)-1].Y
	feePct := 0.0
	if latestRevenue > 0 {
		feePct = latestFees / latestRevenue * 100
	}

	return &models.MinerEconomics{
		AsOfDate:           chartDate(latestHash),
		HashrateLatest:     analytics.Round(latestHash.Y, 2),
		Hashrate7dMA:       analytics.Round(ma, 2),
		MinerRevenueUSD:    analytics.Round(latestRevenue, 2),
		TransactionFeesUSD: analytics.Round(latestFees, 2),
		FeePctOfRevenue:    analytics.Round(feePct, 2),
	}, nil
}

// AdoptionUsage returns address, transaction and fee activity plus
// best-effort Lightning capacity.
func (s *NetworkService) AdoptionUsage(ctx context.Context) (*models.AdoptionUsage, error) {
	return cache.GetOrFetch(ctx, s.cache, s.resources.AdoptionUsage, s.fetchAdoptionUsage)
}

func (s *NetworkService) fetchAdoptionUsage(ctx context.Context) (*models.AdoptionUsage, error) {
	addresses, err := s.chart(ctx, ChartUniqueAddresses)
	if err != nil {
		return nil, err
	}
	txs, err := s.chart(ctx, ChartTransactions)
	if err != nil {
		return nil, err
	}
	feePerTx, err := s.chart(ctx, ChartFeePerTx)
	if err != nil {
		return nil, err
	}

	latest := addresses[len(addresses)-1]
	usage := &models.AdoptionUsage{
		AsOfDate:           chartDate(latest),
		ActiveAddresses:    analytics.Round(latest.Y, 0),
		TransactionsPerDay: analytics.Round(txs[len(txs)-1].Y, 0),
		AvgFeePerTxUSD:     analytics.Round(feePerTx[len(feePerTx)-1].Y, 4),
	}

	if s.lightning != nil {
		stats, err := s.lightning.LightningStatistics(ctx)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"component": "network_service",
				"operation": "adoption_usage",
				"upstream":  "mempool",
				"error":     err.Error(),
			}).Warn("Lightning statistics unavailable")
		} else {
			capacity := analytics.Round(stats.CapacityBTC, 2)
			channels := stats.ChannelCount
			usage.LightningCapacityBTC = &capacity
			usage.LightningChannels = &channels
		}
	}
	return usage, nil
}

func (s *NetworkService) chart(ctx context.Context, name string) ([]upstream.ChartPoint, error) {
	points, err := s.chain.Chart(ctx, name, chartTimespan)
	if err != nil {
		return nil, utils.NewUpstreamError("blockchain", fmt.Errorf("chart %s: %w", name, err))
	}
	if len(points) == 0 {
		return nil, utils.NewUpstreamError("blockchain", fmt.Errorf("chart %s returned no values", name))
	}
	return points, nil
}

func chartDate(p upstream.ChartPoint) string {
	return time.Unix(p.X, 0).UTC().Format(models.DateLayout)
}
