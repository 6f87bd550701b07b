package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/btc-dashboard-go/internal/analytics"
	"github.com/irfndi/btc-dashboard-go/internal/upstream"
	"github.com/irfndi/btc-dashboard-go/internal/utils"
)

func newNetworkService(f *fixture, chain ChainFetcher, nodes NodeFetcher, lightning LightningFetcher) *NetworkService {
	return NewNetworkService(chain, nodes, lightning, f.cache, f.resources, analytics.DefaultParams(), f.clock, f.logger)
}

func TestNetworkService_Nodes_Live(t *testing.T) {
	f := newFixture(t)
	nodes := &mockNodeFetcher{}
	snapshot := map[string]interface{}{"total_nodes": 17000.0, "nodes": map[string]interface{}{}}
	nodes.On("LatestSnapshot", mock.Anything).Return(snapshot, nil).Once()
	svc := newNetworkService(f, &mockChainFetcher{}, nodes, nil)

	assert.Equal(t, snapshot, svc.Nodes(context.Background()))
	assert.Equal(t, snapshot, svc.Nodes(context.Background()))
	nodes.AssertNumberOfCalls(t, "LatestSnapshot", 1)
}

func TestNetworkService_Nodes_StaleFallback(t *testing.T) {
	f := newFixture(t)
	nodes := &mockNodeFetcher{}
	snapshot := map[string]interface{}{"total_nodes": 16000.0}
	nodes.On("LatestSnapshot", mock.Anything).Return(snapshot, nil).Once()
	nodes.On("LatestSnapshot", mock.Anything).Return(nil, errors.New("503"))
	svc := newNetworkService(f, &mockChainFetcher{}, nodes, nil)

	svc.Nodes(context.Background())
	f.clock.Advance(90 * 24 * time.Hour)

	assert.Equal(t, snapshot, svc.Nodes(context.Background()))
	nodes.AssertNumberOfCalls(t, "LatestSnapshot", 2)
}

func TestNetworkService_Nodes_EmptyFallback(t *testing.T) {
	f := newFixture(t)
	nodes := &mockNodeFetcher{}
	nodes.On("LatestSnapshot", mock.Anything).Return(nil, errors.New("dns"))
	svc := newNetworkService(f, &mockChainFetcher{}, nodes, nil)

	assert.Equal(t, map[string]interface{}{"nodes": map[string]interface{}{}}, svc.Nodes(context.Background()))
}

func TestNetworkService_OnchainSupply(t *testing.T) {
	f := newFixture(t)
	chain := &mockChainFetcher{}
	chain.On("BlockHeight", mock.Anything).Return(int64(209999), nil).Once()
	chain.On("TotalSupply", mock.Anything).Return(10499999.0, nil).Once()
	svc := newNetworkService(f, chain, &mockNodeFetcher{}, nil)

	supply, err := svc.OnchainSupply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), supply.HalvingEpoch)
	assert.Equal(t, int64(1), supply.BlocksToHalving)
	assert.Equal(t, 50.0, supply.CurrentSubsidyBTC)
	assert.Equal(t, "2024-06-30", supply.EstHalvingDate)

	_, err = svc.OnchainSupply(context.Background())
	require.NoError(t, err)
	chain.AssertNumberOfCalls(t, "BlockHeight", 1)
	chain.AssertNumberOfCalls(t, "TotalSupply", 1)
}

func TestNetworkService_OnchainSupply_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	chain := &mockChainFetcher{}
	chain.On("BlockHeight", mock.Anything).Return(int64(0), errors.New("timeout"))
	svc := newNetworkService(f, chain, &mockNodeFetcher{}, nil)

	_, err := svc.OnchainSupply(context.Background())
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindUpstreamFailure))
	assert.Equal(t, 500, utils.HTTPStatus(err))
}

func TestNetworkService_MinerEconomics(t *testing.T) {
	f := newFixture(t)
	chain := &mockChainFetcher{}
	chain.On("Chart", mock.Anything, ChartHashRate, "30days").
		Return(chartPoints(100, 100, 200, 200, 200, 200, 200, 200, 200), nil)
	chain.On("Chart", mock.Anything, ChartMinersRevenue, "30days").Return(chartPoints(40000000, 50000000), nil)
	chain.On("Chart", mock.Anything, ChartTransactionFees, "30days").Return(chartPoints(1000000, 2500000), nil)
	svc := newNetworkService(f, chain, &mockNodeFetcher{}, nil)

	me, err := svc.MinerEconomics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200.0, me.HashrateLatest)
	assert.Equal(t, 200.0, me.Hashrate7dMA)
	assert.Equal(t, 50000000.0, me.MinerRevenueUSD)
	assert.Equal(t, 2500000.0, me.TransactionFeesUSD)
	assert.Equal(t, 5.0, me.FeePctOfRevenue)
	assert.Equal(t, "2024-06-29", me.AsOfDate)
}

func TestNetworkService_MinerEconomics_ChartFailure(t *testing.T) {
	f := newFixture(t)
	chain := &mockChainFetcher{}
	chain.On("Chart", mock.Anything, ChartHashRate, "30days").Return(nil, errors.New("502"))
	svc := newNetworkService(f, chain, &mockNodeFetcher{}, nil)

	_, err := svc.MinerEconomics(context.Background())
	assert.True(t, utils.IsKind(err, utils.KindUpstreamFailure))
}

func TestNetworkService_MinerEconomics_TooFewHashratePoints(t *testing.T) {
	f := newFixture(t)
	chain := &mockChainFetcher{}
	chain.On("Chart", mock.Anything, ChartHashRate, "30days").Return(chartPoints(1, 2, 3), nil)
	chain.On("Chart", mock.Anything, mock.Anything, "30days").Return(chartPoints(1), nil)
	svc := newNetworkService(f, chain, &mockNodeFetcher{}, nil)

	_, err := svc.MinerEconomics(context.Background())
	require.True(t, utils.IsKind(err, utils.KindUpstreamFailure))
	assert.Equal(t, 500, utils.HTTPStatus(err))
	assert.Contains(t, err.Error(), "upstream blockchain failed")
}

func adoptionCharts() *mockChainFetcher {
	chain := &mockChainFetcher{}
	chain.On("Chart", mock.Anything, ChartUniqueAddresses, "30days").Return(chartPoints(700000, 800000.4), nil)
	chain.On("Chart", mock.Anything, ChartTransactions, "30days").Return(chartPoints(400000, 450000), nil)
	chain.On("Chart", mock.Anything, ChartFeePerTx, "30days").Return(chartPoints(1.5, 2.12345), nil)
	return chain
}

func TestNetworkService_AdoptionUsage(t *testing.T) {
	f := newFixture(t)
	lightning := &mockLightningFetcher{}
	lightning.On("LightningStatistics", mock.Anything).
		Return(upstream.LightningStats{CapacityBTC: 5012.345, ChannelCount: 52000}, nil)
	svc := newNetworkService(f, adoptionCharts(), &mockNodeFetcher{}, lightning)

	usage, err := svc.AdoptionUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 800000.0, usage.ActiveAddresses)
	assert.Equal(t, 450000.0, usage.TransactionsPerDay)
	assert.Equal(t, 2.1235, usage.AvgFeePerTxUSD)
	require.NotNil(t, usage.LightningCapacityBTC)
	assert.Equal(t, 5012.35, *usage.LightningCapacityBTC)
	require.NotNil(t, usage.LightningChannels)
	assert.Equal(t, int64(52000), *usage.LightningChannels)
}

func TestNetworkService_AdoptionUsage_LightningBestEffort(t *testing.T) {
	f := newFixture(t)
	lightning := &mockLightningFetcher{}
	lightning.On("LightningStatistics", mock.Anything).Return(upstream.LightningStats{}, errors.New("down"))
	svc := newNetworkService(f, adoptionCharts(), &mockNodeFetcher{}, lightning)

	usage, err := svc.AdoptionUsage(context.Background())
	require.NoError(t, err)
	assert.Nil(t, usage.LightningCapacityBTC)
	assert.Nil(t, usage.LightningChannels)
}
