package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/btc-dashboard-go/internal/cache"
	"github.com/irfndi/btc-dashboard-go/internal/clock"
	"github.com/irfndi/btc-dashboard-go/internal/config"
	"github.com/irfndi/btc-dashboard-go/internal/models"
	"github.com/irfndi/btc-dashboard-go/internal/upstream"
)

type mockSource struct{ mock.Mock }

func (m *mockSource) Load(ctx context.Context) (models.Series, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.Series), args.Error(1)
}

type mockPriceFetcher struct{ mock.Mock }

func (m *mockPriceFetcher) SpotPrice(ctx context.Context, vs string) (float64, error) {
	args := m.Called(ctx, vs)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockPriceFetcher) MarketChart(ctx context.Context, vs string, days int) (models.Series, error) {
	args := m.Called(ctx, vs, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.Series), args.Error(1)
}

type mockChainFetcher struct{ mock.Mock }

func (m *mockChainFetcher) BlockHeight(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockChainFetcher) TotalSupply(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockChainFetcher) Chart(ctx context.Context, name, timespan string) ([]upstream.ChartPoint, error) {
	args := m.Called(ctx, name, timespan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]upstream.ChartPoint), args.Error(1)
}

type mockNodeFetcher struct{ mock.Mock }

func (m *mockNodeFetcher) LatestSnapshot(ctx context.Context) (map[string]interface{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

type mockLightningFetcher struct{ mock.Mock }

func (m *mockLightningFetcher) LightningStatistics(ctx context.Context) (upstream.LightningStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(upstream.LightningStats), args.Error(1)
}

type mockFXFetcher struct{ mock.Mock }

func (m *mockFXFetcher) LatestRate(ctx context.Context, from, to string) (float64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockFXFetcher) RateSeries(ctx context.Context, from, to string, start, end time.Time) ([]upstream.RatePoint, error) {
	args := m.Called(ctx, from, to, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]upstream.RatePoint), args.Error(1)
}

type mockCPIFetcher struct{ mock.Mock }

func (m *mockCPIFetcher) Observations(ctx context.Context, seriesID string, limit int) ([]upstream.Observation, error) {
	args := m.Called(ctx, seriesID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]upstream.Observation), args.Error(1)
}

type mockSeriesWriter struct{ mock.Mock }

func (m *mockSeriesWriter) UpsertSeries(ctx context.Context, series models.Series) (int64, error) {
	args := m.Called(ctx, series)
	return args.Get(0).(int64), args.Error(1)
}

var testNow = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

type fixture struct {
	clock     *clock.Mock
	cache     *cache.TimedCache
	store     *cache.FileStore
	resources Resources
	logger    *logrus.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	clk := clock.NewMock(testNow)
	store := cache.NewFileStore(t.TempDir())
	res, err := RegisterResources(cache.NewRegistry(), config.DefaultTTLs(), "gbp")
	require.NoError(t, err)

	return &fixture{
		clock:     clk,
		cache:     cache.NewTimedCache(store, clk, logger, cache.NewAnalytics()),
		store:     store,
		resources: res,
		logger:    logger,
	}
}

// dailySeries builds n consecutive days ending the day before testNow.
func dailySeries(n int, closeAt func(i int) float64) models.Series {
	start := models.DayOf(testNow).AddDate(0, 0, -n)
	series := make(models.Series, n)
	for i := 0; i < n; i++ {
		series[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Close: closeAt(i)}
	}
	return series
}

func chartPoints(values ...float64) []upstream.ChartPoint {
	start := models.DayOf(testNow).AddDate(0, 0, -len(values))
	points := make([]upstream.ChartPoint, len(values))
	for i, v := range values {
		points[i] = upstream.ChartPoint{X: start.AddDate(0, 0, i).Unix(), Y: v}
	}
	return points
}
