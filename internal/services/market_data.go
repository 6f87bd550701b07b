package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/analytics"
	"github.com/irfndi/btc-dashboard-go/internal/cache"
	"github.com/irfndi/btc-dashboard-go/internal/clock"
	"github.com/irfndi/btc-dashboard-go/internal/history"
	"github.com/irfndi/btc-dashboard-go/internal/models"
	"github.com/irfndi/btc-dashboard-go/internal/utils"
)

// PriceFetcher is the price upstream (CoinGecko).
type PriceFetcher interface {
	SpotPrice(ctx context.Context, vs string) (float64, error)
	MarketChart(ctx context.Context, vs string, days int) (models.Series, error)
}

// MarketService serves the historical series and the market structure
// snapshot.
type MarketService struct {
	source     history.Source
	prices     PriceFetcher
	cache      *cache.TimedCache
	resources  Resources
	params     analytics.Params
	vsCurrency string
	clock      clock.Clock
	logger     *logrus.Logger
}

// NewMarketService creates a MarketService.
func NewMarketService(
	source history.Source,
	prices PriceFetcher,
	tc *cache.TimedCache,
	resources Resources,
	params analytics.Params,
	vsCurrency string,
	clk clock.Clock,
	logger *logrus.Logger,
) *MarketService {
	return &MarketService{
		source:     source,
		prices:     prices,
		cache:      tc,
		resources:  resources,
		params:     params,
		vsCurrency: strings.ToLower(vsCurrency),
		clock:      clk,
		logger:     logger,
	}
}

// Historical returns [unix_ms, close] pairs for a range code, ascending by
// date. Named ranges keep only points on or after now minus the range length.
func (s *MarketService) Historical(ctx context.Context, rangeCode string) ([][2]float64, error) {
	days, all, err := history.ParseRange(rangeCode)
	if err != nil {
		return nil, err
	}

	series, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	history.SortByDate(series)

	if !all {
		series = history.Filter(series, history.Cutoff(s.clock.Now(), days))
	}
	if len(series) == 0 {
		return nil, utils.NewNotFoundError("no historical data for range "+rangeCode, nil)
	}
	return history.ChartPoints(series), nil
}

// SpotPrice returns the cached or live spot price, or nil when the upstream
// is unavailable.
func (s *MarketService) SpotPrice(ctx context.Context) *float64 {
	price, err := cache.GetOrFetch(ctx, s.cache, s.resources.SpotPrice, func(ctx context.Context) (float64, error) {
		return s.prices.SpotPrice(ctx, s.vsCurrency)
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"component": "market_service",
			"operation": "spot_price",
			"upstream":  "coingecko",
			"error":     err.Error(),
		}).Warn("Spot price unavailable, falling back to last close")
		return nil
	}
	return &price
}

// MarketStructure returns the derived metrics snapshot.
func (s *MarketService) MarketStructure(ctx context.Context) (*models.MarketStructure, error) {
	return cache.GetOrFetch(ctx, s.cache, s.resources.MarketStructure, func(ctx context.Context) (*models.MarketStructure, error) {
		series, err := s.source.Load(ctx)
		if err != nil {
			return nil, err
		}
		// Forward-filled days do not count as history.
		if n := distinctDays(series); n < s.params.MinHistoryPoints {
			return nil, utils.NewInsufficientDataErrorf(
				"insufficient historical data: need at least %d points, have %d",
				s.params.MinHistoryPoints, n)
		}
		series = history.Normalize(series)
		return analytics.BuildMarketStructure(series, s.SpotPrice(ctx), s.vsCurrency, s.params)
	})
}
