package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/analytics"
	"github.com/irfndi/btc-dashboard-go/internal/cache"
	"github.com/irfndi/btc-dashboard-go/internal/clock"
	"github.com/irfndi/btc-dashboard-go/internal/models"
	"github.com/irfndi/btc-dashboard-go/internal/upstream"
	"github.com/irfndi/btc-dashboard-go/internal/utils"
)

// FallbackGBPPerUSD is served when no live FX rate can be fetched.
const FallbackGBPPerUSD = 0.78

const (
	fxBase  = "USD"
	fxQuote = "GBP"

	// Monthly CPI: the 13th most recent observation is the same month a year earlier.
	cpiObservations = 13
)

// DefaultCPISeries maps jurisdictions to their FRED CPI series.
var DefaultCPISeries = map[string]string{
	"us": "CPIAUCSL",
	"uk": "GBRCPIALLMINMEI",
}

// FXFetcher is the exchange-rate upstream (Frankfurter).
type FXFetcher interface {
	LatestRate(ctx context.Context, from, to string) (float64, error)
	RateSeries(ctx context.Context, from, to string, start, end time.Time) ([]upstream.RatePoint, error)
}

// CPIFetcher is the macro series upstream (FRED).
type CPIFetcher interface {
	Observations(ctx context.Context, seriesID string, limit int) ([]upstream.Observation, error)
}

// MacroService serves FX and inflation context.
type MacroService struct {
	fx           FXFetcher
	cpi          CPIFetcher
	cache        *cache.TimedCache
	resources    Resources
	cpiSeries    map[string]string
	fxWindowDays int
	clock        clock.Clock
	logger       *logrus.Logger
}

// NewMacroService creates a MacroService. A nil cpiSeries uses DefaultCPISeries.
func NewMacroService(
	fx FXFetcher,
	cpi CPIFetcher,
	tc *cache.TimedCache,
	resources Resources,
	cpiSeries map[string]string,
	fxWindowDays int,
	clk clock.Clock,
	logger *logrus.Logger,
) *MacroService {
	if len(cpiSeries) == 0 {
		cpiSeries = DefaultCPISeries
	}
	if fxWindowDays <= 0 {
		fxWindowDays = 365
	}
	return &MacroService{
		fx:           fx,
		cpi:          cpi,
		cache:        tc,
		resources:    resources,
		cpiSeries:    cpiSeries,
		fxWindowDays: fxWindowDays,
		clock:        clk,
		logger:       logger,
	}
}

// FXRate returns GBP per USD. Upstream failure yields FallbackGBPPerUSD, which
// is not cached.
func (s *MacroService) FXRate(ctx context.Context) models.FXRate {
	rate, err := cache.GetOrFetch(ctx, s.cache, s.resources.FXRate, func(ctx context.Context) (float64, error) {
		return s.fx.LatestRate(ctx, fxBase, fxQuote)
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"component": "macro_service",
			"operation": "fx_rate",
			"upstream":  "frankfurter",
			"error":     err.Error(),
		}).Warn("FX rate unavailable, serving fallback")
		return models.FXRate{GBPPerUSD: FallbackGBPPerUSD}
	}
	return models.FXRate{GBPPerUSD: analytics.Round(rate, 6)}
}

// MacroContext returns the trailing FX trend and CPI year-over-year readings.
func (s *MacroService) MacroContext(ctx context.Context) (*models.MacroContext, error) {
	return cache.GetOrFetch(ctx, s.cache, s.resources.MacroContext, s.fetchMacroContext)
}

func (s *MacroService) fetchMacroContext(ctx context.Context) (*models.MacroContext, error) {
	end := models.DayOf(s.clock.Now())
	start := end.AddDate(0, 0, -s.fxWindowDays)

	points, err := s.fx.RateSeries(ctx, fxBase, fxQuote, start, end)
	if err != nil {
		return nil, utils.NewUpstreamError("frankfurter", err)
	}
	trend, err := fxTrend(points)
	if err != nil {
		return nil, utils.NewUpstreamError("frankfurter", err)
	}

	jurisdictions := make([]string, 0, len(s.cpiSeries))
	for j := range s.cpiSeries {
		jurisdictions = append(jurisdictions, j)
	}
	sort.Strings(jurisdictions)

	cpi := make(map[string]models.CPIReading, len(jurisdictions))
	for _, j := range jurisdictions {
		reading, err := s.cpiReading(ctx, s.cpiSeries[j])
		if err != nil {
			return nil, err
		}
		cpi[j] = reading
	}

	return &models.MacroContext{FX: trend, CPI: cpi}, nil
}

func (s *MacroService) cpiReading(ctx context.Context, seriesID string) (models.CPIReading, error) {
	obs, err := s.cpi.Observations(ctx, seriesID, cpiObservations)
	if err != nil {
		return models.CPIReading{}, utils.NewUpstreamError("fred", err)
	}
	if len(obs) < cpiObservations {
		return models.CPIReading{}, utils.NewUpstreamError("fred",
			fmt.Errorf("series %s: need %d observations, got %d", seriesID, cpiObservations, len(obs)))
	}

	latest, yearAgo := obs[0], obs[cpiObservations-1]
	if yearAgo.Value == 0 {
		return models.CPIReading{}, utils.NewUpstreamError("fred",
			fmt.Errorf("series %s: zero base value on %s", seriesID, yearAgo.Date.Format(models.DateLayout)))
	}
	return models.CPIReading{
		SeriesID: seriesID,
		AsOfDate: latest.Date.Format(models.DateLayout),
		YoYPct:   analytics.Round((latest.Value/yearAgo.Value-1)*100, 2),
	}, nil
}

func fxTrend(points []upstream.RatePoint) (models.FXTrend, error) {
	if len(points) < 2 {
		return models.FXTrend{}, fmt.Errorf("need at least 2 rates, got %d", len(points))
	}
	first, last := points[0], points[len(points)-1]
	return models.FXTrend{
		StartDate: first.Date.Format(models.DateLayout),
		EndDate:   last.Date.Format(models.DateLayout),
		StartRate: analytics.Round(first.Rate, 6),
		EndRate:   analytics.Round(last.Rate, 6),
		ChangePct: analytics.Round((last.Rate/first.Rate-1)*100, 2),
	}, nil
}
