package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/history"
	"github.com/irfndi/btc-dashboard-go/internal/models"
	"github.com/irfndi/btc-dashboard-go/internal/utils"
)

// SeriesWriter mirrors the normalized series into secondary storage.
type SeriesWriter interface {
	UpsertSeries(ctx context.Context, series models.Series) (int64, error)
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Fetched    int           `json:"fetched"`
	Total      int           `json:"total"`
	GapsFilled int           `json:"gaps_filled"`
	Mirrored   int64         `json:"mirrored"`
	FirstDate  string        `json:"first_date"`
	LastDate   string        `json:"last_date"`
	Duration   time.Duration `json:"duration"`
}

// IngestService refreshes the historical record file from the price upstream.
type IngestService struct {
	prices     PriceFetcher
	path       string
	mirror     SeriesWriter
	vsCurrency string
	days       int
	logger     *logrus.Logger
}

// NewIngestService creates an IngestService. mirror may be nil.
func NewIngestService(prices PriceFetcher, path string, mirror SeriesWriter, vsCurrency string, days int, logger *logrus.Logger) *IngestService {
	if days <= 0 {
		days = 365
	}
	return &IngestService{
		prices:     prices,
		path:       path,
		mirror:     mirror,
		vsCurrency: strings.ToLower(vsCurrency),
		days:       days,
		logger:     logger,
	}
}

// Run fetches the trailing window of daily closes, merges them into the
// record file with the fetched values winning on duplicate dates, fills gaps
// and rewrites the file.
func (s *IngestService) Run(ctx context.Context) (*IngestResult, error) {
	start := time.Now()
	log := s.logger.WithFields(logrus.Fields{
		"component": "ingest_service",
		"path":      s.path,
	})

	incoming, err := s.prices.MarketChart(ctx, s.vsCurrency, s.days)
	if err != nil {
		return nil, utils.NewUpstreamError("coingecko", err)
	}

	existing, err := history.Load(s.path)
	switch {
	case err == nil:
		log.WithField("existing_points", len(existing)).Info("Merging with existing historical data")
	case utils.IsKind(err, utils.KindNotFound):
		log.Info("No existing historical data, creating new file")
		existing = nil
	default:
		return nil, err
	}

	merged := history.Merge(existing, incoming)
	distinct := distinctDays(existing, incoming)
	result := &IngestResult{
		Fetched:    len(incoming),
		Total:      len(merged),
		GapsFilled: len(merged) - distinct,
	}
	if result.GapsFilled > 0 {
		log.WithField("gaps_filled", result.GapsFilled).Warn("Forward-filled missing days")
	}

	if err := history.Save(s.path, merged); err != nil {
		return nil, err
	}

	if s.mirror != nil {
		n, err := s.mirror.UpsertSeries(ctx, merged)
		if err != nil {
			return nil, err
		}
		result.Mirrored = n
	}

	if first, ok := firstPoint(merged); ok {
		result.FirstDate = first.Date.Format(models.DateLayout)
	}
	if last, ok := merged.Last(); ok {
		result.LastDate = last.Date.Format(models.DateLayout)
	}
	result.Duration = time.Since(start)

	log.WithFields(logrus.Fields{
		"fetched":     result.Fetched,
		"total":       result.Total,
		"mirrored":    result.Mirrored,
		"first_date":  result.FirstDate,
		"last_date":   result.LastDate,
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("Historical data ingested")
	return result, nil
}

func distinctDays(parts ...models.Series) int {
	seen := make(map[time.Time]struct{})
	for _, series := range parts {
		for _, p := range series {
			seen[models.DayOf(p.Date)] = struct{}{}
		}
	}
	return len(seen)
}

func firstPoint(series models.Series) (models.PricePoint, bool) {
	if len(series) == 0 {
		return models.PricePoint{}, false
	}
	return series[0], true
}
