package analytics

import (
	"fmt"
	"time"

	"github.com/irfndi/btc-dashboard-go/internal/models"
	"github.com/irfndi/btc-dashboard-go/internal/utils"
)

// Spot price provenance reported in the snapshot.
const (
	SpotSourceLive   = "live"
	SpotSourceSeries = "series"
)

// BuildMarketStructure computes the derived metrics snapshot for a normalized
// series. When spot is nil the last close of the series is used instead.
func BuildMarketStructure(series models.Series, spot *float64, currency string, p Params) (*models.MarketStructure, error) {
	if len(series) < p.MinHistoryPoints {
		return nil, utils.NewInsufficientDataErrorf(
			"insufficient historical data: need at least %d points, have %d", p.MinHistoryPoints, len(series))
	}

	last, _ := series.Last()
	closes := series.Closes()

	spotPrice, spotSource := last.Close, SpotSourceSeries
	if spot != nil && *spot > 0 {
		spotPrice, spotSource = *spot, SpotSourceLive
	}

	ath, _ := AllTimeHigh(series)
	sma200, err := SMA(closes, 200)
	if err != nil {
		return nil, fmt.Errorf("sma200: %w", err)
	}

	returns := DailyReturns(closes)
	var vol30, vol90 *float64
	if v, ok := AnnualizedVolatility(returns, 30, p.AnnualizationDays); ok {
		vol30 = &v
	}
	if v, ok := AnnualizedVolatility(returns, 90, p.AnnualizationDays); ok {
		vol90 = &v
	}

	cycle, ok := FindCycleExtrema(series, p.CycleWindowDays)
	if !ok {
		return nil, fmt.Errorf("cycle extrema: empty window")
	}

	return &models.MarketStructure{
		AsOfDate:             last.Date.Format(models.DateLayout),
		Currency:             currency,
		Spot:                 Round(spotPrice, 2),
		SpotSource:           spotSource,
		ATH:                  Round(ath.Close, 2),
		ATHDate:              ath.Date.Format(models.DateLayout),
		DrawdownPct:          Round(DrawdownPct(spotPrice, ath.Close), 2),
		PctHistoryAboveSpot:  Round(PercentAbove(closes, spotPrice), 2),
		Vol30dPct:            RoundPtr(vol30, 2),
		Vol90dPct:            RoundPtr(vol90, 2),
		SMA200:               Round(sma200, 2),
		MayerMultiple:        Round(MayerMultiple(spotPrice, sma200), 4),
		CycleTop:             Round(cycle.Top.Close, 2),
		CycleTopDate:         cycle.Top.Date.Format(models.DateLayout),
		DaysSinceCycleTop:    cycle.DaysSinceTop,
		CycleBottom:          Round(cycle.Bottom.Close, 2),
		CycleBottomDate:      cycle.Bottom.Date.Format(models.DateLayout),
		DaysSinceCycleBottom: cycle.DaysSinceBottom,
	}, nil
}

// BuildOnchainSupply combines the halving schedule at height with the
// circulating supply. The halving date estimate is projected from now.
func BuildOnchainSupply(height int64, supplyBTC float64, now time.Time, p Params) (*models.OnchainSupply, error) {
	h, err := Halving(height, p)
	if err != nil {
		return nil, err
	}

	inflation := 0.0
	if supplyBTC > 0 {
		inflation = h.AnnualIssuance / supplyBTC * 100
	}
	pctMined := 0.0
	if p.MaxSupply > 0 {
		pctMined = supplyBTC / p.MaxSupply * 100
	}

	return &models.OnchainSupply{
		BlockHeight:          h.Height,
		HalvingEpoch:         h.Epoch,
		NextHalvingHeight:    h.NextHalvingHeight,
		BlocksToHalving:      h.BlocksRemaining,
		EstDaysToHalving:     Round(h.TimeToHalving.Hours()/24, 2),
		EstHalvingDate:       now.UTC().Add(h.TimeToHalving).Format(models.DateLayout),
		CurrentSubsidyBTC:    Round(h.CurrentSubsidy, 8),
		AnnualIssuanceBTC:    Round(h.AnnualIssuance, 8),
		CirculatingSupplyBTC: Round(supplyBTC, 8),
		PctMaxSupplyMined:    Round(pctMined, 4),
		AnnualInflationPct:   Round(inflation, 4),
	}, nil
}
