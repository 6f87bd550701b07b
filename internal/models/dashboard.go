package models

// MarketStructure is the derived metrics snapshot served by /api/market-structure.
// Volatility fields are nil when the series is too short for the window.
type MarketStructure struct {
	AsOfDate             string   `json:"as_of_date"`
	Currency             string   `json:"currency"`
	Spot                 float64  `json:"spot"`
	SpotSource           string   `json:"spot_source"`
	ATH                  float64  `json:"ath"`
	ATHDate              string   `json:"ath_date"`
	DrawdownPct          float64  `json:"drawdown_pct"`
	PctHistoryAboveSpot  float64  `json:"pct_history_above_spot"`
	Vol30dPct            *float64 `json:"vol_30d_pct"`
	Vol90dPct            *float64 `json:"vol_90d_pct"`
	SMA200               float64  `json:"sma200"`
	MayerMultiple        float64  `json:"mayer_multiple"`
	CycleTop             float64  `json:"cycle_top"`
	CycleTopDate         string   `json:"cycle_top_date"`
	DaysSinceCycleTop    int      `json:"days_since_cycle_top"`
	CycleBottom          float64  `json:"cycle_bottom"`
	CycleBottomDate      string   `json:"cycle_bottom_date"`
	DaysSinceCycleBottom int      `json:"days_since_cycle_bottom"`
}

// OnchainSupply is the halving and issuance payload served by /api/onchain-supply.
type OnchainSupply struct {
	BlockHeight          int64   `json:"block_height"`
	HalvingEpoch         int64   `json:"halving_epoch"`
	NextHalvingHeight    int64   `json:"next_halving_height"`
	BlocksToHalving      int64   `json:"blocks_to_halving"`
	EstDaysToHalving     float64 `json:"est_days_to_halving"`
	EstHalvingDate       string  `json:"est_halving_date"`
	CurrentSubsidyBTC    float64 `json:"current_subsidy_btc"`
	AnnualIssuanceBTC    float64 `json:"annual_issuance_btc"`
	CirculatingSupplyBTC float64 `json:"circulating_supply_btc"`
	PctMaxSupplyMined    float64 `json:"pct_max_supply_mined"`
	AnnualInflationPct   float64 `json:"annual_inflation_pct"`
}

// MinerEconomics is served by /api/miner-economics.
type MinerEconomics struct {
	AsOfDate           string  `json:"as_of_date"`
	HashrateLatest     float64 `json:"hashrate_latest_ths"`
	Hashrate7dMA       float64 `json:"hashrate_7d_ma_ths"`
	MinerRevenueUSD    float64 `json:"miner_revenue_usd"`
	TransactionFeesUSD float64 `json:"transaction_fees_usd"`
	FeePctOfRevenue    float64 `json:"fee_pct_of_revenue"`
}

// AdoptionUsage is served by /api/adoption-usage. Lightning fields are
// best-effort and nil when the source is unavailable.
type AdoptionUsage struct {
	AsOfDate             string   `json:"as_of_date"`
	ActiveAddresses      float64  `json:"active_addresses"`
	TransactionsPerDay   float64  `json:"transactions_per_day"`
	AvgFeePerTxUSD       float64  `json:"avg_fee_per_tx_usd"`
	LightningCapacityBTC *float64 `json:"lightning_capacity_btc"`
	LightningChannels    *int64   `json:"lightning_channels"`
}

// FXRate is served by /api/fx-rate.
type FXRate struct {
	GBPPerUSD float64 `json:"gbp_per_usd"`
}

// FXTrend summarises the USD/GBP rate over a trailing window.
type FXTrend struct {
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	StartRate float64 `json:"start_rate"`
	EndRate   float64 `json:"end_rate"`
	ChangePct float64 `json:"change_pct"`
}

// CPIReading is a year-over-year CPI change for one jurisdiction.
type CPIReading struct {
	SeriesID string  `json:"series_id"`
	AsOfDate string  `json:"as_of_date"`
	YoYPct   float64 `json:"yoy_pct"`
}

// MacroContext is served by /api/macro-context.
type MacroContext struct {
	FX  FXTrend               `json:"fx"`
	CPI map[string]CPIReading `json:"cpi"`
}
