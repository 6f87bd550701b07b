// Package analytics computes descriptive statistics over a daily close series
// and the halving schedule arithmetic. All functions are pure.
package analytics

import "time"

// Params holds the approximations the dashboard numbers are built on. They
// are configurable rather than derived.
type Params struct {
	CycleWindowDays   int           `mapstructure:"cycle_window_days"`
	BlocksPerDay      int           `mapstructure:"blocks_per_day"`
	BlockInterval     time.Duration `mapstructure:"block_interval"`
	HalvingInterval   int64         `mapstructure:"halving_interval"`
	InitialSubsidy    float64       `mapstructure:"initial_subsidy"`
	MaxSupply         float64       `mapstructure:"max_supply"`
	MinHistoryPoints  int           `mapstructure:"min_history_points"`
	AnnualizationDays int           `mapstructure:"annualization_days"`
}

// DefaultParams returns the constants the dashboard has always used.
func DefaultParams() Params {
	return Params{
		CycleWindowDays:   1460,
		BlocksPerDay:      144,
		BlockInterval:     10 * time.Minute,
		HalvingInterval:   210000,
		InitialSubsidy:    50,
		MaxSupply:         21000000,
		MinHistoryPoints:  210,
		AnnualizationDays: 365,
	}
}
