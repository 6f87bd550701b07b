package analytics

import (
	"errors"
	"math"
	"time"
)

// HalvingSchedule is the subsidy state at a given block height.
type HalvingSchedule struct {
	Height            int64
	Epoch             int64
	NextHalvingHeight int64
	BlocksRemaining   int64
	TimeToHalving     time.Duration
	CurrentSubsidy    float64
	AnnualIssuance    float64
}

// Halving derives the halving epoch, countdown and issuance for height.
// The countdown assumes a constant block interval.
func Halving(height int64, p Params) (HalvingSchedule, error) {
	if height < 0 {
		return HalvingSchedule{}, errors.New("block height must be non-negative")
	}
	if p.HalvingInterval <= 0 {
		return HalvingSchedule{}, errors.New("halving interval must be positive")
	}

	epoch := height / p.HalvingInterval
	next := (epoch + 1) * p.HalvingInterval
	remaining := next - height
	subsidy := p.InitialSubsidy / math.Pow(2, float64(epoch))

	return HalvingSchedule{
		Height:            height,
		Epoch:             epoch,
		NextHalvingHeight: next,
		BlocksRemaining:   remaining,
		TimeToHalving:     time.Duration(remaining) * p.BlockInterval,
		CurrentSubsidy:    subsidy,
		AnnualIssuance:    subsidy * float64(p.BlocksPerDay) * 365,
	}, nil
}
