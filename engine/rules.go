package engine

import (
	"fmt"
	"math"
)

// Strategy holds the tunable constants of the negotiation heuristic.
type Strategy struct {
	// RoundsToHold keeps re-issuing the hold vector while the opponent holds
	// and round < RoundsToHold. 0 disables holding.
	RoundsToHold int `yaml:"rounds_to_hold" json:"rounds_to_hold"`

	FoldFraction  float64 `yaml:"fold_fraction" json:"fold_fraction"`   // roundsTillFold = floor(rounds*f) (+1 first mover)
	PanicFraction float64 `yaml:"panic_fraction" json:"panic_fraction"` // roundsTillPanic = floor(rounds*f) (+1 first mover)

	// EstErrorMultiplier dampens the opponent value estimate derived from
	// demand intensity.
	EstErrorMultiplier float64 `yaml:"est_error_multiplier" json:"est_error_multiplier"`

	LowestReqFraction      float64 `yaml:"lowest_req_fraction" json:"lowest_req_fraction"`           // floor of the retained-value decay
	StubbornAcceptFraction float64 `yaml:"stubborn_accept_fraction" json:"stubborn_accept_fraction"` // target concession against a stubborn opponent

	// NoValueInterestFactor marks a zero-value item as wanted by the opponent
	// when its importance score exceeds factor*rounds.
	NoValueInterestFactor float64 `yaml:"no_value_interest_factor" json:"no_value_interest_factor"`
}

// DefaultStrategy returns the standard strategy constants.
func DefaultStrategy() Strategy {
	return Strategy{
		RoundsToHold:           0,
		FoldFraction:           0.2,
		PanicFraction:          0.4,
		EstErrorMultiplier:     0.6,
		LowestReqFraction:      0.7,
		StubbornAcceptFraction: 0.5,
		NoValueInterestFactor:  0.3,
	}
}

// Validate rejects negative or non-finite parameters.
func (s Strategy) Validate() error {
	if s.RoundsToHold < 0 {
		return fmt.Errorf("%w: rounds_to_hold %d is negative", ErrConfiguration, s.RoundsToHold)
	}
	fields := []struct {
		name string
		v    float64
	}{
		{"fold_fraction", s.FoldFraction},
		{"panic_fraction", s.PanicFraction},
		{"est_error_multiplier", s.EstErrorMultiplier},
		{"lowest_req_fraction", s.LowestReqFraction},
		{"stubborn_accept_fraction", s.StubbornAcceptFraction},
		{"no_value_interest_factor", s.NoValueInterestFactor},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return fmt.Errorf("%w: %s %v must be a finite non-negative number", ErrConfiguration, f.name, f.v)
		}
	}
	return nil
}

// Thresholds are derived once per match from the catalog, the round count
// and the mover order.
type Thresholds struct {
	RoundsTillFold               int
	RoundsTillPanic              int
	StubbornAcceptableOfferValue float64
	LowestReqValue               float64
}

// DeriveThresholds computes the strategy thresholds for a match.
func (s Strategy) DeriveThresholds(rounds int, firstMover bool, totalValue float64) Thresholds {
	bonus := 0
	if firstMover {
		bonus = 1
	}
	return Thresholds{
		RoundsTillFold:               int(math.Floor(float64(rounds)*s.FoldFraction)) + bonus,
		RoundsTillPanic:              int(math.Floor(float64(rounds)*s.PanicFraction)) + bonus,
		StubbornAcceptableOfferValue: totalValue * s.StubbornAcceptFraction,
		LowestReqValue:               totalValue * s.LowestReqFraction,
	}
}
