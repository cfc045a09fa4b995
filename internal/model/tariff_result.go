package model

import "time"

// AppliedDuty is one additional-duty program actually applied to a code.
type AppliedDuty struct {
	ProgramID string
	Rate      float64 // post-exclusion percentage points
	Stale     bool    // rate served from cache after a failed live fetch
}

// EffectiveTariffResult is the computed outcome of stacking every applicable
// duty program for a (code, country, asOf) tuple. It is constructed fresh per
// request and never stored.
type EffectiveTariffResult struct {
	Code        string
	Country     string
	CountryName string
	AsOf        time.Time

	BaseMFNRate  float64
	RateUnparsed bool // general rate could not be reduced to a percentage

	AdditionalDuties      []AppliedDuty // sorted by program id for determinism
	TotalAdditionalDuties float64

	FTAProgram  string // empty when no FTA special rate applied
	FTADiscount float64

	// EffectiveRate = max(0, BaseMFNRate + TotalAdditionalDuties - FTADiscount).
	EffectiveRate float64

	Stale bool // any contributing program served a stale rate
}
