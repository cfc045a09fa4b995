package model

import "math"

// LandedCostInput is the request for one landed-cost computation.
type LandedCostInput struct {
	HTSCode       string
	CountryCode   string
	ProductValue  float64
	Quantity      int
	ShippingCost  float64
	InsuranceCost float64
	IsOcean       bool
}

// LandedCostResult is the terminal output of the engine: product value plus
// freight, insurance, duties, and statutory fees. All monetary fields are
// rounded to 2 decimal places at construction; internal math upstream keeps
// full precision.
type LandedCostResult struct {
	HTSCode     string
	CountryCode string

	ProductValue  float64
	Quantity      int
	EffectiveRate float64

	Duties        float64
	MPF           float64 // merchandise processing fee
	HMF           float64 // harbor maintenance fee, ocean shipments only
	ShippingCost  float64
	InsuranceCost float64

	TotalLandedCost float64
	PerUnitCost     float64

	RateUnparsed bool
	Stale        bool
}

// Round2 rounds a monetary amount to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
