package model

// CodeCost pairs a plausible code with its fully resolved landed cost.
type CodeCost struct {
	Code               string
	Description        string
	Confidence         float64
	EffectiveRate      float64
	LandedCost         float64
	SavingsVsBaseline  float64 // positive = cheaper than the baseline code
	Stale              bool
}

// OptimizerResult is the savings-ranked outcome of evaluating every plausible
// code for a product across the full rate resolver. Transient, computed per
// request.
type OptimizerResult struct {
	ApplicableCodes []CodeCost // ascending landed cost
	RecommendedCode string
	BaselineCode    string

	Evaluated int // candidates resolved successfully
	Dropped   int // candidates dropped on timeout or resolution failure
}
