package model

// RateKind tags a parsed legal rate expression.
type RateKind string

// Rate expression kinds.
const (
	RateAdValorem RateKind = "AD_VALOREM" // pure percentage, e.g. "5.3%"
	RateFree      RateKind = "FREE"       // duty free
	RateCompound  RateKind = "COMPOUND"   // percentage plus specific component, e.g. "5.3% + 2.5¢/kg"
	RateUnparsed  RateKind = "UNPARSED"   // could not be reduced to a percentage
)

// RateExpression is the normalized form of a legal rate expression. Stacking
// math only ever consumes AdValorem; callers surface the Unparsed kind as a
// flag rather than guessing.
type RateExpression struct {
	Kind      RateKind
	AdValorem float64 // percentage points; the ad valorem component for COMPOUND
	Raw       string
}

// Percent returns the ad valorem percentage usable in stacking math, and
// whether the expression was fully reduced. COMPOUND expressions contribute
// their ad valorem component but are reported as not fully parsed so the
// caller can flag the result.
func (r RateExpression) Percent() (pct float64, parsed bool) {
	switch r.Kind {
	case RateFree:
		return 0, true
	case RateAdValorem:
		return r.AdValorem, true
	case RateCompound:
		return r.AdValorem, false
	default:
		return 0, false
	}
}
