// Package tariff implements the duty-program registry, the legal rate
// expression parser, and the rate stacking resolver.
package tariff

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

var (
	// Leading ad valorem component: "5.3%", "16.5 %".
	adValoremRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*%`)
	// Anything that looks like a specific (per-unit) component: "2.5¢/kg",
	// "$1.10/doz", "0.9 cents/liter".
	specificRe = regexp.MustCompile(`(?:¢|\$|cents?)\s*.*/|/(?:kg|liter|litre|doz|no\.|unit|pr\.?|m2|m3)`)
)

// ParseRate reduces a legal rate expression to its normalized tagged form.
// Downstream stacking math only ever consumes the ad valorem percentage;
// anything that cannot be reduced is tagged UNPARSED so the caller can flag
// the result instead of computing silently wrong numbers.
func ParseRate(raw string) model.RateExpression {
	expr := strings.TrimSpace(raw)
	if expr == "" {
		return model.RateExpression{Kind: model.RateUnparsed, Raw: raw}
	}

	if strings.EqualFold(expr, "free") {
		return model.RateExpression{Kind: model.RateFree, Raw: raw}
	}

	m := adValoremRe.FindStringSubmatch(expr)
	if m == nil {
		return model.RateExpression{Kind: model.RateUnparsed, Raw: raw}
	}

	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return model.RateExpression{Kind: model.RateUnparsed, Raw: raw}
	}

	rest := strings.TrimSpace(expr[len(m[0]):])
	if rest == "" {
		return model.RateExpression{Kind: model.RateAdValorem, AdValorem: pct, Raw: raw}
	}

	// "5.3% + 2.5¢/kg" style compound rate: keep the ad valorem component
	// but tag it so the specific component is never silently dropped.
	if strings.HasPrefix(rest, "+") || specificRe.MatchString(rest) {
		return model.RateExpression{Kind: model.RateCompound, AdValorem: pct, Raw: raw}
	}

	return model.RateExpression{Kind: model.RateUnparsed, Raw: raw}
}
