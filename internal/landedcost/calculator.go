// Package landedcost computes the total cost of importing goods into the
// United States: product value plus freight, insurance, resolved duties,
// and the statutory MPF/HMF fees.
package landedcost

import (
	"context"
	"fmt"
	"time"

	"github.com/chrishsmith/sourcify-sub007/internal/common"
	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

// US statutory fee parameters, 19 CFR 24.23-24.24 as of the 2025 fee year.
const (
	mpfRate = 0.003464
	mpfMin  = 31.67
	mpfMax  = 614.35

	hmfRate = 0.00125
)

// RateResolver is the tariff-side collaborator that turns a code and origin
// country into an effective duty rate.
type RateResolver interface {
	Resolve(ctx context.Context, code, country string, asOf time.Time) (*model.EffectiveTariffResult, error)
}

// Calculator computes landed costs against a rate resolver.
type Calculator struct {
	resolver RateResolver
}

// New creates a landed cost calculator.
func New(resolver RateResolver) *Calculator {
	return &Calculator{resolver: resolver}
}

// Calculate resolves the effective rate for the input's code and origin and
// returns the full landed-cost breakdown. Monetary outputs are rounded to
// 2 decimal places; intermediate math keeps full precision.
func (c *Calculator) Calculate(ctx context.Context, in model.LandedCostInput, asOf time.Time) (*model.LandedCostResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	tariff, err := c.resolver.Resolve(ctx, in.HTSCode, in.CountryCode, asOf)
	if err != nil {
		return nil, fmt.Errorf("resolving rate for %s: %w", in.HTSCode, err)
	}

	return Compute(in, tariff), nil
}

// Compute builds the landed-cost breakdown from an already-resolved tariff.
// The optimizer uses this directly to avoid re-resolving rates it already
// holds.
func Compute(in model.LandedCostInput, tariff *model.EffectiveTariffResult) *model.LandedCostResult {
	duties := in.ProductValue * tariff.EffectiveRate / 100

	mpf := in.ProductValue * mpfRate
	if mpf < mpfMin {
		mpf = mpfMin
	}
	if mpf > mpfMax {
		mpf = mpfMax
	}

	var hmf float64
	if in.IsOcean {
		hmf = in.ProductValue * hmfRate
	}

	total := in.ProductValue + in.ShippingCost + in.InsuranceCost + duties + mpf + hmf

	return &model.LandedCostResult{
		HTSCode:       tariff.Code,
		CountryCode:   in.CountryCode,
		ProductValue:  model.Round2(in.ProductValue),
		Quantity:      in.Quantity,
		EffectiveRate: tariff.EffectiveRate,

		Duties:        model.Round2(duties),
		MPF:           model.Round2(mpf),
		HMF:           model.Round2(hmf),
		ShippingCost:  model.Round2(in.ShippingCost),
		InsuranceCost: model.Round2(in.InsuranceCost),

		TotalLandedCost: model.Round2(total),
		PerUnitCost:     model.Round2(total / float64(in.Quantity)),

		RateUnparsed: tariff.RateUnparsed,
		Stale:        tariff.Stale,
	}
}

func validateInput(in model.LandedCostInput) error {
	if in.HTSCode == "" {
		return fmt.Errorf("%w: HTS code is required", common.ErrInvalidInput)
	}
	if in.CountryCode == "" {
		return fmt.Errorf("%w: country of origin is required", common.ErrInvalidInput)
	}
	if in.ProductValue <= 0 {
		return fmt.Errorf("%w: product value must be positive, got %.2f", common.ErrInvalidInput, in.ProductValue)
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", common.ErrInvalidInput, in.Quantity)
	}
	if in.ShippingCost < 0 || in.InsuranceCost < 0 {
		return fmt.Errorf("%w: shipping and insurance costs cannot be negative", common.ErrInvalidInput)
	}
	return nil
}
