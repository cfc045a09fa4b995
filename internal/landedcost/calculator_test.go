package landedcost

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrishsmith/sourcify-sub007/internal/common"
	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

type fixedResolver struct {
	rate     float64
	unparsed bool
	stale    bool
	err      error
}

func (f *fixedResolver) Resolve(_ context.Context, code, country string, asOf time.Time) (*model.EffectiveTariffResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.EffectiveTariffResult{
		Code:          code,
		Country:       country,
		AsOf:          asOf,
		EffectiveRate: f.rate,
		RateUnparsed:  f.unparsed,
		Stale:         f.stale,
	}, nil
}

func baseInput() model.LandedCostInput {
	return model.LandedCostInput{
		HTSCode:       "6109100010",
		CountryCode:   "VN",
		ProductValue:  10000,
		Quantity:      500,
		ShippingCost:  300,
		InsuranceCost: 50,
		IsOcean:       true,
	}
}

func TestCalculate_FullBreakdown(t *testing.T) {
	calc := New(&fixedResolver{rate: 7.5})

	result, err := calc.Calculate(context.Background(), baseInput(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "6109100010", result.HTSCode)
	assert.Equal(t, "VN", result.CountryCode)
	assert.InDelta(t, 750.00, result.Duties, 1e-9)
	assert.InDelta(t, 34.64, result.MPF, 1e-9)
	assert.InDelta(t, 12.50, result.HMF, 1e-9)
	assert.InDelta(t, 11147.14, result.TotalLandedCost, 1e-9)
	assert.InDelta(t, 22.29, result.PerUnitCost, 1e-9)
	assert.False(t, result.RateUnparsed)
	assert.False(t, result.Stale)
}

func TestCalculate_MPFClamp(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"small shipment hits floor", 1000, 31.67},
		{"mid shipment is ad valorem", 100000, 346.40},
		{"large shipment hits cap", 1000000, 614.35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := New(&fixedResolver{rate: 0})
			in := baseInput()
			in.ProductValue = tt.value

			result, err := calc.Calculate(context.Background(), in, time.Time{})
			require.NoError(t, err)
			assert.InDelta(t, tt.want, result.MPF, 1e-9)
		})
	}
}

func TestCalculate_HMFOceanOnly(t *testing.T) {
	calc := New(&fixedResolver{rate: 7.5})

	air := baseInput()
	air.IsOcean = false
	result, err := calc.Calculate(context.Background(), air, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, result.HMF)

	ocean, err := calc.Calculate(context.Background(), baseInput(), time.Time{})
	require.NoError(t, err)
	assert.InDelta(t, 12.50, ocean.HMF, 1e-9)
	assert.InDelta(t, result.TotalLandedCost+12.50, ocean.TotalLandedCost, 1e-9)
}

func TestCalculate_CostIncreasesWithRate(t *testing.T) {
	var prev float64
	for _, rate := range []float64{0, 5, 16.5, 41.5, 100} {
		calc := New(&fixedResolver{rate: rate})
		result, err := calc.Calculate(context.Background(), baseInput(), time.Time{})
		require.NoError(t, err)
		assert.Greater(t, result.TotalLandedCost, prev, "rate %.1f", rate)
		prev = result.TotalLandedCost
	}
}

func TestCalculate_InvalidInput(t *testing.T) {
	calc := New(&fixedResolver{rate: 7.5})

	tests := []struct {
		name   string
		mutate func(*model.LandedCostInput)
	}{
		{"missing code", func(in *model.LandedCostInput) { in.HTSCode = "" }},
		{"missing country", func(in *model.LandedCostInput) { in.CountryCode = "" }},
		{"zero value", func(in *model.LandedCostInput) { in.ProductValue = 0 }},
		{"negative value", func(in *model.LandedCostInput) { in.ProductValue = -5 }},
		{"zero quantity", func(in *model.LandedCostInput) { in.Quantity = 0 }},
		{"negative shipping", func(in *model.LandedCostInput) { in.ShippingCost = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			tt.mutate(&in)
			_, err := calc.Calculate(context.Background(), in, time.Time{})
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
}

func TestCalculate_ResolverFailure(t *testing.T) {
	calc := New(&fixedResolver{err: errors.New("no such code")})

	_, err := calc.Calculate(context.Background(), baseInput(), time.Time{})
	assert.ErrorContains(t, err, "resolving rate")
}

func TestCalculate_PropagatesFlags(t *testing.T) {
	calc := New(&fixedResolver{rate: 2.0, unparsed: true, stale: true})

	result, err := calc.Calculate(context.Background(), baseInput(), time.Time{})
	require.NoError(t, err)
	assert.True(t, result.RateUnparsed)
	assert.True(t, result.Stale)
}
