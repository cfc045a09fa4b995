package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

func TestFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"61", "61"},
		{"6109", "6109"},
		{"610910", "6109.10"},
		{"61091000", "6109.10.00"},
		{"6109100010", "6109.10.00.10"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCode(tt.code))
		})
	}
}

func TestRenderTariffResult(t *testing.T) {
	result := &model.EffectiveTariffResult{
		Code:        "6109100010",
		Country:     "CN",
		CountryName: "China",
		AsOf:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		BaseMFNRate: 16.5,
		AdditionalDuties: []model.AppliedDuty{
			{ProgramID: "SEC301-LIST3", Rate: 25},
		},
		TotalAdditionalDuties: 25,
		EffectiveRate:         41.5,
	}

	out := RenderTariffResult(result)
	assert.Contains(t, out, "6109.10.00.10")
	assert.Contains(t, out, "China (CN)")
	assert.Contains(t, out, "SEC301-LIST3")
	assert.Contains(t, out, "41.5%")
}

func TestRenderCandidate_Residual(t *testing.T) {
	c := &model.ClassificationCandidate{
		Code:            "6109100090",
		Description:     "Other",
		Confidence:      0.7,
		IsOther:         true,
		OtherExclusions: []string{"6109100010"},
	}

	out := RenderCandidate(c, false)
	assert.Contains(t, out, "residual basket code")
	assert.Contains(t, out, "6109.10.00.10")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short passthrough", "cotton t-shirts", 32, "cotton t-shirts"},
		{"exact length passthrough", "abcd", 4, "abcd"},
		{"ascii cut", "abcdef", 4, "abc…"},
		{"multibyte cut keeps runes whole", "émaillé café décor set ünit wäre", 10, "émaillé c…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), tt.max)
		})
	}
}

func TestRenderLandedCost_WarnsOnFlags(t *testing.T) {
	r := &model.LandedCostResult{
		HTSCode:      "9102110000",
		CountryCode:  "CH",
		Quantity:     10,
		RateUnparsed: true,
		Stale:        true,
	}

	out := RenderLandedCost(r)
	assert.Contains(t, out, "non-ad-valorem")
	assert.Contains(t, out, "cached rate")
}
