package tariff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantKind  model.RateKind
		wantPct   float64
	}{
		{name: "simple ad valorem", raw: "5.3%", wantKind: model.RateAdValorem, wantPct: 5.3},
		{name: "integer ad valorem", raw: "32%", wantKind: model.RateAdValorem, wantPct: 32},
		{name: "spaced percent", raw: "16.5 %", wantKind: model.RateAdValorem, wantPct: 16.5},
		{name: "free", raw: "Free", wantKind: model.RateFree},
		{name: "free lowercase", raw: "free", wantKind: model.RateFree},
		{name: "compound with cents per kg", raw: "5.3% + 2.5¢/kg", wantKind: model.RateCompound, wantPct: 5.3},
		{name: "compound with dollars per dozen", raw: "7% + $1.10/doz", wantKind: model.RateCompound, wantPct: 7},
		{name: "specific only", raw: "2.5¢/kg", wantKind: model.RateUnparsed},
		{name: "prose rate", raw: "The rate applicable to the article of which it is a part", wantKind: model.RateUnparsed},
		{name: "empty", raw: "", wantKind: model.RateUnparsed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRate(tt.raw)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.raw, got.Raw)
			if tt.wantKind == model.RateAdValorem || tt.wantKind == model.RateCompound {
				assert.InDelta(t, tt.wantPct, got.AdValorem, 1e-9)
			}
		})
	}
}

func TestRateExpression_Percent(t *testing.T) {
	pct, parsed := model.RateExpression{Kind: model.RateFree}.Percent()
	assert.Zero(t, pct)
	assert.True(t, parsed)

	pct, parsed = model.RateExpression{Kind: model.RateAdValorem, AdValorem: 16.5}.Percent()
	assert.InDelta(t, 16.5, pct, 1e-9)
	assert.True(t, parsed)

	pct, parsed = model.RateExpression{Kind: model.RateCompound, AdValorem: 5.3}.Percent()
	assert.InDelta(t, 5.3, pct, 1e-9)
	assert.False(t, parsed)

	pct, parsed = model.RateExpression{Kind: model.RateUnparsed}.Percent()
	assert.Zero(t, pct)
	assert.False(t, parsed)
}
