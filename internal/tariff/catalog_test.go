package tariff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	input := `
version: "2025.08"
layers:
  - program: SEC301-LIST4A
    scope: "6109"
    countries: ["CN"]
    rate: 25
    effective_from: "2019-09-01"
    precedence: 2
    source: "84 FR 43304"
  - program: SEC232-STEEL
    scope: "7206"
    all_countries: true
    exclude: ["CA", "MX"]
    rate: 25
    effective_from: "2018-03-23"
    effective_to: "2025-01-01"
  - program: SEC301-LIST3
    scope: "39269097"
    countries: ["CN"]
    rate: 25
    effective_from: "2019-05-14"
    exclusion: true
`
	layers, version, err := LoadCatalog(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "2025.08", version)
	require.Len(t, layers, 3)

	assert.Equal(t, "SEC301-LIST4A", layers[0].ProgramID)
	assert.Equal(t, "6109", layers[0].ScopePattern)
	assert.Equal(t, []string{"CN"}, layers[0].Countries.Include)
	assert.InDelta(t, 25, layers[0].Rate, 1e-9)
	require.NotNil(t, layers[0].EffectiveFrom)
	assert.Nil(t, layers[0].EffectiveTo)

	assert.True(t, layers[1].Countries.All)
	assert.Equal(t, []string{"CA", "MX"}, layers[1].Countries.Exclude)
	require.NotNil(t, layers[1].EffectiveTo)

	assert.True(t, layers[2].ExclusionFlag)
}

func TestLoadCatalog_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not yaml", input: "{{{"},
		{name: "bad date", input: "layers:\n  - program: P\n    scope: \"6109\"\n    countries: [\"CN\"]\n    effective_from: \"July 2019\"\n"},
		{name: "bad scope", input: "layers:\n  - program: P\n    scope: \"61\"\n    countries: [\"CN\"]\n"},
		{name: "empty country scope", input: "layers:\n  - program: P\n    scope: \"6109\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadCatalog(strings.NewReader(tt.input))
			require.Error(t, err)
		})
	}
}

func TestLoadCatalogFile_EmbeddedDefault(t *testing.T) {
	layers, version, err := LoadCatalogFile("")
	require.NoError(t, err)
	assert.NotEmpty(t, version)
	assert.NotEmpty(t, layers)

	var sawLive, sawExclusion bool
	for _, l := range layers {
		sawLive = sawLive || l.LiveRate
		sawExclusion = sawExclusion || l.ExclusionFlag
	}
	assert.True(t, sawLive, "default catalog carries a live-tracked program")
	assert.True(t, sawExclusion, "default catalog carries an exclusion carve-out")
}
