package hierarchy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrishsmith/sourcify-sub007/internal/common"
	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

func testNodes() []model.HtsNode {
	return []model.HtsNode{
		{Code: "61", Level: model.LevelChapter, Description: "Apparel, knitted or crocheted"},
		{Code: "6109", Level: model.LevelHeading, ParentCode: "61", Description: "T-shirts, singlets and similar garments"},
		{Code: "610910", Level: model.LevelSubheading, ParentCode: "6109", Description: "Of cotton", GeneralRate: "16.5%"},
		{Code: "61091000", Level: model.LevelTariffLine, ParentCode: "610910", Description: "Of cotton", GeneralRate: "16.5%"},
		{Code: "6109100010", Level: model.LevelStatistical, ParentCode: "61091000", Description: "Men's or boys'"},
		{Code: "6109100090", Level: model.LevelStatistical, ParentCode: "61091000", Description: "Other"},
		{Code: "610990", Level: model.LevelSubheading, ParentCode: "6109", Description: "Of other textile materials", GeneralRate: "32%"},
		{Code: "85", Level: model.LevelChapter, Description: "Electrical machinery and equipment"},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(testNodes())
	require.NoError(t, err)
	return s
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "canonical passthrough", raw: "6109100010", want: "6109100010"},
		{name: "dotted notation", raw: "6109.10.00.10", want: "6109100010"},
		{name: "spaces and dashes", raw: "6109 10-00", want: "61091000"},
		{name: "chapter", raw: "61", want: "61"},
		{name: "odd length restores leading zero in last pair", raw: "6109.10.00.1", want: "6109100001"},
		{name: "letters", raw: "61AB", wantErr: true},
		{name: "too short", raw: "6", wantErr: true},
		{name: "too long", raw: "610910001099", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "only separators", raw: "..", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidCodeFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_Lookup(t *testing.T) {
	s := newTestStore(t)

	n, err := s.Lookup("6109.10.00.10")
	require.NoError(t, err)
	assert.Equal(t, "6109100010", n.Code)
	assert.Equal(t, model.LevelStatistical, n.Level)

	_, err = s.Lookup("9999")
	assert.ErrorIs(t, err, common.ErrCodeNotFound)

	_, err = s.Lookup("61xx")
	assert.ErrorIs(t, err, common.ErrInvalidCodeFormat)
}

func TestStore_LookupPrefix(t *testing.T) {
	s := newTestStore(t)

	// 6109109912 is not in the snapshot; the subheading is the longest
	// known prefix.
	n, err := s.LookupPrefix("6109109912")
	require.NoError(t, err)
	assert.Equal(t, "610910", n.Code)

	// No subheading under 610930; fall all the way back to the heading.
	n, err = s.LookupPrefix("6109309912")
	require.NoError(t, err)
	assert.Equal(t, "6109", n.Code)

	_, err = s.LookupPrefix("9912")
	assert.ErrorIs(t, err, common.ErrCodeNotFound)
}

func TestStore_Ancestors(t *testing.T) {
	s := newTestStore(t)

	chain, err := s.Ancestors("6109100010")
	require.NoError(t, err)
	require.Len(t, chain, 5)

	codes := make([]string, len(chain))
	for i, n := range chain {
		codes[i] = n.Code
	}
	assert.Equal(t, []string{"61", "6109", "610910", "61091000", "6109100010"}, codes)

	// Strictly increasing length, last element is the looked-up code.
	for i := 1; i < len(chain); i++ {
		assert.Greater(t, len(chain[i].Code), len(chain[i-1].Code))
	}
	assert.Equal(t, "6109100010", chain[len(chain)-1].Code)

	// A chapter's chain is just itself.
	chain, err = s.Ancestors("61")
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, "61", chain[0].Code)
}

func TestStore_Siblings(t *testing.T) {
	s := newTestStore(t)

	sibs, err := s.Siblings("6109100010")
	require.NoError(t, err)
	require.Len(t, sibs, 1)
	assert.Equal(t, "6109100090", sibs[0].Code)

	sibs, err = s.Siblings("610910")
	require.NoError(t, err)
	require.Len(t, sibs, 1)
	assert.Equal(t, "610990", sibs[0].Code)

	sibs, err = s.Siblings("61")
	require.NoError(t, err)
	require.Len(t, sibs, 1)
	assert.Equal(t, "85", sibs[0].Code)
}

func TestStore_Children(t *testing.T) {
	s := newTestStore(t)

	kids, err := s.Children("6109")
	require.NoError(t, err)
	require.Len(t, kids, 2)
	assert.Equal(t, "610910", kids[0].Code)
	assert.Equal(t, "610990", kids[1].Code)

	kids, err = s.Children("6109100010")
	require.NoError(t, err)
	assert.Empty(t, kids)
}

func TestNewStore_RejectsCorruptDataset(t *testing.T) {
	tests := []struct {
		name  string
		nodes []model.HtsNode
	}{
		{
			name: "missing parent",
			nodes: []model.HtsNode{
				{Code: "6109", Level: model.LevelHeading, ParentCode: "61"},
			},
		},
		{
			name: "duplicate code",
			nodes: []model.HtsNode{
				{Code: "61", Level: model.LevelChapter},
				{Code: "61", Level: model.LevelChapter},
			},
		},
		{
			name: "parent not a prefix",
			nodes: []model.HtsNode{
				{Code: "61", Level: model.LevelChapter},
				{Code: "62", Level: model.LevelChapter},
				{Code: "6209", Level: model.LevelHeading, ParentCode: "61"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStore(tt.nodes)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInternalInconsistency))
		})
	}
}

func TestStore_Chapters(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, []string{"61", "85"}, s.Chapters())
	assert.Len(t, s.NodesByChapter("61"), 7)
	assert.Empty(t, s.NodesByChapter("99"))
}
