package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHtsNode_Validate(t *testing.T) {
	tests := []struct {
		name    string
		node    HtsNode
		wantErr bool
	}{
		{
			name: "valid chapter",
			node: HtsNode{Code: "61", Level: LevelChapter},
		},
		{
			name: "valid statistical line",
			node: HtsNode{Code: "6109100010", Level: LevelStatistical, ParentCode: "61091000"},
		},
		{
			name:    "chapter with parent",
			node:    HtsNode{Code: "61", Level: LevelChapter, ParentCode: "6"},
			wantErr: true,
		},
		{
			name:    "level does not match length",
			node:    HtsNode{Code: "6109", Level: LevelChapter, ParentCode: "61"},
			wantErr: true,
		},
		{
			name:    "parent not two digits shorter",
			node:    HtsNode{Code: "6109100010", Level: LevelStatistical, ParentCode: "6109"},
			wantErr: true,
		},
		{
			name:    "parent not a prefix",
			node:    HtsNode{Code: "6109", Level: LevelHeading, ParentCode: "62"},
			wantErr: true,
		},
		{
			name:    "odd length",
			node:    HtsNode{Code: "610", Level: LevelHeading, ParentCode: "61"},
			wantErr: true,
		},
		{
			name:    "non-digit code",
			node:    HtsNode{Code: "61A9", Level: LevelHeading, ParentCode: "61"},
			wantErr: true,
		},
		{
			name:    "missing parent",
			node:    HtsNode{Code: "6109", Level: LevelHeading},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLevelForLength(t *testing.T) {
	for length, want := range map[int]HtsLevel{
		2: LevelChapter, 4: LevelHeading, 6: LevelSubheading,
		8: LevelTariffLine, 10: LevelStatistical,
	} {
		got, err := LevelForLength(length)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := LevelForLength(3)
	assert.Error(t, err)
}

func TestRound2(t *testing.T) {
	assert.InDelta(t, 22.29, Round2(22.294285714), 1e-9)
	assert.InDelta(t, 34.64, Round2(34.64), 1e-9)
	assert.InDelta(t, 11147.14, Round2(11147.14), 1e-9)
	assert.InDelta(t, 1.0, Round2(0.999), 1e-9)
}
