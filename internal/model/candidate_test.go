package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateList_Sort(t *testing.T) {
	tests := []struct {
		name string
		in   CandidateList
		want []string
	}{
		{
			name: "higher confidence first",
			in: CandidateList{
				{Code: "6109100010", Confidence: 0.4},
				{Code: "6110200010", Confidence: 0.9},
			},
			want: []string{"6110200010", "6109100010"},
		},
		{
			name: "equal confidence prefers longer code",
			in: CandidateList{
				{Code: "6109", Confidence: 0.5},
				{Code: "6109100010", Confidence: 0.5},
			},
			want: []string{"6109100010", "6109"},
		},
		{
			name: "equal confidence and length prefers smaller code",
			in: CandidateList{
				{Code: "6110200010", Confidence: 0.5},
				{Code: "6109100010", Confidence: 0.5},
			},
			want: []string{"6109100010", "6110200010"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Sort()
			got := make([]string, len(tt.in))
			for i, c := range tt.in {
				got[i] = c.Code
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCandidateList_TopN(t *testing.T) {
	list := CandidateList{
		{Code: "a1", Confidence: 0.1},
		{Code: "b2", Confidence: 0.9},
		{Code: "c3", Confidence: 0.5},
	}

	top := list.TopN(2)
	require.Len(t, top, 2)
	assert.Equal(t, "b2", top[0].Code)
	assert.Equal(t, "c3", top[1].Code)

	assert.Len(t, list.TopN(10), 3)
	assert.Empty(t, list.TopN(0))
	assert.Nil(t, CandidateList{}.Top())
}

func TestClassificationCandidate_Validate(t *testing.T) {
	tests := []struct {
		name      string
		candidate ClassificationCandidate
		wantErr   string
	}{
		{
			name:      "valid",
			candidate: ClassificationCandidate{Code: "6109100010", Confidence: 0.8},
		},
		{
			name:      "missing code",
			candidate: ClassificationCandidate{Confidence: 0.8},
			wantErr:   "candidate code is required",
		},
		{
			name:      "confidence out of range",
			candidate: ClassificationCandidate{Code: "6109", Confidence: 1.2},
			wantErr:   "confidence must be between",
		},
		{
			name:      "other without exclusions",
			candidate: ClassificationCandidate{Code: "6109100090", Confidence: 0.5, IsOther: true},
			wantErr:   "must enumerate its exclusions",
		},
		{
			name: "other with exclusions",
			candidate: ClassificationCandidate{
				Code: "6109100090", Confidence: 0.5, IsOther: true,
				OtherExclusions: []string{"6109100010"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.candidate.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCandidateList_ValidateRejectsDuplicates(t *testing.T) {
	list := CandidateList{
		{Code: "6109", Confidence: 0.5},
		{Code: "6109", Confidence: 0.4},
	}
	require.Error(t, list.Validate())
}
