package model

import (
	"fmt"
	"sort"
)

// ScoringFactor is one named, inspectable contribution to a candidate's
// confidence. The caller renders these to explain "why this code".
type ScoringFactor struct {
	Name   string
	Weight float64
}

// CandidateSource records which generator proposed a candidate.
type CandidateSource string

// Candidate sources.
const (
	SourceKeyword CandidateSource = "KEYWORD"
	SourceOracle  CandidateSource = "ORACLE"
	SourceMerged  CandidateSource = "MERGED"
)

// ClassificationCandidate is one scored HTS code proposed for a product
// description.
type ClassificationCandidate struct {
	Code           string
	Description    string
	Confidence     float64 // 0-1
	ScoringFactors []ScoringFactor
	Source         CandidateSource
	Rationale      string // oracle-provided reasoning, if any

	// IsOther marks a residual "other/nesoi" basket code. A valid "other"
	// classification implicitly rules out every more specific sibling.
	IsOther         bool
	OtherExclusions []string

	// Duty is attached after rate resolution; nil until then.
	Duty *EffectiveTariffResult
}

// Validate ensures the candidate has valid data.
func (c *ClassificationCandidate) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("candidate code is required")
	}
	if c.Confidence < 0.0 || c.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %.2f", c.Confidence)
	}
	if c.IsOther && len(c.OtherExclusions) == 0 {
		return fmt.Errorf("residual candidate %s must enumerate its exclusions", c.Code)
	}
	return nil
}

// CandidateList is a slice of candidates supporting deterministic ordering.
type CandidateList []ClassificationCandidate

// Len implements sort.Interface.
func (l CandidateList) Len() int {
	return len(l)
}

// Less implements sort.Interface. Higher confidence first; equal confidence
// prefers the more specific (longer) code, then the lexicographically smaller
// code, so repeated runs over the same dataset rank identically.
func (l CandidateList) Less(i, j int) bool {
	if l[i].Confidence != l[j].Confidence {
		return l[i].Confidence > l[j].Confidence
	}
	if len(l[i].Code) != len(l[j].Code) {
		return len(l[i].Code) > len(l[j].Code)
	}
	return l[i].Code < l[j].Code
}

// Swap implements sort.Interface.
func (l CandidateList) Swap(i, j int) {
	l[i], l[j] = l[j], l[i]
}

// Sort orders the list by the deterministic ranking policy.
func (l CandidateList) Sort() {
	sort.Sort(l)
}

// Top returns the highest-ranked candidate, or nil if the list is empty.
func (l CandidateList) Top() *ClassificationCandidate {
	if len(l) == 0 {
		return nil
	}
	l.Sort()
	return &l[0]
}

// TopN returns the N highest-ranked candidates.
func (l CandidateList) TopN(n int) CandidateList {
	if n <= 0 {
		return CandidateList{}
	}
	l.Sort()
	if n > len(l) {
		n = len(l)
	}
	out := make(CandidateList, n)
	copy(out, l[:n])
	return out
}

// Validate ensures all candidates are valid and codes are unique.
func (l CandidateList) Validate() error {
	seen := make(map[string]bool)
	for i := range l {
		if err := l[i].Validate(); err != nil {
			return fmt.Errorf("invalid candidate at index %d: %w", i, err)
		}
		if seen[l[i].Code] {
			return fmt.Errorf("duplicate code %q in candidate list", l[i].Code)
		}
		seen[l[i].Code] = true
	}
	return nil
}
