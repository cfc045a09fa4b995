package model

import "time"

// ClassificationHints carries optional structured facts alongside a free-text
// product description.
type ClassificationHints struct {
	CountryOfOrigin    string
	DestinationCountry string // defaults to "US"
	Material           string
	IntendedUse        string
	UnitValue          float64 // 0 = unknown
}

// OracleCandidate is one suggestion returned by the external inference oracle
// before it has been validated against the schedule.
type OracleCandidate struct {
	Code      string
	Rationale string
	Rank      int // 1-based position in the oracle's own ordering
}

// ClarifyingQuestion is a targeted disambiguation question derived from the
// scoring factors that differed most among the top candidates.
type ClarifyingQuestion struct {
	Field    string // structured hint the answer should populate
	Question string
	Codes    []string // candidate codes the answer would separate
}

// ClassificationResult is the full response for one classification request.
type ClassificationResult struct {
	Primary      *ClassificationCandidate
	Alternatives CandidateList

	NeedsClarification bool
	Questions          []ClarifyingQuestion

	// ConditionalClassification is set when the primary pick is a residual
	// "other" code whose exclusions depend on facts not yet known.
	ConditionalClassification bool
	MissingFacts              []string

	DetectedMaterial string
	OracleDegraded   bool // oracle timed out or failed; keyword-only ranking
	Timing           time.Duration
}

// ClassificationRecord is the serializable history record emitted per
// completed classification. Storage and user-scoping belong to the
// persistence collaborator.
type ClassificationRecord struct {
	ID                 string
	Description        string
	Hints              ClassificationHints
	PrimaryCode        string
	Confidence         float64
	Alternatives       []string
	NeedsClarification bool
	OracleDegraded     bool
	CreatedAt          time.Time
}
