// Package classify implements the classification ranker: scoring and
// ordering candidate HTS codes for a free-text product description.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chrishsmith/sourcify-sub007/internal/common"
	"github.com/chrishsmith/sourcify-sub007/internal/hierarchy"
	"github.com/chrishsmith/sourcify-sub007/internal/model"
	"github.com/chrishsmith/sourcify-sub007/internal/service"
)

// Scoring factor names. Confidence is always the sum of named, inspectable
// contributions so the caller can render "why this code".
const (
	FactorKeywordOverlap = "keyword-overlap"
	FactorChapterMatch   = "chapter-match"
	FactorMaterialMatch  = "material-match"
	FactorSpecificity    = "specificity"
	FactorOracleRank     = "oracle-rank"
)

const (
	weightKeyword     = 0.5
	weightChapter     = 0.15
	weightMaterial    = 0.2
	weightSpecificity = 0.1
	weightOracle      = 0.45
)

// RateResolver is the slice of the tariff resolver the ranker needs to
// attach duty estimates to candidates.
type RateResolver interface {
	Resolve(ctx context.Context, code, country string, asOf time.Time) (*model.EffectiveTariffResult, error)
}

// Config holds configuration options for the ranker.
type Config struct {
	ClarificationThreshold float64
	MaxAlternatives        int
	MaxQuestions           int
	MaxKeywordCandidates   int
	OracleTimeout          time.Duration
}

// DefaultConfig returns the default ranker configuration.
func DefaultConfig() Config {
	return Config{
		ClarificationThreshold: 0.55,
		MaxAlternatives:        4,
		MaxQuestions:           3,
		MaxKeywordCandidates:   25,
		OracleTimeout:          10 * time.Second,
	}
}

// Ranker scores and orders candidate codes for product descriptions.
type Ranker struct {
	store    *hierarchy.Store
	resolver RateResolver
	oracle   service.Oracle // nil = keyword-only mode
	cfg      Config
}

// New creates a ranker. oracle may be nil, which disables inference and
// runs keyword-only ranking. Zero config fields take their defaults.
func New(store *hierarchy.Store, resolver RateResolver, oracle service.Oracle, cfg Config) *Ranker {
	def := DefaultConfig()
	if cfg.ClarificationThreshold <= 0 {
		cfg.ClarificationThreshold = def.ClarificationThreshold
	}
	if cfg.MaxAlternatives <= 0 {
		cfg.MaxAlternatives = def.MaxAlternatives
	}
	if cfg.MaxQuestions <= 0 {
		cfg.MaxQuestions = def.MaxQuestions
	}
	if cfg.MaxKeywordCandidates <= 0 {
		cfg.MaxKeywordCandidates = def.MaxKeywordCandidates
	}
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = def.OracleTimeout
	}
	return &Ranker{store: store, resolver: resolver, oracle: oracle, cfg: cfg}
}

// Request is one classification request.
type Request struct {
	Description string
	Hints       model.ClassificationHints
	AsOf        time.Time
}

// Classify ranks candidate codes for the request and decides whether
// clarification is required. Identical requests over the same dataset
// snapshot produce identical results.
func (r *Ranker) Classify(ctx context.Context, req Request) (*model.ClassificationResult, error) {
	start := time.Now()

	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: product description is required", common.ErrInvalidInput)
	}
	if req.Hints.DestinationCountry == "" {
		req.Hints.DestinationCountry = "US"
	}
	if req.AsOf.IsZero() {
		req.AsOf = time.Now().UTC()
	}

	candidates, degraded, material := r.GenerateCandidates(ctx, req.Description, req.Hints)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no plausible codes for description", common.ErrInvalidInput)
	}
	candidates.Sort()

	result := &model.ClassificationResult{
		DetectedMaterial: material,
		OracleDegraded:   degraded,
	}

	primary := candidates[0]
	result.Primary = &primary
	if len(candidates) > 1 {
		result.Alternatives = candidates[1:].TopN(r.cfg.MaxAlternatives)
	}

	if primary.Confidence < r.cfg.ClarificationThreshold {
		result.NeedsClarification = true
		result.Questions = r.buildQuestions(candidates.TopN(3))
	}

	if primary.IsOther {
		result.MissingFacts = r.missingFacts(&primary, req.Hints, material)
		result.ConditionalClassification = len(result.MissingFacts) > 0
	}

	r.attachDuties(ctx, result, req)

	result.Timing = time.Since(start)
	return result, nil
}

// GenerateCandidates produces the unfiltered scored candidate set for a
// description: keyword matches over plausible chapters merged with validated
// oracle suggestions. The optimizer reuses this for its breadth-first scan.
func (r *Ranker) GenerateCandidates(ctx context.Context, description string, hints model.ClassificationHints) (candidates model.CandidateList, oracleDegraded bool, material string) {
	queryTokens := tokenize(description)

	material = strings.ToLower(hints.Material)
	if material == "" {
		material = detectMaterial(queryTokens)
	}

	byCode := make(map[string]*model.ClassificationCandidate)
	for _, c := range r.keywordCandidates(queryTokens, material) {
		candidate := c
		byCode[c.Code] = &candidate
	}

	if r.oracle != nil {
		oracleDegraded = r.mergeOracleCandidates(ctx, description, hints, queryTokens, material, byCode)
	}

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	candidates = make(model.CandidateList, 0, len(codes))
	for _, code := range codes {
		c := byCode[code]
		finalizeConfidence(c)
		r.markResidual(c)
		candidates = append(candidates, *c)
	}
	return candidates, oracleDegraded, material
}

// keywordCandidates scores schedule nodes by token overlap, restricted to
// the material's plausible chapters when one is known.
func (r *Ranker) keywordCandidates(queryTokens []string, material string) model.CandidateList {
	chapters := plausibleChapters(material)
	restricted := chapters != nil
	if chapters == nil {
		chapters = r.store.Chapters()
	}

	var scored model.CandidateList
	for _, ch := range chapters {
		for _, node := range r.store.NodesByChapter(ch) {
			if len(node.Code) < 6 || node.Description == "" {
				continue
			}

			lineage := r.lineageTokens(node)
			score := overlap(queryTokens, lineage)
			if score == 0 {
				continue
			}

			factors := []model.ScoringFactor{
				{Name: FactorKeywordOverlap, Weight: weightKeyword * score},
				{Name: FactorSpecificity, Weight: weightSpecificity * float64(len(node.Code)) / 10},
			}
			if restricted {
				factors = append(factors, model.ScoringFactor{Name: FactorChapterMatch, Weight: weightChapter})
			}
			if material != "" && overlap([]string{material}, lineage) > 0 {
				factors = append(factors, model.ScoringFactor{Name: FactorMaterialMatch, Weight: weightMaterial})
			}

			scored = append(scored, model.ClassificationCandidate{
				Code:           node.Code,
				Description:    node.Description,
				ScoringFactors: factors,
				Source:         model.SourceKeyword,
			})
		}
	}

	for i := range scored {
		finalizeConfidence(&scored[i])
	}
	return scored.TopN(r.cfg.MaxKeywordCandidates)
}

// mergeOracleCandidates queries the oracle under its timeout and folds valid
// suggestions into the candidate map. Returns true when the oracle degraded
// and the result is keyword-only.
func (r *Ranker) mergeOracleCandidates(ctx context.Context, description string, hints model.ClassificationHints, queryTokens []string, material string, byCode map[string]*model.ClassificationCandidate) bool {
	oracleCtx, cancel := context.WithTimeout(ctx, r.cfg.OracleTimeout)
	defer cancel()

	suggestions, err := r.oracle.Infer(oracleCtx, description, hints)
	if err != nil {
		slog.Warn("oracle unavailable, falling back to keyword-only ranking", "error", err)
		return true
	}

	for _, s := range suggestions {
		// Suggested codes sometimes cite a statistical line the loaded
		// revision lacks; map them to the longest known prefix instead
		// of discarding the suggestion.
		node, lookupErr := r.store.LookupPrefix(s.Code)
		if lookupErr != nil {
			slog.Debug("dropping oracle candidate with unknown code", "code", s.Code, "error", lookupErr)
			continue
		}

		rank := s.Rank
		if rank < 1 {
			rank = 1
		}
		oracleFactor := model.ScoringFactor{Name: FactorOracleRank, Weight: weightOracle / float64(rank)}

		if existing, ok := byCode[node.Code]; ok {
			existing.ScoringFactors = append(existing.ScoringFactors, oracleFactor)
			existing.Source = model.SourceMerged
			if existing.Rationale == "" {
				existing.Rationale = s.Rationale
			}
			continue
		}

		lineage := r.lineageTokens(node)
		factors := []model.ScoringFactor{
			oracleFactor,
			{Name: FactorKeywordOverlap, Weight: weightKeyword * overlap(queryTokens, lineage)},
			{Name: FactorSpecificity, Weight: weightSpecificity * float64(len(node.Code)) / 10},
		}
		if material != "" && overlap([]string{material}, lineage) > 0 {
			factors = append(factors, model.ScoringFactor{Name: FactorMaterialMatch, Weight: weightMaterial})
		}

		byCode[node.Code] = &model.ClassificationCandidate{
			Code:           node.Code,
			Description:    node.Description,
			ScoringFactors: factors,
			Source:         model.SourceOracle,
			Rationale:      s.Rationale,
		}
	}
	return false
}

// lineageTokens tokenizes a node's description together with its ancestors'
// so heading-level terms ("t-shirts") match statistical lines.
func (r *Ranker) lineageTokens(node *model.HtsNode) []string {
	chain, err := r.store.Ancestors(node.Code)
	if err != nil {
		return tokenize(node.Description)
	}
	var b strings.Builder
	for _, n := range chain {
		b.WriteString(n.Description)
		b.WriteString(" ")
	}
	return tokenize(b.String())
}

// markResidual flags "other/nesoi" basket codes and enumerates the sibling
// codes a valid "other" classification implicitly rules out.
func (r *Ranker) markResidual(c *model.ClassificationCandidate) {
	desc := strings.ToLower(c.Description)
	if !strings.Contains(desc, "other") && !strings.Contains(desc, "nesoi") {
		return
	}
	c.IsOther = true

	siblings, err := r.store.Siblings(c.Code)
	if err != nil {
		return
	}
	for _, sib := range siblings {
		sibDesc := strings.ToLower(sib.Description)
		if strings.Contains(sibDesc, "other") || strings.Contains(sibDesc, "nesoi") {
			continue
		}
		c.OtherExclusions = append(c.OtherExclusions, sib.Code)
	}
	sort.Strings(c.OtherExclusions)
}

// missingFacts lists the facts the caller must supply before the primary
// "other" classification can be confirmed.
func (r *Ranker) missingFacts(c *model.ClassificationCandidate, hints model.ClassificationHints, material string) []string {
	var facts []string
	for _, code := range c.OtherExclusions {
		node, err := r.store.Lookup(code)
		if err != nil {
			continue
		}
		desc := strings.ToLower(node.Description)
		if hints.UnitValue == 0 && strings.Contains(desc, "valued") {
			facts = append(facts, "unit value")
			break
		}
	}
	if material == "" {
		facts = append(facts, "material breakdown")
	}
	return facts
}

// attachDuties resolves the duty estimate for the primary candidate and each
// alternative. Resolution failures degrade to a logged warning, never a
// failed classification.
func (r *Ranker) attachDuties(ctx context.Context, result *model.ClassificationResult, req Request) {
	country := req.Hints.CountryOfOrigin
	if country == "" || r.resolver == nil {
		return
	}

	attach := func(c *model.ClassificationCandidate) {
		duty, err := r.resolver.Resolve(ctx, c.Code, country, req.AsOf)
		if err != nil {
			slog.Warn("duty resolution failed for candidate", "code", c.Code, "error", err)
			return
		}
		c.Duty = duty
	}

	attach(result.Primary)
	for i := range result.Alternatives {
		attach(&result.Alternatives[i])
	}
}

// BuildRecord converts a completed classification into the serializable
// history record handed to the persistence collaborator.
func BuildRecord(req Request, result *model.ClassificationResult) *model.ClassificationRecord {
	record := &model.ClassificationRecord{
		ID:                 uuid.NewString(),
		Description:        req.Description,
		Hints:              req.Hints,
		NeedsClarification: result.NeedsClarification,
		OracleDegraded:     result.OracleDegraded,
		CreatedAt:          time.Now().UTC(),
	}
	if result.Primary != nil {
		record.PrimaryCode = result.Primary.Code
		record.Confidence = result.Primary.Confidence
	}
	for _, alt := range result.Alternatives {
		record.Alternatives = append(record.Alternatives, alt.Code)
	}
	return record
}

// finalizeConfidence sums the named factors into the candidate confidence,
// capped at 1, with factors sorted by name so output is reproducible.
func finalizeConfidence(c *model.ClassificationCandidate) {
	sort.Slice(c.ScoringFactors, func(i, j int) bool {
		return c.ScoringFactors[i].Name < c.ScoringFactors[j].Name
	})
	total := 0.0
	for _, f := range c.ScoringFactors {
		total += f.Weight
	}
	if total > 1 {
		total = 1
	}
	c.Confidence = total
}
