package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrishsmith/sourcify-sub007/internal/common"
	"github.com/chrishsmith/sourcify-sub007/internal/hierarchy"
	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

func rankerStore(t *testing.T) *hierarchy.Store {
	t.Helper()
	nodes := []model.HtsNode{
		{Code: "61", Level: model.LevelChapter, Description: "Apparel and clothing accessories, knitted or crocheted"},
		{Code: "6109", Level: model.LevelHeading, ParentCode: "61", Description: "T-shirts, singlets, tank tops and similar garments, knitted or crocheted"},
		{Code: "610910", Level: model.LevelSubheading, ParentCode: "6109", Description: "Of cotton", GeneralRate: "16.5%"},
		{Code: "61091000", Level: model.LevelTariffLine, ParentCode: "610910", Description: "Of cotton"},
		{Code: "6109100010", Level: model.LevelStatistical, ParentCode: "61091000", Description: "Men's or boys'"},
		{Code: "6109100090", Level: model.LevelStatistical, ParentCode: "61091000", Description: "Other"},
		{Code: "610990", Level: model.LevelSubheading, ParentCode: "6109", Description: "Of other textile materials", GeneralRate: "32%"},
		{Code: "6110", Level: model.LevelHeading, ParentCode: "61", Description: "Sweaters, pullovers and similar articles, knitted or crocheted"},
		{Code: "611020", Level: model.LevelSubheading, ParentCode: "6110", Description: "Of cotton", GeneralRate: "16.5%"},
		{Code: "39", Level: model.LevelChapter, Description: "Plastics and articles thereof"},
		{Code: "3926", Level: model.LevelHeading, ParentCode: "39", Description: "Other articles of plastics"},
		{Code: "392690", Level: model.LevelSubheading, ParentCode: "3926", Description: "Other", GeneralRate: "5.3%"},
		{Code: "42", Level: model.LevelChapter, Description: "Articles of leather; travel goods, handbags"},
		{Code: "4202", Level: model.LevelHeading, ParentCode: "42", Description: "Trunks, suitcases, handbags and similar containers"},
		{Code: "420292", Level: model.LevelSubheading, ParentCode: "4202", Description: "With outer surface of sheeting of plastics or of textile materials, valued not over $20 each", GeneralRate: "17.6%"},
		{Code: "420299", Level: model.LevelSubheading, ParentCode: "4202", Description: "Other", GeneralRate: "20%"},
	}
	store, err := hierarchy.NewStore(nodes)
	require.NoError(t, err)
	return store
}

type stubResolver struct {
	calls int
	err   error
}

func (s *stubResolver) Resolve(_ context.Context, code, country string, asOf time.Time) (*model.EffectiveTariffResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &model.EffectiveTariffResult{Code: code, Country: country, AsOf: asOf, EffectiveRate: 41.5}, nil
}

type stubOracle struct {
	candidates []model.OracleCandidate
	err        error
	delay      time.Duration
}

func (s *stubOracle) Infer(ctx context.Context, _ string, _ model.ClassificationHints) ([]model.OracleCandidate, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.candidates, s.err
}

func newKeywordRanker(t *testing.T) *Ranker {
	t.Helper()
	return New(rankerStore(t), nil, nil, DefaultConfig())
}

func TestNew_PartialConfigKeepsOtherDefaults(t *testing.T) {
	def := DefaultConfig()

	r := New(rankerStore(t), nil, nil, Config{ClarificationThreshold: 0.7})
	assert.InDelta(t, 0.7, r.cfg.ClarificationThreshold, 1e-9)
	assert.Equal(t, def.MaxAlternatives, r.cfg.MaxAlternatives)
	assert.Equal(t, def.MaxQuestions, r.cfg.MaxQuestions)
	assert.Equal(t, def.MaxKeywordCandidates, r.cfg.MaxKeywordCandidates)
	assert.Equal(t, def.OracleTimeout, r.cfg.OracleTimeout)

	r = New(rankerStore(t), nil, nil, Config{OracleTimeout: time.Second})
	assert.InDelta(t, def.ClarificationThreshold, r.cfg.ClarificationThreshold, 1e-9)
	assert.Equal(t, time.Second, r.cfg.OracleTimeout)
}

func TestRanker_KeywordClassification(t *testing.T) {
	r := newKeywordRanker(t)

	result, err := r.Classify(context.Background(), Request{Description: "men's cotton t-shirt"})
	require.NoError(t, err)
	require.NotNil(t, result.Primary)

	assert.Equal(t, "6109100010", result.Primary.Code)
	assert.Equal(t, "cotton", result.DetectedMaterial)
	assert.False(t, result.OracleDegraded)
	assert.NotEmpty(t, result.Primary.ScoringFactors, "confidence must decompose into named factors")
	assert.NotEmpty(t, result.Alternatives)

	// Confidence is exactly the factor sum.
	var sum float64
	for _, f := range result.Primary.ScoringFactors {
		sum += f.Weight
	}
	assert.InDelta(t, sum, result.Primary.Confidence, 1e-9)
}

func TestRanker_Deterministic(t *testing.T) {
	r := newKeywordRanker(t)
	req := Request{
		Description: "cotton pullover sweater",
		Hints:       model.ClassificationHints{Material: "cotton"},
		AsOf:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	first, err := r.Classify(context.Background(), req)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := r.Classify(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, first.Primary, again.Primary)
		assert.Equal(t, first.Alternatives, again.Alternatives)
		assert.Equal(t, first.Questions, again.Questions)
	}
}

func TestRanker_EmptyDescription(t *testing.T) {
	r := newKeywordRanker(t)

	_, err := r.Classify(context.Background(), Request{Description: "   "})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRanker_NoPlausibleCodes(t *testing.T) {
	r := newKeywordRanker(t)

	_, err := r.Classify(context.Background(), Request{Description: "zzzqqq xyzzy"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRanker_OracleMerge(t *testing.T) {
	oracle := &stubOracle{candidates: []model.OracleCandidate{
		{Code: "6109.10.00.10", Rationale: "knitted cotton t-shirt for men", Rank: 1},
		{Code: "0000000000", Rationale: "invalid", Rank: 2},
	}}
	r := New(rankerStore(t), nil, oracle, DefaultConfig())

	result, err := r.Classify(context.Background(), Request{Description: "men's cotton t-shirt"})
	require.NoError(t, err)

	assert.Equal(t, "6109100010", result.Primary.Code)
	assert.Equal(t, model.SourceMerged, result.Primary.Source)
	assert.Equal(t, "knitted cotton t-shirt for men", result.Primary.Rationale)
	assert.False(t, result.OracleDegraded)

	var hasOracleFactor bool
	for _, f := range result.Primary.ScoringFactors {
		hasOracleFactor = hasOracleFactor || f.Name == FactorOracleRank
	}
	assert.True(t, hasOracleFactor)

	// The invalid oracle code never appears anywhere in the result.
	for _, alt := range result.Alternatives {
		assert.NotEqual(t, "0000000000", alt.Code)
	}
}

func TestRanker_OracleUnknownStatisticalLineMapsToPrefix(t *testing.T) {
	oracle := &stubOracle{candidates: []model.OracleCandidate{
		{Code: "6109100099", Rationale: "cotton t-shirt, unlisted extract", Rank: 1},
	}}
	r := New(rankerStore(t), nil, oracle, DefaultConfig())

	candidates, degraded, _ := r.GenerateCandidates(context.Background(), "men's cotton t-shirt", model.ClassificationHints{})
	require.False(t, degraded)

	var mapped *model.ClassificationCandidate
	for i := range candidates {
		if candidates[i].Code == "61091000" {
			mapped = &candidates[i]
		}
	}
	require.NotNil(t, mapped, "unlisted statistical line maps to its tariff line")

	var hasOracleFactor bool
	for _, f := range mapped.ScoringFactors {
		hasOracleFactor = hasOracleFactor || f.Name == FactorOracleRank
	}
	assert.True(t, hasOracleFactor)
}

func TestRanker_OracleOnlyCandidate(t *testing.T) {
	oracle := &stubOracle{candidates: []model.OracleCandidate{
		{Code: "420292", Rationale: "plastic-sheeting handbag", Rank: 1},
	}}
	r := New(rankerStore(t), nil, oracle, DefaultConfig())

	result, err := r.Classify(context.Background(), Request{Description: "ladies handbag"})
	require.NoError(t, err)

	codes := []string{result.Primary.Code}
	for _, alt := range result.Alternatives {
		codes = append(codes, alt.Code)
	}
	assert.Contains(t, codes, "420292")
}

func TestRanker_OracleTimeoutDegradesToKeywords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OracleTimeout = 10 * time.Millisecond
	oracle := &stubOracle{delay: time.Second}
	r := New(rankerStore(t), nil, oracle, cfg)

	start := time.Now()
	result, err := r.Classify(context.Background(), Request{Description: "men's cotton t-shirt"})
	require.NoError(t, err)

	assert.True(t, result.OracleDegraded)
	assert.Equal(t, "6109100010", result.Primary.Code, "keyword ranking still answers")
	assert.Less(t, time.Since(start), 500*time.Millisecond, "classification must not wait out the oracle")
}

func TestRanker_OracleErrorDegradesToKeywords(t *testing.T) {
	oracle := &stubOracle{err: errors.New("boom")}
	r := New(rankerStore(t), nil, oracle, DefaultConfig())

	result, err := r.Classify(context.Background(), Request{Description: "men's cotton t-shirt"})
	require.NoError(t, err)
	assert.True(t, result.OracleDegraded)
}

func TestRanker_NeedsClarification(t *testing.T) {
	r := newKeywordRanker(t)

	// Only one of the tokens lands, which is too vague to clear the threshold.
	result, err := r.Classify(context.Background(), Request{Description: "blue garment"})
	require.NoError(t, err)

	assert.True(t, result.NeedsClarification)
	assert.NotEmpty(t, result.Questions)
	assert.LessOrEqual(t, len(result.Questions), DefaultConfig().MaxQuestions)
	for _, q := range result.Questions {
		assert.NotEmpty(t, q.Question)
		assert.NotEmpty(t, q.Codes)
	}
}

func TestRanker_ResidualOtherCarriesExclusions(t *testing.T) {
	oracle := &stubOracle{candidates: []model.OracleCandidate{
		{Code: "6109100090", Rationale: "residual line", Rank: 1},
	}}
	r := New(rankerStore(t), nil, oracle, DefaultConfig())

	result, err := r.Classify(context.Background(), Request{Description: "women's cotton t-shirt"})
	require.NoError(t, err)

	var residual *model.ClassificationCandidate
	if result.Primary.IsOther {
		residual = result.Primary
	} else {
		for i := range result.Alternatives {
			if result.Alternatives[i].Code == "6109100090" {
				residual = &result.Alternatives[i]
			}
		}
	}
	require.NotNil(t, residual)
	assert.True(t, residual.IsOther)
	assert.Equal(t, []string{"6109100010"}, residual.OtherExclusions,
		"an 'other' basket must enumerate the specific siblings it rules out")
}

func TestRanker_ConditionalOnMissingFacts(t *testing.T) {
	oracle := &stubOracle{candidates: []model.OracleCandidate{
		{Code: "420299", Rationale: "other handbag", Rank: 1},
	}}
	r := New(rankerStore(t), nil, oracle, DefaultConfig())

	result, err := r.Classify(context.Background(), Request{Description: "handbag suitcase container"})
	require.NoError(t, err)
	require.True(t, result.Primary.IsOther)

	// The excluded sibling is value-gated and no unit value was supplied.
	assert.True(t, result.ConditionalClassification)
	assert.Contains(t, result.MissingFacts, "unit value")
}

func TestRanker_AttachesDuties(t *testing.T) {
	resolver := &stubResolver{}
	r := New(rankerStore(t), resolver, nil, DefaultConfig())

	result, err := r.Classify(context.Background(), Request{
		Description: "men's cotton t-shirt",
		Hints:       model.ClassificationHints{CountryOfOrigin: "CN"},
		AsOf:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NotNil(t, result.Primary.Duty)
	assert.InDelta(t, 41.5, result.Primary.Duty.EffectiveRate, 1e-9)
	assert.Equal(t, 1+len(result.Alternatives), resolver.calls)
}

func TestRanker_DutyResolutionFailureIsNonFatal(t *testing.T) {
	resolver := &stubResolver{err: errors.New("registry down")}
	r := New(rankerStore(t), resolver, nil, DefaultConfig())

	result, err := r.Classify(context.Background(), Request{
		Description: "men's cotton t-shirt",
		Hints:       model.ClassificationHints{CountryOfOrigin: "CN"},
	})
	require.NoError(t, err)
	assert.Nil(t, result.Primary.Duty)
}

func TestBuildRecord(t *testing.T) {
	r := newKeywordRanker(t)
	req := Request{Description: "men's cotton t-shirt", Hints: model.ClassificationHints{CountryOfOrigin: "VN"}}

	result, err := r.Classify(context.Background(), req)
	require.NoError(t, err)

	record := BuildRecord(req, result)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "men's cotton t-shirt", record.Description)
	assert.Equal(t, result.Primary.Code, record.PrimaryCode)
	assert.InDelta(t, result.Primary.Confidence, record.Confidence, 1e-9)
	assert.Len(t, record.Alternatives, len(result.Alternatives))
	assert.False(t, record.CreatedAt.IsZero())
}
