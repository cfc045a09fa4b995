// Package optimize evaluates every plausible classification for a product
// and ranks the codes by total landed cost, surfacing legitimate savings
// against the classifier's primary pick.
package optimize

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chrishsmith/sourcify-sub007/internal/common"
	"github.com/chrishsmith/sourcify-sub007/internal/landedcost"
	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

const (
	defaultMaxResults = 20
	hardMaxResults    = 50
)

// CandidateGenerator is the slice of the classification ranker the optimizer
// needs: the breadth-first scored candidate set, unfiltered by confidence.
type CandidateGenerator interface {
	GenerateCandidates(ctx context.Context, description string, hints model.ClassificationHints) (model.CandidateList, bool, string)
}

// RateResolver resolves the effective duty rate for one code and origin.
type RateResolver interface {
	Resolve(ctx context.Context, code, country string, asOf time.Time) (*model.EffectiveTariffResult, error)
}

// Config holds configuration options for the optimizer.
type Config struct {
	Concurrency      int           // bounded fan-out width
	Timeout          time.Duration // overall operation timeout
	CandidateTimeout time.Duration // per-candidate resolution timeout

	// OnProgress, when set, is called after each candidate completes.
	OnProgress func(completed, total int)
}

// DefaultConfig returns the default optimizer configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency:      8,
		Timeout:          60 * time.Second,
		CandidateTimeout: 5 * time.Second,
	}
}

// Optimizer fans out rate resolution across candidate codes and ranks them
// by landed cost.
type Optimizer struct {
	generator CandidateGenerator
	resolver  RateResolver
	cfg       Config
}

// New creates an optimizer.
func New(generator CandidateGenerator, resolver RateResolver, cfg Config) *Optimizer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.CandidateTimeout <= 0 {
		cfg.CandidateTimeout = DefaultConfig().CandidateTimeout
	}
	return &Optimizer{generator: generator, resolver: resolver, cfg: cfg}
}

// Request is one optimization request.
type Request struct {
	ProductDescription string
	CountryOfOrigin    string
	UnitValue          float64
	Quantity           int
	MaxResults         int // 0 = default 20, capped at 50
	AsOf               time.Time
}

// Optimize generates the full candidate set for the product, resolves each
// candidate's landed cost concurrently, and returns the codes ranked by
// ascending cost. Candidates that fail or time out are dropped with a
// warning, never failing the whole run.
func (o *Optimizer) Optimize(ctx context.Context, req Request) (*model.OptimizerResult, error) {
	if req.ProductDescription == "" {
		return nil, fmt.Errorf("%w: product description is required", common.ErrInvalidInput)
	}
	if req.CountryOfOrigin == "" {
		return nil, fmt.Errorf("%w: country of origin is required", common.ErrInvalidInput)
	}
	if req.UnitValue <= 0 || req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: unit value and quantity must be positive", common.ErrInvalidInput)
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > hardMaxResults {
		maxResults = hardMaxResults
	}
	if req.AsOf.IsZero() {
		req.AsOf = time.Now().UTC()
	}

	hints := model.ClassificationHints{
		CountryOfOrigin: req.CountryOfOrigin,
		UnitValue:       req.UnitValue,
	}
	candidates, _, _ := o.generator.GenerateCandidates(ctx, req.ProductDescription, hints)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no plausible codes for description", common.ErrInvalidInput)
	}
	candidates.Sort()
	baseline := candidates[0].Code

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	productValue := req.UnitValue * float64(req.Quantity)
	input := model.LandedCostInput{
		CountryCode:  req.CountryOfOrigin,
		ProductValue: productValue,
		Quantity:     req.Quantity,
		IsOcean:      true,
	}

	var (
		mu        sync.Mutex
		costs     []model.CodeCost
		dropped   int
		completed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)

	for _, c := range candidates {
		candidate := c
		g.Go(func() error {
			cctx, ccancel := context.WithTimeout(gctx, o.cfg.CandidateTimeout)
			defer ccancel()

			tariff, err := o.resolver.Resolve(cctx, candidate.Code, req.CountryOfOrigin, req.AsOf)

			mu.Lock()
			defer mu.Unlock()
			completed++
			if o.cfg.OnProgress != nil {
				o.cfg.OnProgress(completed, len(candidates))
			}
			if err != nil {
				slog.Warn("dropping candidate from optimization", "code", candidate.Code, "error", err)
				dropped++
				return nil
			}

			in := input
			in.HTSCode = candidate.Code
			breakdown := landedcost.Compute(in, tariff)
			costs = append(costs, model.CodeCost{
				Code:          candidate.Code,
				Description:   candidate.Description,
				Confidence:    candidate.Confidence,
				EffectiveRate: tariff.EffectiveRate,
				LandedCost:    breakdown.TotalLandedCost,
				Stale:         tariff.Stale,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(costs) == 0 {
		return nil, fmt.Errorf("%w: every candidate failed rate resolution", common.ErrUpstreamUnavailable)
	}

	sort.Slice(costs, func(i, j int) bool {
		if costs[i].LandedCost != costs[j].LandedCost {
			return costs[i].LandedCost < costs[j].LandedCost
		}
		if costs[i].Confidence != costs[j].Confidence {
			return costs[i].Confidence > costs[j].Confidence
		}
		return costs[i].Code < costs[j].Code
	})

	baselineCost := costs[0].LandedCost
	for _, c := range costs {
		if c.Code == baseline {
			baselineCost = c.LandedCost
			break
		}
	}
	for i := range costs {
		costs[i].SavingsVsBaseline = model.Round2(baselineCost - costs[i].LandedCost)
	}

	evaluated := len(costs)
	if len(costs) > maxResults {
		costs = costs[:maxResults]
	}

	return &model.OptimizerResult{
		ApplicableCodes: costs,
		RecommendedCode: costs[0].Code,
		BaselineCode:    baseline,
		Evaluated:       evaluated,
		Dropped:         dropped,
	}, nil
}
