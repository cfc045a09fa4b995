package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chrishsmith/sourcify-sub007/internal/common"
	"github.com/chrishsmith/sourcify-sub007/internal/model"
	"github.com/chrishsmith/sourcify-sub007/internal/service"
)

// Inferer implements service.Oracle on top of a provider Client, adding
// prompt construction, caching, rate limiting, and retries.
type Inferer struct {
	client      Client
	cache       *suggestionCache
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
	logger      *slog.Logger
}

// Config holds configuration for the inference oracle.
type Config struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	RetryDelay time.Duration
	CacheTTL   time.Duration
	RateLimit  int // requests per minute
	MaxTokens  int
}

// NewInferer creates an oracle for the configured provider. Provider "none"
// returns (nil, nil): the ranker treats a nil oracle as keyword-only mode.
func NewInferer(cfg Config, logger *slog.Logger) (*Inferer, error) {
	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return nil, nil
	case "openai":
		client, err = newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle client: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 2
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = 500 * time.Millisecond
	}

	return &Inferer{
		client:      client,
		cache:       newSuggestionCache(cfg.CacheTTL),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		retryOpts:   retryOpts,
		logger:      logger,
	}, nil
}

// Infer proposes candidate codes for a product description. Results are
// cached by (description, hints) so repeated classifications of the same
// product do not re-query the provider.
func (o *Inferer) Infer(ctx context.Context, description string, hints model.ClassificationHints) ([]model.OracleCandidate, error) {
	key := requestKey(description, hints)
	if cached, found := o.cache.get(key); found {
		o.logger.Debug("oracle cache hit", "key", key[:12])
		return cached, nil
	}

	if err := o.rateLimiter.wait(ctx); err != nil {
		return nil, err
	}

	prompt := buildPrompt(description, hints)

	var resp InferenceResponse
	err := common.WithRetry(ctx, func() error {
		var inferErr error
		resp, inferErr = o.client.Infer(ctx, prompt)
		return inferErr
	}, o.retryOpts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrOracleTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrOracleUnavailable, err)
	}

	o.cache.set(key, resp.Candidates)
	return resp.Candidates, nil
}

// Close releases background resources.
func (o *Inferer) Close() error {
	o.cache.Close()
	o.rateLimiter.Close()
	return nil
}

func requestKey(description string, hints model.ClassificationHints) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s", description, hints.CountryOfOrigin, hints.Material, hints.IntendedUse, hints.DestinationCountry)
	return hex.EncodeToString(h.Sum(nil))
}

func buildPrompt(description string, hints model.ClassificationHints) string {
	var b strings.Builder
	b.WriteString("Classify this product under the US Harmonized Tariff Schedule.\n\n")
	fmt.Fprintf(&b, "Product description: %s\n", description)
	if hints.Material != "" {
		fmt.Fprintf(&b, "Material: %s\n", hints.Material)
	}
	if hints.IntendedUse != "" {
		fmt.Fprintf(&b, "Intended use: %s\n", hints.IntendedUse)
	}
	if hints.CountryOfOrigin != "" {
		fmt.Fprintf(&b, "Country of origin: %s\n", hints.CountryOfOrigin)
	}
	b.WriteString(`
Respond with a JSON array of up to 5 candidates, most likely first:
[{"code": "10-digit HTS code", "rationale": "one sentence"}]`)
	return b.String()
}
