// Package oracle adapts the external inference collaborator that proposes
// HTS codes for free-text product descriptions. The engine treats it as a
// capability interface with an explicit timeout and a keyword-only fallback;
// classification never blocks indefinitely on it.
package oracle

import (
	"context"

	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

// Client defines the interface for inference providers.
type Client interface {
	Infer(ctx context.Context, prompt string) (InferenceResponse, error)
}

// InferenceResponse contains the provider's raw candidate suggestions.
type InferenceResponse struct {
	Candidates []model.OracleCandidate
}
