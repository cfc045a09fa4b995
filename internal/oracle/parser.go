package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

// parseCandidates extracts the JSON candidate array from a provider
// response, tolerating markdown code fences and surrounding prose that
// models emit despite instructions.
func parseCandidates(content string) ([]model.OracleCandidate, error) {
	content = strings.TrimSpace(content)

	if fenced := extractFenced(content); fenced != "" {
		content = fenced
	}

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in oracle response: %s", truncate(content, 100))
	}

	var raw []struct {
		Code      string `json:"code"`
		Rationale string `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse oracle candidates: %w", err)
	}

	candidates := make([]model.OracleCandidate, 0, len(raw))
	for i, r := range raw {
		if r.Code == "" {
			continue
		}
		candidates = append(candidates, model.OracleCandidate{
			Code:      r.Code,
			Rationale: r.Rationale,
			Rank:      i + 1,
		})
	}
	return candidates, nil
}

func extractFenced(content string) string {
	start := strings.Index(content, "```")
	if start == -1 {
		return ""
	}
	rest := content[start+3:]
	if nl := strings.Index(rest, "\n"); nl != -1 && len(rest[:nl]) < 10 {
		rest = rest[nl+1:] // skip the language tag line
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
