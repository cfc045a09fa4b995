package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

// factorQuestion maps a scoring factor to the structured fact that would
// separate candidates disagreeing on it.
var factorQuestions = map[string]struct {
	field    string
	question string
}{
	FactorMaterialMatch: {"material", "What material is the product primarily made of?"},
	FactorChapterMatch:  {"intendedUse", "What is the product's primary function or intended use?"},
	FactorOracleRank:    {"description", "Can you describe the product in more detail?"},
}

// buildQuestions derives up to MaxQuestions targeted disambiguating
// questions from the scoring factors that differ most among the top
// candidates, so the caller asks only what actually matters.
func (r *Ranker) buildQuestions(top model.CandidateList) []model.ClarifyingQuestion {
	if len(top) < 2 {
		return nil
	}

	// Spread per factor name across the top candidates.
	minW := make(map[string]float64)
	maxW := make(map[string]float64)
	for _, c := range top {
		weights := make(map[string]float64)
		for _, f := range c.ScoringFactors {
			weights[f.Name] += f.Weight
		}
		for name := range factorQuestions {
			w := weights[name]
			if cur, ok := minW[name]; !ok || w < cur {
				minW[name] = w
			}
			if cur, ok := maxW[name]; !ok || w > cur {
				maxW[name] = w
			}
		}
	}

	type spread struct {
		name  string
		width float64
	}
	spreads := make([]spread, 0, len(factorQuestions))
	for name := range factorQuestions {
		if width := maxW[name] - minW[name]; width > 0.01 {
			spreads = append(spreads, spread{name: name, width: width})
		}
	}
	sort.Slice(spreads, func(i, j int) bool {
		if spreads[i].width != spreads[j].width {
			return spreads[i].width > spreads[j].width
		}
		return spreads[i].name < spreads[j].name
	})

	codes := make([]string, len(top))
	for i, c := range top {
		codes[i] = c.Code
	}

	var questions []model.ClarifyingQuestion
	for _, s := range spreads {
		if len(questions) >= r.cfg.MaxQuestions {
			break
		}
		fq := factorQuestions[s.name]
		questions = append(questions, model.ClarifyingQuestion{
			Field:    fq.field,
			Question: fq.question,
			Codes:    codes,
		})
	}

	// Always offer a description-level separator when nothing structured
	// differs: the top candidates then diverge only on wording.
	if len(questions) == 0 {
		questions = append(questions, model.ClarifyingQuestion{
			Field:    "description",
			Question: descriptionQuestion(top),
			Codes:    codes,
		})
	}

	return questions
}

func descriptionQuestion(top model.CandidateList) string {
	descs := make([]string, 0, len(top))
	for _, c := range top {
		if c.Description != "" {
			descs = append(descs, fmt.Sprintf("%q (%s)", c.Description, c.Code))
		}
	}
	return "Which best describes the product: " + strings.Join(descs, " or ") + "?"
}
