package classify

import (
	"sort"
	"strings"
)

// stopwords are tokens too common in schedule descriptions to carry signal.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "is": true, "its": true,
	"made": true, "nesoi": true, "not": true, "of": true, "on": true,
	"or": true, "other": true, "similar": true, "than": true, "the": true,
	"to": true, "whether": true, "with": true,
}

// materialChapters steers candidate generation toward plausible chapters
// when a material is known or detected.
var materialChapters = map[string][]string{
	"cotton":    {"52", "61", "62", "63"},
	"wool":      {"51", "61", "62"},
	"silk":      {"50", "61", "62"},
	"polyester": {"54", "55", "61", "62", "63"},
	"nylon":     {"54", "61", "62"},
	"leather":   {"41", "42", "64"},
	"rubber":    {"40", "64"},
	"plastic":   {"39", "42", "94"},
	"wood":      {"44", "94"},
	"paper":     {"48", "49"},
	"glass":     {"70"},
	"ceramic":   {"69"},
	"steel":     {"72", "73", "82", "83"},
	"iron":      {"72", "73"},
	"aluminum":  {"76"},
	"copper":    {"74"},
	"electronic": {"84", "85", "90"},
	"electric":   {"84", "85"},
}

// tokenize lowercases, strips punctuation, and drops stopwords, returning
// the unique tokens in sorted order for deterministic scoring.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})

	seen := make(map[string]bool)
	var out []string
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// overlap computes the proportion of query tokens found in the target set,
// with singular/plural tolerance. Ranges 0-1.
func overlap(query, target []string) float64 {
	if len(query) == 0 {
		return 0
	}
	targetSet := make(map[string]bool, len(target))
	for _, tok := range target {
		targetSet[tok] = true
	}

	matches := 0
	for _, tok := range query {
		if targetSet[tok] || targetSet[tok+"s"] || (strings.HasSuffix(tok, "s") && targetSet[strings.TrimSuffix(tok, "s")]) {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

// detectMaterial returns the first known material mentioned in the token
// set, scanning alphabetically for determinism.
func detectMaterial(tokens []string) string {
	for _, tok := range tokens {
		key := strings.TrimSuffix(tok, "s")
		if _, ok := materialChapters[key]; ok {
			return key
		}
	}
	return ""
}

// plausibleChapters returns the chapter set to search for a material, or nil
// when the material is unknown and every chapter is in play.
func plausibleChapters(material string) []string {
	chapters, ok := materialChapters[material]
	if !ok {
		return nil
	}
	out := make([]string, len(chapters))
	copy(out, chapters)
	sort.Strings(out)
	return out
}
