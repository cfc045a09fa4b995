package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases and strips punctuation",
			input: "Men's Cotton T-Shirt",
			want:  []string{"cotton", "men", "shirt"},
		},
		{
			name:  "drops stopwords and duplicates",
			input: "of cotton, and similar cotton articles",
			want:  []string{"articles", "cotton"},
		},
		{
			name:  "drops single characters",
			input: "a b grade 5 widget",
			want:  []string{"grade", "widget"},
		},
		{
			name:  "empty input",
			input: "   ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.input))
		})
	}
}

func TestOverlap(t *testing.T) {
	target := []string{"cotton", "garments", "shirts"}

	tests := []struct {
		name  string
		query []string
		want  float64
	}{
		{"exact", []string{"cotton"}, 1},
		{"plural query matches singular-ish target", []string{"shirt"}, 1},
		{"singular target matches plural query", []string{"garments"}, 1},
		{"partial", []string{"cotton", "zipper"}, 0.5},
		{"none", []string{"zipper"}, 0},
		{"empty query", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, overlap(tt.query, target), 1e-9)
		})
	}
}

func TestDetectMaterial(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"direct mention", []string{"cotton", "shirt"}, "cotton"},
		{"plural form", []string{"plastics", "widget"}, "plastic"},
		{"first in sorted order wins", []string{"aluminum", "steel"}, "aluminum"},
		{"unknown", []string{"shirt", "widget"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectMaterial(tt.tokens))
		})
	}
}

func TestPlausibleChapters(t *testing.T) {
	assert.Equal(t, []string{"52", "61", "62", "63"}, plausibleChapters("cotton"))
	assert.Nil(t, plausibleChapters("unobtainium"))

	// Callers get a copy, not the shared table.
	got := plausibleChapters("cotton")
	got[0] = "99"
	assert.Equal(t, []string{"52", "61", "62", "63"}, plausibleChapters("cotton"))
}
