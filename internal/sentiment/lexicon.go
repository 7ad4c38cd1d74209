package sentiment

import (
	"context"

	"github.com/jonreiter/govader"
)

// Lexicon is the rule-based fallback backend: VADER compound polarity.
// It is a pure function of its input.
type Lexicon struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewLexicon returns a scorer over VADER's bundled valence lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (l *Lexicon) Name() string { return "lexicon" }

// Score never fails.
func (l *Lexicon) Score(_ context.Context, text string) (Result, error) {
	return labelFromCompound(l.Compound(text)), nil
}

// Compound returns the normalized polarity of text in [-1, 1].
func (l *Lexicon) Compound(text string) float64 {
	return l.analyzer.PolarityScores(text).Compound
}
