// Package sentiment scores review text as positive, negative, or neutral.
//
// Two backends share one contract: a pretrained ONNX text classifier and a
// deterministic lexicon scorer. A Scorer decides once at start-up which
// backend is primary and falls back to the lexicon per record when the
// primary fails.
package sentiment

import (
	"context"

	"github.com/hyperjump/reviewlens/internal/models"
)

// Thresholds on the lexicon compound score.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Result is a single scoring outcome.
type Result struct {
	Label   models.Label `json:"label"`
	Score   float64      `json:"score"`
	Backend string       `json:"backend"`
}

// Backend scores already-normalized, non-empty text.
type Backend interface {
	Name() string
	Score(ctx context.Context, text string) (Result, error)
}

// Mode records which backend a Scorer settled on at start-up.
type Mode string

const (
	// ModeModel means the classifier loaded and is primary, with per-record lexicon fallback.
	ModeModel Mode = "model"
	// ModeLexicon means every record is scored by the lexicon.
	ModeLexicon Mode = "lexicon"
)

// labelFromCompound applies the threshold policy to a compound polarity.
func labelFromCompound(compound float64) Result {
	switch {
	case compound >= PositiveThreshold:
		return Result{Label: models.LabelPositive, Score: compound, Backend: models.BackendLexicon}
	case compound <= NegativeThreshold:
		return Result{Label: models.LabelNegative, Score: -compound, Backend: models.BackendLexicon}
	default:
		if compound < 0 {
			compound = -compound
		}
		return Result{Label: models.LabelNeutral, Score: compound, Backend: models.BackendLexicon}
	}
}
