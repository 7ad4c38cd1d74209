package sentiment

import (
	"math"
	"testing"

	"github.com/hyperjump/reviewlens/internal/models"
)

func TestResultFromLogits(t *testing.T) {
	labels := []string{"NEGATIVE", "POSITIVE"}
	pos := resultFromLogits([]float32{-1.5, 2.5}, labels)
	if pos.Label != models.LabelPositive || pos.Backend != models.BackendModel {
		t.Errorf("got %+v, want positive", pos)
	}
	want := 1 / (1 + math.Exp(-4))
	if math.Abs(pos.Score-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", pos.Score, want)
	}
	neg := resultFromLogits([]float32{3, -1}, labels)
	if neg.Label != models.LabelNegative {
		t.Errorf("got %+v, want negative", neg)
	}
	other := resultFromLogits([]float32{0, 1, 5}, []string{"NEGATIVE", "POSITIVE", "MIXED"})
	if other.Label != models.LabelNeutral {
		t.Errorf("unknown label should collapse to neutral, got %+v", other)
	}
}

func TestTruncateChars(t *testing.T) {
	if got := truncateChars("abcdef", 3); got != "abc" {
		t.Errorf("got %q", got)
	}
	if got := truncateChars("ab", 3); got != "ab" {
		t.Errorf("got %q", got)
	}
}
