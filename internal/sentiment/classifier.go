package sentiment

import (
	"math"
	"strings"

	"github.com/hyperjump/reviewlens/internal/models"
)

// ClassifierConfig describes a binary text classifier exported to ONNX.
type ClassifierConfig struct {
	ModelPath string
	VocabPath string
	MaxTokens int
	MaxChars  int
	// Labels maps output index to model label name, e.g. [NEGATIVE, POSITIVE].
	Labels []string
}

// softmax converts logits to probabilities.
func softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxv := float64(logits[0])
	for _, v := range logits[1:] {
		maxv = math.Max(maxv, float64(v))
	}
	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v) - maxv)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// resultFromLogits picks the argmax class and maps its name onto a label.
// Names other than POSITIVE and NEGATIVE collapse to neutral.
func resultFromLogits(logits []float32, labels []string) Result {
	probs := softmax(logits)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	var name string
	if best < len(labels) {
		name = labels[best]
	}
	label := models.LabelNeutral
	switch strings.ToUpper(name) {
	case "POSITIVE", "POS", "LABEL_1":
		label = models.LabelPositive
	case "NEGATIVE", "NEG", "LABEL_0":
		label = models.LabelNegative
	}
	var conf float64
	if len(probs) > 0 {
		conf = probs[best]
	}
	return Result{Label: label, Score: conf, Backend: models.BackendModel}
}

// truncateChars cuts text to at most n characters.
func truncateChars(text string, n int) string {
	if n <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}
