// Package models defines the core data types for reviews, sentiment, and insights.
package models

// Label is a sentiment class.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// Labels lists every sentiment class in reporting order.
var Labels = []Label{LabelPositive, LabelNegative, LabelNeutral}

// Backend names recorded on scored reviews.
const (
	BackendModel   = "model"
	BackendLexicon = "lexicon"
	BackendNone    = "none"
)

// RawReview is a review as it arrives from ingestion. Nil pointers mean the
// field was absent or null in the source.
type RawReview struct {
	Text   *string  `json:"review"`
	Rating *float64 `json:"rating"`
	Date   *string  `json:"date"`
	Bank   string   `json:"bank"`
	Source string   `json:"source"`
}

// Review is a cleaned review flowing through the pipeline. Identity is (Text, Bank).
type Review struct {
	Text             string   `json:"review"`
	Rating           int      `json:"rating"`
	Date             *string  `json:"date"`
	Bank             string   `json:"bank"`
	Source           string   `json:"source"`
	SentimentLabel   Label    `json:"sentiment_label,omitempty"`
	SentimentScore   float64  `json:"sentiment_score"`
	SentimentBackend string   `json:"sentiment_backend,omitempty"`
	Themes           []string `json:"themes"`
}

// Clone returns a copy of r that shares no mutable state with it.
func (r Review) Clone() Review {
	out := r
	if r.Date != nil {
		d := *r.Date
		out.Date = &d
	}
	out.Themes = append([]string{}, r.Themes...)
	return out
}

// CloneAll copies a review slice element by element.
func CloneAll(reviews []Review) []Review {
	out := make([]Review, len(reviews))
	for i, r := range reviews {
		out[i] = r.Clone()
	}
	return out
}

// GroupByBank returns reviews grouped by bank together with the banks in
// order of first appearance.
func GroupByBank(reviews []Review) (banks []string, groups map[string][]Review) {
	groups = make(map[string][]Review)
	for _, r := range reviews {
		if _, ok := groups[r.Bank]; !ok {
			banks = append(banks, r.Bank)
		}
		groups[r.Bank] = append(groups[r.Bank], r)
	}
	return banks, groups
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }
