package models

// CategoryInsight is a driver or pain point category with its supporting reviews.
type CategoryInsight struct {
	Category   string   `json:"category"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
	Examples   []string `json:"examples"`
}

// Recommendation is an improvement suggestion derived from pain points.
// Category is empty for the generic enhancement suggestion.
type Recommendation struct {
	Type            string `json:"type"`
	Category        string `json:"category,omitempty"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Priority        string `json:"priority"`
	AffectedReviews int    `json:"affected_reviews"`
}

// BankInsights holds drivers, pain points, and recommendations for one bank.
type BankInsights struct {
	Bank            string            `json:"bank"`
	TotalReviews    int               `json:"total_reviews"`
	Drivers         []CategoryInsight `json:"drivers"`
	PainPoints      []CategoryInsight `json:"pain_points"`
	Recommendations []Recommendation  `json:"recommendations"`
}

// RatingStats summarizes rating distribution for a bank.
type RatingStats struct {
	Bank   string  `json:"bank"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Count  int     `json:"count"`
}

// SentimentShare is the percentage of a bank's reviews carrying each label.
type SentimentShare struct {
	Bank     string            `json:"bank"`
	Percents map[Label]float64 `json:"percentages"`
}

// ThemeFrequency counts reviews per theme for a bank.
type ThemeFrequency struct {
	Bank   string         `json:"bank"`
	Counts map[string]int `json:"counts"`
}

// Comparison is the cross-bank view.
type Comparison struct {
	Ratings   []RatingStats    `json:"ratings"`
	Sentiment []SentimentShare `json:"sentiment"`
	Themes    []ThemeFrequency `json:"themes"`
}

// InsightsReport is the aggregator output.
type InsightsReport struct {
	Banks      []BankInsights `json:"banks"`
	Comparison Comparison     `json:"comparison"`
}

// Bank returns the insights for the named bank, or nil.
func (r *InsightsReport) Bank(name string) *BankInsights {
	for i := range r.Banks {
		if r.Banks[i].Bank == name {
			return &r.Banks[i]
		}
	}
	return nil
}
