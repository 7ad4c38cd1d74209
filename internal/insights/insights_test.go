package insights

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/models"
)

func repeat(bank, text string, rating, n int, label models.Label, themes ...string) []models.Review {
	out := make([]models.Review, n)
	for i := range out {
		out[i] = models.Review{Text: text, Rating: rating, Bank: bank, SentimentLabel: label, Themes: append([]string{}, themes...)}
	}
	return out
}

func newAnalyzer() *Analyzer {
	return New(config.Default().Insights)
}

func TestAnalyze_DriverBelowThreshold(t *testing.T) {
	reviews := repeat("CBE", "Fast and quick transfers", 5, 8, models.LabelPositive)
	report := newAnalyzer().Analyze(reviews)
	cbe := report.Bank("CBE")
	if cbe == nil {
		t.Fatal("missing CBE insights")
	}
	for _, d := range cbe.Drivers {
		if d.Category == "Fast" {
			t.Errorf("Fast driver reported with only %d mentions", d.Count)
		}
	}
	if cbe.Drivers == nil || cbe.PainPoints == nil {
		t.Error("driver and pain point lists must be non-nil")
	}
}

func TestAnalyze_DriversPainPointsAndRecommendations(t *testing.T) {
	long := "fast app " + strings.Repeat("x", 200)
	var reviews []models.Review
	reviews = append(reviews, repeat("CBE", long, 5, 12, models.LabelPositive)...)
	reviews = append(reviews, repeat("CBE", "neutral words", 4, 3, models.LabelNeutral)...)
	reviews = append(reviews, repeat("CBE", "very slow loading", 1, 60, models.LabelNegative)...)
	reviews = append(reviews, repeat("CBE", "it keeps crashing", 2, 11, models.LabelNegative)...)
	reviews = append(reviews, repeat("CBE", "rated three", 3, 5, models.LabelNeutral)...)

	cbe := newAnalyzer().Analyze(reviews).Bank("CBE")
	if cbe.TotalReviews != 91 {
		t.Errorf("TotalReviews = %d", cbe.TotalReviews)
	}
	if len(cbe.Drivers) != 1 || cbe.Drivers[0].Category != "Fast" || cbe.Drivers[0].Count != 12 {
		t.Fatalf("drivers = %+v", cbe.Drivers)
	}
	if cbe.Drivers[0].Percentage != 80 {
		t.Errorf("percentage = %v, want share of the positive subset (12/15)", cbe.Drivers[0].Percentage)
	}
	ex := cbe.Drivers[0].Examples
	if len(ex) != 3 || len([]rune(ex[0])) != 103 || !strings.HasSuffix(ex[0], "...") {
		t.Errorf("examples = %q", ex)
	}

	if len(cbe.PainPoints) != 2 || cbe.PainPoints[0].Category != "Slow" || cbe.PainPoints[1].Category != "Crash" {
		t.Fatalf("pain points = %+v", cbe.PainPoints)
	}

	recs := cbe.Recommendations
	if len(recs) != 3 {
		t.Fatalf("recommendations = %+v", recs)
	}
	if recs[0].Title != "Optimize App Performance" || recs[0].Priority != PriorityHigh || recs[0].AffectedReviews != 60 {
		t.Errorf("rec 0 = %+v", recs[0])
	}
	if recs[1].Title != "Improve App Stability" || recs[1].Priority != PriorityMedium {
		t.Errorf("rec 1 = %+v", recs[1])
	}
	if recs[2].Title != "Expand Positive Features" || recs[2].Type != TypeEnhancement ||
		recs[2].Description != "Consider enhancing features that drive satisfaction. Currently identified 1 key drivers." {
		t.Errorf("rec 2 = %+v", recs[2])
	}
}

func TestRecommend_TopPainPointsOnly(t *testing.T) {
	a := newAnalyzer()
	pains := []models.CategoryInsight{
		{Category: "Login", Count: 51}, {Category: "Support", Count: 50},
		{Category: "Missing", Count: 20}, {Category: "Slow", Count: 10},
	}
	drivers := make([]models.CategoryInsight, 3)
	recs := a.recommend(drivers, pains)
	if len(recs) != 3 {
		t.Fatalf("recs = %+v", recs)
	}
	if recs[0].Priority != PriorityHigh || recs[1].Priority != PriorityMedium {
		t.Errorf("priority uses count > 50: %+v", recs)
	}
	if recs[2].Title != "Address Feature Gaps" {
		t.Errorf("rec 2 = %+v", recs[2])
	}
}

func TestCompare(t *testing.T) {
	var reviews []models.Review
	reviews = append(reviews, repeat("BOA", "a", 2, 2, models.LabelNegative, "App Reliability")...)
	reviews = append(reviews, repeat("BOA", "b", 4, 2, models.LabelPositive)...)
	reviews = append(reviews, repeat("CBE", "c", 5, 3, models.LabelPositive, "Customer Support")...)
	reviews = append(reviews, repeat("CBE", "d", 3, 1, models.LabelNeutral, "Customer Support", "App Reliability")...)

	cmp := Compare(reviews)
	if len(cmp.Ratings) != 2 || cmp.Ratings[0].Bank != "CBE" {
		t.Fatalf("ratings should be sorted by mean desc: %+v", cmp.Ratings)
	}
	if cmp.Ratings[0].Mean != 4.5 || cmp.Ratings[0].Count != 4 || cmp.Ratings[0].StdDev != 1 {
		t.Errorf("CBE ratings = %+v", cmp.Ratings[0])
	}
	if cmp.Ratings[1].Mean != 3 || cmp.Ratings[1].StdDev != 1.15 {
		t.Errorf("BOA ratings = %+v", cmp.Ratings[1])
	}

	boa := cmp.Sentiment[0]
	if boa.Bank != "BOA" || boa.Percents[models.LabelNegative] != 50 || boa.Percents[models.LabelNeutral] != 0 {
		t.Errorf("BOA sentiment = %+v", boa)
	}
	cbe := cmp.Sentiment[1]
	if cbe.Percents[models.LabelPositive] != 75 || cbe.Percents[models.LabelNeutral] != 25 {
		t.Errorf("CBE sentiment = %+v", cbe)
	}

	if cmp.Themes[0].Counts["Customer Support"] != 0 || cmp.Themes[0].Counts["App Reliability"] != 2 {
		t.Errorf("BOA themes = %+v", cmp.Themes[0])
	}
	if cmp.Themes[1].Counts["Customer Support"] != 4 || cmp.Themes[1].Counts["App Reliability"] != 1 {
		t.Errorf("CBE themes = %+v", cmp.Themes[1])
	}
}

func TestWriteText(t *testing.T) {
	var reviews []models.Review
	reviews = append(reviews, repeat("Dashen", "very slow app", 1, 12, models.LabelNegative)...)
	reviews = append(reviews, repeat("Dashen", "good", 5, 2, models.LabelPositive)...)
	report := newAnalyzer().Analyze(reviews)

	var buf bytes.Buffer
	if err := WriteText(&buf, report); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"INSIGHTS AND RECOMMENDATIONS REPORT",
		"BANK: Dashen",
		"No significant drivers identified.",
		"1. Slow",
		"- Mentioned in 12 negative reviews (100.0%)",
		"1. [Medium Priority] Optimize App Performance",
		"BANK COMPARISON",
		"Dashen: 1.57 (from 14 reviews)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
