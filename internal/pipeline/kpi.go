package pipeline

import (
	"fmt"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/models"
)

// collectKPIs gathers the informational targets of a run: the cleaner's
// quality KPIs, sentiment coverage, distinct themes per bank, and inserted
// rows when the run persisted.
func collectKPIs(report *models.RunReport, reviews []models.Review, kpi config.KPIConfig) []models.KPI {
	kpis := append([]models.KPI{}, report.Quality.KPIs...)
	kpis = append(kpis, models.KPI{
		Name:   "sentiment_coverage_percent",
		Value:  report.Sentiment.Coverage,
		Target: fmt.Sprintf(">= %g", kpi.MinSentimentCoverage),
		Met:    report.Sentiment.Coverage >= kpi.MinSentimentCoverage,
	})
	kpis = append(kpis, themeKPIs(reviews, kpi.MinThemesPerBank)...)
	if report.Persisted != nil {
		kpis = append(kpis, models.KPI{
			Name:   "inserted_reviews",
			Value:  float64(report.Persisted.Inserted),
			Target: fmt.Sprintf(">= %d", kpi.MinInserted),
			Met:    report.Persisted.Inserted >= kpi.MinInserted,
		})
	}
	return kpis
}

// themeKPIs counts the distinct themes tagged on each bank's reviews.
func themeKPIs(reviews []models.Review, target int) []models.KPI {
	banks, groups := models.GroupByBank(reviews)
	out := make([]models.KPI, 0, len(banks))
	for _, bank := range banks {
		seen := map[string]bool{}
		for _, r := range groups[bank] {
			for _, t := range r.Themes {
				seen[t] = true
			}
		}
		out = append(out, models.KPI{
			Name:   "themes_per_bank:" + bank,
			Value:  float64(len(seen)),
			Target: fmt.Sprintf(">= %d", target),
			Met:    len(seen) >= target,
		})
	}
	return out
}
