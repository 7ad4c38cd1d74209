package cleaner

import (
	"fmt"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/pkg/utils"
)

// trackedFields are the fields counted toward the missing-data rate.
var trackedFields = []string{"text", "rating", "date", "bank"}

// Quality builds the data-quality report for a cleaned collection.
// Missing percent is total nulls over (records * tracked fields).
func Quality(reviews []models.Review, kpi config.KPIConfig) models.QualityReport {
	n := len(reviews)
	nulls := map[string]int{}
	ratings := map[int]int{}
	banks := map[string]int{}
	for _, r := range reviews {
		if r.Text == "" {
			nulls["text"]++
		}
		if r.Rating == missingRating {
			nulls["rating"]++
		}
		if r.Date == nil {
			nulls["date"]++
		}
		if r.Bank == "" {
			nulls["bank"]++
		}
		ratings[r.Rating]++
		banks[r.Bank]++
	}

	report := models.QualityReport{
		TotalRecords:       n,
		RatingDistribution: ratings,
		BankCounts:         banks,
	}
	total := 0
	for _, f := range trackedFields {
		report.Missing = append(report.Missing, models.FieldMissing{
			Field:   f,
			Missing: nulls[f],
			Percent: utils.Percent(nulls[f], n),
		})
		total += nulls[f]
	}
	report.MissingPercent = utils.Percent(total, n*len(trackedFields))
	report.KPIs = []models.KPI{
		{
			Name:   "missing_data_percent",
			Value:  report.MissingPercent,
			Target: fmt.Sprintf("< %g", kpi.MaxMissingPercent),
			Met:    n > 0 && report.MissingPercent < kpi.MaxMissingPercent,
		},
		{
			Name:   "total_records",
			Value:  float64(n),
			Target: fmt.Sprintf(">= %d", kpi.MinRecords),
			Met:    n >= kpi.MinRecords,
		},
	}
	return report
}
