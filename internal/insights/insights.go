// Package insights derives satisfaction drivers, pain points, cross-bank
// comparisons, and recommendations from scored and tagged reviews.
package insights

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/internal/normalize"
	"github.com/hyperjump/reviewlens/pkg/utils"
)

// Analyzer is stateless apart from its thresholds.
type Analyzer struct {
	cfg    config.InsightsConfig
	logger *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// New returns an analyzer using cfg thresholds.
func New(cfg config.InsightsConfig, opts ...Option) *Analyzer {
	a := &Analyzer{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = utils.OrNop(a.logger)
	return a
}

// Analyze builds per-bank insights, in order of first appearance, and the cross-bank comparison.
func (a *Analyzer) Analyze(reviews []models.Review) *models.InsightsReport {
	banks, groups := models.GroupByBank(reviews)
	report := &models.InsightsReport{Banks: make([]models.BankInsights, 0, len(banks))}
	for _, bank := range banks {
		bi := a.analyzeBank(bank, groups[bank])
		report.Banks = append(report.Banks, bi)
		a.logger.Info("bank insights",
			zap.String("bank", bank),
			zap.Int("reviews", bi.TotalReviews),
			zap.Int("drivers", len(bi.Drivers)),
			zap.Int("pain_points", len(bi.PainPoints)),
			zap.Int("recommendations", len(bi.Recommendations)))
	}
	report.Comparison = Compare(reviews)
	return report
}

func (a *Analyzer) analyzeBank(bank string, reviews []models.Review) models.BankInsights {
	var positive, negative []models.Review
	for _, r := range reviews {
		if r.Rating >= a.cfg.PositiveRating {
			positive = append(positive, r)
		}
		if r.Rating <= a.cfg.NegativeRating {
			negative = append(negative, r)
		}
	}
	drivers := a.categorize(positive, DriverCategories)
	pains := a.categorize(negative, PainPointCategories)
	return models.BankInsights{
		Bank:            bank,
		TotalReviews:    len(reviews),
		Drivers:         drivers,
		PainPoints:      pains,
		Recommendations: a.recommend(drivers, pains),
	}
}

// categorize counts reviews mentioning any keyword of each category and keeps
// categories with at least MinReviews mentions, most mentioned first.
func (a *Analyzer) categorize(subset []models.Review, categories []Category) []models.CategoryInsight {
	texts := make([]string, len(subset))
	for i, r := range subset {
		texts[i] = normalize.Normalize(r.Text)
	}
	out := []models.CategoryInsight{}
	for _, cat := range categories {
		ci := models.CategoryInsight{Category: cat.Name, Examples: []string{}}
		for i, text := range texts {
			if !mentions(text, cat.Keywords) {
				continue
			}
			ci.Count++
			if len(ci.Examples) < a.cfg.ExampleCount {
				ci.Examples = append(ci.Examples, utils.Truncate(subset[i].Text, a.cfg.ExampleLength))
			}
		}
		if ci.Count < a.cfg.MinReviews {
			continue
		}
		ci.Percentage = utils.Round(utils.Percent(ci.Count, len(subset)), 2)
		out = append(out, ci)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func mentions(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// recommend maps the top pain points to remedies and suggests expanding
// positive features when too few drivers surfaced.
func (a *Analyzer) recommend(drivers, pains []models.CategoryInsight) []models.Recommendation {
	recs := []models.Recommendation{}
	for i, p := range pains {
		if i >= a.cfg.MaxRecommendations {
			break
		}
		rem, ok := remedies[p.Category]
		if !ok {
			continue
		}
		priority := PriorityMedium
		if p.Count > a.cfg.HighPriorityThreshold {
			priority = PriorityHigh
		}
		recs = append(recs, models.Recommendation{
			Type:            TypeImprovement,
			Category:        p.Category,
			Title:           rem.title,
			Description:     rem.description,
			Priority:        priority,
			AffectedReviews: p.Count,
		})
	}
	if len(drivers) < a.cfg.MinDrivers {
		recs = append(recs, models.Recommendation{
			Type:        TypeEnhancement,
			Title:       expandTitle,
			Description: fmt.Sprintf(expandDescription, len(drivers)),
			Priority:    PriorityMedium,
		})
	}
	return recs
}
