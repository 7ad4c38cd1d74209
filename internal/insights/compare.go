package insights

import (
	"sort"

	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/pkg/utils"
)

// Compare builds rating, sentiment, and theme comparisons across banks.
func Compare(reviews []models.Review) models.Comparison {
	banks, groups := models.GroupByBank(reviews)
	return models.Comparison{
		Ratings:   compareRatings(banks, groups),
		Sentiment: compareSentiment(banks, groups),
		Themes:    compareThemes(banks, groups),
	}
}

// compareRatings returns mean, sample standard deviation, and count per bank,
// highest mean first.
func compareRatings(banks []string, groups map[string][]models.Review) []models.RatingStats {
	out := make([]models.RatingStats, 0, len(banks))
	for _, bank := range banks {
		ratings := make([]float64, len(groups[bank]))
		for i, r := range groups[bank] {
			ratings[i] = float64(r.Rating)
		}
		out = append(out, models.RatingStats{
			Bank:   bank,
			Mean:   utils.Round(utils.Mean(ratings), 2),
			StdDev: utils.Round(utils.SampleStdDev(ratings), 2),
			Count:  len(ratings),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out
}

func compareSentiment(banks []string, groups map[string][]models.Review) []models.SentimentShare {
	out := make([]models.SentimentShare, 0, len(banks))
	for _, bank := range banks {
		counts := map[models.Label]int{}
		for _, r := range groups[bank] {
			counts[r.SentimentLabel]++
		}
		share := models.SentimentShare{Bank: bank, Percents: make(map[models.Label]float64, len(models.Labels))}
		for _, l := range models.Labels {
			share.Percents[l] = utils.Round(utils.Percent(counts[l], len(groups[bank])), 2)
		}
		out = append(out, share)
	}
	return out
}

// compareThemes counts reviews per theme per bank. Every bank lists every theme
// seen anywhere, with zero where it has none.
func compareThemes(banks []string, groups map[string][]models.Review) []models.ThemeFrequency {
	all := map[string]bool{}
	for _, bank := range banks {
		for _, r := range groups[bank] {
			for _, th := range r.Themes {
				all[th] = true
			}
		}
	}
	out := make([]models.ThemeFrequency, 0, len(banks))
	for _, bank := range banks {
		tf := models.ThemeFrequency{Bank: bank, Counts: make(map[string]int, len(all))}
		for th := range all {
			tf.Counts[th] = 0
		}
		for _, r := range groups[bank] {
			for _, th := range r.Themes {
				tf.Counts[th]++
			}
		}
		out = append(out, tf)
	}
	return out
}
