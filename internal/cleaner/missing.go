package cleaner

import (
	"math"
	"strings"

	"github.com/hyperjump/reviewlens/internal/models"
)

// Rating bounds. A missing rating takes the sentinel value, which the range filter then drops.
const (
	MinRating     = 1
	MaxRating     = 5
	missingRating = 0
)

// DropCounts records why records were removed.
type DropCounts struct {
	MissingText   int
	InvalidRating int
	MissingBank   int
}

// HandleMissing converts raw records into reviews, dropping those without
// usable text, rating, or bank. A rating must be a whole number in range;
// 4.9 is as invalid as 9. Dates are carried through untouched; an
// unknown date is never a reason to drop a record.
func HandleMissing(raw []models.RawReview) ([]models.Review, DropCounts) {
	var drops DropCounts
	out := make([]models.Review, 0, len(raw))
	for _, r := range raw {
		if r.Text == nil || strings.TrimSpace(*r.Text) == "" {
			drops.MissingText++
			continue
		}
		rating := float64(missingRating)
		if r.Rating != nil && !math.IsNaN(*r.Rating) {
			rating = *r.Rating
		}
		if rating < MinRating || rating > MaxRating || rating != math.Trunc(rating) {
			drops.InvalidRating++
			continue
		}
		bank := strings.TrimSpace(r.Bank)
		if bank == "" {
			drops.MissingBank++
			continue
		}
		var date *string
		if r.Date != nil {
			d := *r.Date
			date = &d
		}
		out = append(out, models.Review{
			Text:   *r.Text,
			Rating: int(rating),
			Date:   date,
			Bank:   bank,
			Source: r.Source,
			Themes: []string{},
		})
	}
	return out, drops
}
