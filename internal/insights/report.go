package insights

import (
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/reviewlens/internal/models"
)

const reportItems = 3

var rule = strings.Repeat("=", 70)

// WriteText renders the insights report as plain text.
func WriteText(w io.Writer, r *models.InsightsReport) error {
	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "INSIGHTS AND RECOMMENDATIONS REPORT")
	fmt.Fprintln(&b, rule)

	for _, bank := range r.Banks {
		fmt.Fprintf(&b, "\n%s\nBANK: %s\n%s\n", rule, bank.Bank, rule)

		fmt.Fprintln(&b, "\nSATISFACTION DRIVERS:")
		writeCategories(&b, bank.Drivers, "positive", "No significant drivers identified.")

		fmt.Fprintln(&b, "\nPAIN POINTS:")
		writeCategories(&b, bank.PainPoints, "negative", "No significant pain points identified.")

		fmt.Fprintln(&b, "\nRECOMMENDATIONS:")
		for i, rec := range bank.Recommendations {
			if i >= reportItems {
				break
			}
			fmt.Fprintf(&b, "  %d. [%s Priority] %s\n", i+1, rec.Priority, rec.Title)
			fmt.Fprintf(&b, "     %s\n", rec.Description)
		}
	}

	fmt.Fprintf(&b, "\n%s\nBANK COMPARISON\n%s\n", rule, rule)
	fmt.Fprintln(&b, "\nAverage Ratings:")
	for _, rs := range r.Comparison.Ratings {
		fmt.Fprintf(&b, "  %s: %.2f (from %d reviews)\n", rs.Bank, rs.Mean, rs.Count)
	}
	fmt.Fprintf(&b, "\n%s\n", rule)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeCategories(b *strings.Builder, cats []models.CategoryInsight, subset, empty string) {
	if len(cats) == 0 {
		fmt.Fprintf(b, "  %s\n", empty)
		return
	}
	for i, c := range cats {
		if i >= reportItems {
			break
		}
		fmt.Fprintf(b, "  %d. %s\n", i+1, c.Category)
		fmt.Fprintf(b, "     - Mentioned in %d %s reviews (%.1f%%)\n", c.Count, subset, c.Percentage)
	}
}
