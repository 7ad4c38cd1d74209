package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/reviewlens/internal/models"
)

// Canonical field names of the ingestion contract.
const (
	fieldText   = "text"
	fieldRating = "rating"
	fieldDate   = "date"
	fieldBank   = "bank"
	fieldSource = "source"
)

// fieldAliases lists the accepted column names per field, preferred name first.
var fieldAliases = []struct {
	field string
	names []string
}{
	{fieldText, []string{"review", "text", "content"}},
	{fieldRating, []string{"rating", "score"}},
	{fieldDate, []string{"date", "at"}},
	{fieldBank, []string{"bank", "source_app", "app"}},
	{fieldSource, []string{"source", "origin"}},
}

var headerAliases = func() map[string]string {
	m := map[string]string{}
	for _, fa := range fieldAliases {
		for _, n := range fa.names {
			m[n] = fa.field
		}
	}
	return m
}()

// fieldOf resolves a header cell to a field, or "" for unknown columns.
func fieldOf(header string) string {
	return headerAliases[strings.ToLower(strings.TrimSpace(header))]
}

// columnIndex maps fields to column positions. The first matching column wins.
func columnIndex(header []string) (map[string]int, error) {
	idx := map[string]int{}
	for i, h := range header {
		f := fieldOf(strings.TrimPrefix(h, "\ufeff"))
		if f == "" {
			continue
		}
		if _, seen := idx[f]; !seen {
			idx[f] = i
		}
	}
	for _, required := range []string{fieldText, fieldBank} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}
	return idx, nil
}

// fromTable converts a header row plus data rows into raw reviews. Empty
// cells become nil; fully empty rows are skipped.
func fromTable(rows [][]string) ([]models.RawReview, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	idx, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}
	out := make([]models.RawReview, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		cell := func(field string) string {
			i, ok := idx[field]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		out = append(out, models.RawReview{
			Text:   optional(cell(fieldText)),
			Rating: parseRating(cell(fieldRating)),
			Date:   optional(strings.TrimSpace(cell(fieldDate))),
			Bank:   strings.TrimSpace(cell(fieldBank)),
			Source: strings.TrimSpace(cell(fieldSource)),
		})
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseRating returns nil for empty or non-numeric cells.
func parseRating(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
