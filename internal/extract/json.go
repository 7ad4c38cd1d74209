package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/reviewlens/internal/models"
)

// extractJSON reads an array of objects keyed like the tabular headers.
// When several aliases of a field are present, the preferred one wins.
func extractJSON(content []byte) ([]models.RawReview, error) {
	var records []map[string]any
	if err := json.Unmarshal(sanitizeText(content), &records); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	out := make([]models.RawReview, 0, len(records))
	for _, rec := range records {
		lower := make(map[string]any, len(rec))
		for k, v := range rec {
			lower[strings.ToLower(strings.TrimSpace(k))] = v
		}
		value := func(field string) (string, bool) {
			for _, fa := range fieldAliases {
				if fa.field != field {
					continue
				}
				for _, n := range fa.names {
					if s, ok := jsonString(lower[n]); ok {
						return s, true
					}
				}
			}
			return "", false
		}

		var r models.RawReview
		if s, ok := value(fieldText); ok && s != "" {
			r.Text = &s
		}
		if s, ok := value(fieldRating); ok {
			r.Rating = parseRating(s)
		}
		if s, ok := value(fieldDate); ok {
			r.Date = optional(strings.TrimSpace(s))
		}
		bank, _ := value(fieldBank)
		source, _ := value(fieldSource)
		r.Bank = strings.TrimSpace(bank)
		r.Source = strings.TrimSpace(source)
		out = append(out, r)
	}
	return out, nil
}

// jsonString renders scalar JSON values as strings; null, missing, and composite values are absent.
func jsonString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
