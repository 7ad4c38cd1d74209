package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/hyperjump/reviewlens/internal/models"
)

func extractCSV(content []byte) ([]models.RawReview, error) {
	r := csv.NewReader(bytes.NewReader(sanitizeText(content)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	return fromTable(rows)
}
