package extract

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/reviewlens/internal/models"
)

// extractExcel reads the first sheet of a workbook.
func extractExcel(content []byte) ([]models.RawReview, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return fromTable(rows)
}
