package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/reviewlens/internal/models"
)

// Workbook sheet names, in tab order.
const (
	SheetSummary         = "Summary"
	SheetRatings         = "Ratings"
	SheetSentiment       = "Sentiment"
	SheetDrivers         = "Drivers"
	SheetPainPoints      = "Pain Points"
	SheetRecommendations = "Recommendations"
	SheetThemes          = "Themes"
)

type sheet struct {
	name   string
	header []string
	rows   [][]interface{}
}

// WriteWorkbook writes the insights workbook: one sheet per report section,
// header row in bold.
func WriteWorkbook(w io.Writer, report *models.RunReport) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sheets := []sheet{
		summarySheet(report),
		ratingsSheet(report.Insights.Comparison),
		sentimentSheet(report.Insights.Comparison),
		categorySheet(SheetDrivers, report.Insights.Banks, func(b models.BankInsights) []models.CategoryInsight { return b.Drivers }),
		categorySheet(SheetPainPoints, report.Insights.Banks, func(b models.BankInsights) []models.CategoryInsight { return b.PainPoints }),
		recommendationsSheet(report.Insights.Banks),
		themesSheet(report.Themes),
	}
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s, bold); err != nil {
			return fmt.Errorf("write sheet %s: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)

	_, err = f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	header := make([]interface{}, len(s.header))
	for i, h := range s.header {
		header[i] = h
	}
	rows := append([][]interface{}{header}, s.rows...)
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &rows[i]); err != nil {
			return err
		}
	}
	return f.SetRowStyle(s.name, 1, 1, headerStyle)
}

func summarySheet(r *models.RunReport) sheet {
	s := sheet{name: SheetSummary, header: []string{"Metric", "Value", "Target", "Met"}}
	s.rows = [][]interface{}{
		{"Run ID", r.RunID},
		{"Input", r.InputPath},
		{"Started", r.StartedAt.Format(time.RFC3339)},
		{"Finished", r.FinishedAt.Format(time.RFC3339)},
		{"Reviews", r.Quality.TotalRecords},
		{"Sentiment mode", r.Sentiment.Mode},
	}
	if r.Persisted != nil {
		s.rows = append(s.rows, []interface{}{"Inserted", r.Persisted.Inserted})
	}
	for _, k := range r.KPIs {
		s.rows = append(s.rows, []interface{}{k.Name, k.Value, k.Target, k.Met})
	}
	return s
}

func ratingsSheet(c models.Comparison) sheet {
	s := sheet{name: SheetRatings, header: []string{"Bank", "Mean", "Std", "Count"}}
	for _, r := range c.Ratings {
		s.rows = append(s.rows, []interface{}{r.Bank, r.Mean, r.StdDev, r.Count})
	}
	return s
}

func sentimentSheet(c models.Comparison) sheet {
	header := []string{"Bank"}
	for _, l := range models.Labels {
		header = append(header, string(l)+" %")
	}
	s := sheet{name: SheetSentiment, header: header}
	for _, share := range c.Sentiment {
		row := []interface{}{share.Bank}
		for _, l := range models.Labels {
			row = append(row, share.Percents[l])
		}
		s.rows = append(s.rows, row)
	}
	return s
}

func categorySheet(name string, banks []models.BankInsights, pick func(models.BankInsights) []models.CategoryInsight) sheet {
	s := sheet{name: name, header: []string{"Bank", "Category", "Count", "Percentage", "Example"}}
	for _, b := range banks {
		for _, c := range pick(b) {
			example := ""
			if len(c.Examples) > 0 {
				example = c.Examples[0]
			}
			s.rows = append(s.rows, []interface{}{b.Bank, c.Category, c.Count, c.Percentage, example})
		}
	}
	return s
}

func recommendationsSheet(banks []models.BankInsights) sheet {
	s := sheet{name: SheetRecommendations, header: []string{"Bank", "Priority", "Type", "Category", "Title", "Description", "Affected Reviews"}}
	for _, b := range banks {
		for _, r := range b.Recommendations {
			s.rows = append(s.rows, []interface{}{b.Bank, r.Priority, r.Type, r.Category, r.Title, r.Description, r.AffectedReviews})
		}
	}
	return s
}

func themesSheet(banks []models.BankThemes) sheet {
	s := sheet{name: SheetThemes, header: []string{"Bank", "Theme", "Reviews", "Keywords"}}
	for _, b := range banks {
		terms := make(map[string][]string, len(b.Themes))
		for _, t := range b.Themes {
			terms[t.Theme] = t.Terms
		}
		for _, tc := range b.TopThemes {
			s.rows = append(s.rows, []interface{}{b.Bank, tc.Theme, tc.Reviews, strings.Join(terms[tc.Theme], ", ")})
		}
	}
	return s
}
