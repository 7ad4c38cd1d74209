// Package export writes run artifacts: the enriched review CSV, the JSON run
// report, the insights workbook, and the plain-text insights report.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hyperjump/reviewlens/internal/insights"
	"github.com/hyperjump/reviewlens/internal/models"
)

// Artifact file names inside the output directory.
const (
	EnrichedCSVName = "reviews_enriched.csv"
	ReportJSONName  = "report.json"
	WorkbookName    = "insights.xlsx"
	ReportTextName  = "insights_report.txt"
	CleanedCSVName  = "reviews_clean.csv"
)

// noThemes fills the themes column of reviews that matched no theme.
const noThemes = "None"

// CleanedHeader is the column order of the cleaned CSV.
var CleanedHeader = []string{"text", "rating", "date", "bank", "source"}

// EnrichedHeader is the fixed column order of the enriched CSV.
var EnrichedHeader = []string{
	"text", "rating", "date", "bank", "source",
	"sentiment_label", "sentiment_score", "themes",
}

// Artifacts holds the paths of the files WriteAll produced.
type Artifacts struct {
	EnrichedCSV string `json:"enriched_csv"`
	ReportJSON  string `json:"report_json"`
	Workbook    string `json:"workbook"`
	ReportText  string `json:"report_text"`
	// Metrics is set by the pipeline, not by WriteAll.
	Metrics string `json:"metrics,omitempty"`
}

// WriteAll writes every artifact into dir, creating it if needed.
func WriteAll(dir string, reviews []models.Review, report *models.RunReport) (*Artifacts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	a := &Artifacts{
		EnrichedCSV: filepath.Join(dir, EnrichedCSVName),
		ReportJSON:  filepath.Join(dir, ReportJSONName),
		Workbook:    filepath.Join(dir, WorkbookName),
		ReportText:  filepath.Join(dir, ReportTextName),
	}

	steps := []struct {
		path  string
		write func(io.Writer) error
	}{
		{a.EnrichedCSV, func(w io.Writer) error { return WriteEnrichedCSV(w, reviews) }},
		{a.ReportJSON, func(w io.Writer) error { return WriteJSON(w, report) }},
		{a.Workbook, func(w io.Writer) error { return WriteWorkbook(w, report) }},
		{a.ReportText, func(w io.Writer) error { return insights.WriteText(w, &report.Insights) }},
	}
	for _, s := range steps {
		if err := writeFile(s.path, s.write); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", filepath.Base(path), cerr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteCleaned writes the cleaned collection to dir/CleanedCSVName and
// returns the file path.
func WriteCleaned(dir string, reviews []models.Review) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, CleanedCSVName)
	if err := writeFile(path, func(w io.Writer) error { return WriteCleanedCSV(w, reviews) }); err != nil {
		return "", err
	}
	return path, nil
}

// WriteCleanedCSV writes reviews in CleanedHeader order.
func WriteCleanedCSV(w io.Writer, reviews []models.Review) error {
	return writeCSV(w, CleanedHeader, reviews, baseColumns)
}

func baseColumns(r models.Review) []string {
	date := ""
	if r.Date != nil {
		date = *r.Date
	}
	return []string{r.Text, strconv.Itoa(r.Rating), date, r.Bank, r.Source}
}

func writeCSV(w io.Writer, header []string, reviews []models.Review, record func(models.Review) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range reviews {
		if err := cw.Write(record(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEnrichedCSV writes reviews with their sentiment and themes in
// EnrichedHeader order. Unknown dates are empty; themes are "; "-joined.
func WriteEnrichedCSV(w io.Writer, reviews []models.Review) error {
	return writeCSV(w, EnrichedHeader, reviews, func(r models.Review) []string {
		themes := noThemes
		if len(r.Themes) > 0 {
			themes = strings.Join(r.Themes, "; ")
		}
		return append(baseColumns(r),
			string(r.SentimentLabel),
			strconv.FormatFloat(r.SentimentScore, 'f', -1, 64),
			themes)
	})
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
